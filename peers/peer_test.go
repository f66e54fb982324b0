// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package peers

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerShouldReconnectWhenIdle(t *testing.T) {
	p := NewPeer("p2", "10.0.0.2:1024")
	assert.True(t, p.ShouldReconnect(time.Now()))
}

func TestPeerLocalNeverReconnects(t *testing.T) {
	p := NewPeer("self", "")
	p.Local = true
	assert.False(t, p.ShouldReconnect(time.Now()))
}

func TestPeerShouldNotReconnectWhileConnecting(t *testing.T) {
	p := NewPeer("p2", "10.0.0.2:1024")
	p.MarkConnecting()
	assert.False(t, p.ShouldReconnect(time.Now()))
}

func TestPeerDisconnectSchedulesReconnectAfterGrace(t *testing.T) {
	p := NewPeer("p2", "10.0.0.2:1024")
	c1, c2 := net.Pipe()
	defer c2.Close()
	now := time.Now()
	p.MarkEstablished(c1, now)

	p.Disconnect(now)
	assert.False(t, p.ShouldReconnect(now))
	assert.True(t, p.ShouldReconnect(now.Add(reconnectGrace+time.Millisecond)))
}

func TestPeerEvaluateLivenessClearsAliveThenDisconnects(t *testing.T) {
	p := NewPeer("p2", "10.0.0.2:1024")
	c1, c2 := net.Pipe()
	defer c2.Close()
	now := time.Now()
	p.MarkEstablished(c1, now)
	require.True(t, p.Alive)

	p.EvaluateLiveness(now.Add(reconnectGrace + time.Millisecond))
	assert.False(t, p.Alive, "first silent tick only clears ALIVE")
	assert.Equal(t, PeerEstablished, p.Status)

	p.EvaluateLiveness(now.Add(2*reconnectGrace + 2*time.Millisecond))
	assert.Equal(t, PeerNone, p.Status, "second silent tick force-disconnects")
}

func TestPeerHeartbeatKeepsConnectionAlive(t *testing.T) {
	p := NewPeer("p2", "10.0.0.2:1024")
	c1, c2 := net.Pipe()
	defer c2.Close()
	now := time.Now()
	p.MarkEstablished(c1, now)

	p.MarkHeartbeat(now.Add(reconnectGrace - time.Millisecond))
	p.EvaluateLiveness(now.Add(reconnectGrace + time.Millisecond))
	assert.Equal(t, PeerEstablished, p.Status)
	assert.True(t, p.Alive)
}

func TestDuplicateBackoffWithinRange(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := DuplicateBackoff()
		assert.GreaterOrEqual(t, d, dupConnBackoffMin)
		assert.Less(t, d, dupConnBackoffMax)
	}
}
