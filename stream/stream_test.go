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

package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gobalance/gobalance/chn"
)

func TestStreamTunnelModeOnceAnalysersDrain(t *testing.T) {
	s := NewStream(nil, nil)
	s.Back.State = SIStateEST
	s.Front.State = SIStateEST

	s.maybeEnterTunnel()

	assert.EqualValues(t, chn.Infinite, s.Req.ToForward)
	assert.EqualValues(t, chn.Infinite, s.Res.ToForward)
}

func TestStreamConnectRetryRedispatches(t *testing.T) {
	s := NewStream(nil, nil)
	s.Back.State = SIStateCON
	s.Back.RetryCount = 3
	s.Back.Set(SIFlagError)

	now := time.Now()
	s.progressServerSide(now)

	assert.Equal(t, SIStateASS, s.Back.State)
	assert.Equal(t, 2, s.Back.RetryCount)
	assert.False(t, s.Back.Has(SIFlagError) && s.Back.RetryCount <= 0)
}

func TestConnectRetryDelayCapsAtOneSecond(t *testing.T) {
	assert.Equal(t, time.Second, connectRetryDelay(&Interface{ConnectTimeout: 5 * time.Second}))
	assert.Equal(t, time.Second, connectRetryDelay(&Interface{}))
	assert.Equal(t, 200*time.Millisecond, connectRetryDelay(&Interface{ConnectTimeout: 200 * time.Millisecond}))
}

func TestStreamConnectRetriesExhaustedCloses(t *testing.T) {
	s := NewStream(nil, nil)
	s.Back.State = SIStateCON
	s.Back.RetryCount = 0
	s.Back.Set(SIFlagError)

	s.progressServerSide(time.Now())

	assert.Equal(t, SIStateCLO, s.Back.State)
	assert.Equal(t, ErrSrvCl, s.Err)
}

func TestStreamShutdownPropagatesReqToBack(t *testing.T) {
	s := NewStream(nil, nil)
	s.Back.State = SIStateEST
	s.Req.ShutW()

	s.propagateShutdowns()

	assert.Equal(t, SIStateDIS, s.Back.State)
}

func TestStreamTerminalReconcileClosesPeer(t *testing.T) {
	s := NewStream(nil, nil)
	s.Front.State = SIStateCLO
	s.Back.State = SIStateINI

	s.reconcileTerminal()

	assert.Equal(t, SIStateCLO, s.Back.State)
	assert.True(t, s.Done())
}

func TestStreamCallRateSentinelAborts(t *testing.T) {
	s := NewStream(nil, nil)
	now := time.Now()

	// Each window below only evaluates the *previous* window's count once
	// it rolls over, so three consecutive overloaded windows are needed
	// before the second evaluation (at the start of window three) sees
	// two overloaded windows in a row.
	tripped := false
	for w := 0; w < 3; w++ {
		start := now.Add(time.Duration(w) * time.Second)
		for i := 0; i < maxCallsPerSecond+1; i++ {
			if s.sentinelTripped(start) {
				tripped = true
			}
		}
	}
	assert.True(t, tripped)
}

func TestStreamNextDeadlinePicksEarliest(t *testing.T) {
	s := NewStream(nil, nil)
	now := time.Now()
	s.Req.Rex = now.Add(5 * time.Second)
	s.Res.Wex = now.Add(2 * time.Second)
	s.Front.Exp = now.Add(time.Hour)

	d := s.nextDeadline()
	assert.Equal(t, s.Res.Wex, d)
}
