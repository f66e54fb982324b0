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

package chn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChannelShutdownLatches(t *testing.T) {
	c := NewChannel(16)

	c.ShutR()
	assert.True(t, c.IsShutR())
	c.ShutW()
	assert.True(t, c.IsShutW())
}

func TestChannelShutNowDeferredUntilDrained(t *testing.T) {
	c := NewChannel(16)
	c.Buf.Write([]byte("pending"))

	c.ShutWNow()
	assert.False(t, c.IsShutW(), "shutdown must wait for the buffer to drain")
	assert.True(t, c.Has(FlagShutWNow))

	c.Buf.Advance(c.Buf.Len())
	c.tryDeferredShut()
	assert.True(t, c.IsShutW())
}

func TestChannelShutNowImmediateWhenEmpty(t *testing.T) {
	c := NewChannel(16)
	c.ShutRNow()
	assert.True(t, c.IsShutR())
}

func TestChannelForward(t *testing.T) {
	c := NewChannel(16)
	c.Forward(100)
	assert.EqualValues(t, 100, c.ToForward)

	c.Forward(Infinite)
	assert.EqualValues(t, Infinite, c.ToForward)

	// Once infinite, further authorisations are a no-op.
	c.Forward(50)
	assert.EqualValues(t, Infinite, c.ToForward)
}

func TestChannelTimeouts(t *testing.T) {
	c := NewChannel(16)
	c.Rto = 10 * time.Millisecond

	now := time.Now()
	c.ArmRead(now)
	assert.False(t, c.DidReadTimeout(now))
	assert.True(t, c.DidReadTimeout(now.Add(20*time.Millisecond)))

	c.Rto = 0
	c.ArmRead(now)
	assert.True(t, c.Rex.IsZero())
	assert.False(t, c.DidReadTimeout(now.Add(time.Hour)))
}

func TestChannelAnalyserLoopDetection(t *testing.T) {
	c := NewChannel(16)
	c.SetAnalysers(0b0001)
	assert.False(t, c.HasAnalyserWork())

	c.Set(FlagAnalyzing)
	assert.True(t, c.HasAnalyserWork())

	c.SetAnalysers(0b0011)
	assert.False(t, c.HasAnalyserWork())
	assert.EqualValues(t, 0b0011, c.Analysers())
}

func TestChannelEnableDisableAnalyser(t *testing.T) {
	c := NewChannel(16)
	c.EnableAnalyser(0)
	c.EnableAnalyser(2)
	assert.EqualValues(t, 0b0101, c.Analysers())

	c.DisableAnalyser(0)
	assert.EqualValues(t, 0b0100, c.Analysers())
}
