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
	"math"
	"time"
)

// Flag is a bitmask of Channel state.
type Flag uint32

const (
	FlagShutR     Flag = 1 << iota // read side closed, no more bytes will arrive
	FlagShutW                      // write side closed, no more bytes may be sent
	FlagShutRNow                   // read shutdown requested, pending on empty buffer
	FlagShutWNow                   // write shutdown requested, pending on empty buffer
	FlagReadError                  // a read error was observed
	FlagWriteError                 // a write error was observed
	FlagReadTimeout
	FlagWriteTimeout
	FlagReadAttached // a producer (connection or applet) is wired to this channel
	FlagAutoClose    // shutr propagates to the peer's shutw automatically
	FlagNeverWait    // never delay forwarding to coalesce small writes
	FlagKernelSplice // kernel splicing negotiated for this direction
	FlagStreamer     // fast, steady producer hint
	FlagStreamerFast // producer is fast enough to justify splicing
	FlagAnalyzing    // an analyser is currently running on this channel
	FlagWakeOnce     // wake the stream task once without rescanning analysers
)

// Infinite marks ToForward as unbounded: once set, every byte received is
// forwarded without the application being consulted again.
const Infinite = math.MaxInt64

// Channel is a directional conduit: one Buffer, a flag set, byte counters
// and timeout/timer pairs. Request and response each get one.
type Channel struct {
	Buf *Buffer

	flags Flag

	// ToForward is how many bytes the application has authorised to pass
	// through without further inspection; decremented as data is written
	// out. Infinite once the stream has entered tunnel mode.
	ToForward int64

	// Total is the cumulative byte count ever written out on this channel.
	Total int64

	// Rex/Wex are the absolute deadlines for the next expected read/write
	// progress; zero means no deadline armed.
	Rex time.Time
	Wex time.Time

	// Rto/Wto are the configured read/write timeout durations used to
	// recompute Rex/Wex whenever the channel makes progress.
	Rto time.Duration
	Wto time.Duration

	analyzers uint32 // per-phase analyser bitmask, driven by the stream engine
	lastFlags Flag    // analyser-loop re-entry snapshot, see HasAnalyserWork
}

// NewChannel allocates a Channel backed by a size-byte Buffer.
func NewChannel(size int) *Channel {
	return &Channel{Buf: NewBuffer(size)}
}

func (c *Channel) Has(f Flag) bool { return c.flags&f != 0 }
func (c *Channel) Set(f Flag)      { c.flags |= f }
func (c *Channel) Clear(f Flag)    { c.flags &^= f }
func (c *Channel) Flags() Flag     { return c.flags }

// IsShutR reports whether the read side is fully closed.
func (c *Channel) IsShutR() bool { return c.Has(FlagShutR) }

// IsShutW reports whether the write side is fully closed.
func (c *Channel) IsShutW() bool { return c.Has(FlagShutW) }

// ShutR closes the read side immediately: once set, Write must reject any
// further store attempts from the producer.
func (c *Channel) ShutR() {
	c.Clear(FlagShutRNow)
	c.Set(FlagShutR)
}

// ShutW closes the write side immediately: once set, no more bytes may be
// written, matching the data-model invariant that SHUTW is a one-way latch.
func (c *Channel) ShutW() {
	c.Clear(FlagShutWNow)
	c.Set(FlagShutW)
}

// ShutRNow requests a read shutdown that becomes effective once the buffer
// is drained, or immediately if it already is.
func (c *Channel) ShutRNow() {
	if c.Has(FlagShutR) {
		return
	}
	c.Set(FlagShutRNow)
	c.tryDeferredShut()
}

// ShutWNow requests a write shutdown that becomes effective once the
// buffer is drained, or immediately if it already is.
func (c *Channel) ShutWNow() {
	if c.Has(FlagShutW) {
		return
	}
	c.Set(FlagShutWNow)
	c.tryDeferredShut()
}

// tryDeferredShut promotes a pending shutdown to effective once the buffer
// has no live bytes left to drain, per the data-model's pending-close rule.
func (c *Channel) tryDeferredShut() {
	if c.Buf.Len() != 0 {
		return
	}
	if c.Has(FlagShutRNow) {
		c.ShutR()
	}
	if c.Has(FlagShutWNow) {
		c.ShutW()
	}
}

// Forward authorises n additional bytes (or Infinite) to pass through
// without further application inspection.
func (c *Channel) Forward(n int64) {
	if c.ToForward == Infinite {
		return
	}
	if n == Infinite {
		c.ToForward = Infinite
		return
	}
	c.ToForward += n
}

// DidReadTimeout reports whether now is past the armed read deadline.
func (c *Channel) DidReadTimeout(now time.Time) bool {
	return !c.Rex.IsZero() && !now.Before(c.Rex)
}

// DidWriteTimeout reports whether now is past the armed write deadline.
func (c *Channel) DidWriteTimeout(now time.Time) bool {
	return !c.Wex.IsZero() && !now.Before(c.Wex)
}

// ArmRead (re)computes Rex from Rto relative to now; a zero Rto disarms it.
func (c *Channel) ArmRead(now time.Time) {
	if c.Rto <= 0 {
		c.Rex = time.Time{}
		return
	}
	c.Rex = now.Add(c.Rto)
}

// ArmWrite (re)computes Wex from Wto relative to now; a zero Wto disarms it.
func (c *Channel) ArmWrite(now time.Time) {
	if c.Wto <= 0 {
		c.Wex = time.Time{}
		return
	}
	c.Wex = now.Add(c.Wto)
}

// SetAnalysers replaces the channel's analyser bitmask and snapshots the
// current flag set, so HasAnalyserWork can tell whether the flags change
// afterwards.
func (c *Channel) SetAnalysers(mask uint32) {
	c.lastFlags = c.flags
	c.analyzers = mask
}

// Analysers returns the current analyser bitmask.
func (c *Channel) Analysers() uint32 { return c.analyzers }

// EnableAnalyser sets bit i (0 = least significant, dispatched first).
func (c *Channel) EnableAnalyser(i uint) { c.analyzers |= 1 << i }

// DisableAnalyser clears bit i.
func (c *Channel) DisableAnalyser(i uint) { c.analyzers &^= 1 << i }

// HasAnalyserWork reports whether the channel's flags changed since the
// last SetAnalysers snapshot, the condition process_stream uses to decide
// whether another walk of the analyser chain is warranted.
func (c *Channel) HasAnalyserWork() bool { return c.flags != c.lastFlags }
