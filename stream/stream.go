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
	"time"

	"github.com/gobalance/gobalance/chn"
	"github.com/gobalance/gobalance/common"
)

// Flag is a bitmask of stream-wide state.
type Flag uint32

const (
	FlagBEAssigned  Flag = 1 << iota // a backend has been selected
	FlagDirect                       // the server was picked directly (no load-balancing)
	FlagAssigned                     // a server has been picked within the backend
	FlagRedirectable                 // the request may still be redispatched to another server
	FlagCurrSess                     // counted in the backend's current-session gauge
	FlagMonitor                      // internal monitoring request, not logged or counted
	FlagHTX                          // message bodies are structured (htx), not a raw byte stream
)

// maxCallsPerSecond is the call-rate sentinel threshold: a stream hammering
// process_stream faster than this for two consecutive seconds is almost
// certainly stuck in a live-lock and gets aborted rather than spinning the
// executor forever.
const maxCallsPerSecond = 100000

// Stream owns one accepted client connection for its lifetime: two
// StreamInterfaces (client-facing "front", server-facing "back"), two
// Channels (request, response) and the bookkeeping process_stream needs to
// drive them to completion.
type Stream struct {
	Front *Interface
	Back  *Interface
	Req   *chn.Channel
	Res   *chn.Channel

	Flags Flag
	Err   ErrType
	Finst FinalState

	// Store is the bounded staging area for stick-table store-request and
	// store-response entries collected during the request/response
	// analyser passes, flushed once the transaction outcome is known.
	Store []StoreSlot

	reqAnalysers []Analyser
	resAnalysers []Analyser

	connectedAt time.Time

	callWindowStart time.Time
	callsInWindow   int
	overloadSeconds int
}

// StoreSlot is one pending stick-table write, deferred until the stream
// knows which server it landed on.
type StoreSlot struct {
	Table string
	Key   []byte
}

// NewStream allocates a Stream with fresh Channels and Interfaces. The
// reqAnalysers/resAnalysers tables are the ordered phase list the caller
// (controller) built for this frontend/backend pair; bit i of a channel's
// analyser mask dispatches to table[i].
func NewStream(reqAnalysers, resAnalysers []Analyser) *Stream {
	s := &Stream{
		Front:        NewInterface(),
		Back:         NewInterface(),
		Req:          chn.NewChannel(common.ReadWriteBlockSize),
		Res:          chn.NewChannel(common.ReadWriteBlockSize),
		reqAnalysers: reqAnalysers,
		resAnalysers: resAnalysers,
		Store:        make([]StoreSlot, 0, common.DefaultStoreDepth),
	}
	return s
}

// Done reports whether the stream has reached its terminal state: both
// interfaces closed and nothing left for any analyser to do.
func (s *Stream) Done() bool {
	return s.Front.State == SIStateCLO && s.Back.State == SIStateCLO &&
		s.Req.Analysers() == 0 && s.Res.Analysers() == 0
}

// Process runs one pass of process_stream at time now. It returns the next
// deadline the caller should schedule a wakeup for (the zero Time means no
// deadline, i.e. wait for an event) and whether the stream is finished and
// may be destroyed.
func (s *Stream) Process(now time.Time) (time.Time, bool) {
	if s.sentinelTripped(now) {
		s.abort(ErrInternal)
		return time.Time{}, true
	}

	s.escalateLowLevelErrors()
	s.progressServerSide(now)

	runAnalysers(s, s.Req, s.reqAnalysers)
	runAnalysers(s, s.Res, s.resAnalysers)

	s.propagateShutdowns()
	s.maybeEnterTunnel()
	s.reconcileTerminal()

	if s.Done() {
		return time.Time{}, true
	}
	return s.nextDeadline(), false
}

// sentinelTripped implements the call-rate live-lock detector: if Process
// is invoked more than maxCallsPerSecond times within a second, for two
// consecutive seconds, the stream is presumed stuck and must be aborted.
func (s *Stream) sentinelTripped(now time.Time) bool {
	if s.callWindowStart.IsZero() || now.Sub(s.callWindowStart) >= time.Second {
		if s.callsInWindow > maxCallsPerSecond {
			s.overloadSeconds++
		} else {
			s.overloadSeconds = 0
		}
		s.callWindowStart = now
		s.callsInWindow = 0
	}
	s.callsInWindow++
	return s.overloadSeconds >= 2
}

func (s *Stream) escalateLowLevelErrors() {
	for _, si := range []*Interface{s.Front, s.Back} {
		if si.State != SIStateEST && si.State != SIStateDIS {
			continue
		}
		if !si.Has(SIFlagError) {
			continue
		}
		// Only force a shutdown once no analyser still wants a chance to
		// shape the user-visible error.
		if s.Req.Analysers() != 0 || s.Res.Analysers() != 0 {
			continue
		}
		s.Req.ShutW()
		s.Res.ShutR()
		if si == s.Front {
			s.setErr(ErrCliCl, FinstD)
		} else {
			s.setErr(ErrSrvCl, FinstD)
		}
	}
}

func (s *Stream) setErr(e ErrType, f FinalState) {
	if s.Err == ErrNone {
		s.Err = e
		s.Finst = f
	}
}

// progressServerSide advances Back through CON/RDY per the connect
// state machine; retries apply only to connect failures and only while the
// interface's retry budget is positive.
func (s *Stream) progressServerSide(now time.Time) {
	switch s.Back.State {
	case SIStateCON:
		if s.Back.Has(SIFlagError) {
			s.connectFailed(now)
			return
		}
		if !s.Back.Exp.IsZero() && now.After(s.Back.Exp) {
			s.Back.Set(SIFlagExpired)
			s.connectFailed(now)
		}
	case SIStateRDY:
		if s.Req.Buf.IsEmpty() && s.Front.Has(SIFlagError) {
			s.Back.Close()
			s.setErr(ErrCliCl, FinstC)
			return
		}
		if s.Back.Has(SIFlagError) {
			s.connectFailed(now)
			return
		}
		s.establish(now)
	}
}

func (s *Stream) connectFailed(now time.Time) {
	s.Back.RetryCount--
	if s.Back.retriesExhausted() {
		e := ErrSrvCl
		switch {
		case s.Back.Has(SIFlagExpired):
			e = ErrSrvTO
		case s.Front.Has(SIFlagError):
			e = ErrCliCl
		}
		s.Back.Close()
		s.setErr(e, FinstC)
		return
	}
	// Redispatch candidate: clear the assignment so the caller's backend
	// selection runs again, then wait at least min(1s, connect-timeout)
	// before retrying the same server.
	s.Flags &^= FlagAssigned
	s.Back.State = SIStateASS
	s.Back.Exp = now.Add(connectRetryDelay(s.Back))
}

// connectRetryDelay is min(1s, connect-timeout). The connect-timeout
// itself is enforced separately by si.Exp while the interface sits in
// CON; this only bounds how soon the *same* server may be retried.
func connectRetryDelay(si *Interface) time.Duration {
	if si.ConnectTimeout > 0 && si.ConnectTimeout < time.Second {
		return si.ConnectTimeout
	}
	return time.Second
}

func (s *Stream) establish(now time.Time) {
	if s.Back.State == SIStateEST {
		return
	}
	s.connectedAt = now
	s.Back.State = SIStateEST
	s.Res.Set(chn.FlagReadAttached)
	s.Res.ArmRead(now)
	s.Res.ArmWrite(now)
}

// propagateShutdowns mirrors a drained, shut-down channel onto its peer:
// an empty, write-shut request with nothing pending tells the server side
// to shut down too, and symmetrically for the response direction.
func (s *Stream) propagateShutdowns() {
	if s.Req.Has(chn.FlagShutW) && s.Req.Buf.IsEmpty() {
		s.Back.State = closeIfEst(s.Back)
	}
	if s.Res.Has(chn.FlagShutW) && s.Res.Buf.IsEmpty() {
		if s.Front.State == SIStateEST {
			s.Req.ShutR()
		}
	}
}

func closeIfEst(si *Interface) SIState {
	if si.State == SIStateEST {
		return SIStateDIS
	}
	return si.State
}

// maybeEnterTunnel authorises unlimited forwarding once neither channel
// has any analyser left to inspect the stream, the HAProxy "tunnel mode"
// optimisation that stops copying bytes through the analyser loop once
// there is nothing left to look at.
func (s *Stream) maybeEnterTunnel() {
	if s.Req.Analysers() == 0 && s.Back.State == SIStateEST {
		s.Req.Forward(chn.Infinite)
	}
	if s.Res.Analysers() == 0 && s.Front.State == SIStateEST {
		s.Res.Forward(chn.Infinite)
	}
}

func (s *Stream) reconcileTerminal() {
	if s.Front.State == SIStateCLO && (s.Back.State == SIStateINI || s.Back.State == SIStateCLO) {
		s.Back.Close()
	}
	if s.Back.State == SIStateCLO && (s.Front.State == SIStateINI || s.Front.State == SIStateCLO) {
		s.Front.Close()
	}
}

func (s *Stream) abort(e ErrType) {
	s.setErr(e, FinstD)
	s.Front.Close()
	s.Back.Close()
}

// nextDeadline is the minimum of every armed timer across both channels
// and both interfaces; the zero Time means "no deadline, wait for event".
func (s *Stream) nextDeadline() time.Time {
	var min time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if min.IsZero() || t.Before(min) {
			min = t
		}
	}
	consider(s.Req.Rex)
	consider(s.Req.Wex)
	consider(s.Res.Rex)
	consider(s.Res.Wex)
	consider(s.Front.Exp)
	consider(s.Back.Exp)
	return min
}
