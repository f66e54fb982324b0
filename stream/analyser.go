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
	"math/bits"

	"github.com/gobalance/gobalance/chn"
)

// Analyser runs one pass over a Stream's channel. It returns false when it
// needs more data or an event before it can make progress again; the
// stream's overall resumption deadline is computed from the channel's
// timers regardless of the return value. An analyser disables its own bit
// once it has nothing left to do, and may enable a lower-numbered bit to
// request another walk from the start (e.g. a filter rewriting a header
// re-triggers an earlier content-length check).
type Analyser func(s *Stream, c *chn.Channel) bool

// Request-side phase indices, dispatched low bit first. Each index is also
// the channel analyser bitmask bit the phase occupies.
const (
	PhaseFltStartFE uint = iota
	PhaseTCPInspectFE
	PhaseWaitHTTP
	PhaseWaitHTTPBody
	PhaseHTTPProcessFE
	PhaseSwitchingRules
	PhaseFltStartBE
	PhaseTCPInspectBE
	PhaseHTTPProcessBE
	PhaseHTTPTarpit
	PhaseServerRules
	PhaseHTTPInner
	PhasePersistRDPCookie
	PhaseStickingRules
	PhaseFltHTTPHdrs
	PhaseHTTPXferBody
	PhaseWaitCLI
	PhaseFltXferData
	PhaseFltEnd
)

// Response-side phase indices share the bit numbering space of a different
// channel, so they are free to overlap the request-side constants above.
const (
	PhaseRespFltStartFE uint = iota
	PhaseRespFltStartBE
	PhaseRespTCPInspectRes
	PhaseRespWaitHTTPResponse
	PhaseRespStoreRules
	PhaseRespHTTPProcessResBE
	PhaseRespFltHTTPHdrs
	PhaseRespHTTPXferBody
	PhaseRespWaitCLIResponse
	PhaseRespFltXferData
	PhaseRespFltEnd
)

// maxPollEvents bounds one walk of the analyser chain to prevent a
// misbehaving analyser pair from live-locking the stream task.
const maxPollEvents = 200

// runAnalysers walks c's analyser bitmask from the least-significant bit,
// invoking table[i] for every set bit, until no bit is set or the walk is
// bounded out. If an analyser re-enables a lower bit than the one just
// run, the walk restarts from the bottom, matching the resync behaviour
// HAProxy's stream.c documents for filters that rewrite earlier state.
func runAnalysers(s *Stream, c *chn.Channel, table []Analyser) {
	for iter := 0; iter < maxPollEvents; iter++ {
		mask := c.Analysers()
		if mask == 0 {
			return
		}
		i := uint(bits.TrailingZeros32(mask))
		if int(i) >= len(table) || table[i] == nil {
			c.DisableAnalyser(i)
			continue
		}
		table[i](s, c)
		// If a bit lower than i got set by the call just made, the next
		// loop iteration naturally picks it up since we always recompute
		// TrailingZeros32 from the live mask.
	}
}
