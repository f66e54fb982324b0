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

// Package stream holds the Stream, its two StreamInterfaces and the
// process_stream driver loop that is the heart of the proxy: every wakeup
// of a connection, timer or analyser runs through here.
package stream

// SIState is the lifecycle state of one StreamInterface.
type SIState uint8

const (
	SIStateINI SIState = iota // nothing attached
	SIStateREQ                // connect request queued, no server chosen
	SIStateQUE                // enqueued on a server/backend queue
	SIStateTAR                // turn-around delay after a retryable failure
	SIStateASS                // server assigned, connect not started
	SIStateCON                // connect in progress
	SIStateRDY                // transport connected, upper layer not ack'd
	SIStateEST                // established, data may flow
	SIStateDIS                // disconnect pending
	SIStateCLO                // terminal
)

func (s SIState) String() string {
	switch s {
	case SIStateINI:
		return "INI"
	case SIStateREQ:
		return "REQ"
	case SIStateQUE:
		return "QUE"
	case SIStateTAR:
		return "TAR"
	case SIStateASS:
		return "ASS"
	case SIStateCON:
		return "CON"
	case SIStateRDY:
		return "RDY"
	case SIStateEST:
		return "EST"
	case SIStateDIS:
		return "DIS"
	case SIStateCLO:
		return "CLO"
	default:
		return "UNKNOWN"
	}
}

// SIFlag is a bitmask of per-interface flags.
type SIFlag uint32

const (
	SIFlagNoLinger  SIFlag = 1 << iota // close with RST instead of a graceful FIN
	SIFlagNoHalf                       // peer does not support half-closed connections
	SIFlagIndepStr                     // independent streams, do not propagate shutdowns
	SIFlagCleanAbrt                    // report aborts as a clean close, not an error
	SIFlagError                        // a low-level error was observed
	SIFlagExpired                      // the interface's own expiration fired
	SIFlagRxBlockRoom                  // read blocked: no room in the peer buffer
	SIFlagRxBlockBuf                   // read blocked: waiting for a buffer allocation
	SIFlagTxBlockRoom                  // write blocked: waiting for data to send
)

// ErrType enumerates the terminal causes process_stream records.
type ErrType uint8

const (
	ErrNone ErrType = iota
	ErrCliCl         // client closed first
	ErrCliTO         // client-side timeout
	ErrSrvCl         // server closed first
	ErrSrvTO         // server-side timeout
	ErrPrxCond       // rejected by a proxy condition (ACL, rate limit, ...)
	ErrResource      // local resource exhaustion (memory, fd, buffer)
	ErrInternal      // a bug: an invariant was violated
	ErrKilled        // killed externally (admin action, shutdown)
)

// FinalState enumerates where in the pipeline a stream ended up, used to
// populate log variables and per-step counters.
type FinalState uint8

const (
	FinstR FinalState = iota // request phase
	FinstC                   // connecting
	FinstH                   // headers
	FinstD                   // data
	FinstL                   // closing
	FinstQ                   // queued
	FinstT                   // tarpit
)
