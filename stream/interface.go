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
	"net"
	"time"
)

// EndpointKind names what a StreamInterface is currently wired to.
type EndpointKind uint8

const (
	EndpointNone EndpointKind = iota
	EndpointConn              // a net.Conn, either the accepted client or a dialed server
	EndpointApplet            // an internal applet (CLI, peers, health-check)
)

// Interface is one endpoint of a Stream: either the client side (attached
// at accept time) or the server side (attached once a backend connect
// succeeds, or re-attached across a retry).
type Interface struct {
	State    SIState
	Flags    SIFlag
	Endpoint EndpointKind
	Conn     net.Conn // set when Endpoint == EndpointConn

	RetryCount int
	MaxRetries int
	Err        ErrType

	// Exp is this interface's own expiration deadline (distinct from the
	// channel read/write timeouts), used for connect and queue timeouts.
	Exp time.Time

	// ConnectTimeout is the duration the caller dialed with when it last
	// armed Exp for a connect attempt. Used to bound the redispatch delay
	// between retries to the same backend.
	ConnectTimeout time.Duration
}

// NewInterface returns an Interface in the INI state.
func NewInterface() *Interface {
	return &Interface{State: SIStateINI}
}

func (si *Interface) Has(f SIFlag) bool { return si.Flags&f != 0 }
func (si *Interface) Set(f SIFlag)      { si.Flags |= f }
func (si *Interface) Clear(f SIFlag)    { si.Flags &^= f }

// AttachConn wires a live connection and moves the interface to EST.
func (si *Interface) AttachConn(c net.Conn) {
	si.Endpoint = EndpointConn
	si.Conn = c
	si.State = SIStateEST
}

// IsExpired reports whether si's own deadline has passed.
func (si *Interface) IsExpired(now time.Time) bool {
	return !si.Exp.IsZero() && !now.Before(si.Exp)
}

// Close tears down the endpoint and moves the interface to CLO. Calling
// Close twice is a no-op.
func (si *Interface) Close() {
	if si.State == SIStateCLO {
		return
	}
	if si.Conn != nil {
		_ = si.Conn.Close()
	}
	si.State = SIStateCLO
	si.Endpoint = EndpointNone
}

// retriesExhausted reports whether the retry budget is used up, so that no
// further connect attempt is permitted.
func (si *Interface) retriesExhausted() bool {
	return si.RetryCount <= 0
}
