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
	"math/rand"
	"net"
	"time"
)

// PeerApplStatus tracks whether a remote peer's connection is currently
// attached to a live applet.
type PeerApplStatus uint8

const (
	PeerNone PeerApplStatus = iota
	PeerConnecting
	PeerEstablished
)

const (
	reconnectGrace    = 5 * time.Second
	dupConnBackoffMin = 50 * time.Millisecond
	dupConnBackoffMax = 2050 * time.Millisecond
)

// Peer is one remote peer's connection/replication state as tracked by
// the local process.
type Peer struct {
	Name   string
	Addr   string
	Local  bool // true if this entry describes the local process itself

	Status PeerApplStatus
	Conn   net.Conn

	Alive           bool
	LearnNotUpToDate bool
	Teach           TeachState

	ReconnectAt time.Time
	lastSeen    time.Time

	tx *txDict
	rx *rxDict
}

// NewPeer returns a peer entry for name at addr, not yet connected.
func NewPeer(name, addr string) *Peer {
	return &Peer{
		Name: name,
		Addr: addr,
		tx:   newTxDict(),
		rx:   newRxDict(),
	}
}

// TxDict and RxDict expose this peer's dictionary caches for update
// encoding/decoding.
func (p *Peer) TxDict() *txDict { return p.tx }
func (p *Peer) RxDict() *rxDict { return p.rx }

// ShouldReconnect reports whether the task loop should attempt a new
// connection now: there is no live applet and no pending reconnect timer.
func (p *Peer) ShouldReconnect(now time.Time) bool {
	if p.Local || p.Status != PeerNone {
		return false
	}
	return p.ReconnectAt.IsZero() || !now.Before(p.ReconnectAt)
}

// MarkConnecting records a dial attempt in flight.
func (p *Peer) MarkConnecting() {
	p.Status = PeerConnecting
	p.ReconnectAt = time.Time{}
}

// MarkEstablished records a successful handshake.
func (p *Peer) MarkEstablished(conn net.Conn, now time.Time) {
	p.Status = PeerEstablished
	p.Conn = conn
	p.Alive = true
	p.lastSeen = now
}

// MarkHeartbeat resets the liveness clock; any update message also counts
// as a heartbeat for this purpose.
func (p *Peer) MarkHeartbeat(now time.Time) {
	p.lastSeen = now
	p.Alive = true
}

// Disconnect tears down the applet and schedules the next reconnect
// attempt after the grace period.
func (p *Peer) Disconnect(now time.Time) {
	if p.Conn != nil {
		p.Conn.Close()
	}
	p.Conn = nil
	p.Status = PeerNone
	p.ReconnectAt = now.Add(reconnectGrace)
}

// EvaluateLiveness handles a reconnect-timer firing with no updates
// pending: the first time, it only clears ALIVE (grace period); on the
// tick after that it force-shuts the connection to force a fresh retry.
func (p *Peer) EvaluateLiveness(now time.Time) {
	if p.Status != PeerEstablished {
		return
	}
	if now.Sub(p.lastSeen) < reconnectGrace {
		return
	}
	if p.Alive {
		p.Alive = false
		return
	}
	p.Disconnect(now)
}

// DuplicateBackoff returns a random 50-2050ms delay for the older of two
// simultaneous connections to the same remote, per the hello handshake's
// duplicate-connection handling.
func DuplicateBackoff() time.Duration {
	span := dupConnBackoffMax - dupConnBackoffMin
	return dupConnBackoffMin + time.Duration(rand.Int63n(int64(span)))
}
