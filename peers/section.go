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
	"sync"
	"time"

	"github.com/gobalance/gobalance/logger"
)

// Dialer opens a connection to a peer's address. Swappable for tests.
type Dialer func(addr string) (PeerConn, error)

// PeerConn is the minimal connection surface the task loop needs; net.Conn
// satisfies it.
type PeerConn interface {
	Close() error
}

// Section is one peers configuration section: the local identity, the
// set of remote peers replicating the same tables, and the resync state
// machine governing startup.
type Section struct {
	mu sync.Mutex

	Name   string
	Peers  map[string]*Peer
	Resync *Resync

	dial     Dialer
	stopping bool
	doNotStopRef bool
}

// NewSection returns a section with no peers yet registered.
func NewSection(name string, resyncTimeout time.Duration, hasOldPIDs bool, dial Dialer) *Section {
	return &Section{
		Name:   name,
		Peers:  make(map[string]*Peer),
		Resync: NewResync(resyncTimeout, hasOldPIDs),
		dial:   dial,
	}
}

// AddPeer registers a remote peer.
func (s *Section) AddPeer(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Peers[p.Name] = p
}

// PendingCheck reports whether anything is queued to send to peer.
// Wired to the caller's outbound queue; a section with no queue wired in
// always reports false so Tick degrades gracefully in tests.
type PendingCheck func(peerName string) bool

// Tick drives one iteration of the per-section task loop described in the
// protocol design: reconnect peers whose timer fired, wake established
// peers with pending work, and age out peers that have gone silent.
func (s *Section) Tick(now time.Time, pending PendingCheck, wake func(*Peer), connect func(*Peer)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Resync.Tick(now)

	for _, p := range s.Peers {
		if p.Local {
			continue
		}
		switch {
		case p.ShouldReconnect(now):
			connect(p)
		case p.Status == PeerEstablished && pending != nil && pending(p.Name):
			wake(p)
		default:
			p.EvaluateLiveness(now)
		}
	}
}

// BeginStop starts the global-stopping sequence: every peer applet is
// detached so no new work is accepted, while a "do not stop" reference is
// held until teaching completes.
func (s *Section) BeginStop(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopping = true
	s.doNotStopRef = true
	for _, p := range s.Peers {
		if p.Local || p.Status != PeerEstablished {
			continue
		}
		p.Disconnect(now)
	}
}

// LocalSuccessor returns the peer through which local updates should be
// pushed during shutdown, if one is connected.
func (s *Section) LocalSuccessor() *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Peers {
		if !p.Local && p.Status == PeerEstablished {
			return p
		}
	}
	return nil
}

// FinishTeaching latches TEACH_COMPLETE for peer and, once every
// non-local peer has reached it, releases the "do not stop" reference so
// the process's shutdown can proceed.
func (s *Section) FinishTeaching(peerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.Peers[peerName]; ok {
		p.Teach = TeachComplete
	}
	if !s.stopping {
		return
	}
	for _, p := range s.Peers {
		if p.Local {
			continue
		}
		if p.Teach != TeachComplete {
			return
		}
	}
	if s.doNotStopRef {
		logger.Infof("peers: section %s finished teaching all peers, releasing stop ref", s.Name)
		s.doNotStopRef = false
	}
}

// CanStop reports whether the process-level shutdown may now proceed.
func (s *Section) CanStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.doNotStopRef
}
