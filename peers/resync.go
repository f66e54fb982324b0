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

import "time"

// ResyncFlag is one bit of the per-section resync bitfield.
type ResyncFlag uint8

const (
	ResyncLocal ResyncFlag = 1 << iota
	ResyncRemote
	ResyncAssign
	ResyncProcess
)

// ResyncState is the composite state derived from the bitfield: which
// sources have been tried to reload stick-table state from at startup.
type ResyncState uint8

const (
	ResyncFromLocal ResyncState = iota
	ResyncFromRemote
	ResyncFinished
)

func (s ResyncState) String() string {
	switch s {
	case ResyncFromLocal:
		return "FROMLOCAL"
	case ResyncFromRemote:
		return "FROMREMOTE"
	case ResyncFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// TeachState is a per-peer marker of how far the local process has gotten
// in teaching its stick-table state to that peer.
type TeachState uint8

const (
	TeachIdle TeachState = iota
	TeachProcess             // lesson scheduled/in-flight
	TeachFinished            // resync_finished sent, awaiting confirm
	TeachComplete            // all data known sent, used during soft-stop
)

// Resync tracks one section's startup resynchronization.
type Resync struct {
	flags       ResyncFlag
	timeout     time.Duration
	startedAt   time.Time
	hasOldPIDs  bool
	assignedTo  string
}

// NewResync starts a resync in FROMLOCAL state.
func NewResync(timeout time.Duration, hasOldPIDs bool) *Resync {
	return &Resync{
		flags:      0,
		timeout:    timeout,
		startedAt:  time.Now(),
		hasOldPIDs: hasOldPIDs,
	}
}

// State derives the composite resync state from the bitfield.
func (r *Resync) State() ResyncState {
	switch {
	case r.flags&ResyncLocal != 0 && r.flags&ResyncRemote != 0:
		return ResyncFinished
	case r.flags&ResyncLocal != 0:
		return ResyncFromRemote
	default:
		return ResyncFromLocal
	}
}

// Tick re-evaluates time-based transitions: if there was no former
// instance to inherit state from, or the resync_timeout has elapsed
// without a peer being assigned to teach us, flip to FROMREMOTE.
func (r *Resync) Tick(now time.Time) {
	if r.State() != ResyncFromLocal {
		return
	}
	if !r.hasOldPIDs || (r.timeout > 0 && now.Sub(r.startedAt) >= r.timeout) {
		r.flags |= ResyncLocal
	}
}

// Assign marks peerName as the chosen teacher and sets RESYNC_ASSIGN.
func (r *Resync) Assign(peerName string) {
	r.flags |= ResyncAssign
	r.assignedTo = peerName
}

// Finished handles a RESYNCFINISHED control message from the assigned
// peer: both LOCAL and REMOTE bits are set, latching ResyncFinished.
func (r *Resync) Finished() {
	r.flags |= ResyncLocal | ResyncRemote
}

// Partial handles a RESYNCPARTIAL control message: the assignment is
// withdrawn (ASSIGN cleared) so another peer can be tried, and the caller
// is expected to mark the teaching peer LEARN_NOTUP2DATE and start its
// own 5-second retry timer.
func (r *Resync) Partial() {
	r.flags &^= ResyncAssign
	r.assignedTo = ""
}

// Assigned reports whether a teaching peer is currently assigned, and who.
func (r *Resync) Assigned() (string, bool) {
	return r.assignedTo, r.flags&ResyncAssign != 0
}
