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

// Package cli implements the stats-socket command interpreter: one
// applet per session driving a bounded-line reader through a small state
// machine, level-gated command dispatch, payload mode and severity
// framing, plus the master/worker relay (pcli) and listener fd transfer
// used by a multi-process deployment.
package cli

// Level is a session's bound access level, lowest to highest.
type Level uint8

const (
	LevelUser Level = iota
	LevelOperator
	LevelAdmin
	LevelFDListeners // can additionally receive listener fds via _getsocks
)

func (l Level) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelOperator:
		return "operator"
	case LevelAdmin:
		return "admin"
	case LevelFDListeners:
		return "fd-listeners"
	default:
		return "unknown"
	}
}

// ParseLevel maps the inline "user"/"operator" downgrade keywords (and
// "admin", accepted symmetrically) to a Level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "user":
		return LevelUser, true
	case "operator":
		return LevelOperator, true
	case "admin":
		return LevelAdmin, true
	default:
		return 0, false
	}
}

// Permitted reports whether a session bound at have may run a command
// that requires want.
func Permitted(have, want Level) bool {
	return have >= want
}
