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

package cli

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PcliTarget is the resolved destination of a master-relayed command: a
// specific worker by pid, a worker by its relative-to-master index
// ("!pid" form), or the master's own internal proxy.
type PcliTarget struct {
	Master      bool
	PID         int
	RelativePID bool
}

// ParsePcliPrefix strips a leading "@<pid>", "@!<pid>" or "@master"
// target prefix from line, returning the target and the remainder of the
// command. ok is false when line carries no such prefix, in which case
// the command is handled locally.
func ParsePcliPrefix(line string) (target PcliTarget, rest string, ok bool, err error) {
	if !strings.HasPrefix(line, "@") {
		return target, line, false, nil
	}

	fields := strings.SplitN(line, " ", 2)
	prefix := fields[0]
	if len(fields) == 2 {
		rest = fields[1]
	}

	switch {
	case prefix == "@master":
		target.Master = true
		return target, rest, true, nil

	case strings.HasPrefix(prefix, "@!"):
		pid, perr := strconv.Atoi(strings.TrimPrefix(prefix, "@!"))
		if perr != nil {
			return target, "", false, errors.Errorf("cli: malformed pcli target %q", prefix)
		}
		target.PID = pid
		target.RelativePID = true
		return target, rest, true, nil

	default:
		pid, perr := strconv.Atoi(strings.TrimPrefix(prefix, "@"))
		if perr != nil {
			return target, "", false, errors.Errorf("cli: malformed pcli target %q", prefix)
		}
		target.PID = pid
		return target, rest, true, nil
	}
}

// WorkerLocator resolves a pcli target to the worker process that should
// receive the relayed command.
type WorkerLocator interface {
	FindByPID(pid int) (workerAddr string, ok bool)
	FindByRelativePID(rel int) (workerAddr string, ok bool)
}

// ErrNoSuchProcess mirrors the master process's own "No such process"
// reply for an unresolvable pid: the CLI never falls back to
// broadcasting a command to every worker when the target is unknown.
var ErrNoSuchProcess = errors.New("No such process")

// ResolveWorker finds the worker address a target names, using the same
// "no such process" failure the master uses for its own pid lookups when
// the target cannot be resolved.
func ResolveWorker(locator WorkerLocator, target PcliTarget) (string, error) {
	if target.RelativePID {
		addr, ok := locator.FindByRelativePID(target.PID)
		if !ok {
			return "", ErrNoSuchProcess
		}
		return addr, nil
	}
	addr, ok := locator.FindByPID(target.PID)
	if !ok {
		return "", ErrNoSuchProcess
	}
	return addr, nil
}

// DowngradePrefix returns the "user -"/"operator -" line a pcli relay
// must prepend ahead of a forwarded command when the bound client level
// is below admin, so the worker enforces the same ceiling. It returns
// "" when no downgrade is required.
func DowngradePrefix(clientLevel Level) string {
	switch clientLevel {
	case LevelUser:
		return "user -"
	case LevelOperator:
		return "operator -"
	default:
		return ""
	}
}
