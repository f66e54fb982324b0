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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/internal/bufbytes"
	"github.com/gobalance/gobalance/internal/splitio"
)

// AppletState is one stage of a CLI session's lifecycle.
type AppletState uint8

const (
	StateInit AppletState = iota
	StateGetReq
	StatePrint
	StatePrintFree
	StateCallback
	StatePrompt
	StateEnd
)

// maxPayloadSize bounds the accumulated payload-mode buffer so a client
// cannot force unbounded memory growth by never sending the terminating
// empty line.
const maxPayloadSize = 1 << 20

// OutputMode selects how response lines are annotated with severity.
type OutputMode uint8

const (
	OutputNone OutputMode = iota
	OutputNumber
	OutputString
	OutputJSON
)

// MsgSeverity is a syslog-style severity attached to one response line.
type MsgSeverity uint8

const (
	SevInfo MsgSeverity = 6
	SevErr  MsgSeverity = 3
)

func (s MsgSeverity) name() string {
	if s == SevErr {
		return "err"
	}
	return "info"
}

// Command is one registered CLI keyword.
type Command struct {
	Name     string
	MinLevel Level
	Run      func(s *Applet, args []string, payload string) (string, error)
}

// Applet is one CLI session's state: its bound level, severity mode, the
// command registry it dispatches against, and payload-mode accumulation.
type Applet struct {
	State  AppletState
	Level  Level
	Output OutputMode

	commands map[string]*Command

	inPayload   bool
	payloadCmd  string
	payloadArgs []string
	payloadBuf  *bufbytes.Bytes
}

// NewApplet returns a session bound at defaultLevel, in StateInit.
func NewApplet(defaultLevel Level, commands map[string]*Command) *Applet {
	return &Applet{
		State:    StateInit,
		Level:    defaultLevel,
		commands: commands,
	}
}

// FeedLine processes one line already stripped of its terminating
// \r?\n by a splitio.Reader. It returns the responses produced by any
// commands that completed as a result (zero, one, or more if the line
// contained several `;`-separated commands), and advances State.
func (a *Applet) FeedLine(line string) ([]string, error) {
	if a.inPayload {
		return a.feedPayloadLine(line)
	}

	stripped, startsPayload := HasPayloadMarker(line)
	if startsPayload {
		cmds := SplitCommands(stripped)
		if len(cmds) == 0 {
			return nil, errors.New("cli: payload mode requires a command")
		}
		fields := strings.Fields(cmds[len(cmds)-1])
		if len(fields) == 0 {
			return nil, errors.New("cli: payload mode requires a command")
		}
		a.inPayload = true
		a.payloadCmd = fields[0]
		a.payloadArgs = fields[1:]
		a.payloadBuf = bufbytes.New(maxPayloadSize)
		a.State = StateGetReq
		return nil, nil
	}

	a.State = StateGetReq
	var out []string
	for _, cmd := range SplitCommands(line) {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		resp, err := a.dispatch(cmd, "")
		if err != nil {
			return out, err
		}
		if resp == "" {
			// An inline level downgrade produces no response text.
			continue
		}
		out = append(out, resp)
	}
	a.State = StatePrompt
	return out, nil
}

func (a *Applet) feedPayloadLine(line string) ([]string, error) {
	if line != "" {
		a.payloadBuf.Write([]byte(line))
		a.payloadBuf.Write([]byte("\n"))
		return nil, nil
	}

	payload := a.payloadBuf.Text()
	a.inPayload = false
	a.payloadBuf = nil

	resp, err := a.dispatch(strings.TrimSpace(a.payloadCmd+" "+strings.Join(a.payloadArgs, " ")), payload)
	a.State = StatePrompt
	if err != nil {
		return nil, err
	}
	return []string{resp}, nil
}

func (a *Applet) dispatch(line, payload string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	name, args := fields[0], fields[1:]
	if lvl, ok := ParseLevel(name); ok && len(args) > 0 && args[0] == "-" {
		if lvl < a.Level {
			a.Level = lvl
		}
		return "", nil
	}

	cmd, ok := a.commands[name]
	if !ok {
		ObserveCommand(name, "unknown")
		return a.frame(SevErr, "Unknown command."), nil
	}
	if !Permitted(a.Level, cmd.MinLevel) {
		ObserveCommand(name, "denied")
		return a.frame(SevErr, "Permission denied."), nil
	}

	resp, err := cmd.Run(a, args, payload)
	if err != nil {
		ObserveCommand(name, "error")
		return a.frame(SevErr, err.Error()), nil
	}
	ObserveCommand(name, "ok")
	return a.frame(SevInfo, resp), nil
}

// frame prefixes resp with a bracketed severity marker when the
// session's output mode calls for one.
func (a *Applet) frame(sev MsgSeverity, resp string) string {
	switch a.Output {
	case OutputNumber:
		return fmt.Sprintf("[%d]: %s", sev, resp)
	case OutputString:
		return fmt.Sprintf("[%s]: %s", sev.name(), resp)
	case OutputJSON:
		framed, err := FrameJSON(sev, resp)
		if err != nil {
			return resp
		}
		return framed
	default:
		return resp
	}
}

// NewLineReader wraps splitio for use by a transport loop reading a CLI
// session's framed input.
func NewLineReader(b []byte) *splitio.Reader { return splitio.NewReader(b) }
