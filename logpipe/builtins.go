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

package logpipe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// dateLogLayout is the custom date2str_log rendering: dd/mmm/YYYY:HH:MM:SS.mmm.
const dateLogLayout = "02/Jan/2006:15:04:05.000"

// builtinFunc renders one built-in variable's text for a Record.
type builtinFunc func(r *Record, o Options) (string, error)

var builtins = map[string]builtinFunc{
	"ci": addrField(func(r *Record) string { return r.ClientAddr.String() }, false),
	"cp": addrField(func(r *Record) string { return strconv.Itoa(r.ClientPort) }, true),
	"fi": addrField(func(r *Record) string { return r.FrontendAddr.String() }, false),
	"fp": addrField(func(r *Record) string { return strconv.Itoa(r.FrontendPort) }, true),
	"si": addrField(func(r *Record) string { return r.ServerAddr.String() }, false),
	"sp": addrField(func(r *Record) string { return strconv.Itoa(r.ServerPort) }, true),

	"t":  func(r *Record, o Options) (string, error) { return r.AcceptTime.Format(dateLogLayout), nil },
	"tr": func(r *Record, o Options) (string, error) { return r.ReqStartTime.Format(dateLogLayout), nil },
	"T":  func(r *Record, o Options) (string, error) { return r.AcceptTime.UTC().Format(dateLogLayout), nil },
	"Tl": func(r *Record, o Options) (string, error) { return r.ReqStartTime.UTC().Format(dateLogLayout), nil },

	"TR": timerField(func(t Timers) int64 { return t.TR }),
	"Tw": timerField(func(t Timers) int64 { return t.Tw }),
	"Tc": timerField(func(t Timers) int64 { return t.Tc }),
	"Tr": timerField(func(t Timers) int64 { return t.Tr }),
	"Ta": timerField(func(t Timers) int64 { return t.Ta }),
	"TT": timerField(func(t Timers) int64 { return t.TT }),
	"Tq": timerField(func(t Timers) int64 { return t.Tq }),
	"Ts": timerField(func(t Timers) int64 { return t.Ts }),
	"Td": timerField(func(t Timers) int64 { return t.Td }),
	"Ti": timerField(func(t Timers) int64 { return t.Ti }),
	"Th": timerField(func(t Timers) int64 { return t.Th }),

	"ID": func(r *Record, o Options) (string, error) { return r.UniqueID, nil },
	"rt": func(r *Record, o Options) (string, error) { return strconv.FormatInt(r.ReqCounter, 10), nil },
	"lc": func(r *Record, o Options) (string, error) { return strconv.FormatInt(r.LogCounter, 10), nil },

	"B":  func(r *Record, o Options) (string, error) { return strconv.FormatInt(r.BytesRead, 10), nil },
	"U":  func(r *Record, o Options) (string, error) { return strconv.FormatInt(r.BytesRead, 10), nil },
	"b":  func(r *Record, o Options) (string, error) { return r.BackendName, nil },
	"s":  func(r *Record, o Options) (string, error) { return r.ServerName, nil },
	"ST": func(r *Record, o Options) (string, error) { return strconv.Itoa(r.Status), nil },

	"hr":  captureField(func(r *Record) []string { return r.Captures.ReqHeaders }, true),
	"hrl": captureField(func(r *Record) []string { return r.Captures.ReqHeaders }, false),
	"hs":  captureField(func(r *Record) []string { return r.Captures.ResHeaders }, true),
	"hsl": captureField(func(r *Record) []string { return r.Captures.ResHeaders }, false),
}

func addrField(render func(r *Record) string, numeric bool) builtinFunc {
	return func(r *Record, o Options) (string, error) {
		v := render(r)
		if o.Hex {
			if numeric {
				n, err := strconv.Atoi(v)
				if err != nil {
					return "", errors.Wrap(err, "logpipe: hex-render non-numeric field")
				}
				return fmt.Sprintf("%x", n), nil
			}
			return fmt.Sprintf("%x", []byte(v)), nil
		}
		return v, nil
	}
}

// timerField renders a timer value in ms, -1 when unreached, with a
// leading "+" when the record is still in its tentative byte-count phase.
func timerField(pick func(t Timers) int64) builtinFunc {
	return func(r *Record, o Options) (string, error) {
		v := pick(r.Timers)
		s := strconv.FormatInt(v, 10)
		if r.Timers.Tentative && v >= 0 {
			s = "+" + s
		}
		return s, nil
	}
}

func captureField(pick func(r *Record) []string, braceForm bool) builtinFunc {
	return func(r *Record, o Options) (string, error) {
		vals := pick(r)
		if braceForm {
			return "{" + strings.Join(vals, "|") + "}", nil
		}
		return strings.Join(vals, " "), nil
	}
}

// renderVar looks up and renders one NodeVar against a Record, applying
// quote/JSON-escape framing and the mandatory-field check after the raw
// value is produced.
func renderVar(n Node, r *Record) (string, error) {
	fn, ok := builtins[n.VarName]
	if !ok {
		return "", errors.Errorf("logpipe: unknown built-in variable %%%s", n.VarName)
	}
	v, err := fn(r, n.Opts)
	if err != nil {
		return "", err
	}
	if n.Opts.Mandatory && v == "" {
		return "", errors.Errorf("logpipe: mandatory field %%%s is empty", n.VarName)
	}
	if n.Opts.JSONEsc {
		v = jsonEscapeLog(v)
	}
	if n.Opts.Quote {
		v = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v, nil
}

func jsonEscapeLog(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
