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
	"strings"

	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/sample"
)

// compileState is one stage of the log-format compiler's state machine.
type compileState uint8

const (
	stateInit compileState = iota
	stateText
	stateSeparator
	stateStartVar
	stateStArg
	stateEdArg
	stateStExpr
	stateEdExpr
	stateVar
	stateEnd
)

// Compile parses a log-format string into its node list. "%name" and
// "%{args}name" yield NodeVar nodes; "%[sample-expr]" yields a NodeExpr
// with the embedded expression already resolved against the registered
// fetch/converter keywords.
func Compile(format string) ([]Node, error) {
	var nodes []Node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, Node{Kind: NodeText, Text: text.String()})
			text.Reset()
		}
	}

	state := stateInit
	var argBuf, exprBuf strings.Builder

	i := 0
	for i < len(format) {
		c := format[i]

		switch state {
		case stateInit, stateText:
			if c == '%' {
				flush()
				state = stateSeparator
				i++
				continue
			}
			text.WriteByte(c)
			state = stateText
			i++

		case stateSeparator:
			switch c {
			case '{':
				state = stateStArg
				argBuf.Reset()
				i++
			case '[':
				state = stateStExpr
				exprBuf.Reset()
				i++
			case '%':
				text.WriteByte('%')
				state = stateText
				i++
			default:
				state = stateStartVar
			}

		case stateStartVar, stateVar:
			start := i
			for i < len(format) && isVarNameByte(format[i]) {
				i++
			}
			name := format[start:i]
			if name == "" {
				return nil, errors.Errorf("logpipe: empty variable name at offset %d", start)
			}
			nodes = append(nodes, Node{Kind: NodeVar, VarName: name})
			state = stateText

		case stateStArg:
			if c == '}' {
				state = stateEdArg
				i++
				continue
			}
			argBuf.WriteByte(c)
			i++

		case stateEdArg:
			opts, err := parseOptions(argBuf.String())
			if err != nil {
				return nil, err
			}
			start := i
			for i < len(format) && isVarNameByte(format[i]) {
				i++
			}
			name := format[start:i]
			if name == "" {
				return nil, errors.Errorf("logpipe: %%{...} modifier with no following variable name at offset %d", start)
			}
			nodes = append(nodes, Node{Kind: NodeVar, VarName: name, Opts: opts})
			state = stateText

		case stateStExpr:
			if c == ']' {
				state = stateEdExpr
				i++
				continue
			}
			exprBuf.WriteByte(c)
			i++

		case stateEdExpr:
			expr, err := parseExprText(exprBuf.String())
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Node{Kind: NodeExpr, Expr: expr})
			state = stateText
		}
	}

	if state == stateStArg || state == stateStExpr || state == stateSeparator ||
		state == stateStartVar {
		return nil, errors.New("logpipe: unterminated variable at end of format string")
	}
	flush()
	return nodes, nil
}

func isVarNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// parseOptions reads the "+M+Q+X+E" (or "-M" subtractive form) modifier
// string between %{ and }.
func parseOptions(s string) (Options, error) {
	var o Options
	i := 0
	for i < len(s) {
		sign := s[i]
		if sign != '+' && sign != '-' {
			return o, errors.Errorf("logpipe: malformed option modifier %q", s)
		}
		if i+1 >= len(s) {
			return o, errors.Errorf("logpipe: truncated option modifier %q", s)
		}
		flag := s[i+1]
		set := sign == '+'
		switch flag {
		case 'M':
			o.Mandatory = set
		case 'Q':
			o.Quote = set
		case 'X':
			o.Hex = set
		case 'E':
			o.JSONEsc = set
		default:
			return o, errors.Errorf("logpipe: unknown option flag %q", string(flag))
		}
		i += 2
	}
	return o, nil
}

// parseExprText parses the textual contents of a %[...] node:
// "fetch(args),conv1(args),conv2(args)", top-level commas only (commas
// inside a "(...)" argument list do not split fetch/converter calls
// apart from each other, only their own argument lists).
func parseExprText(src string) (*sample.Expression, error) {
	calls := splitTopLevel(src, ',')
	if len(calls) == 0 || calls[0] == "" {
		return nil, errors.Errorf("logpipe: empty sample expression %q", src)
	}

	fetchName, fetchArgs := splitCall(calls[0])
	var chain []sample.ConverterCall
	for _, c := range calls[1:] {
		name, args := splitCall(c)
		chain = append(chain, sample.ConverterCall{Name: name, Args: toArgs(args)})
	}

	return sample.Parse(fetchName, toArgs(fetchArgs), chain)
}

func splitCall(s string) (name string, args []string) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, nil
	}
	name = s[:open]
	inner := s[open+1 : len(s)-1]
	if inner == "" {
		return name, nil
	}
	return name, splitTopLevel(inner, ',')
}

func toArgs(raws []string) []sample.Arg {
	args := make([]sample.Arg, len(raws))
	for i, r := range raws {
		args[i] = sample.Arg{Type: sample.ArgStr, Raw: r}
	}
	return args
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside a
// "(...)" argument list.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
