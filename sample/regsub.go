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

package sample

import (
	"strings"

	"github.com/grafana/regexp"
	"github.com/pkg/errors"
)

func init() {
	RegisterConverter("regsub", regsubConverter)
}

// regsubConverter implements `regsub(re, repl, flags?)`: substitute once,
// or every non-overlapping match when "g" is among flags, case
// insensitively when "i" is. A zero-length match advances one rune past
// itself after copying that rune verbatim, matching POSIX s///g semantics
// for patterns that can match the empty string.
func regsubConverter(s *Sample, args []Arg) error {
	if len(args) < 2 {
		return errors.New("sample: regsub requires a pattern and a replacement")
	}
	if err := Cast(s, TypeStr); err != nil {
		return err
	}

	pattern := args[0].Str()
	repl := args[1].Str()
	global, caseInsensitive := false, false
	if len(args) > 2 {
		for _, f := range args[2].Str() {
			switch f {
			case 'g':
				global = true
			case 'i':
				caseInsensitive = true
			}
		}
	}
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errors.Wrap(err, "sample: regsub pattern")
	}

	out := regsub(re, s.Str(), repl, global)
	s.Data = out
	return nil
}

// regsub performs the substitution using FindAllStringSubmatchIndex, which
// already implements the POSIX-compatible rule for adjacent empty matches
// (advance one rune so an empty pattern doesn't loop forever or double up
// on one position).
func regsub(re *regexp.Regexp, input, repl string, global bool) string {
	n := 1
	if global {
		n = -1
	}
	matches := re.FindAllStringSubmatchIndex(input, n)
	if matches == nil {
		return input
	}

	var b strings.Builder
	pos := 0
	for _, m := range matches {
		b.WriteString(input[pos:m[0]])
		b.Write(re.ExpandString(nil, repl, input, m))
		pos = m[1]
	}
	b.WriteString(input[pos:])
	return b.String()
}
