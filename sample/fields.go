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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func init() {
	RegisterConverter("field", func(s *Sample, args []Arg) error {
		return splitConverter(s, args, true)
	})
	RegisterConverter("word", func(s *Sample, args []Arg) error {
		return splitConverter(s, args, false)
	})
}

// splitConverter backs both field() and word(). field() returns the n-th
// delimited slice, where consecutive separators produce empty fields;
// word() instead treats runs of separators as one boundary, so consecutive
// separators never yield an empty word. Both accept a 1-based index,
// negative counting from the end, and an optional third "count matches"
// argument that changes the return value to the number of fields/words.
func splitConverter(s *Sample, args []Arg, keepEmpty bool) error {
	if len(args) < 2 {
		return errors.New("sample: field/word requires an index and separator set")
	}
	if err := Cast(s, TypeStr); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[0].Str())
	if err != nil {
		return errors.Wrap(err, "sample: field/word index")
	}
	seps := args[1].Str()
	countOnly := len(args) > 2 && args[2].Str() != ""

	parts := splitOnAny(s.Str(), seps, keepEmpty)

	if countOnly {
		s.Data = int64(len(parts))
		s.Type = TypeSInt
		return nil
	}

	idx := n
	if idx < 0 {
		idx = len(parts) + idx + 1
	}
	if idx < 1 || idx > len(parts) {
		s.Data = ""
		return nil
	}
	s.Data = parts[idx-1]
	return nil
}

// splitOnAny splits input on any rune in seps. With keepEmpty (field()
// semantics) each separator ends one slice, so "a,,b" on "," yields
// ["a","","b"]; without it (word() semantics) runs of separators collapse
// to a single boundary, matching strings.FieldsFunc.
func splitOnAny(input, seps string, keepEmpty bool) []string {
	isSep := func(r rune) bool { return strings.ContainsRune(seps, r) }
	if !keepEmpty {
		return strings.FieldsFunc(input, isSep)
	}

	var out []string
	start := 0
	for i, r := range input {
		if isSep(r) {
			out = append(out, input[start:i])
			start = i + len(string(r))
		}
	}
	out = append(out, input[start:])
	return out
}
