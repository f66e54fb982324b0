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
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// jsonMode is the input-encoding mode of the json converter.
type jsonMode uint8

const (
	jsonASCII jsonMode = iota
	jsonUTF8
	jsonUTF8Skip
	jsonUTF8Permissive
	jsonUTF8PermissiveSkip
)

func parseJSONMode(s string) (jsonMode, error) {
	switch s {
	case "ascii":
		return jsonASCII, nil
	case "utf8":
		return jsonUTF8, nil
	case "utf8s":
		return jsonUTF8Skip, nil
	case "utf8p":
		return jsonUTF8Permissive, nil
	case "utf8ps":
		return jsonUTF8PermissiveSkip, nil
	default:
		return 0, errors.Errorf("sample: unknown json mode %q", s)
	}
}

func (m jsonMode) skipsBad() bool {
	return m == jsonUTF8Skip || m == jsonUTF8PermissiveSkip
}

func (m jsonMode) permitsSurrogates() bool {
	return m == jsonUTF8Permissive || m == jsonUTF8PermissiveSkip
}

func init() {
	RegisterConverter("json", func(s *Sample, args []Arg) error {
		mode := jsonASCII
		if len(args) > 0 {
			m, err := parseJSONMode(args[0].Str())
			if err != nil {
				return err
			}
			mode = m
		}
		if err := Cast(s, TypeStr); err != nil {
			return err
		}
		out, err := jsonEscape(s.Str(), mode)
		if err != nil {
			return err
		}
		s.Data = out
		return nil
	})
}

var jsonShortEscapes = map[rune]string{
	'"':  `\"`,
	'\\': `\\`,
	'/':  `\/`,
	'\b': `\b`,
	'\f': `\f`,
	'\r': `\r`,
	'\n': `\n`,
	'\t': `\t`,
}

func jsonEscape(input string, mode jsonMode) (string, error) {
	var b strings.Builder
	ascii := mode == jsonASCII

	i := 0
	for i < len(input) {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == utf8.RuneError && size <= 1 {
			if mode.skipsBad() {
				i++
				continue
			}
			return "", errors.New("sample: invalid utf-8 byte in json converter input")
		}
		if esc, ok := jsonShortEscapes[r]; ok {
			b.WriteString(esc)
			i += size
			continue
		}
		switch {
		case r < 0x20 || (ascii && r > 0x7E):
			if r > 0xFFFF {
				if !mode.permitsSurrogates() {
					if mode.skipsBad() {
						i += size
						continue
					}
					return "", errors.New("sample: code point beyond BMP without surrogate support")
				}
				r1, r2 := utf16Surrogates(r)
				fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
			} else {
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		case r > 0xFF && !ascii:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
		i += size
	}
	return b.String(), nil
}

func utf16Surrogates(r rune) (rune, rune) {
	r -= 0x10000
	return 0xD800 + (r >> 10), 0xDC00 + (r & 0x3FF)
}
