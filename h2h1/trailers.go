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

package h2h1

import "github.com/pkg/errors"

// forbiddenTrailer are headers that only make sense framing a message, not
// trailing one; carrying them as trailers would let a peer smuggle a
// second set of framing instructions in after the body.
var forbiddenTrailer = map[string]bool{
	"host":              true,
	"content-length":    true,
	"connection":        true,
	"proxy-connection":  true,
	"keep-alive":        true,
	"upgrade":           true,
	"te":                true,
	"transfer-encoding": true,
}

// TransformTrailers validates an H2 trailer header list and returns it
// unchanged on success; trailers carry no pseudo-headers and no
// framing-related fields.
func TransformTrailers(headers []Header) ([]Header, error) {
	var out []Header
	for _, h := range headers {
		if h.isTerminator() {
			break
		}
		if h.isPseudo() {
			return nil, errors.New("h2h1: pseudo-header not allowed in trailers")
		}
		name := string(h.Name)
		if hasUpper(h.Name) {
			return nil, errors.Errorf("h2h1: uppercase letter in trailer name %q", name)
		}
		if forbiddenTrailer[name] {
			return nil, errors.Errorf("h2h1: header %q forbidden in trailers", name)
		}
		out = append(out, h)
	}
	return out, nil
}
