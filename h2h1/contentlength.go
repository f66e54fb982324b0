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

import (
	"bytes"
	"math"

	"github.com/pkg/errors"
)

// maxContentLength bounds a single decimal token so accumulation below
// cannot silently wrap past int64, matching the per-token overflow check
// the spec requires of a content-length list.
const maxContentLength = math.MaxInt64 / 10

// parseContentLengthList parses one content-length header value as a
// comma-separated list of decimal integers, requiring every token to agree
// with the first; it returns that common value.
func parseContentLengthList(value []byte) (int64, error) {
	var common int64 = -1
	for i, tok := range bytes.Split(value, []byte(",")) {
		tok = bytes.TrimSpace(tok)
		n, err := parseDecimal(tok)
		if err != nil {
			return 0, errors.Wrap(err, "h2h1: invalid content-length token")
		}
		if i == 0 {
			common = n
			continue
		}
		if n != common {
			return 0, errors.New("h2h1: conflicting content-length tokens in one header")
		}
	}
	if common < 0 {
		return 0, errors.New("h2h1: empty content-length value")
	}
	return common, nil
}

func parseDecimal(tok []byte) (int64, error) {
	if len(tok) == 0 {
		return 0, errors.New("empty token")
	}
	var n int64
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("non-digit byte %q", c)
		}
		if n > maxContentLength {
			return 0, errors.New("overflow")
		}
		n = n*10 + int64(c-'0')
		if n < 0 {
			return 0, errors.New("overflow")
		}
	}
	return n, nil
}
