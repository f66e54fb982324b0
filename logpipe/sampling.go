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
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Range is one inclusive [Lo, Hi] sub-range of a Sampler's [1, Size] index
// space.
type Range struct {
	Lo, Hi int
}

func (r Range) contains(v int) bool { return v >= r.Lo && v <= r.Hi }

// Sampler picks, for a monotonically advancing index modulo Size, whether
// the current log line falls in one of a sorted, non-overlapping set of
// ranges.
type Sampler struct {
	ranges []Range
	size   int
	next   int64
}

// NewSampler validates ranges (sorted, non-overlapping, within [1, size])
// and returns a Sampler.
func NewSampler(size int, ranges []Range) (*Sampler, error) {
	if size <= 0 {
		return nil, errors.New("logpipe: sample size must be positive")
	}
	for i, r := range ranges {
		if r.Lo < 1 || r.Hi > size || r.Lo > r.Hi {
			return nil, errors.Errorf("logpipe: sample range %d-%d out of bounds [1,%d]", r.Lo, r.Hi, size)
		}
		if i > 0 && r.Lo <= ranges[i-1].Hi {
			return nil, errors.Errorf("logpipe: sample ranges must be sorted and non-overlapping")
		}
	}
	return &Sampler{ranges: ranges, size: size}, nil
}

// ParseRanges parses the "a,b-c,d" range list syntax of the "sample"
// keyword.
func ParseRanges(s string) ([]Range, error) {
	var out []Range
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		if i := strings.IndexByte(part, '-'); i >= 0 {
			lo, err1 := strconv.Atoi(part[:i])
			hi, err2 := strconv.Atoi(part[i+1:])
			if err1 != nil || err2 != nil {
				return nil, errors.Errorf("logpipe: malformed sample range %q", part)
			}
			out = append(out, Range{Lo: lo, Hi: hi})
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Errorf("logpipe: malformed sample range %q", part)
		}
		out = append(out, Range{Lo: v, Hi: v})
	}
	return out, nil
}

// Keep advances the sampler's index and reports whether the resulting
// position falls inside one of its configured ranges. Safe for concurrent
// use.
func (s *Sampler) Keep() bool {
	n := atomic.AddInt64(&s.next, 1)
	pos := int(n%int64(s.size)) + 1
	for _, r := range s.ranges {
		if r.contains(pos) {
			return true
		}
	}
	return false
}
