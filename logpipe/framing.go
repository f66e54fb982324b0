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
	"os"
	"sync"
	"time"

	"github.com/gobalance/gobalance/internal/fasttime"
)

// FrameKind selects the syslog line framing a Target applies.
type FrameKind uint8

const (
	FrameRFC3164 FrameKind = iota
	FrameRFC5424
	FrameShort
	FrameRaw
)

var frameNames = map[string]FrameKind{
	"rfc3164": FrameRFC3164,
	"rfc5424": FrameRFC5424,
	"short":   FrameShort,
	"raw":     FrameRaw,
}

// ParseFrameKind maps the "format" keyword of a log target line.
func ParseFrameKind(s string) (FrameKind, bool) {
	k, ok := frameNames[s]
	return k, ok
}

// headerCache caches the parts of a syslog header that depend only on the
// current second (timestamp, hostname, tag, pid), so the hot path patches
// only the priority value per message rather than re-rendering the full
// header. The original per-OS-thread cache collapses here to one
// process-wide cache behind a mutex: Go's scheduler does not expose the
// physical-thread affinity the per-thread version relied on, and every
// call site already goes through this package's exported entry points.
type headerCache struct {
	mu       sync.Mutex
	second   int64
	rfc3164  string
	rfc5424  string
	hostname string
	tag      string
	pid      int
}

var headers = newHeaderCache()

func newHeaderCache() *headerCache {
	host, _ := os.Hostname()
	return &headerCache{hostname: host, tag: "gobalance", pid: os.Getpid()}
}

// SetTag overrides the process tag used in rendered headers (defaults to
// "gobalance"), forcing an immediate re-render on the next call.
func SetTag(tag string) {
	headers.mu.Lock()
	defer headers.mu.Unlock()
	headers.tag = tag
	headers.second = 0
}

func (h *headerCache) refresh(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sec := fasttime.UnixTimestamp()
	if sec == h.second {
		return
	}
	h.second = sec
	h.rfc3164 = fmt.Sprintf("%s %s %s[%d]: ", now.Format("Jan _2 15:04:05"), h.hostname, h.tag, h.pid)
	h.rfc5424 = fmt.Sprintf("1 %s %s %s %d - - ", now.UTC().Format(time.RFC3339Nano), h.hostname, h.tag, h.pid)
}

// Frame renders one message body into its final on-wire line (including
// trailing "\n") for the given facility/severity and frame kind.
func Frame(kind FrameKind, f Facility, s Severity, msg string) string {
	pri := Priority(f, s)
	switch kind {
	case FrameRFC3164:
		now := time.Now()
		headers.refresh(now)
		headers.mu.Lock()
		h := headers.rfc3164
		headers.mu.Unlock()
		return fmt.Sprintf("<%d>%s%s\n", pri, h, msg)
	case FrameRFC5424:
		now := time.Now()
		headers.refresh(now)
		headers.mu.Lock()
		h := headers.rfc5424
		headers.mu.Unlock()
		return fmt.Sprintf("<%d>%s%s\n", pri, h, msg)
	case FrameShort:
		return fmt.Sprintf("<%d>%s\n", pri, msg)
	default:
		return msg + "\n"
	}
}
