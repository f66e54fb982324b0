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
	"net"
	"time"

	"github.com/gobalance/gobalance/sample"
)

// Timers collects the phase durations a Record reports, in milliseconds.
// A value of -1 means the phase was never reached; Tentative marks a
// field that should render with a leading "+" because the final byte
// count has not been observed yet.
type Timers struct {
	TR, Tw, Tc, Tr, Ta, TT, Tq, Ts, Td, Ti, Th int64
	Tentative                                  bool
}

// Captures holds the request/response header or cookie capture lists
// rendered by %hr/%hrl/%hs/%hsl.
type Captures struct {
	ReqHeaders []string
	ResHeaders []string
}

// Record is the published, stable snapshot of one Stream's fields at log
// emission time: the log pipeline never reaches back into Stream/Session
// internals directly, mirroring how sample.Owner keeps the sample engine
// free of an import cycle.
type Record struct {
	ClientAddr    net.IP
	ClientPort    int
	FrontendAddr  net.IP
	FrontendPort  int
	ServerAddr    net.IP
	ServerPort    int
	AcceptTime    time.Time
	ReqStartTime  time.Time
	Timers        Timers
	UniqueID      string
	ReqCounter    int64
	LogCounter    int64
	BytesRead     int64
	BackendName   string
	ServerName    string
	Status        int
	Captures      Captures
	FrontendName  string
	TermState     string

	// Owner is passed through to embedded %[sample-expr] nodes unchanged;
	// the caller populates whatever the expression actually needs.
	Owner sample.Owner
}
