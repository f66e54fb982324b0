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

package controller

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobalance/gobalance/logpipe"
)

func TestNewAccessLogNoTargets(t *testing.T) {
	al, err := newAccessLog(LogConfig{})
	require.NoError(t, err)
	assert.Empty(t, al.targets)

	// emit on an empty access log must be a no-op, not a panic.
	al.emit(&logpipe.Record{})
	al.Close()
}

func TestNewAccessLogRejectsMalformedTargetLine(t *testing.T) {
	_, err := newAccessLog(LogConfig{Targets: []string{"not a log line"}})
	assert.Error(t, err)
}

func TestNewAccessLogBuildsOneTargetPerLine(t *testing.T) {
	al, err := newAccessLog(LogConfig{Targets: []string{"log 127.0.0.1:0 local0"}})
	require.NoError(t, err)
	require.Len(t, al.targets, 1)
	defer al.Close()

	al.emit(&logpipe.Record{
		ClientAddr:   net.IPv4(127, 0, 0, 1),
		BackendName:  "web",
		ServerName:   "s1",
		AcceptTime:   time.Now(),
		FrontendName: "web-in",
	})
}
