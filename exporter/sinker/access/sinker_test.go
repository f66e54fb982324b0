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

package access

import (
	"bytes"
	"net"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobalance/gobalance/exporter"
	"github.com/gobalance/gobalance/logpipe"
)

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func TestNewUsesStdoutWhenConsoleEnabled(t *testing.T) {
	s, err := New(exporter.Config{Access: exporter.AccessConfig{Console: true}})
	require.NoError(t, err)
	assert.Equal(t, exporter.RecordAccess, s.Name())
}

func TestSinkEncodesRecordAsJSONLine(t *testing.T) {
	buf := &bytes.Buffer{}
	s := &Sinker{wr: nopWriteCloser{buf}, encoder: json.NewEncoder(nopWriteCloser{buf})}

	err := s.Sink(&logpipe.Record{
		UniqueID:     "abc",
		ClientAddr:   net.IPv4(127, 0, 0, 1),
		FrontendName: "web-in",
		BackendName:  "web",
		ServerName:   "s1",
		BytesRead:    42,
		TermState:    "--",
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "abc", got["unique_id"])
	assert.Equal(t, "127.0.0.1", got["client_addr"])
	assert.Equal(t, "web", got["backend_name"])
}

func TestSinkIgnoresWrongDataType(t *testing.T) {
	buf := &bytes.Buffer{}
	s := &Sinker{wr: nopWriteCloser{buf}, encoder: json.NewEncoder(nopWriteCloser{buf})}

	require.NoError(t, s.Sink("not a record"))
	assert.Empty(t, buf.Bytes())
}
