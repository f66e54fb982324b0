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

package exporter

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/gobalance/gobalance/logpipe"
)

type fakeSinker struct {
	kind RecordKind

	mu   sync.Mutex
	sunk []any
}

func (f *fakeSinker) Name() RecordKind { return f.kind }

func (f *fakeSinker) Sink(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sunk = append(f.sunk, data)
	return nil
}

func (f *fakeSinker) Close() {}

func (f *fakeSinker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sunk)
}

func TestExportSendsAccessRecordsImmediately(t *testing.T) {
	access := &fakeSinker{kind: RecordAccess}
	e := &Exporter{
		conf:         Config{Access: AccessConfig{Enabled: true}},
		accessSinker: access,
	}

	e.Export(&logpipe.Record{UniqueID: "1"})
	e.Export(&logpipe.Record{UniqueID: "2"})
	assert.Equal(t, 2, access.count())
}

func TestExportBuffersTracesUntilBatchFull(t *testing.T) {
	traces := &fakeSinker{kind: RecordTraces}
	e := &Exporter{
		conf:         Config{Traces: TracesConfig{Enabled: true, Batch: 2}},
		tracesSinker: traces,
	}

	e.Export(&logpipe.Record{UniqueID: "1", ClientAddr: net.IPv4zero})
	assert.Equal(t, 0, traces.count())

	e.Export(&logpipe.Record{UniqueID: "2", ClientAddr: net.IPv4zero})
	assert.Equal(t, 1, traces.count())
}

func TestFlushTracesSkipsEmptyBatch(t *testing.T) {
	traces := &fakeSinker{kind: RecordTraces}
	e := &Exporter{
		conf:         Config{Traces: TracesConfig{Enabled: true, Batch: 10}},
		tracesSinker: traces,
	}
	e.flushTraces()
	assert.Equal(t, 0, traces.count())
}

func TestRecordsToTracesSetsStatusFromTermState(t *testing.T) {
	records := []*logpipe.Record{
		{
			FrontendName: "web-in", BackendName: "web", ServerName: "s1",
			ClientAddr: net.IPv4(127, 0, 0, 1), TermState: "--",
			AcceptTime: time.Now(),
		},
		{
			FrontendName: "web-in", BackendName: "web", ServerName: "s1",
			ClientAddr: net.IPv4(127, 0, 0, 1), TermState: "cD",
			AcceptTime: time.Now(),
		},
	}

	td := recordsToTraces(records)
	require.Equal(t, 1, td.ResourceSpans().Len())
	spans := td.ResourceSpans().At(0).ScopeSpans().At(0).Spans()
	require.Equal(t, 2, spans.Len())

	assert.Equal(t, ptrace.StatusCodeOk, spans.At(0).Status().Code())
	assert.Equal(t, ptrace.StatusCodeError, spans.At(1).Status().Code())
	assert.Equal(t, "cD", spans.At(1).Status().Message())

	assert.NotEqual(t, spans.At(0).TraceID(), spans.At(1).TraceID())
}
