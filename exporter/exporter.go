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
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/gobalance/gobalance/common"
	"github.com/gobalance/gobalance/confengine"
	"github.com/gobalance/gobalance/internal/tracekit"
	"github.com/gobalance/gobalance/logger"
	"github.com/gobalance/gobalance/logpipe"
)

// Exporter fans completed access records out to whichever sinks the
// configuration enables: a raw JSON access sinker, and/or a batched OTLP
// traces sinker built one span per stream.
type Exporter struct {
	ctx    context.Context
	cancel context.CancelFunc
	conf   Config

	tracesSinker Sinker
	accessSinker Sinker

	mu  sync.Mutex
	buf []*logpipe.Record
}

func New(conf *confengine.Config) (*Exporter, error) {
	var cfg Config
	if err := conf.UnpackChild("exporter", &cfg); err != nil {
		return nil, err
	}

	var tracesSinker Sinker
	if cfg.Traces.Enabled {
		if err := cfg.Traces.Validate(); err != nil {
			return nil, errors.Wrap(err, "exporter: traces config")
		}
		f := Get(RecordTraces)
		if f == nil {
			return nil, errors.New("exporter: no traces sinker registered")
		}
		var err error
		if tracesSinker, err = f(cfg); err != nil {
			return nil, err
		}
	}

	var accessSinker Sinker
	if cfg.Access.Enabled {
		f := Get(RecordAccess)
		if f == nil {
			return nil, errors.New("exporter: no access sinker registered")
		}
		var err error
		if accessSinker, err = f(cfg); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Exporter{
		ctx:          ctx,
		cancel:       cancel,
		conf:         cfg,
		tracesSinker: tracesSinker,
		accessSinker: accessSinker,
	}, nil
}

func (e *Exporter) Start() {
	if e.conf.Traces.Enabled {
		go e.loopFlushTraces()
	}
}

func (e *Exporter) Close() {
	e.cancel()
	if e.conf.Traces.Enabled {
		e.flushTraces()
		e.tracesSinker.Close()
	}
	if e.conf.Access.Enabled {
		e.accessSinker.Close()
	}
}

// Export is called once per completed stream. The access sinker, if any,
// gets the record verbatim; the traces sinker accumulates it into the
// current batch, flushed early once Batch is reached.
func (e *Exporter) Export(rec *logpipe.Record) {
	if e.conf.Access.Enabled {
		if err := e.accessSinker.Sink(rec); err != nil {
			logger.Errorf("exporter: sink access record failed: %v", err)
		}
	}

	if !e.conf.Traces.Enabled {
		return
	}
	e.mu.Lock()
	e.buf = append(e.buf, rec)
	full := len(e.buf) >= e.conf.Traces.Batch
	e.mu.Unlock()

	if full {
		e.flushTraces()
	}
}

func (e *Exporter) loopFlushTraces() {
	ticker := time.NewTicker(e.conf.Traces.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.flushTraces()
		}
	}
}

func (e *Exporter) flushTraces() {
	e.mu.Lock()
	batch := e.buf
	e.buf = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := e.tracesSinker.Sink(recordsToTraces(batch)); err != nil {
		logger.Errorf("exporter: sink traces failed: %v", err)
	}
}

// recordsToTraces builds one span per record. Span and trace IDs are
// random rather than parsed from an inbound traceparent header: this layer
// proxies raw TCP streams and never looks inside an HTTP request to find
// one.
func recordsToTraces(records []*logpipe.Record) ptrace.Traces {
	td := ptrace.NewTraces()
	rs := td.ResourceSpans().AppendEmpty()
	rs.Resource().Attributes().PutStr("service.name", common.App)

	ss := rs.ScopeSpans().AppendEmpty()
	ss.Scope().SetName("gobalance/controller")

	for _, rec := range records {
		span := ss.Spans().AppendEmpty()
		span.SetTraceID(tracekit.RandomTraceID())
		span.SetSpanID(tracekit.RandomSpanID())
		span.SetName(rec.FrontendName + "->" + rec.BackendName)
		span.SetKind(ptrace.SpanKindServer)
		span.SetStartTimestamp(pcommon.NewTimestampFromTime(rec.AcceptTime))
		span.SetEndTimestamp(pcommon.NewTimestampFromTime(rec.AcceptTime.Add(time.Duration(rec.Timers.TT) * time.Millisecond)))

		attrs := span.Attributes()
		attrs.PutStr("net.peer.ip", rec.ClientAddr.String())
		attrs.PutStr("backend", rec.BackendName)
		attrs.PutStr("server", rec.ServerName)
		attrs.PutInt("bytes_read", rec.BytesRead)
		attrs.PutStr("unique_id", rec.UniqueID)

		if rec.TermState == "--" {
			span.Status().SetCode(ptrace.StatusCodeOk)
		} else {
			span.Status().SetCode(ptrace.StatusCodeError)
			span.Status().SetMessage(rec.TermState)
		}
	}
	return td
}
