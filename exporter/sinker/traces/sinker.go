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

// Package traces sinks batches of spans to an OTLP/HTTP collector using
// pdata's JSON encoding directly, without pulling in the full collector
// exporter helper chain this build has no other use for.
package traces

import (
	"bytes"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/gobalance/gobalance/exporter"
)

func init() {
	exporter.Register(exporter.RecordTraces, New)
}

type Sinker struct {
	cfg       exporter.TracesConfig
	client    *http.Client
	marshaler ptrace.JSONMarshaler
}

func New(conf exporter.Config) (exporter.Sinker, error) {
	return &Sinker{
		cfg:    conf.Traces,
		client: &http.Client{Timeout: conf.Traces.Timeout},
	}, nil
}

func (s *Sinker) Name() exporter.RecordKind { return exporter.RecordTraces }

func (s *Sinker) Sink(data any) error {
	td, ok := data.(ptrace.Traces)
	if !ok {
		return nil
	}

	body, err := s.marshaler.MarshalTraces(td)
	if err != nil {
		return errors.Wrap(err, "traces: marshal")
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "traces: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.cfg.Header {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "traces: post")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("traces: collector responded %s", resp.Status)
	}
	return nil
}

func (s *Sinker) Close() {}
