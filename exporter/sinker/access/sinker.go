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

// Package access sinks completed stream access records as rotated JSON
// lines, for offline processing that wants the record's raw fields rather
// than the formatted text line an access-log target renders.
package access

import (
	"io"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gobalance/gobalance/exporter"
	"github.com/gobalance/gobalance/logpipe"
)

func init() {
	exporter.Register(exporter.RecordAccess, New)
}

type Sinker struct {
	wr      io.WriteCloser
	encoder *json.Encoder
}

func New(conf exporter.Config) (exporter.Sinker, error) {
	cfg := &conf.Access
	cfg.Validate()

	var wr io.WriteCloser
	switch {
	case cfg.Console:
		wr = os.Stdout
	default:
		wr = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  true,
		}
	}

	return &Sinker{
		wr:      wr,
		encoder: json.NewEncoder(wr),
	}, nil
}

func (s *Sinker) Name() exporter.RecordKind {
	return exporter.RecordAccess
}

func (s *Sinker) Sink(data any) error {
	rec, ok := data.(*logpipe.Record)
	if !ok {
		return nil
	}

	type R struct {
		UniqueID     string `json:"unique_id"`
		ClientAddr   string `json:"client_addr"`
		FrontendName string `json:"frontend_name"`
		BackendName  string `json:"backend_name"`
		ServerName   string `json:"server_name"`
		BytesRead    int64  `json:"bytes_read"`
		TotalTimeMs  int64  `json:"total_time_ms"`
		TermState    string `json:"term_state"`
	}
	return s.encoder.Encode(R{
		UniqueID:     rec.UniqueID,
		ClientAddr:   rec.ClientAddr.String(),
		FrontendName: rec.FrontendName,
		BackendName:  rec.BackendName,
		ServerName:   rec.ServerName,
		BytesRead:    rec.BytesRead,
		TotalTimeMs:  rec.Timers.TT,
		TermState:    rec.TermState,
	})
}

func (s *Sinker) Close() {
	s.wr.Close()
}
