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
	"net/url"
	"time"
)

const defaultTimeout = 15 * time.Second

type Config struct {
	Traces TracesConfig `config:"traces"`
	Access AccessConfig `config:"access"`
}

// TracesConfig controls export of one span per completed stream to an OTLP
// collector over its JSON HTTP endpoint, batched client-side.
type TracesConfig struct {
	Enabled  bool              `config:"enabled"`
	Batch    int               `config:"batch"`
	Endpoint string            `config:"endpoint"`
	Header   map[string]string `config:"header"`
	Interval time.Duration     `config:"interval"`
	Timeout  time.Duration     `config:"timeout"`
}

func (tc *TracesConfig) Validate() error {
	if !tc.Enabled {
		return nil
	}
	if _, err := url.Parse(tc.Endpoint); err != nil {
		return err
	}

	if tc.Batch <= 0 {
		tc.Batch = 100
	}
	if tc.Timeout <= 0 {
		tc.Timeout = defaultTimeout
	}
	if tc.Interval <= 0 {
		tc.Interval = 3 * time.Second
	}
	return nil
}

// AccessConfig controls export of the raw access record alongside whatever
// access-log targets are configured, as rotated JSON lines rather than the
// formatted text line a target renders.
type AccessConfig struct {
	Enabled    bool   `config:"enabled"`
	Console    bool   `config:"console"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"`
	MaxBackups int    `config:"maxBackups"`
	MaxAge     int    `config:"maxAge"`
}

func (ac *AccessConfig) Validate() {
	if ac.Filename == "" {
		ac.Filename = "access.json.log"
	}
	if ac.MaxSize <= 0 {
		ac.MaxSize = 100
	}
	if ac.MaxAge <= 0 {
		ac.MaxAge = 7
	}
	if ac.MaxBackups <= 0 {
		ac.MaxBackups = 10
	}
}
