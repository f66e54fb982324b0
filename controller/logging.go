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
	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/logger"
	"github.com/gobalance/gobalance/logpipe"
)

// accessLog holds every configured log target, each rendering the same
// format string, and hands a completed Record to all of them.
type accessLog struct {
	targets []*logpipe.Target
}

func newAccessLog(cfg LogConfig) (*accessLog, error) {
	al := &accessLog{}
	format := cfg.getFormat()

	for _, line := range cfg.Targets {
		tc, err := logpipe.ParseTargetLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "controller: log target %q", line)
		}
		t, err := logpipe.NewTarget(tc, format)
		if err != nil {
			return nil, errors.Wrapf(err, "controller: log target %q", line)
		}
		al.targets = append(al.targets, t)
	}
	return al, nil
}

// emit hands r to every configured target at SeverityInfo, logging (not
// failing the stream over) any target that errors.
func (al *accessLog) emit(r *logpipe.Record) {
	for _, t := range al.targets {
		if _, err := t.Emit(r, logpipe.SeverityInfo); err != nil {
			logger.Warnf("controller: access log emit failed: %v", err)
		}
	}
}

func (al *accessLog) Close() {
	for _, t := range al.targets {
		t.Close()
	}
}
