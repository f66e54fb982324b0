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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TargetConfig is one parsed "log <addr> ..." configuration line.
type TargetConfig struct {
	Addr       string
	Len        int
	Frame      FrameKind
	Facility   Facility
	MaxLevel   Severity
	MinLevel   Severity
	HasLevels  bool
	SampleSize int
	Ranges     []Range
}

// ParseTargetLine parses:
//
//	log <addr> [len <n>] [format rfc3164|rfc5424|short|raw] [sample <ranges>:<size>] <facility> [<max-level> [<min-level>]]
func ParseTargetLine(line string) (TargetConfig, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "log" {
		return TargetConfig{}, errors.Errorf("logpipe: malformed log target line %q", line)
	}

	cfg := TargetConfig{
		Addr:     fields[1],
		Frame:    FrameRFC3164,
		MaxLevel: SeverityDebug,
		MinLevel: SeverityEmerg,
	}

	i := 2
	for i < len(fields) {
		switch fields[i] {
		case "len":
			if i+1 >= len(fields) {
				return TargetConfig{}, errors.New("logpipe: \"len\" requires a value")
			}
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return TargetConfig{}, errors.Wrap(err, "logpipe: malformed \"len\" value")
			}
			cfg.Len = n
			i += 2
		case "format":
			if i+1 >= len(fields) {
				return TargetConfig{}, errors.New("logpipe: \"format\" requires a value")
			}
			k, ok := ParseFrameKind(fields[i+1])
			if !ok {
				return TargetConfig{}, errors.Errorf("logpipe: unknown format %q", fields[i+1])
			}
			cfg.Frame = k
			i += 2
		case "sample":
			if i+1 >= len(fields) {
				return TargetConfig{}, errors.New("logpipe: \"sample\" requires a value")
			}
			spec := fields[i+1]
			colon := strings.LastIndexByte(spec, ':')
			if colon < 0 {
				return TargetConfig{}, errors.Errorf("logpipe: malformed sample spec %q", spec)
			}
			size, err := strconv.Atoi(spec[colon+1:])
			if err != nil {
				return TargetConfig{}, errors.Wrap(err, "logpipe: malformed sample size")
			}
			ranges, err := ParseRanges(spec[:colon])
			if err != nil {
				return TargetConfig{}, err
			}
			cfg.SampleSize = size
			cfg.Ranges = ranges
			i += 2
		default:
			goto facilityAndLevels
		}
	}

facilityAndLevels:
	rest := fields[i:]
	if len(rest) == 0 {
		return TargetConfig{}, errors.New("logpipe: log target line is missing a facility")
	}
	fac, err := ParseFacility(rest[0])
	if err != nil {
		return TargetConfig{}, err
	}
	cfg.Facility = fac

	if len(rest) >= 2 {
		max, err := ParseSeverity(rest[1])
		if err != nil {
			return TargetConfig{}, err
		}
		cfg.MaxLevel = max
		cfg.HasLevels = true
	}
	if len(rest) >= 3 {
		min, err := ParseSeverity(rest[2])
		if err != nil {
			return TargetConfig{}, err
		}
		cfg.MinLevel = min
	}
	return cfg, nil
}

// Target ties a compiled format, a transport and an optional sampler
// together for one configured log destination.
type Target struct {
	Config TargetConfig
	format *Format
	sample *Sampler
	sender *sender
}

// NewTarget compiles formatStr and, if cfg carries a sample spec, builds
// its Sampler, then opens the lazy transport for cfg.Addr.
func NewTarget(cfg TargetConfig, formatStr string) (*Target, error) {
	f, err := CompileFormat(formatStr)
	if err != nil {
		return nil, err
	}

	t := &Target{Config: cfg, format: f, sender: newSender(cfg.Addr)}
	if cfg.SampleSize > 0 {
		s, err := NewSampler(cfg.SampleSize, cfg.Ranges)
		if err != nil {
			return nil, err
		}
		t.sample = s
	}
	return t, nil
}

// Emit renders r, applies the target's severity gate and sampling
// decision, frames the result and sends it. A false, nil return means the
// line was filtered (severity out of range or sampled out), not an error.
func (t *Target) Emit(r *Record, sev Severity) (bool, error) {
	if t.Config.HasLevels && (sev > t.Config.MaxLevel || sev < t.Config.MinLevel) {
		return false, nil
	}
	if t.sample != nil && !t.sample.Keep() {
		return false, nil
	}

	body, err := t.format.Render(r)
	if err != nil {
		return false, err
	}
	line := Frame(t.Config.Frame, t.Config.Facility, sev, body)
	if err := t.sender.send([]byte(line)); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the target's transport.
func (t *Target) Close() error { return t.sender.close() }
