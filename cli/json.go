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

package cli

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// jsonOutputFlag is the trailing " json" modifier recognized on a command
// line, requesting the response be framed as a JSON object instead of the
// severity-annotated plain text frame.
const jsonOutputFlag = "json"

// HasJSONFlag reports whether fields (already tokenized by strings.Fields)
// ends in the "json" output modifier, returning the fields with it
// stripped.
func HasJSONFlag(fields []string) ([]string, bool) {
	if len(fields) == 0 || fields[len(fields)-1] != jsonOutputFlag {
		return fields, false
	}
	return fields[:len(fields)-1], true
}

// jsonFrame is the envelope a JSON-mode response is wrapped in.
type jsonFrame struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// FrameJSON marshals resp into the CLI's JSON response envelope.
func FrameJSON(sev MsgSeverity, resp string) (string, error) {
	b, err := json.Marshal(jsonFrame{Severity: sev.name(), Message: resp})
	if err != nil {
		return "", errors.Wrap(err, "cli: marshal json frame")
	}
	return string(b), nil
}

// DecodeJSONPayload unmarshals a payload-mode body of JSON into v, used by
// commands that accept structured input (e.g. a batch of stick-table
// updates) rather than positional arguments.
func DecodeJSONPayload(payload string, v any) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return errors.Wrap(err, "cli: decode json payload")
	}
	return nil
}
