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

// Package mapstructure is a thin decode shim over
// github.com/mitchellh/mapstructure for turning a map[string]any into a
// typed struct outside the main confengine tree. No other package in this
// module imports it.
package mapstructure

import (
	"github.com/mitchellh/mapstructure"
)

// Decode decodes src into dst using the "mapstructure" struct tag, with weak
// type conversion enabled so that config values read back as strings (the
// common case for CLI and ucfg-adjacent sources) still land on int/bool/
// duration fields.
func Decode(src, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(src)
}
