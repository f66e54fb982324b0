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

package stick

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// EncodeOpaque BSON-marshals v for storage under DataOpaque, an extension
// beyond the five wire data types the peers protocol defines natively:
// applications that want to stash a structured blob alongside a stick-
// table row (a parsed JWT claim set, a rate-limit policy snapshot) get a
// typed round-trip instead of hand-rolling their own byte encoding.
func EncodeOpaque(v any) ([]byte, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "stick: encode opaque value")
	}
	return b, nil
}

// DecodeOpaque unmarshals b, previously produced by EncodeOpaque, into v.
func DecodeOpaque(b []byte, v any) error {
	if err := bson.Unmarshal(b, v); err != nil {
		return errors.Wrap(err, "stick: decode opaque value")
	}
	return nil
}
