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

package h2h1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformTrailersBasic(t *testing.T) {
	headers := []Header{literal("x-checksum", "abc123")}
	out, err := TransformTrailers(headers)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "x-checksum", string(out[0].Name))
}

func TestTransformTrailersRejectsPseudo(t *testing.T) {
	_, err := TransformTrailers([]Header{pseudo(PseudoStatus, "200")})
	assert.Error(t, err)
}

func TestTransformTrailersRejectsFramingHeaders(t *testing.T) {
	_, err := TransformTrailers([]Header{literal("content-length", "10")})
	assert.Error(t, err)
}
