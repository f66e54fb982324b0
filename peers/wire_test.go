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

package peers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintSingleByteBelowThreshold(t *testing.T) {
	for _, v := range []uint64{0, 1, 100, 239} {
		buf := encodeVarint(nil, v)
		assert.Len(t, buf, 1)
		got, n, err := decodeVarint(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 1, n)
	}
}

func TestVarintThresholdsMatchGeometricBoundaries(t *testing.T) {
	cases := []struct {
		v    uint64
		n    int
	}{
		{0xEF, 1},
		{0xF0, 2},
		{0x8EF, 2},
		{0x8F0, 3},
		{0x408EF, 3},
		{0x408F0, 4},
	}
	for _, c := range cases {
		buf := encodeVarint(nil, c.v)
		assert.Len(t, buf, c.n, "value %#x", c.v)
		got, n, err := decodeVarint(buf)
		require.NoError(t, err)
		assert.Equal(t, c.v, got)
		assert.Equal(t, c.n, n)
	}
}

func TestVarintRoundTripsLargeValues(t *testing.T) {
	for _, v := range []uint64{1 << 20, 1 << 40, 1<<63 - 1} {
		buf := encodeVarint(nil, v)
		got, n, err := decodeVarint(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestVarintDecodeTruncatedErrors(t *testing.T) {
	_, _, err := decodeVarint(nil)
	assert.Error(t, err)

	full := encodeVarint(nil, 0x408F0)
	_, _, err = decodeVarint(full[:len(full)-1])
	assert.Error(t, err)
}

func TestMsgTypeLengthPrefixedBit(t *testing.T) {
	assert.True(t, StkUpdate.IsLengthPrefixed())
	assert.False(t, CtrlHeartbeat.IsLengthPrefixed())
}
