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

	"github.com/gobalance/gobalance/stick"
)

func TestMsgTypeForCombinations(t *testing.T) {
	assert.Equal(t, StkIncUpdate, MsgTypeFor(false, false))
	assert.Equal(t, StkUpdate, MsgTypeFor(true, false))
	assert.Equal(t, StkIncUpdateTS, MsgTypeFor(false, true))
	assert.Equal(t, StkUpdateTS, MsgTypeFor(true, true))
}

func TestEncodeDecodeKeyString(t *testing.T) {
	dst := EncodeKey(nil, KeyString, []byte("example.com"))
	key, n, err := DecodeKey(KeyString, 0, dst)
	require.NoError(t, err)
	assert.Equal(t, "example.com", string(key))
	assert.Equal(t, len(dst), n)
}

func TestEncodeDecodeKeyBlob(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	dst := EncodeKey(nil, KeyBlob, raw)
	key, n, err := DecodeKey(KeyBlob, 4, dst)
	require.NoError(t, err)
	assert.Equal(t, raw, key)
	assert.Equal(t, 4, n)
}

func TestZigzagRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1000, -1000, 1 << 40, -(1 << 40)} {
		assert.Equal(t, v, zigzagDecode(zigzagEncode(v)))
	}
}

func TestEncodeDecodeValueSInt(t *testing.T) {
	dst, err := EncodeValue(nil, stick.DataSInt, int64(-42), nil)
	require.NoError(t, err)

	v, n, err := DecodeValue(stick.DataSInt, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v)
	assert.Equal(t, len(dst), n)
}

func TestEncodeDecodeValueUInt(t *testing.T) {
	dst, err := EncodeValue(nil, stick.DataUInt, int64(1000), nil)
	require.NoError(t, err)

	v, n, err := DecodeValue(stick.DataUInt, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), v)
	assert.Equal(t, len(dst), n)
}

func TestEncodeDecodeValueDictFreshThenCached(t *testing.T) {
	tx := newTxDict()
	rx := newRxDict()

	dst1, err := EncodeValue(nil, stick.DataDict, "srv1", tx)
	require.NoError(t, err)
	v1, n1, err := DecodeValue(stick.DataDict, dst1, rx)
	require.NoError(t, err)
	assert.Equal(t, "srv1", v1)
	assert.Equal(t, len(dst1), n1)

	dst2, err := EncodeValue(nil, stick.DataDict, "srv1", tx)
	require.NoError(t, err)
	v2, n2, err := DecodeValue(stick.DataDict, dst2, rx)
	require.NoError(t, err)
	assert.Equal(t, "srv1", v2)
	assert.Equal(t, len(dst2), n2)
	assert.Less(t, len(dst2), len(dst1), "the cached encoding must be smaller")
}

func TestEncodeDecodeValueDictUnknownIDIsDropped(t *testing.T) {
	rx := newRxDict()
	// A cached reference to an id this rx side never learned.
	dst := encodeVarint(nil, 7)
	dst = append(dst, 1)

	_, _, err := DecodeValue(stick.DataDict, dst, rx)
	assert.ErrorIs(t, err, ErrDictMiss)
}

func TestEncodeDecodeValueOpaque(t *testing.T) {
	blob := []byte{0xde, 0xad, 0xbe, 0xef}
	dst, err := EncodeValue(nil, stick.DataOpaque, blob, nil)
	require.NoError(t, err)

	v, n, err := DecodeValue(stick.DataOpaque, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, blob, v)
	assert.Equal(t, len(dst), n)
}

func TestEncodeDecodeUpdateRoundTrip(t *testing.T) {
	tx := newTxDict()
	rx := newRxDict()
	dataTypes := []stick.DataType{stick.DataUInt, stick.DataDict}

	u := Update{
		HasID:       true,
		ID:          42,
		HasExpire:   true,
		ExpireDelta: 1000,
		Key:         []byte("10.0.0.1"),
		Data: map[stick.DataType]any{
			stick.DataUInt: int64(7),
			stick.DataDict: "backend-1",
		},
	}

	payload, msgType, err := EncodeUpdate(u, KeyString, dataTypes, tx)
	require.NoError(t, err)
	assert.Equal(t, StkUpdateTS, msgType)

	got, err := DecodeUpdate(msgType, KeyString, 0, dataTypes, payload, rx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.HasID)
	assert.Equal(t, u.ExpireDelta, got.ExpireDelta)
	assert.True(t, got.HasExpire)
	assert.Equal(t, "10.0.0.1", string(got.Key))
	assert.Equal(t, uint64(7), got.Data[stick.DataUInt])
	assert.Equal(t, "backend-1", got.Data[stick.DataDict])
}

func TestEncodeDecodeUpdateIncrementalNoID(t *testing.T) {
	u := Update{Key: []byte("k")}
	payload, msgType, err := EncodeUpdate(u, KeyString, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StkIncUpdate, msgType)

	got, err := DecodeUpdate(msgType, KeyString, 0, nil, payload, nil)
	require.NoError(t, err)
	assert.False(t, got.HasID)
	assert.False(t, got.HasExpire)
	assert.Equal(t, "k", string(got.Key))
}
