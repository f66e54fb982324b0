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
	"github.com/pkg/errors"

	"github.com/gobalance/gobalance/stick"
)

// ErrDictMiss is returned by DecodeValue when a DICT column references an
// id this side was never taught. Per protocol, the column is simply
// dropped rather than treated as a framing error.
var ErrDictMiss = errors.New("peers: dictionary id not known")

// KeyKind says how a table's key is framed on the wire.
type KeyKind uint8

const (
	KeyBlob   KeyKind = iota // fixed-size raw bytes, size given by the table
	KeyString                // varint length + bytes
	KeySInt                  // raw 4-byte integer key
)

// Update is one decoded stick-table row mutation.
type Update struct {
	ID          uint32
	HasID       bool
	ExpireDelta uint32
	HasExpire   bool
	Key         []byte
	Data        map[stick.DataType]any
}

// MsgTypeFor picks the wire type code for an update given whether it
// carries an explicit id (vs. implying last_pushed+1) and/or an expire
// delta (omitted entirely under DWNGRD).
func MsgTypeFor(hasID, hasExpire bool) MsgType {
	switch {
	case hasID && hasExpire:
		return StkUpdateTS
	case hasID:
		return StkUpdate
	case hasExpire:
		return StkIncUpdateTS
	default:
		return StkIncUpdate
	}
}

func zigzagEncode(v int64) uint64 { return uint64((v << 1) ^ (v >> 63)) }
func zigzagDecode(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case int64:
		return uint64(x), true
	case int:
		return uint64(x), true
	}
	return 0, false
}

// EncodeKey appends key to dst in the wire form kind dictates.
func EncodeKey(dst []byte, kind KeyKind, key []byte) []byte {
	if kind == KeyString {
		dst = encodeVarint(dst, uint64(len(key)))
	}
	return append(dst, key...)
}

// DecodeKey reads a key from the front of src, returning it and the
// number of bytes consumed. fixedSize is used for KeyBlob/KeySInt keys,
// which carry no length prefix of their own.
func DecodeKey(kind KeyKind, fixedSize int, src []byte) (key []byte, n int, err error) {
	if kind == KeyString {
		l, ln, err := decodeVarint(src)
		if err != nil {
			return nil, 0, err
		}
		if ln+int(l) > len(src) {
			return nil, 0, errors.New("peers: truncated key")
		}
		return src[ln : ln+int(l)], ln + int(l), nil
	}
	if fixedSize > len(src) {
		return nil, 0, errors.New("peers: truncated key")
	}
	return src[:fixedSize], fixedSize, nil
}

// EncodeValue appends the wire encoding of a single column's value to dst.
// DICT columns consult tx to decide between sending a bare cached id or
// the full value alongside a freshly allocated one.
func EncodeValue(dst []byte, t stick.DataType, v any, tx *txDict) ([]byte, error) {
	switch t {
	case stick.DataSInt, stick.DataFRQP:
		n, ok := v.(int64)
		if !ok {
			return nil, errors.Errorf("peers: data type %d value has wrong type %T", t, v)
		}
		return encodeVarint(dst, zigzagEncode(n)), nil

	case stick.DataUInt, stick.DataULL:
		n, ok := toUint64(v)
		if !ok {
			return nil, errors.Errorf("peers: data type %d value has wrong type %T", t, v)
		}
		return encodeVarint(dst, n), nil

	case stick.DataDict:
		s, ok := v.(string)
		if !ok {
			return nil, errors.Errorf("peers: DICT value has wrong type %T", v)
		}
		id, known := tx.Lookup(s)
		dst = encodeVarint(dst, uint64(id))
		if known {
			return append(dst, 1), nil
		}
		dst = append(dst, 0)
		dst = encodeVarint(dst, uint64(len(s)))
		return append(dst, s...), nil

	case stick.DataOpaque:
		b, ok := v.([]byte)
		if !ok {
			return nil, errors.Errorf("peers: OPAQUE value has wrong type %T", v)
		}
		dst = encodeVarint(dst, uint64(len(b)))
		return append(dst, b...), nil

	default:
		return nil, errors.Errorf("peers: unknown data type %d", t)
	}
}

// DecodeValue reads one column's value from the front of src, returning
// the decoded value and bytes consumed. A DICT column whose id is unknown
// to rx returns ErrDictMiss alongside the bytes consumed (the caller must
// still advance past it, it just has nothing usable to store).
func DecodeValue(t stick.DataType, src []byte, rx *rxDict) (any, int, error) {
	switch t {
	case stick.DataSInt, stick.DataFRQP:
		raw, n, err := decodeVarint(src)
		if err != nil {
			return nil, 0, err
		}
		return zigzagDecode(raw), n, nil

	case stick.DataUInt, stick.DataULL:
		raw, n, err := decodeVarint(src)
		if err != nil {
			return nil, 0, err
		}
		return raw, n, nil

	case stick.DataDict:
		id, n1, err := decodeVarint(src)
		if err != nil {
			return nil, 0, err
		}
		if n1 >= len(src) {
			return nil, 0, errors.New("peers: truncated dict value")
		}
		flag := src[n1]
		pos := n1 + 1
		if flag == 1 {
			v, ok := rx.Lookup(int(id))
			if !ok {
				return nil, pos, ErrDictMiss
			}
			return v, pos, nil
		}
		l, n2, err := decodeVarint(src[pos:])
		if err != nil {
			return nil, 0, err
		}
		pos += n2
		if pos+int(l) > len(src) {
			return nil, 0, errors.New("peers: truncated dict value")
		}
		v := string(src[pos : pos+int(l)])
		rx.Store(int(id), v)
		return v, pos + int(l), nil

	case stick.DataOpaque:
		l, n1, err := decodeVarint(src)
		if err != nil {
			return nil, 0, err
		}
		if n1+int(l) > len(src) {
			return nil, 0, errors.New("peers: truncated opaque value")
		}
		return append([]byte(nil), src[n1:n1+int(l)]...), n1 + int(l), nil

	default:
		return nil, 0, errors.Errorf("peers: unknown data type %d", t)
	}
}

// EncodeUpdate serializes u's key and data columns (in the order given by
// dataTypes) and returns the payload plus the message type code the
// presence of ID/ExpireDelta selects.
func EncodeUpdate(u Update, keyKind KeyKind, dataTypes []stick.DataType, tx *txDict) ([]byte, MsgType, error) {
	var dst []byte
	if u.HasID {
		dst = append(dst, byte(u.ID>>24), byte(u.ID>>16), byte(u.ID>>8), byte(u.ID))
	}
	if u.HasExpire {
		dst = append(dst, byte(u.ExpireDelta>>24), byte(u.ExpireDelta>>16), byte(u.ExpireDelta>>8), byte(u.ExpireDelta))
	}
	dst = EncodeKey(dst, keyKind, u.Key)

	for _, t := range dataTypes {
		v, ok := u.Data[t]
		if !ok {
			continue
		}
		var err error
		dst, err = EncodeValue(dst, t, v, tx)
		if err != nil {
			return nil, 0, err
		}
	}
	return dst, MsgTypeFor(u.HasID, u.HasExpire), nil
}

// DecodeUpdate parses a payload framed by msgType.
func DecodeUpdate(msgType MsgType, keyKind KeyKind, fixedKeySize int, dataTypes []stick.DataType, src []byte, rx *rxDict) (Update, error) {
	var u Update
	pos := 0

	switch msgType {
	case StkUpdate, StkUpdateTS:
		u.HasID = true
	}
	switch msgType {
	case StkUpdateTS, StkIncUpdateTS:
		u.HasExpire = true
	}

	if u.HasID {
		if pos+4 > len(src) {
			return u, errors.New("peers: truncated update id")
		}
		u.ID = uint32(src[pos])<<24 | uint32(src[pos+1])<<16 | uint32(src[pos+2])<<8 | uint32(src[pos+3])
		pos += 4
	}
	if u.HasExpire {
		if pos+4 > len(src) {
			return u, errors.New("peers: truncated update expire")
		}
		u.ExpireDelta = uint32(src[pos])<<24 | uint32(src[pos+1])<<16 | uint32(src[pos+2])<<8 | uint32(src[pos+3])
		pos += 4
	}

	key, n, err := DecodeKey(keyKind, fixedKeySize, src[pos:])
	if err != nil {
		return u, err
	}
	u.Key = append([]byte(nil), key...)
	pos += n

	u.Data = make(map[stick.DataType]any, len(dataTypes))
	for _, t := range dataTypes {
		if pos >= len(src) {
			break
		}
		v, n, err := DecodeValue(t, src[pos:], rx)
		pos += n
		if err != nil {
			if errors.Is(err, ErrDictMiss) {
				continue
			}
			return u, err
		}
		u.Data[t] = v
	}
	return u, nil
}
