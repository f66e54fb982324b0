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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableGetOrCreateThenLookup(t *testing.T) {
	tbl := NewTable("src", 4)
	key := []byte("1.2.3.4")

	e := tbl.GetOrCreate(key, 0)
	require.NotNil(t, e)
	e.Set(DataUInt, int64(1))

	found := tbl.Lookup(key)
	require.NotNil(t, found)
	v, ok := found.Get(DataUInt)
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestTableKeyTruncatedToKeySize(t *testing.T) {
	tbl := NewTable("src", 4)
	e1 := tbl.GetOrCreate([]byte("1.2.3.4"), 0)
	e2 := tbl.GetOrCreate([]byte("1.2.3.4-extra"), 0)
	assert.Same(t, e1, e2)
}

func TestTableLookupMissingReturnsNil(t *testing.T) {
	tbl := NewTable("src", 4)
	assert.Nil(t, tbl.Lookup([]byte("nope")))
}

func TestTableEntryExpiresAndIsEvictedOnLookup(t *testing.T) {
	tbl := NewTable("src", 16)
	key := []byte("k")
	tbl.GetOrCreate(key, time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, tbl.Lookup(key))
	assert.Equal(t, 0, tbl.Len())
}

func TestTableGetOrCreateReplacesExpiredEntry(t *testing.T) {
	tbl := NewTable("src", 16)
	key := []byte("k")
	first := tbl.GetOrCreate(key, time.Millisecond)
	first.Set(DataUInt, int64(99))

	time.Sleep(5 * time.Millisecond)
	second := tbl.GetOrCreate(key, 0)
	assert.NotSame(t, first, second)
	_, ok := second.Get(DataUInt)
	assert.False(t, ok)
}

func TestTableDelete(t *testing.T) {
	tbl := NewTable("src", 16)
	key := []byte("k")
	tbl.GetOrCreate(key, 0)
	require.Equal(t, 1, tbl.Len())

	tbl.Delete(key)
	assert.Nil(t, tbl.Lookup(key))
	assert.Equal(t, 0, tbl.Len())
}

func TestTableLenCountsOnlyLiveEntries(t *testing.T) {
	tbl := NewTable("src", 16)
	tbl.GetOrCreate([]byte("a"), 0)
	tbl.GetOrCreate([]byte("b"), 0)
	tbl.GetOrCreate([]byte("c"), time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, tbl.Len())
}

func TestTableConcurrentAccessIsSafe(t *testing.T) {
	tbl := NewTable("src", 16)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []byte{byte(i % 8)}
			e := tbl.GetOrCreate(key, 0)
			e.Set(DataUInt, int64(i))
			e.Get(DataUInt)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, tbl.Len(), 8)
}

func TestTableRangeVisitsOnlyLiveEntries(t *testing.T) {
	tbl := NewTable("src", 16)
	tbl.GetOrCreate([]byte("a"), 0).Set(DataUInt, int64(1))
	tbl.GetOrCreate([]byte("b"), time.Millisecond).Set(DataUInt, int64(2))
	time.Sleep(5 * time.Millisecond)

	seen := map[string]bool{}
	tbl.Range(func(key []byte, e *Entry) bool {
		seen[string(key)] = true
		return true
	})
	assert.Equal(t, map[string]bool{"a": true}, seen)
}

func TestTableRangeStopsEarly(t *testing.T) {
	tbl := NewTable("src", 16)
	for _, k := range []string{"a", "b", "c", "d"} {
		tbl.GetOrCreate([]byte(k), 0)
	}

	count := 0
	tbl.Range(func(key []byte, e *Entry) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestEntryGetSetRoundTripsOpaque(t *testing.T) {
	tbl := NewTable("src", 16)
	e := tbl.GetOrCreate([]byte("k"), 0)

	type payload struct {
		Name string
		N    int
	}
	enc, err := EncodeOpaque(payload{Name: "x", N: 7})
	require.NoError(t, err)
	e.Set(DataOpaque, enc)

	raw, ok := e.Get(DataOpaque)
	require.True(t, ok)

	var out payload
	require.NoError(t, DecodeOpaque(raw.([]byte), &out))
	assert.Equal(t, payload{Name: "x", N: 7}, out)
}
