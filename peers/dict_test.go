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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxDictFirstLookupIsUnknown(t *testing.T) {
	d := newTxDict()
	id, known := d.Lookup("srv1")
	assert.False(t, known)
	assert.Equal(t, 1, id)
}

func TestTxDictRepeatLookupIsKnown(t *testing.T) {
	d := newTxDict()
	id1, _ := d.Lookup("srv1")
	id2, known := d.Lookup("srv1")
	assert.True(t, known)
	assert.Equal(t, id1, id2)
}

func TestTxDictEvictsLeastRecentlyUsed(t *testing.T) {
	d := newTxDict()
	var v0ID int
	for i := 0; i < dictCacheSize; i++ {
		id, _ := d.Lookup(fmt.Sprintf("v%d", i))
		if i == 0 {
			v0ID = id
		}
	}
	// v0 was inserted first and never touched again, making it the LRU
	// victim once the cache is full and one more value arrives.
	newID, known := d.Lookup("new-value")
	assert.False(t, known)
	assert.Equal(t, v0ID, newID, "the evicted slot's id is recycled")

	_, known = d.Lookup("v0")
	assert.False(t, known)
}

func TestTxDictLookupRefreshesRecency(t *testing.T) {
	d := newTxDict()
	d.Lookup("keep-me")
	for i := 0; i < dictCacheSize-1; i++ {
		d.Lookup(fmt.Sprintf("filler%d", i))
	}
	d.Lookup("keep-me") // touch again, should move to front
	d.Lookup("one-more-to-evict-lru")

	_, known := d.Lookup("keep-me")
	assert.True(t, known)
}

func TestRxDictStoreAndLookup(t *testing.T) {
	d := newRxDict()
	d.Store(3, "srv1")

	v, ok := d.Lookup(3)
	assert.True(t, ok)
	assert.Equal(t, "srv1", v)

	_, ok = d.Lookup(99)
	assert.False(t, ok)
}
