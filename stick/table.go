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
	"time"

	"github.com/cespare/xxhash/v2"
)

// Entry is one stick-table row: the key that identifies it, its data
// columns and an optional expiration.
type Entry struct {
	mu     sync.RWMutex
	Key    []byte
	Data   map[DataType]any
	Expire time.Time
}

// Get reads column t under the entry's own read lock, so a peers-replay
// write to one column never tears a concurrent sample-engine read of
// another.
func (e *Entry) Get(t DataType) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.Data[t]
	return v, ok
}

// Set writes column t under the entry's own write lock.
func (e *Entry) Set(t DataType, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Data == nil {
		e.Data = make(map[DataType]any)
	}
	e.Data[t] = v
}

const shardCount = 64

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Table is a sharded key→Entry store. Structural changes (insert, delete,
// expire) take the owning shard's write lock; the per-entry RWMutex
// guards column reads/writes so the two don't contend on the same lock.
type Table struct {
	Name    string
	KeySize int
	shards  [shardCount]*shard
}

// NewTable allocates an empty Table. keySize bounds how many bytes of a
// key are significant; longer keys are truncated, matching the
// fixed-width key stick-tables use on the wire.
func NewTable(name string, keySize int) *Table {
	t := &Table{Name: name, KeySize: keySize}
	for i := range t.shards {
		t.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return t
}

func (t *Table) shardFor(key []byte) *shard {
	h := xxhash.Sum64(key)
	return t.shards[h%uint64(len(t.shards))]
}

func (t *Table) normalize(key []byte) []byte {
	if t.KeySize > 0 && len(key) > t.KeySize {
		key = key[:t.KeySize]
	}
	return key
}

// Lookup returns the entry for key, or nil if none exists (or it expired).
func (t *Table) Lookup(key []byte) *Entry {
	key = t.normalize(key)
	sh := t.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.entries[string(key)]
	sh.mu.RUnlock()
	if !ok {
		return nil
	}
	if e.expired(time.Now()) {
		t.Delete(key)
		return nil
	}
	return e
}

// GetOrCreate returns the existing entry for key, creating one with the
// given TTL (zero means no expiration) if absent.
func (t *Table) GetOrCreate(key []byte, ttl time.Duration) *Entry {
	key = t.normalize(key)
	sh := t.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[string(key)]
	if ok && !e.expired(time.Now()) {
		return e
	}
	e = &Entry{Key: append([]byte(nil), key...)}
	if ttl > 0 {
		e.Expire = time.Now().Add(ttl)
	}
	sh.entries[string(key)] = e
	return e
}

// Delete removes key's entry, if any.
func (t *Table) Delete(key []byte) {
	key = t.normalize(key)
	sh := t.shardFor(key)
	sh.mu.Lock()
	delete(sh.entries, string(key))
	sh.mu.Unlock()
}

// Range calls fn once for every live (non-expired) entry, in no
// particular order, stopping early if fn returns false. Like Len, it is
// an O(n) scan across every shard: suitable for `show table` and for a
// startup bulk-teach walk, not a per-request hot path.
func (t *Table) Range(fn func(key []byte, e *Entry) bool) {
	now := time.Now()
	for _, sh := range t.shards {
		sh.mu.RLock()
		for k, e := range sh.entries {
			if e.expired(now) {
				continue
			}
			if !fn([]byte(k), e) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// Len returns the total number of live (non-expired) entries. It is an
// O(n) scan, suitable for `show table` but not a hot path.
func (t *Table) Len() int {
	now := time.Now()
	n := 0
	for _, sh := range t.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			if !e.expired(now) {
				n++
			}
		}
		sh.mu.RUnlock()
	}
	return n
}

func (e *Entry) expired(now time.Time) bool {
	return !e.Expire.IsZero() && !now.Before(e.Expire)
}
