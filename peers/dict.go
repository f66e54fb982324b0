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

import "container/list"

// dictCacheSize bounds the per-peer LRU used to dictionary-encode DICT
// column values (server names, most commonly): small enough that the
// cache itself never costs more wire bytes than sending ids directly.
const dictCacheSize = 128

// dictEntry is one cached value. Ids start at 1 and an evicted entry's id
// is handed to the value that replaces it.
type dictEntry struct {
	id    int
	value string
	elem  *list.Element
}

// txDict is the transmit-side per-peer dictionary: given a value, it
// returns the id to send if the value is already known to the peer, or
// allocates a new id (evicting the LRU victim) when it is not.
type txDict struct {
	order   *list.List
	byValue map[string]*dictEntry
	nextID  int
}

func newTxDict() *txDict {
	return &txDict{
		order:   list.New(),
		byValue: make(map[string]*dictEntry),
	}
}

// Lookup returns the cached id for value and true if it is already known
// (and refreshes its LRU position), or allocates a slot and returns
// (id, false) when the caller must send the full value alongside it.
func (d *txDict) Lookup(value string) (id int, known bool) {
	if e, ok := d.byValue[value]; ok {
		d.order.MoveToFront(e.elem)
		return e.id, true
	}

	var e *dictEntry
	if d.order.Len() >= dictCacheSize {
		victim := d.order.Back()
		old := victim.Value.(*dictEntry)
		delete(d.byValue, old.value)
		d.order.Remove(victim)
		e = &dictEntry{id: old.id, value: value}
	} else {
		d.nextID++
		e = &dictEntry{id: d.nextID, value: value}
	}
	e.elem = d.order.PushFront(e)
	d.byValue[value] = e
	return e.id, false
}

// rxDict is the receive-side per-peer dictionary: a map keyed by wire id
// (1-based), filled in as DEFINE-carrying updates arrive.
type rxDict struct {
	entries map[int]string
}

func newRxDict() *rxDict {
	return &rxDict{entries: make(map[int]string)}
}

// Store records value under id, overwriting whatever occupied that slot
// (the sender's own LRU eviction keeps both sides consistent).
func (d *rxDict) Store(id int, value string) {
	d.entries[id] = value
}

// Lookup resolves a bare id reference. ok is false when the id was never
// taught to us (a gap that should simply be dropped, per spec).
func (d *rxDict) Lookup(id int) (string, bool) {
	v, ok := d.entries[id]
	return v, ok
}
