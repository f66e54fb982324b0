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

// Package stick implements stick-table storage: a sharded key→data store
// keyed by an opaque byte string, with a small fixed set of wire-codable
// data types shared between the sample engine (reads/writes counters) and
// the peers protocol (replicates entries between processes).
package stick

import "time"

// DataType is the wire-level encoding of one stored column.
type DataType uint8

const (
	DataSInt  DataType = iota // signed varint
	DataUInt                  // unsigned varint
	DataULL                   // unsigned 64-bit counter, never wraps down
	DataFRQP                  // frequency counter over a period
	DataDict                  // LRU dictionary-encoded value, see peers
	DataOpaque                // BSON-encoded blob, see opaque.go
)

// FreqCounter is a period-based frequency counter: curr/prev buckets that
// roll over every Period, giving a smoothed rolling rate without storing a
// full time series.
type FreqCounter struct {
	Period   time.Duration
	currTick time.Time
	curr     int64
	prev     int64
}

// NewFreqCounter returns a counter that rolls over every period.
func NewFreqCounter(period time.Duration) *FreqCounter {
	return &FreqCounter{Period: period}
}

// Update rolls the buckets forward if period has elapsed since the last
// update, then adds n to the current bucket.
func (f *FreqCounter) Update(now time.Time, n int64) {
	f.roll(now)
	f.curr += n
}

func (f *FreqCounter) roll(now time.Time) {
	if f.currTick.IsZero() {
		f.currTick = now
		return
	}
	elapsed := now.Sub(f.currTick)
	if elapsed < f.Period {
		return
	}
	periods := int64(elapsed / f.Period)
	if periods == 1 {
		f.prev = f.curr
		f.curr = 0
	} else {
		// More than one full period elapsed with no updates: both
		// buckets are stale.
		f.prev = 0
		f.curr = 0
	}
	f.currTick = f.currTick.Add(time.Duration(periods) * f.Period)
}

// Rate estimates the current events-per-period rate as a weighted blend
// of the two buckets, proportional to how far into the current period now
// falls.
func (f *FreqCounter) Rate(now time.Time) int64 {
	if f.Period <= 0 {
		return f.curr
	}
	elapsed := now.Sub(f.currTick)
	if elapsed < 0 {
		elapsed = 0
	}
	frac := int64(elapsed) * 1000 / int64(f.Period)
	if frac > 1000 {
		frac = 1000
	}
	return f.prev*(1000-frac)/1000 + f.curr
}
