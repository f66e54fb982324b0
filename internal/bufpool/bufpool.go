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

// Package bufpool is the per-task scratch arena: a pool of reusable byte
// buffers ("trash" in the HAProxy sense) that analysers borrow for one pass
// of the stream-processing loop and return before the task suspends.
// Holding a reference across a suspension point is a bug, not a feature.
package bufpool

import (
	"github.com/valyala/bytebufferpool"
)

// Acquire borrows a zeroed *bytebufferpool.ByteBuffer from the shared pool.
func Acquire() *bytebufferpool.ByteBuffer {
	return bytebufferpool.Get()
}

// Release returns b to the pool. b must not be referenced afterwards.
func Release(b *bytebufferpool.ByteBuffer) {
	if b == nil {
		return
	}
	bytebufferpool.Put(b)
}

// WithBuffer borrows a buffer for the duration of f and releases it
// afterwards, even if f panics.
func WithBuffer(f func(b *bytebufferpool.ByteBuffer)) {
	b := Acquire()
	defer Release(b)
	f(b)
}
