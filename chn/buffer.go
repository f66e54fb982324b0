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

// Package chn holds the two lowest-level building blocks of the stream
// engine: Buffer, an in-place ring segment, and Channel, the directional
// conduit built on top of one Buffer. Nothing in this package knows about
// HTTP, servers or analysers; it only moves and accounts for bytes.
package chn

import (
	"io"
)

// Buffer is a flat byte area read and written in place as a ring: data
// never moves unless Realign is called explicitly. head is the offset of
// the first live byte; data is the number of live bytes, which may wrap
// past the end of area back to offset 0.
//
// reserved bytes at the tail of area are never handed out by Free/WriteSlice
// to a producer of new input; they exist so that a header rewrite in flight
// can grow a message in place without colliding with unread input.
type Buffer struct {
	area     []byte
	head     int
	data     int
	reserved int
}

// NewBuffer allocates a Buffer backed by a size-byte area.
func NewBuffer(size int) *Buffer {
	return &Buffer{area: make([]byte, size)}
}

// Cap returns the total capacity of the backing area.
func (b *Buffer) Cap() int { return len(b.area) }

// Len returns the number of live bytes currently stored.
func (b *Buffer) Len() int { return b.data }

// IsEmpty reports whether the buffer holds no live bytes.
func (b *Buffer) IsEmpty() bool { return b.data == 0 }

// IsFull reports whether the buffer has no room left for new input, taking
// the reservation into account.
func (b *Buffer) IsFull() bool { return b.Free() <= 0 }

// SetReserved sets the number of tail bytes withheld from Free/WriteSlice.
// A stream resizes this when an analyser begins rewriting a message so
// growth room survives the in-place rewrite.
func (b *Buffer) SetReserved(n int) { b.reserved = n }

// Free returns how many bytes a producer may still write, excluding the
// reserved region.
func (b *Buffer) Free() int {
	n := len(b.area) - b.data - b.reserved
	if n < 0 {
		return 0
	}
	return n
}

// Reset discards all live bytes without zeroing the area.
func (b *Buffer) Reset() {
	b.head = 0
	b.data = 0
}

func (b *Buffer) wrap(pos int) int {
	size := len(b.area)
	if pos >= size {
		return pos - size
	}
	return pos
}

// tail returns the offset one past the last live byte, wrapped into area.
func (b *Buffer) tail() int { return b.wrap(b.head + b.data) }

// Realign defragments the ring so the live region starts at offset 0 and
// runs contiguously, copying at most once. A no-op if already contiguous.
func (b *Buffer) Realign() {
	if b.head == 0 || b.data == 0 {
		b.head = 0
		return
	}
	if b.head+b.data <= len(b.area) {
		copy(b.area, b.area[b.head:b.head+b.data])
		b.head = 0
		return
	}
	tmp := make([]byte, b.data)
	n := copy(tmp, b.area[b.head:])
	copy(tmp[n:], b.area[:b.data-n])
	copy(b.area, tmp)
	b.head = 0
}

// Peek returns a contiguous view of up to n live bytes starting at head,
// realigning the buffer first if the requested span straddles the wrap
// point. The returned slice aliases the buffer's storage and is only valid
// until the next mutating call.
func (b *Buffer) Peek(n int) []byte {
	if n > b.data {
		n = b.data
	}
	if n == 0 {
		return nil
	}
	if b.head+n > len(b.area) {
		b.Realign()
	}
	return b.area[b.head : b.head+n]
}

// Bytes returns a contiguous view of every live byte, see Peek.
func (b *Buffer) Bytes() []byte { return b.Peek(b.data) }

// Advance discards the first n live bytes without reading them, as a
// consumer does once it has forwarded them onward.
func (b *Buffer) Advance(n int) {
	if n > b.data {
		n = b.data
	}
	b.head = b.wrap(b.head + n)
	b.data -= n
	if b.data == 0 {
		b.head = 0
	}
}

// Write copies as much of p as fits in the free region, wrapping around the
// end of area if needed, and returns the number of bytes actually copied.
// It never blocks and never grows the buffer; a short write means the
// caller must retry once the consumer has made room.
func (b *Buffer) Write(p []byte) int {
	n := len(p)
	if free := b.Free(); n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	pos := b.tail()
	first := len(b.area) - pos
	if first >= n {
		copy(b.area[pos:], p[:n])
	} else {
		copy(b.area[pos:], p[:first])
		copy(b.area[:n-first], p[first:n])
	}
	b.data += n
	return n
}

// WriteSlice returns the largest contiguous writable span at the tail of
// the live region, i.e. up to the wrap point or the reservation boundary,
// whichever comes first. A producer reading directly from a net.Conn issues
// one Read into this span and then calls Commit with the byte count, so
// data that arrives from the network is copied into the ring exactly once.
func (b *Buffer) WriteSlice() []byte {
	free := b.Free()
	if free == 0 {
		return nil
	}
	pos := b.tail()
	span := len(b.area) - pos
	if span > free {
		span = free
	}
	return b.area[pos : pos+span]
}

// Commit records that n bytes, previously written into the span returned by
// WriteSlice, are now live.
func (b *Buffer) Commit(n int) { b.data += n }

// ReadSlice returns the largest contiguous readable span starting at head,
// i.e. up to the wrap point or the end of live data, whichever comes first.
// A consumer writing directly to a net.Conn issues one Write from this span
// and then calls Advance with the byte count actually sent.
func (b *Buffer) ReadSlice() []byte {
	if b.data == 0 {
		return nil
	}
	span := len(b.area) - b.head
	if span > b.data {
		span = b.data
	}
	return b.area[b.head : b.head+span]
}

// ReadFrom reads one slab of data directly from r into the buffer's free
// region, at most one io.Reader.Read call, returning the number of bytes
// stored. It implements io.ReaderFrom's contract loosely: unlike the
// standard one it does not loop to EOF, since the caller drives its own
// read/process/write cycle one pass at a time.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	dst := b.WriteSlice()
	if len(dst) == 0 {
		return 0, nil
	}
	n, err := r.Read(dst)
	if n > 0 {
		b.Commit(n)
	}
	return int64(n), err
}

// WriteTo writes one slab of live data directly to w, at most one
// io.Writer.Write call, and advances past the bytes sent.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	src := b.ReadSlice()
	if len(src) == 0 {
		return 0, nil
	}
	n, err := w.Write(src)
	if n > 0 {
		b.Advance(n)
	}
	return int64(n), err
}
