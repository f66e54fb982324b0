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

// Package h2h1 rewrites an HTTP/2 header list, already HPACK-decoded by
// the caller, into an HTTP/1.1 byte stream. It never touches the wire
// format itself; the caller owns framing and compression.
package h2h1

// PseudoHeader names an HTTP/2 pseudo-header by its wire code rather than
// its literal ":name" bytes, since Header.Name is nil for an indexed
// pseudo-header field and the code is carried in Header.Len instead.
type PseudoHeader uint8

const (
	PseudoNone PseudoHeader = iota
	PseudoMethod
	PseudoScheme
	PseudoAuthority
	PseudoPath
	PseudoStatus
)

// Header is one record of the input list: either a literal (Name non-nil)
// or an indexed pseudo-header (Name nil, Len carrying the PseudoHeader
// code). The list is terminated by a zero-value Header.
type Header struct {
	Name  []byte
	Value []byte
	Len   PseudoHeader
}

func (h Header) isPseudo() bool { return h.Name == nil }

func (h Header) isTerminator() bool { return h.Name == nil && h.Len == PseudoNone }
