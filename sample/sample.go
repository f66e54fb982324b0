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

// Package sample implements the typed value model, cast matrix and
// fetch/converter expression engine that the analyser chain uses to pull
// values out of a Stream (client address, header fields, stick-table
// counters, ...) and reshape them into the type a rule needs.
package sample

import "net"

// Type is the tag of a Sample's payload.
type Type uint8

const (
	TypeAny Type = iota
	TypeBool
	TypeSInt
	TypeAddr
	TypeIPv4
	TypeIPv6
	TypeStr
	TypeBin
	TypeMeth
)

func (t Type) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeBool:
		return "bool"
	case TypeSInt:
		return "sint"
	case TypeAddr:
		return "addr"
	case TypeIPv4:
		return "ipv4"
	case TypeIPv6:
		return "ipv6"
	case TypeStr:
		return "str"
	case TypeBin:
		return "bin"
	case TypeMeth:
		return "meth"
	default:
		return "unknown"
	}
}

// Flag carries volatility and mutability metadata about a Sample's value.
type Flag uint8

const (
	FlagConst     Flag = 1 << iota // must not be mutated in place; duplicate first
	FlagVol1st                     // only valid for the first occurrence of its kind
	FlagVolHdr                     // invalidated whenever headers are rewritten
	FlagVolTest                    // invalidated at the next test point
	FlagMayChange                  // the value is not yet stable; a later pass may refine it
	FlagNotLast                    // more occurrences of this fetch are available
)

func (f Flag) has(o Flag) bool { return f&o != 0 }

// Sample is a tagged value flowing through a fetch/converter chain.
type Sample struct {
	Type  Type
	Flags Flag
	Data  any // bool | int64 | net.IP | string | []byte | Method, per Type
}

// Method is an HTTP method encoded as a small integer for fast comparison,
// falling back to the literal text for non-standard verbs.
type Method struct {
	Code int
	Text string
}

// New returns a zero Sample with the ANY type, as every evaluation starts.
func New() *Sample { return &Sample{Type: TypeAny} }

// Dup returns a copy of s safe to mutate, clearing FlagConst. Converters
// must call this before mutating a CONST sample in place.
func (s *Sample) Dup() *Sample {
	dup := *s
	dup.Flags &^= FlagConst
	return &dup
}

func (s *Sample) Bool() bool   { b, _ := s.Data.(bool); return b }
func (s *Sample) Int() int64   { n, _ := s.Data.(int64); return n }
func (s *Sample) Str() string  { v, _ := s.Data.(string); return v }
func (s *Sample) Bin() []byte  { b, _ := s.Data.([]byte); return b }
func (s *Sample) IP() net.IP   { ip, _ := s.Data.(net.IP); return ip }
func (s *Sample) Meth() Method { m, _ := s.Data.(Method); return m }
