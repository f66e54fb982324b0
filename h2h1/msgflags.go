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

package h2h1

// MsgFlag records body-framing facts discovered while transforming a
// message, mirroring the subset of HAProxy's htx message flags this
// package cares about.
type MsgFlag uint8

const (
	MsgBodyCL     MsgFlag = 1 << iota // content-length framing, value known
	MsgBodyTunnel                     // CONNECT: body length is not determined by headers
	MsgBodyChunked                    // no content-length/tunnel, synthesise transfer-encoding
	Msg1xx                            // a 1xx other than 101: no body, expect another HEADERS frame
)

func (m MsgFlag) has(f MsgFlag) bool { return m&f != 0 }
