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

package common

const (
	// App is the process name, used as the metrics namespace.
	App = "gobalance"

	// Version is the software version string of this release. `show info`
	// reports the -ldflags build version instead.
	Version = "v0.0.1"

	// ReadWriteBlockSize bounds how much a single Channel read/write pass
	// moves at once. A connection's two Channels do not each get a
	// full-size buffer; data above this size is moved in several passes.
	ReadWriteBlockSize = 16384

	// DefaultStoreDepth is the default bound on pending store-request and
	// store-response stick-table staging slots per Stream.
	DefaultStoreDepth = 8
)
