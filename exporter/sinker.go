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

package exporter

// RecordKind names which sink a given Sinker implementation handles.
type RecordKind string

const (
	RecordTraces RecordKind = "traces"
	RecordAccess RecordKind = "access"
)

// Sinker writes one kind of exported data to its destination.
type Sinker interface {
	// Name reports which record kind the sinker handles.
	Name() RecordKind

	// Sink writes data, whose concrete type is specific to the sinker.
	Sink(data any) error

	// Close releases the sinker's resources.
	Close()
}

type CreateFunc func(Config) (Sinker, error)

var sinkFactory = map[RecordKind]CreateFunc{}

func Get(name RecordKind) CreateFunc {
	return sinkFactory[name]
}

func Register(name RecordKind, createFunc CreateFunc) {
	sinkFactory[name] = createFunc
}
