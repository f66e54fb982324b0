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

package sample

import "github.com/pkg/errors"

// Phase is one pipeline point a fetch may be valid in.
type Phase uint16

const (
	PhaseTCPReqConn Phase = 1 << iota
	PhaseHTTPReq
	PhaseHTTPRes
	PhaseTCPReqContent
	PhaseTCPResContent
)

// Owner is the quadruple a fetch is evaluated against. Concrete fields
// are looked up by name from a generic map so this package stays free of
// an import cycle with stream/server/stick: callers populate whatever the
// keyword they're evaluating actually needs.
type Owner struct {
	Proxy   any
	Session any
	Stream  any
	Opt     map[string]any
}

// FetchFunc produces a fresh Sample for the given owner and argument
// vector.
type FetchFunc func(owner Owner, args []Arg) (*Sample, error)

// FetchDef is one entry of the global fetch registry.
type FetchDef struct {
	Fn    FetchFunc
	Phase Phase
}

var fetches = map[string]FetchDef{}

// RegisterFetch adds a fetch keyword valid during the given phase set.
func RegisterFetch(name string, phase Phase, fn FetchFunc) {
	fetches[name] = FetchDef{Fn: fn, Phase: phase}
}

// ConverterCall is one parsed `,conv(args)` step of an expression.
type ConverterCall struct {
	Name string
	Fn   Converter
	Args []Arg
}

// Expression is a root fetch plus an ordered converter chain, the unit a
// rule (ACL, header rewrite, log-format node, stick-table key, ...)
// evaluates.
type Expression struct {
	FetchName string
	FetchArgs []Arg
	Fetch     FetchDef
	Chain     []ConverterCall
}

// Parse resolves the fetch keyword and every converter keyword by name,
// without yet validating the argument types against each keyword's
// declared mask (that is a config-time concern layered on top by the
// caller, which knows the mask per keyword).
func Parse(fetchName string, fetchArgs []Arg, chain []ConverterCall) (*Expression, error) {
	def, ok := fetches[fetchName]
	if !ok {
		return nil, errors.Errorf("sample: unknown fetch keyword %q", fetchName)
	}
	for i, c := range chain {
		fn, ok := Converters[c.Name]
		if !ok {
			return nil, errors.Errorf("sample: unknown converter keyword %q", c.Name)
		}
		chain[i].Fn = fn
	}
	return &Expression{FetchName: fetchName, FetchArgs: fetchArgs, Fetch: def, Chain: chain}, nil
}

// Eval runs the fetch then threads the result through every converter in
// order, casting between converter boundaries as needed. It is valid to
// call on a partially-deferred expression; an unresolved Arg surfaces as
// an error from the fetch/converter that tries to use it.
func (e *Expression) Eval(owner Owner) (*Sample, error) {
	s, err := e.Fetch.Fn(owner, e.FetchArgs)
	if err != nil {
		return nil, err
	}
	for _, step := range e.Chain {
		if err := step.Fn(s, step.Args); err != nil {
			return nil, errors.Wrapf(err, "sample: converter %q", step.Name)
		}
	}
	return s, nil
}
