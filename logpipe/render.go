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

package logpipe

import (
	"strings"

	"github.com/gobalance/gobalance/sample"
)

// Format is a compiled log-format string, ready to render repeatedly
// against different Records.
type Format struct {
	nodes []Node
}

// CompileFormat compiles src once; the result is safe for concurrent use
// by Render.
func CompileFormat(src string) (*Format, error) {
	nodes, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return &Format{nodes: nodes}, nil
}

// Render produces the message body (no framing, no trailing newline) for
// one Record.
func (f *Format) Render(r *Record) (string, error) {
	var b strings.Builder
	for _, n := range f.nodes {
		switch n.Kind {
		case NodeText:
			b.WriteString(n.Text)
		case NodeVar:
			v, err := renderVar(n, r)
			if err != nil {
				return "", err
			}
			b.WriteString(v)
		case NodeExpr:
			s, err := n.Expr.Eval(r.Owner)
			if err != nil {
				return "", err
			}
			if err := sample.Cast(s, sample.TypeStr); err != nil {
				return "", err
			}
			b.WriteString(s.Str())
		}
	}
	return b.String(), nil
}
