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

import "github.com/gobalance/gobalance/sample"

// Options are the modifiers a %{args}name variable node may carry.
// A leading "-" before a flag letter clears it instead of setting it;
// Compile applies modifiers against a node's zero-value defaults in the
// order they appear.
type Options struct {
	Mandatory bool // +M
	Quote     bool // +Q
	Hex       bool // +X
	JSONEsc   bool // +E
}

// NodeKind distinguishes the three node shapes a compiled format holds.
type NodeKind uint8

const (
	NodeText NodeKind = iota
	NodeVar
	NodeExpr
)

// Node is one compiled element of a log-format string.
type Node struct {
	Kind NodeKind

	// NodeText
	Text string

	// NodeVar
	VarName string
	Opts    Options

	// NodeExpr
	Expr *sample.Expression
}
