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

import (
	"net"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ArgType names the grammar slot a fetch/converter argument fills.
type ArgType uint8

const (
	ArgStr ArgType = iota
	ArgSInt
	ArgIPv4
	ArgIPv6
	ArgMsk4
	ArgMsk6
	ArgReg
	ArgVar
	ArgUsr
	ArgSrv
	ArgFE
	ArgBE
	ArgTab
	ArgPbufFnum
)

// Arg is one parsed argument of a fetch or converter call. FE/BE/SRV/TAB/
// USR/REG arguments start out unresolved (Raw holds the literal text, Ref
// is nil) and are filled in by a post-parse resolution pass once every
// proxy/backend/table/userlist/regex in the configuration is known.
type Arg struct {
	Type       ArgType
	Raw        string
	Ref        any // resolved target: *Proxy, *Server, *Table, *Userlist, *regexp.Regexp
	Unresolved bool

	// Context identifies where this argument came from, for precise
	// resolution-failure reporting.
	Context ArgContext
}

// ArgContext records provenance for an unresolved argument.
type ArgContext struct {
	RuleKind string
	File     string
	Line     int
	Keyword  string
}

// Int64 coerces the argument to an int64, accepting either a literal or
// (once resolved) a variable descriptor's current value.
func (a Arg) Int64() (int64, error) {
	if a.Type == ArgVar {
		if a.Unresolved {
			return 0, errors.New("sample: variable argument not yet resolved")
		}
		if v, ok := a.Ref.(interface{ Int64() int64 }); ok {
			return v.Int64(), nil
		}
	}
	return cast.ToInt64E(a.Raw)
}

func (a Arg) Str() string { return a.Raw }

func (a Arg) IP() (net.IP, error) {
	ip := net.ParseIP(a.Raw)
	if ip == nil {
		return nil, errors.Errorf("sample: %q is not an IP address", a.Raw)
	}
	return ip, nil
}

// Resolver resolves one unresolved Arg, given its declared type, returning
// the concrete object to store in Arg.Ref.
type Resolver func(a Arg) (any, error)

// ResolveDeferred walks args, resolving every entry still marked
// Unresolved via resolve, and returns every error encountered, each
// wrapped with its ArgContext as a "file:line: keyword: message" report.
// A single bad argument does not stop resolution of the rest; all entries
// are attempted so a config gets every error in one pass.
func ResolveDeferred(args []Arg, resolve Resolver) []error {
	var errs []error
	for i := range args {
		if !args[i].Unresolved {
			continue
		}
		ref, err := resolve(args[i])
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "%s:%d: %s", args[i].Context.File, args[i].Context.Line, args[i].Context.Keyword))
			continue
		}
		args[i].Ref = ref
		args[i].Unresolved = false
	}
	return errs
}
