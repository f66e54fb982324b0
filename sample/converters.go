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

// Converter mutates s in place given its parsed argument vector, and
// reports the resulting Type itself (some converters change type, most
// don't).
type Converter func(s *Sample, args []Arg) error

// Converters is the global keyword registry, populated by init() below and
// by package users registering their own via RegisterConverter.
var Converters = map[string]Converter{}

// RegisterConverter adds or replaces a converter keyword.
func RegisterConverter(name string, fn Converter) { Converters[name] = fn }

func init() {
	RegisterConverter("add", arithConverter(satAdd))
	RegisterConverter("sub", arithConverter(satSub))
	RegisterConverter("mul", arithConverter(satMul))
	RegisterConverter("div", arithConverter(satDiv))
	RegisterConverter("mod", arithConverter(satMod))
	RegisterConverter("and", arithConverter(func(a, b int64) int64 { return a & b }))
	RegisterConverter("or", arithConverter(func(a, b int64) int64 { return a | b }))
	RegisterConverter("xor", arithConverter(func(a, b int64) int64 { return a ^ b }))

	RegisterConverter("neg", func(s *Sample, _ []Arg) error {
		if err := Cast(s, TypeSInt); err != nil {
			return err
		}
		s.Data = satNeg(s.Int())
		return nil
	})
	RegisterConverter("cpl", func(s *Sample, _ []Arg) error {
		if err := Cast(s, TypeSInt); err != nil {
			return err
		}
		s.Data = ^s.Int()
		return nil
	})
	RegisterConverter("not", func(s *Sample, _ []Arg) error {
		if err := Cast(s, TypeBool); err != nil {
			return err
		}
		s.Data = !s.Bool()
		return nil
	})
	RegisterConverter("bool", func(s *Sample, _ []Arg) error {
		return Cast(s, TypeBool)
	})
	RegisterConverter("odd", func(s *Sample, _ []Arg) error {
		if err := Cast(s, TypeSInt); err != nil {
			return err
		}
		s.Data = s.Int()&1 == 1
		s.Type = TypeBool
		return nil
	})
	RegisterConverter("even", func(s *Sample, _ []Arg) error {
		if err := Cast(s, TypeSInt); err != nil {
			return err
		}
		s.Data = s.Int()&1 == 0
		s.Type = TypeBool
		return nil
	})
}

// arithConverter adapts a binary saturating int64 op into a Converter
// taking one SINT argument (literal or resolved variable).
func arithConverter(op func(a, b int64) int64) Converter {
	return func(s *Sample, args []Arg) error {
		if len(args) < 1 {
			return errors.New("sample: missing operand argument")
		}
		if err := Cast(s, TypeSInt); err != nil {
			return err
		}
		operand, err := args[0].Int64()
		if err != nil {
			return err
		}
		s.Data = op(s.Int(), operand)
		return nil
	}
}
