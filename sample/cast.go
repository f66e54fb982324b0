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
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// CastFunc converts s in place, returning an error if the value cannot be
// represented in the target type. A nil entry in castMatrix means "no
// cast exists"; the caller must reject the expression at parse time.
type CastFunc func(s *Sample) error

// none is the NONE cast: the two types are trivially compatible, no copy
// or conversion is required.
func none(*Sample) error { return nil }

var castMatrix = [9][9]CastFunc{
	TypeBool: {
		TypeSInt: func(s *Sample) error { s.Data = boolToInt(s.Bool()); s.Type = TypeSInt; return nil },
		TypeStr:  func(s *Sample) error { s.Data = fmt.Sprint(s.Bool()); s.Type = TypeStr; return nil },
	},
	TypeSInt: {
		TypeBool: func(s *Sample) error { s.Data = s.Int() != 0; s.Type = TypeBool; return nil },
		TypeStr:  func(s *Sample) error { s.Data = strconv.FormatInt(s.Int(), 10); s.Type = TypeStr; return nil },
	},
	TypeIPv4: {
		TypeSInt: castIPToInt,
		TypeIPv6: castIPToIPv6,
		TypeStr:  castIPToStr,
		TypeAddr: none,
	},
	TypeIPv6: {
		TypeSInt: castIPToInt,
		TypeStr:  castIPToStr,
		TypeAddr: none,
	},
	TypeStr: {
		TypeSInt: castStrToInt,
		TypeIPv4: castStrToIPv4,
		TypeIPv6: castStrToIPv6,
		TypeAddr: castStrToIPv4,
		TypeMeth: castStrToMeth,
		TypeBin:  func(s *Sample) error { s.Data = []byte(s.Str()); s.Type = TypeBin; return nil },
	},
	TypeBin: {
		// Truncate at the first NUL byte, per the spec's bin->str rule.
		TypeStr: func(s *Sample) error {
			b := s.Bin()
			for i, c := range b {
				if c == 0 {
					b = b[:i]
					break
				}
			}
			s.Data = string(b)
			s.Type = TypeStr
			return nil
		},
	},
	TypeMeth: {
		TypeStr: func(s *Sample) error { s.Data = s.Meth().Text; s.Type = TypeStr; return nil },
	},
}

// Cast looks up and applies the cast from 'from' to 'to', returning an
// error (not a nil CastFunc) when no such cast is registered, so a parser
// can surface a single consistent "incompatible types" message.
func Cast(s *Sample, to Type) error {
	from := s.Type
	if from == to {
		return nil
	}
	if from == TypeAny {
		s.Type = to
		return nil
	}
	fn := castMatrix[from][to]
	if fn == nil {
		return errors.Errorf("sample: no cast from %s to %s", from, to)
	}
	if s.Flags.has(FlagConst) {
		*s = *s.Dup()
	}
	if err := fn(s); err != nil {
		return err
	}
	s.Type = to
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func castIPToInt(s *Sample) error {
	ip := s.IP().To4()
	if ip == nil {
		return errors.New("sample: ip->int requires an IPv4 address")
	}
	n := int64(ip[0])<<24 | int64(ip[1])<<16 | int64(ip[2])<<8 | int64(ip[3])
	s.Data = n
	s.Type = TypeSInt
	return nil
}

func castIPToIPv6(s *Sample) error {
	ip := s.IP()
	if v4 := ip.To4(); v4 != nil {
		ip = v4.To16()
	}
	s.Data = ip
	s.Type = TypeIPv6
	return nil
}

func castIPToStr(s *Sample) error {
	s.Data = s.IP().String()
	s.Type = TypeStr
	return nil
}

func castStrToInt(s *Sample) error {
	n, err := cast.ToInt64E(s.Str())
	if err != nil {
		return errors.Wrap(err, "sample: str->int")
	}
	s.Data = n
	s.Type = TypeSInt
	return nil
}

func castStrToIPv4(s *Sample) error {
	ip := net.ParseIP(s.Str())
	if ip == nil || ip.To4() == nil {
		return errors.Errorf("sample: %q is not an IPv4 address", s.Str())
	}
	s.Data = ip.To4()
	s.Type = TypeIPv4
	return nil
}

func castStrToIPv6(s *Sample) error {
	ip := net.ParseIP(s.Str())
	if ip == nil {
		return errors.Errorf("sample: %q is not an IP address", s.Str())
	}
	s.Data = ip.To16()
	s.Type = TypeIPv6
	return nil
}

func castStrToMeth(s *Sample) error {
	s.Data = Method{Code: methodCode(s.Str()), Text: s.Str()}
	s.Type = TypeMeth
	return nil
}

var knownMethods = map[string]int{
	"OPTIONS": 1, "GET": 2, "HEAD": 3, "POST": 4, "PUT": 5,
	"DELETE": 6, "TRACE": 7, "CONNECT": 8,
}

func methodCode(m string) int {
	if c, ok := knownMethods[m]; ok {
		return c
	}
	return 0
}
