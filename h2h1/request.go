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

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// forbiddenHopByHop are H1 connection-management headers that must never
// survive an H2 request: H2 has no connection-specific header fields at
// all, so their presence means the peer is either broken or malicious.
var forbiddenHopByHop = map[string]bool{
	"connection":        true,
	"proxy-connection":  true,
	"keep-alive":        true,
	"upgrade":           true,
	"transfer-encoding": true,
}

// Request is the HTTP/1.1-shaped result of transforming an H2 request
// header list.
type Request struct {
	Method    string
	Scheme    string
	Authority string
	Path      string

	Headers []Header // literal, non-cookie, non-pseudo headers, in order
	Cookies [][]byte // cookie header values, coalesced into one on emit

	Flags MsgFlag
	// ContentLength is valid only when Flags.has(MsgBodyCL).
	ContentLength int64
	// PathInvalid is set when :path contains whitespace or control bytes.
	PathInvalid bool
}

// TransformRequest validates and rewrites an H2 request header list into a
// Request. It returns an error for anything the spec marks as malformed;
// a parsing-level anomaly that the spec says to merely flag (bad :path
// bytes) instead sets PathInvalid and proceeds.
func TransformRequest(headers []Header) (*Request, error) {
	r := &Request{}
	var sawRegular, sawHost bool
	var hostValue []byte
	var clSeen bool

	for _, h := range headers {
		if h.isTerminator() {
			break
		}
		if h.isPseudo() {
			if sawRegular {
				return nil, errors.New("h2h1: pseudo-header after a regular header")
			}
			if err := r.applyPseudo(h); err != nil {
				return nil, err
			}
			continue
		}

		sawRegular = true
		name := string(h.Name)
		if hasUpper(h.Name) {
			return nil, errors.Errorf("h2h1: uppercase letter in header name %q", name)
		}
		if forbiddenHopByHop[name] {
			return nil, errors.Errorf("h2h1: hop-by-hop header %q forbidden in h2", name)
		}
		if name == "te" && string(h.Value) != "trailers" {
			return nil, errors.New("h2h1: te header must be exactly \"trailers\"")
		}
		if name == "cookie" {
			r.Cookies = append(r.Cookies, h.Value)
			continue
		}
		if name == "content-length" {
			n, err := parseContentLengthList(h.Value)
			if err != nil {
				return nil, err
			}
			if clSeen && n != r.ContentLength {
				return nil, errors.New("h2h1: conflicting content-length values")
			}
			if !clSeen {
				r.ContentLength = n
				r.Flags |= MsgBodyCL
				r.Headers = append(r.Headers, h)
			}
			clSeen = true
			continue
		}
		if name == "host" {
			sawHost = true
		}
		r.Headers = append(r.Headers, h)
	}

	if r.Method == "" {
		return nil, errors.New("h2h1: missing required pseudo-header")
	}
	if r.Method == "CONNECT" {
		if r.Scheme != "" || r.Path != "" {
			return nil, errors.New("h2h1: CONNECT must not carry :scheme or :path")
		}
		if r.Authority == "" {
			return nil, errors.New("h2h1: CONNECT requires :authority")
		}
		r.Flags |= MsgBodyTunnel
	} else {
		if r.Scheme == "" || r.Path == "" {
			return nil, errors.New("h2h1: missing required pseudo-header")
		}
	}

	if !sawHost && len(r.Authority) > 0 {
		hostValue = []byte(r.Authority)
		r.Headers = append(r.Headers, Header{Name: []byte("host"), Value: hostValue})
	}

	if r.Method != "CONNECT" && !r.Flags.has(MsgBodyCL) && bodyExpected(r.Method) {
		r.Flags |= MsgBodyChunked
	}

	return r, nil
}

func bodyExpected(method string) bool {
	switch method {
	case "GET", "HEAD":
		return false
	default:
		return true
	}
}

func (r *Request) applyPseudo(h Header) error {
	switch h.Len {
	case PseudoMethod:
		if r.Method != "" {
			return errors.New("h2h1: duplicate :method")
		}
		r.Method = string(h.Value)
	case PseudoScheme:
		if r.Scheme != "" {
			return errors.New("h2h1: duplicate :scheme")
		}
		r.Scheme = string(h.Value)
	case PseudoAuthority:
		if r.Authority != "" {
			return errors.New("h2h1: duplicate :authority")
		}
		r.Authority = string(h.Value)
	case PseudoPath:
		if r.Path != "" {
			return errors.New("h2h1: duplicate :path")
		}
		if len(h.Value) == 0 {
			return errors.New("h2h1: empty :path")
		}
		for _, c := range h.Value {
			if c <= ' ' || c == 0x7f {
				r.PathInvalid = true
				break
			}
		}
		r.Path = string(h.Value)
	case PseudoStatus:
		return errors.New("h2h1: :status not allowed in a request")
	default:
		return errors.Errorf("h2h1: unknown pseudo-header code %d", h.Len)
	}
	return nil
}

// WriteTo renders r as an HTTP/1.1 request line plus headers, terminated
// by the blank line. The caller is responsible for writing the body.
func (r *Request) WriteTo(dst *bytes.Buffer) {
	target := r.Path
	if r.Method == "CONNECT" {
		target = r.Authority
	}
	fmt.Fprintf(dst, "%s %s HTTP/1.1\r\n", r.Method, target)
	for _, h := range r.Headers {
		fmt.Fprintf(dst, "%s: %s\r\n", h.Name, h.Value)
	}
	if len(r.Cookies) > 0 {
		dst.WriteString("cookie: ")
		for i, c := range r.Cookies {
			if i > 0 {
				dst.WriteString("; ")
			}
			dst.Write(c)
		}
		dst.WriteString("\r\n")
	}
	if r.Flags.has(MsgBodyChunked) {
		dst.WriteString("transfer-encoding: chunked\r\n")
	}
	dst.WriteString("\r\n")
}

func hasUpper(b []byte) bool {
	for _, c := range b {
		if c >= 'A' && c <= 'Z' {
			return true
		}
	}
	return false
}
