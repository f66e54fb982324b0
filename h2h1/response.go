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

// Response is the HTTP/1.1-shaped result of transforming an H2 response
// header list.
type Response struct {
	Status  int
	Headers []Header

	Flags         MsgFlag
	ContentLength int64
}

// TransformResponse validates and rewrites an H2 response header list.
func TransformResponse(headers []Header) (*Response, error) {
	r := &Response{}
	var sawRegular, clSeen bool

	for _, h := range headers {
		if h.isTerminator() {
			break
		}
		if h.isPseudo() {
			if sawRegular {
				return nil, errors.New("h2h1: pseudo-header after a regular header")
			}
			switch h.Len {
			case PseudoStatus:
				if r.Status != 0 {
					return nil, errors.New("h2h1: duplicate :status")
				}
				status, err := parseStatus(h.Value)
				if err != nil {
					return nil, err
				}
				r.Status = status
			case PseudoMethod, PseudoScheme, PseudoAuthority, PseudoPath:
				return nil, errors.New("h2h1: request pseudo-header not allowed in a response")
			default:
				return nil, errors.Errorf("h2h1: unknown pseudo-header code %d", h.Len)
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
		r.Headers = append(r.Headers, h)
	}

	if r.Status == 0 {
		return nil, errors.New("h2h1: missing :status")
	}
	if r.Status >= 100 && r.Status < 200 && r.Status != 101 {
		r.Flags &^= MsgBodyCL
		r.Flags |= Msg1xx
	}
	return r, nil
}

func parseStatus(v []byte) (int, error) {
	if len(v) != 3 {
		return 0, errors.New("h2h1: :status must be exactly 3 digits")
	}
	n, err := parseDecimal(v)
	if err != nil {
		return 0, errors.Wrap(err, "h2h1: :status not numeric")
	}
	return int(n), nil
}

// WriteTo renders r as an HTTP/1.1 status line plus headers, terminated by
// the blank line.
func (r *Response) WriteTo(dst *bytes.Buffer) {
	fmt.Fprintf(dst, "HTTP/1.1 %d %s\r\n", r.Status, statusText(r.Status))
	for _, h := range r.Headers {
		fmt.Fprintf(dst, "%s: %s\r\n", h.Name, h.Value)
	}
	dst.WriteString("\r\n")
}

func statusText(code int) string {
	if t, ok := statusTexts[code]; ok {
		return t
	}
	return "status"
}

var statusTexts = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	408: "Request Timeout",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}
