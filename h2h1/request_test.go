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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pseudo(code PseudoHeader, v string) Header {
	return Header{Len: code, Value: []byte(v)}
}

func literal(name, v string) Header {
	return Header{Name: []byte(name), Value: []byte(v)}
}

func TestTransformRequestBasic(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "GET"),
		pseudo(PseudoScheme, "https"),
		pseudo(PseudoAuthority, "example.com"),
		pseudo(PseudoPath, "/index"),
		literal("accept", "*/*"),
	}

	r, err := TransformRequest(headers)
	require.NoError(t, err)
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/index", r.Path)

	var buf bytes.Buffer
	r.WriteTo(&buf)
	assert.Contains(t, buf.String(), "GET /index HTTP/1.1\r\n")
	assert.Contains(t, buf.String(), "host: example.com\r\n")
}

func TestTransformRequestRejectsPseudoAfterRegular(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "GET"),
		literal("accept", "*/*"),
		pseudo(PseudoPath, "/x"),
	}
	_, err := TransformRequest(headers)
	assert.Error(t, err)
}

func TestTransformRequestRejectsHopByHop(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "GET"),
		pseudo(PseudoScheme, "https"),
		pseudo(PseudoPath, "/x"),
		literal("connection", "keep-alive"),
	}
	_, err := TransformRequest(headers)
	assert.Error(t, err)
}

func TestTransformRequestConnectRequiresAuthorityOnly(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "CONNECT"),
		pseudo(PseudoAuthority, "example.com:443"),
	}
	r, err := TransformRequest(headers)
	require.NoError(t, err)
	assert.True(t, r.Flags.has(MsgBodyTunnel))
}

func TestTransformRequestConnectRejectsSchemeOrPath(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "CONNECT"),
		pseudo(PseudoAuthority, "example.com:443"),
		pseudo(PseudoScheme, "https"),
	}
	_, err := TransformRequest(headers)
	assert.Error(t, err)
}

func TestTransformRequestCoalescesCookies(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "GET"),
		pseudo(PseudoScheme, "https"),
		pseudo(PseudoPath, "/x"),
		literal("cookie", "a=1"),
		literal("cookie", "b=2"),
	}
	r, err := TransformRequest(headers)
	require.NoError(t, err)

	var buf bytes.Buffer
	r.WriteTo(&buf)
	assert.Contains(t, buf.String(), "cookie: a=1; b=2\r\n")
}

func TestTransformRequestDuplicateContentLengthMustAgree(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "POST"),
		pseudo(PseudoScheme, "https"),
		pseudo(PseudoPath, "/x"),
		literal("content-length", "10"),
		literal("content-length", "20"),
	}
	_, err := TransformRequest(headers)
	assert.Error(t, err)
}

func TestTransformRequestChunkedWhenBodyExpectedWithoutLength(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "POST"),
		pseudo(PseudoScheme, "https"),
		pseudo(PseudoPath, "/x"),
	}
	r, err := TransformRequest(headers)
	require.NoError(t, err)
	assert.True(t, r.Flags.has(MsgBodyChunked))
}

func TestTransformRequestRejectsUppercaseHeaderName(t *testing.T) {
	headers := []Header{
		pseudo(PseudoMethod, "GET"),
		pseudo(PseudoScheme, "https"),
		pseudo(PseudoPath, "/x"),
		literal("Accept", "*/*"),
	}
	_, err := TransformRequest(headers)
	assert.Error(t, err)
}
