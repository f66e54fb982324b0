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

package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleStatusReportsBackendsAndServers(t *testing.T) {
	b := twoServerBackend(t)
	c := &Controller{frontends: []*frontend{{cfg: FrontendConfig{Name: "web-in"}, backend: b}}}

	req := httptest.NewRequest(http.MethodGet, "/-/status", nil)
	rec := httptest.NewRecorder()
	c.handleStatus(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out []backendStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "web", out[0].Name)
	require.Len(t, out[0].Servers, 2)
}
