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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrontendConfigDefaultConnectTimeout(t *testing.T) {
	c := FrontendConfig{}
	assert.Equal(t, time.Second, c.getConnectTimeout())

	c.ConnectTimeout = 5 * time.Second
	assert.Equal(t, 5*time.Second, c.getConnectTimeout())
}

func TestBackendConfigDefaultRetries(t *testing.T) {
	c := BackendConfig{}
	assert.Equal(t, 3, c.getRetries())

	c.Retries = 7
	assert.Equal(t, 7, c.getRetries())
}

func TestPeersConfigEnabled(t *testing.T) {
	assert.False(t, PeersConfig{}.Enabled())
	assert.True(t, PeersConfig{Name: "mycluster"}.Enabled())
}

func TestCLIConfigEnabled(t *testing.T) {
	assert.False(t, CLIConfig{}.Enabled())
	assert.True(t, CLIConfig{Bind: "127.0.0.1:9999"}.Enabled())
}

func TestLogConfigDefaultFormat(t *testing.T) {
	c := LogConfig{}
	assert.Equal(t, `%ci:%cp [%t] %b/%s %TT %ST %B %ID`, c.getFormat())

	c.Format = "%ci custom"
	assert.Equal(t, "%ci custom", c.getFormat())
}
