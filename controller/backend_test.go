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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoServerBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := newBackend(BackendConfig{
		Name: "web",
		Servers: []ServerConfig{
			{Name: "s1", Addr: "10.0.0.1:80"},
			{Name: "s2", Addr: "10.0.0.2:80"},
		},
	})
	require.NoError(t, err)
	return b
}

func TestNewBackendRejectsMissingName(t *testing.T) {
	_, err := newBackend(BackendConfig{Servers: []ServerConfig{{Name: "s1", Addr: "x:1"}}})
	assert.Error(t, err)
}

func TestNewBackendRejectsNoServers(t *testing.T) {
	_, err := newBackend(BackendConfig{Name: "web"})
	assert.Error(t, err)
}

func TestNewBackendRejectsDuplicateServer(t *testing.T) {
	_, err := newBackend(BackendConfig{
		Name: "web",
		Servers: []ServerConfig{
			{Name: "s1", Addr: "10.0.0.1:80"},
			{Name: "s1", Addr: "10.0.0.2:80"},
		},
	})
	assert.Error(t, err)
}

func TestBackendAssignRoundRobinsWithoutStickiness(t *testing.T) {
	b := twoServerBackend(t)

	first := b.Assign(nil)
	second := b.Assign(nil)
	third := b.Assign(nil)

	assert.NotEqual(t, first.Name, second.Name)
	assert.Equal(t, first.Name, third.Name)
}

func TestBackendAssignStickyReusesPriorServer(t *testing.T) {
	b, err := newBackend(BackendConfig{
		Name:       "web",
		StickySize: 32,
		Servers: []ServerConfig{
			{Name: "s1", Addr: "10.0.0.1:80"},
			{Name: "s2", Addr: "10.0.0.2:80"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, b.StickyTable())

	key := []byte("client-a")
	first := b.Assign(key)
	for i := 0; i < 5; i++ {
		again := b.Assign(key)
		assert.Equal(t, first.Name, again.Name)
	}

	other := b.Assign([]byte("client-b"))
	_ = other // round-robin continues independently for a fresh key
}

func TestBackendQueueDequeueTracksCurrent(t *testing.T) {
	b := twoServerBackend(t)
	srv := b.Assign(nil)
	assert.EqualValues(t, 1, srv.Current())
	b.Dequeue(srv)
	assert.EqualValues(t, 0, srv.Current())
}

func TestBackendSetRejectsDuplicateBackend(t *testing.T) {
	cfgs := []BackendConfig{
		{Name: "web", Servers: []ServerConfig{{Name: "s1", Addr: "10.0.0.1:80"}}},
		{Name: "web", Servers: []ServerConfig{{Name: "s2", Addr: "10.0.0.2:80"}}},
	}
	_, err := newBackendSet(cfgs)
	assert.Error(t, err)
}

func TestBackendSetReloadValidatesBeforeCommitting(t *testing.T) {
	bs, err := newBackendSet([]BackendConfig{
		{Name: "web", Servers: []ServerConfig{{Name: "s1", Addr: "10.0.0.1:80"}}},
	})
	require.NoError(t, err)

	badCfgs := []BackendConfig{{Name: "web"}} // no servers, invalid
	err = bs.Reload(badCfgs)
	assert.Error(t, err)

	// the original, valid backend set must still be in place
	got, ok := bs.Get("web")
	require.True(t, ok)
	assert.Len(t, got.Servers(), 1)
}

func TestBackendSetStickyTablesOnlyIncludesStickyBackends(t *testing.T) {
	bs, err := newBackendSet([]BackendConfig{
		{Name: "sticky", StickySize: 16, Servers: []ServerConfig{{Name: "s1", Addr: "10.0.0.1:80"}}},
		{Name: "plain", Servers: []ServerConfig{{Name: "s2", Addr: "10.0.0.2:80"}}},
	})
	require.NoError(t, err)

	tables := bs.StickyTables()
	assert.Len(t, tables, 1)
	_, ok := tables["sticky"]
	assert.True(t, ok)
}
