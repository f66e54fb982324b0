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
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobalance/gobalance/chn"
)

func TestPumpChannelForwardsBytesAndCounts(t *testing.T) {
	src, srcRemote := net.Pipe()
	dst, dstRemote := net.Pipe()
	defer src.Close()
	defer dst.Close()
	defer srcRemote.Close()
	defer dstRemote.Close()

	ch := chn.NewChannel(4096)
	var counted int64

	done := make(chan error, 1)
	go func() { done <- pumpChannel(src, dst, ch, &counted) }()

	payload := []byte("hello backend")
	go func() {
		srcRemote.Write(payload)
		srcRemote.Close()
	}()

	received := make([]byte, len(payload))
	_, err := io.ReadFull(dstRemote, received)
	require.NoError(t, err)
	assert.Equal(t, payload, received)

	srcRemote.Close()
	select {
	case err := <-done:
		assert.Error(t, err) // src closed, Read returns an error (io.ErrClosedPipe or EOF)
	case <-time.After(time.Second):
		t.Fatal("pumpChannel did not return after source closed")
	}
	assert.EqualValues(t, len(payload), counted)
}

func TestPumpChannelReturnsOnWriteError(t *testing.T) {
	src, srcRemote := net.Pipe()
	dst, dstRemote := net.Pipe()
	defer src.Close()
	defer srcRemote.Close()

	ch := chn.NewChannel(4096)
	dstRemote.Close() // dst writes will now fail
	dst.Close()

	done := make(chan error, 1)
	go func() { done <- pumpChannel(src, dst, ch, nil) }()

	go srcRemote.Write([]byte("x"))

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("pumpChannel did not return after destination closed")
	}
}
