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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingAdd(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satAdd(math.MaxInt64, 1))
	assert.Equal(t, int64(math.MinInt64), satAdd(math.MinInt64, -1))
	assert.Equal(t, int64(3), satAdd(1, 2))
}

func TestSaturatingSub(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satSub(0, math.MinInt64))
	assert.Equal(t, int64(-1), satSub(1, 2))
}

func TestSaturatingMul(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satMul(math.MinInt64, -1))
	assert.Equal(t, int64(math.MaxInt64), satMul(math.MaxInt64, 2))
	assert.Equal(t, int64(6), satMul(2, 3))
}

func TestSaturatingDiv(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satDiv(10, 0))
	assert.Equal(t, int64(math.MaxInt64), satDiv(math.MinInt64, -1))
	assert.Equal(t, int64(5), satDiv(10, 2))
}

func TestSaturatingMod(t *testing.T) {
	assert.Equal(t, int64(0), satMod(10, 0))
	assert.Equal(t, int64(0), satMod(math.MinInt64, -1))
	assert.Equal(t, int64(1), satMod(10, 3))
}

func TestSaturatingNeg(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satNeg(math.MinInt64))
	assert.Equal(t, int64(-5), satNeg(5))
}
