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

// Package wait holds the small goroutine-loop helpers used to run a worker
// function repeatedly until its context is cancelled, such as the
// peers-section ticker.
package wait

import (
	"context"
	"math/rand"
	"time"

	"github.com/gobalance/gobalance/internal/rescue"
)

// Until calls f in a loop, recovering panics via internal/rescue, until ctx
// is cancelled.
func Until(ctx context.Context, f func()) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		runOnce(f)
	}
}

func runOnce(f func()) {
	defer rescue.HandleCrash()
	f()
}

// Backoff returns a jittered duration in [base, base+jitter), or base
// itself when jitter is not positive.
func Backoff(base, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return base
	}
	return base + time.Duration(rand.Int63n(int64(jitter)))
}

// Ticker calls f every interval until ctx is cancelled.
func Ticker(ctx context.Context, interval time.Duration, f func()) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			runOnce(f)
		}
	}
}
