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

package logpipe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// droppedLogs counts log lines dropped because a target's socket buffer
// was full (the EAGAIN case), mirroring the process-wide dropped_logs
// counter.
var droppedLogs = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "gobalance",
	Subsystem: "logpipe",
	Name:      "dropped_logs_total",
	Help:      "Log lines dropped because a log target's socket buffer was full.",
})
