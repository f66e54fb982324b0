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

package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gobalance",
		Subsystem: "cli",
		Name:      "sessions_active",
		Help:      "Number of currently connected stats-socket sessions.",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobalance",
		Subsystem: "cli",
		Name:      "commands_total",
		Help:      "CLI commands dispatched, by command name and outcome.",
	}, []string{"command", "outcome"})

	pcliRelaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobalance",
		Subsystem: "cli",
		Name:      "pcli_relays_total",
		Help:      "Commands relayed through the master to a worker process, by outcome.",
	}, []string{"outcome"})
)

// SessionOpened/SessionClosed track the active stats-socket session gauge.
func SessionOpened() { sessionsActive.Inc() }
func SessionClosed() { sessionsActive.Dec() }

// ObserveCommand records one dispatched command and its outcome ("ok",
// "error", "denied", "unknown").
func ObserveCommand(command, outcome string) {
	commandsTotal.WithLabelValues(command, outcome).Inc()
}

// ObservePcliRelay records one pcli relay attempt and its outcome ("ok",
// "no_such_process", "error").
func ObservePcliRelay(outcome string) {
	pcliRelaysTotal.WithLabelValues(outcome).Inc()
}
