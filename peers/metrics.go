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

package peers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobalance",
		Subsystem: "peers",
		Name:      "resync_total",
		Help:      "Stick-table resync attempts by outcome.",
	}, []string{"section", "outcome"})

	reconnectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobalance",
		Subsystem: "peers",
		Name:      "reconnect_total",
		Help:      "Peer connection (re)establishment attempts.",
	}, []string{"section", "peer"})

	connectedPeers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gobalance",
		Subsystem: "peers",
		Name:      "connected_peers",
		Help:      "Peers currently in the established state, per section.",
	}, []string{"section"})

	updatesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gobalance",
		Subsystem: "peers",
		Name:      "updates_sent_total",
		Help:      "Stick-table update messages sent, per peer.",
	}, []string{"section", "peer"})
)

// ObserveResync records a terminal resync outcome for a section.
func ObserveResync(section string, state ResyncState) {
	resyncTotal.WithLabelValues(section, state.String()).Inc()
}

// ObserveReconnect records a dial attempt towards a peer.
func ObserveReconnect(section, peer string) {
	reconnectTotal.WithLabelValues(section, peer).Inc()
}

// SetConnectedPeers publishes the current established-peer count.
func SetConnectedPeers(section string, n int) {
	connectedPeers.WithLabelValues(section).Set(float64(n))
}

// ObserveUpdateSent records one update message sent to peer.
func ObserveUpdateSent(section, peer string) {
	updatesSentTotal.WithLabelValues(section, peer).Inc()
}
