// Copyright 2025 ETH Zurich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package peering

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seed-emulator/seedemu/pkg/metrics"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// Metrics are the metrics of the peering layers. One instance can be shared
// by several layers, every metric is labeled with the layer name. A nil
// value disables metrics.
type Metrics struct {
	Intents     *prometheus.GaugeVec
	Sessions    *prometheus.CounterVec
	MeshSkipped *prometheus.CounterVec
	BFDNodes    *prometheus.GaugeVec
}

// NewMetrics creates the peering metrics with f.
func NewMetrics(f metrics.Factory) *Metrics {
	return &Metrics{
		Intents: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "peering",
			Name:      "intents",
			Help:      "Number of registered peering intents.",
		}, []string{"layer", "type"}),
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "peering",
			Name:      "sessions_total",
			Help:      "Number of sessions added to nodes.",
		}, []string{"layer", "kind"}),
		MeshSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "peering",
			Name:      "mesh_skipped_total",
			Help:      "Number of internal sessions skipped for lack of a loopback.",
		}, []string{"layer"}),
		BFDNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "peering",
			Name:      "bfd_nodes",
			Help:      "Number of nodes carrying a consolidated BFD block.",
		}, []string{"layer"}),
	}
}

func (m *Metrics) setIntents(layer string, in *intents) {
	if m == nil {
		return
	}
	metrics.GaugeSet(m.Intents.WithLabelValues(layer, "rs"), float64(len(in.rs)))
	metrics.GaugeSet(m.Intents.WithLabelValues(layer, "private"), float64(len(in.private)))
}

func (m *Metrics) sessionAdded(layer string, kind topology.SessionKind) {
	if m == nil {
		return
	}
	metrics.CounterInc(m.Sessions.WithLabelValues(layer, kind.String()))
}

func (m *Metrics) meshSkipped(layer string) {
	if m == nil {
		return
	}
	metrics.CounterInc(m.MeshSkipped.WithLabelValues(layer))
}

func (m *Metrics) setBFDBlocks(layer string, n int) {
	if m == nil {
		return
	}
	metrics.GaugeSet(m.BFDNodes.WithLabelValues(layer), float64(n))
}
