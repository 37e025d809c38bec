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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CounterAdd adds delta to c. A nil counter is ignored.
func CounterAdd(c prometheus.Counter, delta float64) {
	if c == nil {
		return
	}
	c.Add(delta)
}

// CounterInc increments c. A nil counter is ignored.
func CounterInc(c prometheus.Counter) {
	CounterAdd(c, 1)
}

// GaugeSet sets g to v. A nil gauge is ignored.
func GaugeSet(g prometheus.Gauge, v float64) {
	if g == nil {
		return
	}
	g.Set(v)
}

// HistogramObserve records v in h. A nil histogram is ignored.
func HistogramObserve(h prometheus.Observer, v float64) {
	if h == nil {
		return
	}
	h.Observe(v)
}

// WriteTextfile writes everything gathered by g to file in the text format
// understood by the node exporter textfile collector.
func WriteTextfile(file string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(file, g)
}
