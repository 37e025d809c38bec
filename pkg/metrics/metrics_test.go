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

package metrics_test

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/pkg/metrics"
	"github.com/seed-emulator/seedemu/pkg/private/xtest"
)

func TestFactoryRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := metrics.ApplyOptions(metrics.WithRegistry(reg)).Auto()
	c := f.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "test_total",
		Help:      "Test counter.",
	}, []string{"kind"})

	metrics.CounterInc(c.WithLabelValues("a"))
	metrics.CounterAdd(c.WithLabelValues("a"), 2)
	assert.Equal(t, float64(3), testutil.ToFloat64(c.WithLabelValues("a")))

	n, err := testutil.GatherAndCount(reg, "seedemu_test_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.CounterInc(nil)
		metrics.GaugeSet(nil, 1)
		metrics.HistogramObserve(nil, 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := metrics.ApplyOptions(metrics.WithRegistry(reg)).Auto()
	g := f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Name:      "nodes",
		Help:      "Test gauge.",
	}, []string{"role"})
	metrics.GaugeSet(g.WithLabelValues("rs"), 1)

	file := xtest.TempFile(t, ".prom")
	require.NoError(t, metrics.WriteTextfile(file, reg))
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `seedemu_nodes{role="rs"} 1`)
}
