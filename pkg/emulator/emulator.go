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

// Package emulator runs the layers that build an emulation.
//
// Every layer names the layers it depends on. A hard dependency must be
// registered and runs first, a soft dependency runs first if it is
// registered. Render configures all layers exactly once in dependency order
// and then renders them in the same order. Configuration problems of the
// pipeline itself, a missing hard dependency or a cycle, are reported before
// any layer runs.
package emulator

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/metrics"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
)

var (
	// ErrDuplicateLayer indicates that a layer with the same name is already
	// registered.
	ErrDuplicateLayer = errors.New("duplicate layer")
	// ErrMissingLayer indicates that a hard dependency is not registered.
	ErrMissingLayer = errors.New("missing layer")
	// ErrDependencyCycle indicates that the layer dependencies form a cycle.
	ErrDependencyCycle = errors.New("layer dependency cycle")
	// ErrAlreadyRendered indicates that Render was called more than once.
	ErrAlreadyRendered = errors.New("emulation already rendered")
)

// Dependency is a dependency of a layer on another layer.
type Dependency struct {
	// Layer is the name of the layer that must run first.
	Layer string
	// Optional marks a soft dependency.
	Optional bool
}

// Layer is one stage of the build.
type Layer interface {
	// Name returns the unique name of the layer.
	Name() string
	// Dependencies returns the layers that must run before this layer.
	Dependencies() []Dependency
	// Configure mutates the shared registry and entities.
	Configure(ctx context.Context, emu *Emulator) error
	// Render runs after every layer is configured.
	Render(ctx context.Context, emu *Emulator) error
}

// Metrics are the metrics of the pipeline. A nil value disables them.
type Metrics struct {
	// PhaseDuration is labeled with layer and phase.
	PhaseDuration *prometheus.HistogramVec
}

// NewMetrics creates the pipeline metrics with f.
func NewMetrics(f metrics.Factory) *Metrics {
	return &Metrics{
		PhaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "layer",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in the configure and render phase of a layer.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"layer", "phase"}),
	}
}

func (m *Metrics) observe(layer, phase string, d time.Duration) {
	if m == nil {
		return
	}
	metrics.HistogramObserve(m.PhaseDuration.WithLabelValues(layer, phase), d.Seconds())
}

// Option configures an Emulator.
type Option func(*Emulator)

// WithMetrics enables the pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Emulator) {
		e.metrics = m
	}
}

// Emulator holds the registry and the layers of one build.
type Emulator struct {
	registry *registry.Registry
	layers   []Layer
	byName   map[string]Layer
	rendered bool
	metrics  *Metrics
}

// New creates an emulator with an empty registry.
func New(opts ...Option) *Emulator {
	e := &Emulator{
		registry: registry.New(),
		byName:   make(map[string]Layer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the shared registry.
func (e *Emulator) Registry() *registry.Registry {
	return e.registry
}

// AddLayer registers l.
func (e *Emulator) AddLayer(l Layer) error {
	if e.rendered {
		return serrors.Join(ErrAlreadyRendered, nil, "layer", l.Name())
	}
	if _, ok := e.byName[l.Name()]; ok {
		return serrors.Join(ErrDuplicateLayer, nil, "layer", l.Name())
	}
	e.byName[l.Name()] = l
	e.layers = append(e.layers, l)
	return nil
}

// Layer returns the layer registered under name.
func (e *Emulator) Layer(name string) (Layer, bool) {
	l, ok := e.byName[name]
	return l, ok
}

// Layers returns the layers in registration order.
func (e *Emulator) Layers() []Layer {
	return append([]Layer(nil), e.layers...)
}

// Rendered reports whether Render was called.
func (e *Emulator) Rendered() bool {
	return e.rendered
}

// Order returns the layers in execution order. Among the layers whose
// dependencies are satisfied the one registered first runs first.
func (e *Emulator) Order() ([]Layer, error) {
	indegree := make([]int, len(e.layers))
	dependents := make(map[string][]int)
	for i, l := range e.layers {
		for _, dep := range l.Dependencies() {
			if _, ok := e.byName[dep.Layer]; !ok {
				if dep.Optional {
					continue
				}
				return nil, serrors.Join(ErrMissingLayer, nil,
					"layer", l.Name(), "dependency", dep.Layer)
			}
			indegree[i]++
			dependents[dep.Layer] = append(dependents[dep.Layer], i)
		}
	}

	order := make([]Layer, 0, len(e.layers))
	done := make([]bool, len(e.layers))
	for len(order) < len(e.layers) {
		next := -1
		for i := range e.layers {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, l := range e.layers {
				if !done[i] {
					stuck = append(stuck, l.Name())
				}
			}
			return nil, serrors.Join(ErrDependencyCycle, nil, "layers", stuck)
		}
		done[next] = true
		order = append(order, e.layers[next])
		for _, i := range dependents[e.layers[next].Name()] {
			indegree[i]--
		}
	}
	return order, nil
}

// Render configures and then renders every layer in dependency order. It can
// only be called once.
func (e *Emulator) Render(ctx context.Context) error {
	if e.rendered {
		return ErrAlreadyRendered
	}
	order, err := e.Order()
	if err != nil {
		return err
	}
	e.rendered = true

	logger := log.FromCtx(ctx)
	for _, l := range order {
		start := time.Now()
		if err := l.Configure(ctx, e); err != nil {
			return serrors.Wrap("configuring layer", err, "layer", l.Name())
		}
		e.metrics.observe(l.Name(), "configure", time.Since(start))
		logger.Debug("Layer configured", "layer", l.Name(), "duration", time.Since(start))
	}
	for _, l := range order {
		start := time.Now()
		if err := l.Render(ctx, e); err != nil {
			return serrors.Wrap("rendering layer", err, "layer", l.Name())
		}
		e.metrics.observe(l.Name(), "render", time.Since(start))
		logger.Debug("Layer rendered", "layer", l.Name(), "duration", time.Since(start))
	}
	logger.Info("Emulation rendered", "layers", len(order), "entities", e.registry.Len())
	return nil
}
