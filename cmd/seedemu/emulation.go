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

package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/layers/peering"
	"github.com/seed-emulator/seedemu/pkg/layers/routing"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/metrics"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
	appcfg "github.com/seed-emulator/seedemu/private/app/seedemu/config"
	peeringstorage "github.com/seed-emulator/seedemu/private/storage/peering"
	"github.com/seed-emulator/seedemu/private/storage/peering/sqlite"
	"github.com/seed-emulator/seedemu/private/topofile"
)

// emulation is a rendered topology file.
type emulation struct {
	emu     *emulator.Emulator
	layers  *topofile.Layers
	metrics *prometheus.Registry
}

// renderFile builds and renders the topology file at path.
func renderFile(ctx context.Context, cfg *appcfg.Config, path string) (*emulation, error) {
	f, err := topofile.Load(path)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	factory := metrics.ApplyOptions(metrics.WithRegistry(reg)).Auto()
	layers := &topofile.Layers{
		Routing: routing.New(routing.WithLoopbackPrefix(cfg.Peering.Loopbacks())),
		PeeringOptions: []peering.Option{
			peering.WithMetrics(peering.NewMetrics(factory)),
			peering.WithInternalMesh(cfg.Peering.Mesh()),
		},
	}
	if err := f.Build(layers); err != nil {
		return nil, serrors.Wrap("building topology", err, "file", path)
	}
	emu, err := layers.Emulator(emulator.WithMetrics(emulator.NewMetrics(factory)))
	if err != nil {
		return nil, err
	}
	if err := emu.Render(ctx); err != nil {
		return nil, serrors.Wrap("rendering topology", err, "file", path)
	}
	return &emulation{emu: emu, layers: layers, metrics: reg}, nil
}

// nodes returns the nodes of the emulation in registration order.
func (e *emulation) nodes() []*topology.Node {
	var res []*topology.Node
	for _, entry := range e.emu.Registry().All() {
		if n, ok := entry.Value.(*topology.Node); ok {
			res = append(res, n)
		}
	}
	return res
}

// export writes the peering state and the metrics to the configured
// destinations.
func (e *emulation) export(ctx context.Context, cfg *appcfg.Config) error {
	logger := log.FromCtx(ctx)
	if conn := cfg.Storage.Connection; conn != "" {
		db, err := sqlite.New(ctx, conn)
		if err != nil {
			return serrors.Wrap("opening peering database", err, "connection", conn)
		}
		defer db.Close()
		snap := peeringstorage.Collect(e.emu.Registry(), e.layers.Peering()...)
		if err := db.Export(ctx, snap); err != nil {
			return err
		}
		logger.Info("Exported peering state", "connection", conn,
			"intents", len(snap.Intents), "sessions", len(snap.Sessions))
	}
	if file := cfg.Metrics.Textfile; file != "" {
		if err := metrics.WriteTextfile(file, e.metrics); err != nil {
			return serrors.Wrap("writing metrics", err, "file", file)
		}
		logger.Debug("Wrote metrics", "file", file)
	}
	return nil
}
