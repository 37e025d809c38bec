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

// Package routing implements the Routing layer. It gives every router a
// loopback address, which doubles as BGP router id and as the endpoint of
// AS internal sessions.
package routing

import (
	"context"
	"errors"
	"net/netip"

	"go4.org/netipx"

	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/layers/base"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// LayerName is the name of the Routing layer.
const LayerName = "Routing"

// DefaultLoopbackPrefix is the prefix loopback addresses are taken from.
var DefaultLoopbackPrefix = netip.MustParsePrefix("10.0.0.0/16")

var (
	// ErrDuplicateLoopback indicates that two routers use the same loopback.
	ErrDuplicateLoopback = errors.New("duplicate loopback address")
	// ErrLoopbackExhausted indicates that the loopback prefix has no free
	// address left.
	ErrLoopbackExhausted = errors.New("loopback prefix exhausted")
)

var _ emulator.Layer = (*Routing)(nil)

// Routing assigns loopback addresses.
type Routing struct {
	prefix netip.Prefix
}

// Option configures the Routing layer.
type Option func(*Routing)

// WithLoopbackPrefix overrides DefaultLoopbackPrefix.
func WithLoopbackPrefix(p netip.Prefix) Option {
	return func(r *Routing) {
		r.prefix = p.Masked()
	}
}

// New creates the Routing layer.
func New(opts ...Option) *Routing {
	r := &Routing{prefix: DefaultLoopbackPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Routing) Name() string { return LayerName }

func (r *Routing) Dependencies() []emulator.Dependency {
	return []emulator.Dependency{{Layer: base.LayerName}}
}

// Configure assigns a loopback to every router that has none, in registry
// order, starting at the first host address of the prefix. Loopbacks set
// explicitly with SetLoopback are kept and skipped during assignment.
func (r *Routing) Configure(ctx context.Context, emu *emulator.Emulator) error {
	var routers []*topology.Node
	for _, e := range emu.Registry().All() {
		if e.Key.Kind != topology.KindRouter {
			continue
		}
		n, ok := e.Value.(*topology.Node)
		if !ok {
			return serrors.New("router entry is not a node", "key", e.Key)
		}
		routers = append(routers, n)
	}

	var b netipx.IPSetBuilder
	seen := make(map[netip.Addr]*topology.Node)
	for _, n := range routers {
		lo, ok := n.Loopback()
		if !ok {
			continue
		}
		if other, ok := seen[lo]; ok {
			return serrors.Join(ErrDuplicateLoopback, nil,
				"loopback", lo, "router", n, "other", other)
		}
		seen[lo] = n
		b.Add(lo)
	}
	explicit, err := b.IPSet()
	if err != nil {
		return serrors.Wrap("building loopback set", err)
	}

	next := r.prefix.Addr().Next()
	assigned := 0
	for _, n := range routers {
		if _, ok := n.Loopback(); ok {
			continue
		}
		for explicit.Contains(next) {
			next = next.Next()
		}
		if !r.prefix.Contains(next) {
			return serrors.Join(ErrLoopbackExhausted, nil, "prefix", r.prefix, "router", n)
		}
		n.SetLoopback(next)
		next = next.Next()
		assigned++
	}
	log.FromCtx(ctx).Debug("Loopbacks assigned",
		"assigned", assigned, "explicit", len(seen), "prefix", r.prefix)
	return nil
}

// Render does nothing.
func (r *Routing) Render(context.Context, *emulator.Emulator) error {
	return nil
}
