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

package peering_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/layers/base"
	"github.com/seed-emulator/seedemu/pkg/layers/routing"
	"github.com/seed-emulator/seedemu/pkg/log/testlog"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// routerSpec describes a router of an AS and the IXes it joins.
type routerSpec struct {
	asn  addr.ASN
	name string
	ixes []addr.IXID
}

func rtr(asn addr.ASN, name string, ixes ...addr.IXID) routerSpec {
	return routerSpec{asn: asn, name: name, ixes: ixes}
}

// newBase creates the IXes and, in order of first appearance, every AS with
// one network "net0" and the given routers.
func newBase(t *testing.T, ixes []addr.IXID, routers ...routerSpec) *base.Base {
	t.Helper()
	b := base.New()
	for _, ix := range ixes {
		_, err := b.CreateInternetExchange(ix)
		require.NoError(t, err)
	}
	for _, spec := range routers {
		as, ok := b.AutonomousSystem(spec.asn)
		if !ok {
			var err error
			as, err = b.CreateAutonomousSystem(spec.asn)
			require.NoError(t, err)
			_, err = as.CreateNetwork("net0")
			require.NoError(t, err)
		}
		r, err := as.CreateRouter(spec.name)
		require.NoError(t, err)
		r.JoinNetwork("net0")
		for _, ix := range spec.ixes {
			r.JoinNetwork(ix.Name())
		}
	}
	return b
}

// render builds an emulation from b, the Routing layer and layers.
func render(t *testing.T, b *base.Base, layers ...emulator.Layer) (*emulator.Emulator, error) {
	t.Helper()
	emu := emulator.New()
	require.NoError(t, emu.AddLayer(b))
	require.NoError(t, emu.AddLayer(routing.New()))
	for _, l := range layers {
		require.NoError(t, emu.AddLayer(l))
	}
	return emu, emu.Render(testlog.Context(t))
}

func mustRender(t *testing.T, b *base.Base, layers ...emulator.Layer) *emulator.Emulator {
	t.Helper()
	emu, err := render(t, b, layers...)
	require.NoError(t, err)
	return emu
}

func router(t *testing.T, emu *emulator.Emulator, asn addr.ASN, name string) *topology.Node {
	t.Helper()
	n, err := registry.Get[*topology.Node](emu.Registry(), registry.Key{
		Scope: asn.String(), Kind: topology.KindRouter, Name: name,
	})
	require.NoError(t, err)
	return n
}

func routeServer(t *testing.T, emu *emulator.Emulator, ix addr.IXID) *topology.Node {
	t.Helper()
	n, err := registry.Get[*topology.Node](emu.Registry(), registry.Key{
		Scope: registry.ScopeIX, Kind: topology.KindRouteServer, Name: ix.Name(),
	})
	require.NoError(t, err)
	return n
}

// allNodes returns every router and route server of the emulation.
func allNodes(emu *emulator.Emulator) []*topology.Node {
	var res []*topology.Node
	for _, e := range emu.Registry().All() {
		if n, ok := e.Value.(*topology.Node); ok && n.Role() != topology.RoleHost {
			res = append(res, n)
		}
	}
	return res
}

// sessionsOfKind returns the sessions of n with the given kind.
func sessionsOfKind(n *topology.Node, kind topology.SessionKind) []topology.Session {
	var res []topology.Session
	for _, s := range n.Sessions() {
		if s.Kind == kind {
			res = append(res, s)
		}
	}
	return res
}

func ip(s string) netip.Addr { return netip.MustParseAddr(s) }

func mustNet(t *testing.T, emu *emulator.Emulator, scope, name string) *topology.Network {
	t.Helper()
	net, err := registry.Get[*topology.Network](emu.Registry(), registry.Key{
		Scope: scope, Kind: topology.KindNet, Name: name,
	})
	require.NoError(t, err)
	return net
}

// handBuilt returns an emulator whose registry only holds the peering network
// of IX 100. Tests register nodes directly.
func handBuilt(t *testing.T) (*emulator.Emulator, *topology.Network) {
	t.Helper()
	emu := emulator.New()
	net := topology.NewNetwork(registry.ScopeIX, "ix100", topology.IXNetwork,
		netip.MustParsePrefix("10.100.0.0/24"))
	require.NoError(t, emu.Registry().Put(registry.Key{
		Scope: registry.ScopeIX, Kind: topology.KindNet, Name: "ix100",
	}, net))
	return emu, net
}
