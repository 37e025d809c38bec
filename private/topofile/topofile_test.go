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

package topofile_test

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/layers/base"
	"github.com/seed-emulator/seedemu/pkg/layers/peering"
	"github.com/seed-emulator/seedemu/pkg/layers/routing"
	"github.com/seed-emulator/seedemu/pkg/log/testlog"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/private/xtest"
	"github.com/seed-emulator/seedemu/pkg/topology"
	"github.com/seed-emulator/seedemu/private/topofile"
)

func TestLoad(t *testing.T) {
	f, err := topofile.Load(xtest.ExpandPath("topology.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []addr.IXID{100, 101}, f.IXes)
	require.Len(t, f.ASes, 3)
	as := f.ASes[0]
	assert.Equal(t, addr.ASN(150), as.ASN)
	assert.Equal(t, netip.MustParsePrefix("10.150.9.0/24"), as.Networks[1].Prefix)
	assert.False(t, as.Networks[0].Prefix.IsValid())
	assert.Equal(t, netip.MustParseAddr("10.0.10.1"), as.Routers[1].Loopback)
	assert.Equal(t, []topofile.Join{
		{Network: "net1"},
		{Network: "ix101", Address: netip.MustParseAddr("10.101.0.50")},
	}, as.Routers[1].Networks)

	require.NotNil(t, f.Ebgp)
	assert.Equal(t, []addr.ASN{152}, f.Ebgp.Masked)
	assert.Equal(t, "provider", f.Ebgp.PrivatePeerings[0].Relationship)
	require.NotNil(t, f.Mbgp)
	require.NotNil(t, f.Mbgp.InternalMesh)
	assert.False(t, *f.Mbgp.InternalMesh)

	parsed, err := topofile.Parse(xtest.MustReadFromFile(t, "topology.yaml"))
	require.NoError(t, err)
	assert.Equal(t, f, parsed)
}

// buildByHand constructs the network of testdata/topology.yaml through the
// Go API.
func buildByHand(t *testing.T) *emulator.Emulator {
	t.Helper()
	b := base.New()
	for _, ix := range []addr.IXID{100, 101} {
		_, err := b.CreateInternetExchange(ix)
		require.NoError(t, err)
	}

	as150, err := b.CreateAutonomousSystem(150)
	require.NoError(t, err)
	_, err = as150.CreateNetwork("net0")
	require.NoError(t, err)
	_, err = as150.CreateNetwork("net1", base.WithPrefix(netip.MustParsePrefix("10.150.9.0/24")))
	require.NoError(t, err)
	r, err := as150.CreateRouter("router0")
	require.NoError(t, err)
	r.JoinNetwork("net0").JoinNetwork("ix100")
	r, err = as150.CreateRouter("router1")
	require.NoError(t, err)
	r.SetLoopback(netip.MustParseAddr("10.0.10.1"))
	r.JoinNetwork("net1").JoinNetwork("ix101", netip.MustParseAddr("10.101.0.50"))
	h, err := as150.CreateHost("web")
	require.NoError(t, err)
	h.JoinNetwork("net0")

	for _, spec := range []struct {
		asn  addr.ASN
		ixes []string
	}{
		{asn: 151, ixes: []string{"ix100", "ix101"}},
		{asn: 152, ixes: []string{"ix100"}},
	} {
		as, err := b.CreateAutonomousSystem(spec.asn)
		require.NoError(t, err)
		_, err = as.CreateNetwork("net0")
		require.NoError(t, err)
		r, err := as.CreateRouter("router0")
		require.NoError(t, err)
		r.JoinNetwork("net0")
		for _, ix := range spec.ixes {
			r.JoinNetwork(ix)
		}
	}

	ebgp := peering.NewEbgp()
	require.NoError(t, ebgp.AddRsPeers(100, 150, 151, 152))
	require.NoError(t, ebgp.AddPrivatePeering(101, 150, 151, topology.Provider))
	ebgp.MaskAsn(152)
	mbgp := peering.NewMbgp(peering.WithInternalMesh(false))
	require.NoError(t, mbgp.AddPrivatePeering(100, 151, 152, topology.Peer))

	emu := emulator.New()
	for _, l := range []emulator.Layer{b, routing.New(), ebgp, mbgp} {
		require.NoError(t, emu.AddLayer(l))
	}
	require.NoError(t, emu.Render(testlog.Context(t)))
	return emu
}

// nodeState is the comparable outcome of a render for one node.
type nodeState struct {
	Interfaces map[string]netip.Addr
	Loopback   netip.Addr
	Sessions   []topology.Session
	Pipes      []topology.TablePipe
	BFD        []topology.BFDEndpoint
}

func states(emu *emulator.Emulator) map[string]nodeState {
	res := make(map[string]nodeState)
	for _, e := range emu.Registry().All() {
		n, ok := e.Value.(*topology.Node)
		if !ok {
			continue
		}
		s := nodeState{
			Interfaces: make(map[string]netip.Addr),
			Sessions:   n.Sessions(),
			Pipes:      n.Pipes(),
		}
		s.Loopback, _ = n.Loopback()
		for _, iface := range n.Interfaces() {
			s.Interfaces[iface.Name()] = iface.Addr()
		}
		if block, ok := n.BFD(); ok {
			s.BFD = block.Endpoints
		}
		res[e.Key.String()] = s
	}
	return res
}

func TestBuildMatchesGoAPI(t *testing.T) {
	f, err := topofile.Load(xtest.ExpandPath("topology.yaml"))
	require.NoError(t, err)
	var layers topofile.Layers
	require.NoError(t, f.Build(&layers))
	emu, err := layers.Emulator()
	require.NoError(t, err)
	require.NoError(t, emu.Render(testlog.Context(t)))

	got := states(emu)
	want := states(buildByHand(t))
	assert.Empty(t, cmp.Diff(want, got, cmpopts.EquateComparable(netip.Addr{})))
	assert.Len(t, layers.Peering(), 2)

	// Spot checks that the file content actually arrived.
	r1 := got["150/rnode/router1"]
	assert.Equal(t, netip.MustParseAddr("10.101.0.50"), r1.Interfaces["ix101"])
	assert.Equal(t, netip.MustParseAddr("10.0.10.1"), r1.Loopback)
	assert.NotEmpty(t, got["ix/rs/ix100"].Sessions)
}

func TestParseErrors(t *testing.T) {
	testCases := map[string]string{
		"unknown field":  "ixes: [100]\nfoo: 1\n",
		"invalid asn":    "ases:\n  - asn: AS0\n",
		"invalid ix":     "ixes: [300]\n",
		"invalid prefix": "ases:\n  - asn: 150\n    networks: [{name: n, prefix: nope}]\n",
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := topofile.Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	testCases := map[string]struct {
		raw string
		key string
		val any
	}{
		"duplicate AS": {
			raw: "ases:\n  - asn: 150\n  - asn: 150\n",
			key: "asn",
			val: addr.ASN(150),
		},
		"bad relationship": {
			raw: "ebgp:\n  private_peerings:\n    - {ix: 100, a: [150], b: [151], relationship: customer}\n",
			key: "ix",
			val: addr.IXID(100),
		},
		"self peering": {
			raw: "mbgp:\n  private_peerings:\n    - {ix: 100, a: [150], b: [150]}\n",
			key: "layer",
			val: peering.MbgpLayerName,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			f, err := topofile.Parse([]byte(tc.raw))
			require.NoError(t, err)
			err = f.Build(&topofile.Layers{})
			require.Error(t, err)
			v, ok := serrors.Context(err, tc.key)
			require.True(t, ok, "missing %q in %v", tc.key, err)
			assert.Equal(t, tc.val, v)
		})
	}
}
