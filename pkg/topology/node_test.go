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

package topology_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

func mustJoin(t *testing.T, n *topology.Node, net *topology.Network, a string) *topology.Interface {
	t.Helper()
	iface, err := n.Join(net, netip.MustParseAddr(a))
	require.NoError(t, err)
	return iface
}

func TestNodeJoin(t *testing.T) {
	net := topology.NewNetwork("ix", "ix100", topology.IXNetwork,
		netip.MustParsePrefix("10.100.0.0/24"))
	r := topology.NewNode("150", "router0", 150, topology.RoleRouter)

	iface := mustJoin(t, r, net, "10.100.0.150")
	assert.Equal(t, "ix100", iface.Name())
	assert.Same(t, r, iface.Node())
	assert.Equal(t, netip.MustParsePrefix("10.100.0.150/24"), iface.Prefix())
	got, ok := r.InterfaceOn(net)
	require.True(t, ok)
	assert.Same(t, iface, got)

	t.Run("same network twice", func(t *testing.T) {
		_, err := r.Join(net, netip.MustParseAddr("10.100.0.151"))
		assert.ErrorIs(t, err, topology.ErrAlreadyAttached)
	})
	t.Run("duplicate address", func(t *testing.T) {
		other := topology.NewNode("151", "router0", 151, topology.RoleRouter)
		_, err := other.Join(net, netip.MustParseAddr("10.100.0.150"))
		assert.ErrorIs(t, err, topology.ErrDuplicateAddress)
		assert.Empty(t, other.Interfaces())
	})
	t.Run("outside prefix", func(t *testing.T) {
		other := topology.NewNode("152", "router0", 152, topology.RoleRouter)
		_, err := other.Join(net, netip.MustParseAddr("10.101.0.152"))
		assert.ErrorIs(t, err, topology.ErrAddressOutOfPrefix)
	})
	assert.Len(t, net.Interfaces(), 1)
}

func TestNodeKey(t *testing.T) {
	rs := topology.NewNode("ix", "ix100", 100, topology.RoleRouteServer)
	assert.Equal(t, registry.Key{Scope: "ix", Kind: "rs", Name: "ix100"}, rs.Key())
	h := topology.NewNode("150", "host0", 150, topology.RoleHost)
	assert.Equal(t, "hnode", h.Key().Kind)
}

func TestNodeSessions(t *testing.T) {
	n := topology.NewNode("150", "router0", 150, topology.RoleRouter)
	s := topology.Session{
		Protocol:  topology.ProtocolMBGP,
		Name:      "p_rs100",
		Kind:      topology.KindRSPeer,
		Interface: "ix100",
		LocalAddr: netip.MustParseAddr("10.100.0.150"),
		LocalASN:  150,
		PeerAddr:  netip.MustParseAddr("10.100.0.254"),
		PeerASN:   100,
		BFD:       true,
	}
	added, err := n.AddSession(s)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = n.AddSession(s)
	require.NoError(t, err)
	assert.False(t, added, "identical session is a no-op")

	conflicting := s
	conflicting.PeerASN = 101
	assert.ErrorIs(t, n.CheckSession(conflicting), topology.ErrDuplicateSession)
	_, err = n.AddSession(conflicting)
	assert.ErrorIs(t, err, topology.ErrDuplicateSession)

	otherProto := s
	otherProto.Protocol = topology.ProtocolBGP
	added, err = n.AddSession(otherProto)
	require.NoError(t, err)
	assert.True(t, added, "protocols have separate namespaces")

	assert.Equal(t, []topology.Session{s, otherProto}, n.Sessions())
	got, ok := n.Session(topology.ProtocolMBGP, "p_rs100")
	require.True(t, ok)
	assert.Equal(t, s, got)
	_, ok = n.Session(topology.ProtocolMBGP, "p_rs101")
	assert.False(t, ok)
}

func TestInternalSessionTo(t *testing.T) {
	n := topology.NewNode("150", "router0", 150, topology.RoleRouter)
	peer := netip.MustParseAddr("10.0.0.2")
	_, ok := n.InternalSessionTo(peer)
	assert.False(t, ok)

	private := topology.Session{
		Protocol: topology.ProtocolBGP,
		Name:     "p_as151",
		Kind:     topology.KindPrivate,
		PeerAddr: peer,
	}
	internal := topology.Session{
		Protocol:  topology.ProtocolMBGP,
		Name:      "ibgp_router1",
		Kind:      topology.KindInternal,
		LocalAddr: netip.MustParseAddr("10.0.0.1"),
		PeerAddr:  peer,
	}
	for _, s := range []topology.Session{private, internal} {
		_, err := n.AddSession(s)
		require.NoError(t, err)
	}
	got, ok := n.InternalSessionTo(peer)
	require.True(t, ok)
	assert.Equal(t, internal, got)
}

func TestNodePipes(t *testing.T) {
	n := topology.NewNode("150", "router0", 150, topology.RoleRouter)
	assert.True(t, n.AddPipe(topology.DirectPipe))
	assert.False(t, n.AddPipe(topology.DirectPipe))
	assert.Equal(t, []topology.TablePipe{{From: "t_direct", Into: "master4"}}, n.Pipes())
}

func TestNodeBFD(t *testing.T) {
	n := topology.NewNode("ix", "ix100", 100, topology.RoleRouteServer)
	_, ok := n.BFD()
	assert.False(t, ok)
	assert.False(t, n.ConsolidateBFD(), "no endpoints, no block")

	e1 := topology.BFDEndpoint{
		Interface: "ix100",
		Local:     netip.MustParseAddr("10.100.0.254"),
		Neighbor:  netip.MustParseAddr("10.100.0.200"),
	}
	e2 := e1
	e2.Neighbor = netip.MustParseAddr("10.100.0.100")
	assert.True(t, n.AddBFDEndpoint(e1))
	assert.True(t, n.AddBFDEndpoint(e2))
	assert.False(t, n.AddBFDEndpoint(e1))

	require.True(t, n.ConsolidateBFD())
	block, ok := n.BFD()
	require.True(t, ok)
	assert.Equal(t, []topology.BFDEndpoint{e2, e1}, block.Endpoints)
	assert.Equal(t, []string{"ix100"}, block.Interfaces())

	e3 := e1
	e3.Neighbor = netip.MustParseAddr("10.100.0.150")
	n.AddBFDEndpoint(e3)
	require.True(t, n.ConsolidateBFD())
	block, _ = n.BFD()
	assert.Len(t, block.Endpoints, 3, "later pass replaces the block with the union")
}

func TestNodeState(t *testing.T) {
	n := topology.NewNode("150", "router0", 150, topology.RoleRouter)
	assert.Equal(t, topology.Unconfigured, n.State())
	n.AddPipe(topology.DirectPipe)
	assert.Equal(t, topology.HasDirectPipe, n.State())
	_, err := n.AddSession(topology.Session{Protocol: topology.ProtocolBGP, Name: "p_as2"})
	require.NoError(t, err)
	assert.Equal(t, topology.HasSessions, n.State())
	n.AddBFDEndpoint(topology.BFDEndpoint{Interface: "ix100"})
	n.ConsolidateBFD()
	assert.Equal(t, topology.HasConsolidatedBFD, n.State())
}

func TestRouterID(t *testing.T) {
	net := topology.NewNetwork("150", "net0", topology.LocalNetwork,
		netip.MustParsePrefix("10.150.0.0/24"))
	n := topology.NewNode("150", "router0", 150, topology.RoleRouter)
	assert.False(t, n.RouterID().IsValid())
	mustJoin(t, n, net, "10.150.0.254")
	assert.Equal(t, netip.MustParseAddr("10.150.0.254"), n.RouterID())
	n.SetLoopback(netip.MustParseAddr("10.0.0.1"))
	lo, ok := n.Loopback()
	require.True(t, ok)
	assert.Equal(t, lo, n.RouterID())
}

func TestRelationship(t *testing.T) {
	assert.Equal(t, topology.Customer, topology.Provider.Reverse())
	assert.Equal(t, topology.Provider, topology.Customer.Reverse())
	assert.Equal(t, topology.Peer, topology.Peer.Reverse())
	assert.Equal(t, topology.Unfiltered, topology.Unfiltered.Reverse())

	r, err := topology.ParseRelationship("Provider")
	require.NoError(t, err)
	assert.Equal(t, topology.Provider, r)
	_, err = topology.ParseRelationship("Customer")
	require.Error(t, err)
	v, ok := serrors.Context(err, "relationship")
	require.True(t, ok)
	assert.Equal(t, "Customer", v)
}

func TestAutonomousSystem(t *testing.T) {
	as := topology.NewAutonomousSystem(addr.ASN(150))
	assert.Equal(t, "150", as.Scope())
	as.AddNode(topology.NewNode("150", "router0", 150, topology.RoleRouter))
	as.AddNode(topology.NewNode("150", "host0", 150, topology.RoleHost))
	assert.Len(t, as.Routers(), 1)
	assert.Len(t, as.Hosts(), 1)
}
