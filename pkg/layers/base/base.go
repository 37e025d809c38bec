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

// Package base implements the Base layer: the construction API for
// autonomous systems, Internet Exchanges, networks and nodes, and the
// registration of all of them in the registry.
//
// Construction only records what should be built. Network joins are
// resolved when the layer is configured, at which point every entity is
// registered and every interface receives its address:
//
//   - routers on AS networks count down from host .254,
//   - hosts count up from host .71,
//   - routers on IX networks use host .{asn},
//   - the route server of an IX uses host .254.
//
// An explicit address passed to JoinNetwork always takes precedence.
package base

import (
	"context"
	"errors"
	"net/netip"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// LayerName is the name of the Base layer.
const LayerName = "Base"

var (
	// ErrDuplicate indicates that an entity with the same identifier exists.
	ErrDuplicate = errors.New("duplicate entity")
	// ErrInvalidID indicates an AS number or IX id that cannot be used.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrPrefixRequired indicates that no default prefix can be derived for a
	// network.
	ErrPrefixRequired = errors.New("explicit prefix required")
	// ErrUnknownNetwork indicates a join of a network that does not exist in
	// the AS nor at an IX.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrAddressRequired indicates that no default address can be derived for
	// an interface.
	ErrAddressRequired = errors.New("explicit address required")
	// ErrAddressExhausted indicates that a network has no free address left.
	ErrAddressExhausted = errors.New("network address space exhausted")
	// ErrConfigured indicates a construction call after the layer was
	// configured.
	ErrConfigured = errors.New("base layer already configured")
)

var _ emulator.Layer = (*Base)(nil)

// Base is the construction layer.
type Base struct {
	ases       []*AutonomousSystem
	asByNum    map[addr.ASN]*AutonomousSystem
	ixes       []*InternetExchange
	ixByID     map[addr.IXID]*InternetExchange
	configured bool
}

// New creates an empty Base layer.
func New() *Base {
	return &Base{
		asByNum: make(map[addr.ASN]*AutonomousSystem),
		ixByID:  make(map[addr.IXID]*InternetExchange),
	}
}

func (b *Base) Name() string { return LayerName }

func (b *Base) Dependencies() []emulator.Dependency { return nil }

// CreateAutonomousSystem creates the AS with number asn.
func (b *Base) CreateAutonomousSystem(asn addr.ASN) (*AutonomousSystem, error) {
	if b.configured {
		return nil, serrors.Join(ErrConfigured, nil, "asn", asn)
	}
	if asn == 0 {
		return nil, serrors.Join(ErrInvalidID, nil, "asn", asn)
	}
	if _, ok := b.asByNum[asn]; ok {
		return nil, serrors.Join(ErrDuplicate, nil, "asn", asn)
	}
	if _, ok := b.ixByID[addr.IXID(asn)]; ok {
		return nil, serrors.Join(ErrDuplicate, nil, "asn", asn,
			"reason", "AS number used by IX route server")
	}
	as := &AutonomousSystem{
		base:  b,
		as:    topology.NewAutonomousSystem(asn),
		nets:  make(map[string]*topology.Network),
		nodes: make(map[string]*Node),
	}
	b.ases = append(b.ases, as)
	b.asByNum[asn] = as
	return as, nil
}

// CreateInternetExchange creates the IX with the given id, its peering
// network 10.{id}.0.0/24 and its route server.
func (b *Base) CreateInternetExchange(id addr.IXID) (*InternetExchange, error) {
	if b.configured {
		return nil, serrors.Join(ErrConfigured, nil, "ix", id)
	}
	if id == 0 || id > addr.MaxIXID {
		return nil, serrors.Join(ErrInvalidID, nil, "ix", id)
	}
	if _, ok := b.ixByID[id]; ok {
		return nil, serrors.Join(ErrDuplicate, nil, "ix", id)
	}
	if _, ok := b.asByNum[id.ASN()]; ok {
		return nil, serrors.Join(ErrDuplicate, nil, "ix", id,
			"reason", "route server AS number used by AS")
	}
	prefix := netip.PrefixFrom(netip.AddrFrom4([4]byte{10, byte(id), 0, 0}), 24)
	net := topology.NewNetwork(registry.ScopeIX, id.Name(), topology.IXNetwork, prefix)
	rs := topology.NewNode(registry.ScopeIX, id.Name(), id.ASN(), topology.RoleRouteServer)
	ix := &InternetExchange{entity: topology.NewInternetExchange(id, net, rs)}
	b.ixes = append(b.ixes, ix)
	b.ixByID[id] = ix
	return ix, nil
}

// AutonomousSystem returns the AS with number asn.
func (b *Base) AutonomousSystem(asn addr.ASN) (*AutonomousSystem, bool) {
	as, ok := b.asByNum[asn]
	return as, ok
}

// InternetExchange returns the IX with the given id.
func (b *Base) InternetExchange(id addr.IXID) (*InternetExchange, bool) {
	ix, ok := b.ixByID[id]
	return ix, ok
}

// ASNs returns the AS numbers in creation order.
func (b *Base) ASNs() []addr.ASN {
	res := make([]addr.ASN, 0, len(b.ases))
	for _, as := range b.ases {
		res = append(res, as.ASN())
	}
	return res
}

// IXIDs returns the IX ids in creation order.
func (b *Base) IXIDs() []addr.IXID {
	res := make([]addr.IXID, 0, len(b.ixes))
	for _, ix := range b.ixes {
		res = append(res, ix.ID())
	}
	return res
}

// Configure registers every entity and resolves the network joins.
func (b *Base) Configure(ctx context.Context, emu *emulator.Emulator) error {
	if b.configured {
		return ErrConfigured
	}
	b.configured = true
	reg := emu.Registry()
	logger := log.FromCtx(ctx)

	for _, ix := range b.ixes {
		if err := ix.register(reg); err != nil {
			return serrors.Wrap("registering IX", err, "ix", ix.ID())
		}
	}
	for _, as := range b.ases {
		if err := as.register(reg); err != nil {
			return serrors.Wrap("registering AS", err, "asn", as.ASN())
		}
	}
	for _, as := range b.ases {
		for _, n := range as.order {
			if err := b.resolveJoins(reg, as, n); err != nil {
				return err
			}
		}
	}
	logger.Info("Base layer configured",
		"ases", len(b.ases), "ixes", len(b.ixes), "entities", reg.Len())
	return nil
}

// Render does nothing.
func (b *Base) Render(context.Context, *emulator.Emulator) error {
	return nil
}

func (b *Base) resolveJoins(reg *registry.Registry, as *AutonomousSystem, n *Node) error {
	for _, j := range n.joins {
		net, err := lookupNetwork(reg, as.Scope(), j.network)
		if err != nil {
			return serrors.Wrap("resolving join", err, "node", n.Node, "network", j.network)
		}
		a, err := as.address(net, n, j)
		if err != nil {
			return serrors.Wrap("assigning address", err, "node", n.Node, "network", j.network)
		}
		if _, err := n.Join(net, a); err != nil {
			return err
		}
	}
	return nil
}

// lookupNetwork finds a network in the scope of the AS first and at the IXes
// second.
func lookupNetwork(reg *registry.Registry, scope, name string) (*topology.Network, error) {
	for _, s := range []string{scope, registry.ScopeIX} {
		net, err := registry.Get[*topology.Network](reg,
			registry.Key{Scope: s, Kind: topology.KindNet, Name: name})
		if err == nil {
			return net, nil
		}
		if !errors.Is(err, registry.ErrNotFound) {
			return nil, err
		}
	}
	return nil, serrors.Join(ErrUnknownNetwork, nil, "scope", scope, "network", name)
}

// InternetExchange is an IX under construction.
type InternetExchange struct {
	entity *topology.InternetExchange
}

func (ix *InternetExchange) ID() addr.IXID { return ix.entity.ID() }

// Network returns the peering network.
func (ix *InternetExchange) Network() *topology.Network { return ix.entity.Network() }

// RouteServer returns the route server node.
func (ix *InternetExchange) RouteServer() *topology.Node { return ix.entity.RouteServer() }

// Entity returns the registered IX entity.
func (ix *InternetExchange) Entity() *topology.InternetExchange { return ix.entity }

func (ix *InternetExchange) register(reg *registry.Registry) error {
	net, rs := ix.Network(), ix.RouteServer()
	if err := reg.Put(registry.Key{
		Scope: registry.ScopeGlobal, Kind: topology.KindIX, Name: ix.ID().Name(),
	}, ix.entity); err != nil {
		return err
	}
	if err := reg.Put(registry.Key{
		Scope: registry.ScopeIX, Kind: topology.KindNet, Name: net.Name(),
	}, net); err != nil {
		return err
	}
	if err := reg.Put(rs.Key(), rs); err != nil {
		return err
	}
	_, err := rs.Join(net, routeServerAddr(net.Prefix()))
	return err
}

func routeServerAddr(p netip.Prefix) netip.Addr {
	return firstRouterAddr(p)
}
