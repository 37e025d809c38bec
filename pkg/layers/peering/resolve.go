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
	"context"
	"errors"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// attachment is a node and its interface on an IX network.
type attachment struct {
	node  *topology.Node
	iface *topology.Interface
}

// side is one end of a resolved peering as seen from that end.
type side struct {
	local  attachment
	remote attachment
}

// placement is a session destined for a node.
type placement struct {
	node    *topology.Node
	session topology.Session
}

// resolved is a peering whose participants are known. It is either an
// rsPeering or a privatePeering.
type resolved interface {
	sides() []side
	sessions(f flavor) []placement
}

// rsPeering is a session pair between a route server and a router.
type rsPeering struct {
	ix     addr.IXID
	rs     attachment
	router attachment
}

func (p rsPeering) sides() []side {
	return []side{{local: p.rs, remote: p.router}, {local: p.router, remote: p.rs}}
}

func (p rsPeering) sessions(f flavor) []placement {
	return []placement{
		{
			node: p.rs.node,
			session: topology.Session{
				Protocol:     f.protocol,
				Name:         rsClientName(p.router.node.ASN()),
				Kind:         topology.KindRSClient,
				Interface:    p.rs.iface.Name(),
				LocalAddr:    p.rs.iface.Addr(),
				LocalASN:     p.rs.node.ASN(),
				PeerAddr:     p.router.iface.Addr(),
				PeerASN:      p.router.node.ASN(),
				Relationship: topology.Peer,
				RSClient:     true,
				BFD:          f.bfd,
			},
		},
		{
			node: p.router.node,
			session: topology.Session{
				Protocol:     f.protocol,
				Name:         rsPeerName(p.ix),
				Kind:         topology.KindRSPeer,
				Interface:    p.router.iface.Name(),
				LocalAddr:    p.router.iface.Addr(),
				LocalASN:     p.router.node.ASN(),
				PeerAddr:     p.rs.iface.Addr(),
				PeerASN:      p.rs.node.ASN(),
				Relationship: topology.Peer,
				BFD:          f.bfd,
			},
		},
	}
}

// privatePeering is a session pair between two routers. With
// topology.Provider, a is the provider of b.
type privatePeering struct {
	ix  addr.IXID
	a   attachment
	b   attachment
	rel topology.Relationship
}

func (p privatePeering) sides() []side {
	return []side{{local: p.a, remote: p.b}, {local: p.b, remote: p.a}}
}

func (p privatePeering) sessions(f flavor) []placement {
	aName, bName := f.privateNames(p.a.node.ASN(), p.b.node.ASN(), p.rel)
	mk := func(name string, s side, rel topology.Relationship) placement {
		return placement{
			node: s.local.node,
			session: topology.Session{
				Protocol:     f.protocol,
				Name:         name,
				Kind:         topology.KindPrivate,
				Interface:    s.local.iface.Name(),
				LocalAddr:    s.local.iface.Addr(),
				LocalASN:     s.local.node.ASN(),
				PeerAddr:     s.remote.iface.Addr(),
				PeerASN:      s.remote.node.ASN(),
				Relationship: rel,
				BFD:          f.bfd,
			},
		}
	}
	sides := p.sides()
	return []placement{
		mk(aName, sides[0], p.rel.Reverse()),
		mk(bName, sides[1], p.rel),
	}
}

// classify decides the kind of peering from the roles of the participants.
func classify(ix addr.IXID, x, y attachment, rel topology.Relationship) (resolved, error) {
	xRS := x.node.Role() == topology.RoleRouteServer
	yRS := y.node.Role() == topology.RoleRouteServer
	switch {
	case x.node.Role() == topology.RoleHost || y.node.Role() == topology.RoleHost:
		return nil, serrors.Join(ErrInvalidTopology, nil, "ix", ix,
			"a", x.node, "b", y.node, "reason", "hosts cannot peer")
	case xRS && yRS:
		return nil, serrors.Join(ErrInvalidTopology, nil, "ix", ix,
			"a", x.node, "b", y.node, "reason", "two route servers cannot peer")
	case xRS:
		return rsPeering{ix: ix, rs: x, router: y}, nil
	case yRS:
		return rsPeering{ix: ix, rs: y, router: x}, nil
	default:
		return privatePeering{ix: ix, a: x, b: y, rel: rel}, nil
	}
}

// plan is the outcome of the resolution phase.
type plan struct {
	peerings []resolved
	sessions []placement
}

type plannedKey struct {
	node     *topology.Node
	protocol topology.Protocol
	name     string
}

// resolve turns every intent into a resolved peering and checks that the
// resulting sessions do not collide with each other or with sessions already
// present. It does not modify any node.
func (l *Layer) resolve(ctx context.Context, reg *registry.Registry) (plan, error) {
	logger := log.FromCtx(ctx)
	var p plan

	for _, in := range l.intents.rs {
		net, err := ixNetwork(reg, in.IX, in.ASN)
		if err != nil {
			return plan{}, err
		}
		rs, err := routeServer(reg, in.IX)
		if err != nil {
			return plan{}, err
		}
		peer, err := attach(reg, net, in.IX, in.ASN)
		if err != nil {
			return plan{}, err
		}
		r, err := classify(in.IX, rs, peer, topology.Peer)
		if err != nil {
			return plan{}, err
		}
		logger.Debug("Adding RS peering",
			"ix", in.IX, "rs", rs.iface.Addr(), "asn", in.ASN, "addr", peer.iface.Addr())
		p.peerings = append(p.peerings, r)
	}

	for _, in := range l.intents.private {
		net, err := ixNetwork(reg, in.IX, in.A)
		if err != nil {
			return plan{}, err
		}
		a, err := attach(reg, net, in.IX, in.A)
		if err != nil {
			return plan{}, err
		}
		b, err := attach(reg, net, in.IX, in.B)
		if err != nil {
			return plan{}, err
		}
		r, err := classify(in.IX, a, b, in.Relationship)
		if err != nil {
			return plan{}, err
		}
		logger.Debug("Adding private peering", "ix", in.IX,
			"a", in.A, "a_addr", a.iface.Addr(), "b", in.B, "b_addr", b.iface.Addr(),
			"relationship", in.Relationship)
		p.peerings = append(p.peerings, r)
	}

	planned := make(map[plannedKey]topology.Session)
	for _, r := range p.peerings {
		for _, pl := range r.sessions(l.flavor) {
			if err := pl.node.CheckSession(pl.session); err != nil {
				return plan{}, err
			}
			k := plannedKey{node: pl.node, protocol: pl.session.Protocol, name: pl.session.Name}
			if prev, ok := planned[k]; ok {
				if prev != pl.session {
					return plan{}, serrors.Join(topology.ErrDuplicateSession, nil,
						"node", pl.node, "protocol", pl.session.Protocol, "name", pl.session.Name)
				}
				continue
			}
			planned[k] = pl.session
			p.sessions = append(p.sessions, pl)
		}
	}
	return p, nil
}

func ixNetwork(reg *registry.Registry, ix addr.IXID, asn addr.ASN) (*topology.Network, error) {
	net, err := registry.Get[*topology.Network](reg, registry.Key{
		Scope: registry.ScopeIX, Kind: topology.KindNet, Name: ix.Name(),
	})
	if errors.Is(err, registry.ErrNotFound) {
		return nil, serrors.Join(ErrUnresolved, err, "asn", asn, "ix", ix)
	}
	return net, err
}

// routeServer returns the route server of ix and its only interface.
func routeServer(reg *registry.Registry, ix addr.IXID) (attachment, error) {
	rs, err := registry.Get[*topology.Node](reg, registry.Key{
		Scope: registry.ScopeIX, Kind: topology.KindRouteServer, Name: ix.Name(),
	})
	if errors.Is(err, registry.ErrNotFound) {
		return attachment{}, serrors.Join(ErrUnresolved, err, "ix", ix)
	}
	if err != nil {
		return attachment{}, err
	}
	ifaces := rs.Interfaces()
	if len(ifaces) != 1 {
		return attachment{}, serrors.Join(ErrInvalidTopology, nil, "ix", ix,
			"interfaces", len(ifaces), "reason", "route server must have exactly one interface")
	}
	return attachment{node: rs, iface: ifaces[0]}, nil
}

// attach returns the first interface on net of the first router of asn that
// is attached to it.
func attach(
	reg *registry.Registry,
	net *topology.Network,
	ix addr.IXID,
	asn addr.ASN,
) (attachment, error) {

	routers, err := registry.ByKind[*topology.Node](reg, asn.String(), topology.KindRouter)
	if err != nil {
		return attachment{}, err
	}
	for _, r := range routers {
		if iface, ok := r.InterfaceOn(net); ok {
			return attachment{node: r, iface: iface}, nil
		}
	}
	return attachment{}, serrors.Join(ErrUnresolved, nil, "asn", asn, "ix", ix,
		"reason", "AS not present at IX")
}
