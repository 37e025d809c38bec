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

	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// apply adds the pipes, sessions and BFD endpoints of a resolved plan.
func (l *Layer) apply(p plan) error {
	for _, r := range p.peerings {
		for _, s := range r.sides() {
			s.local.node.AddPipe(topology.DirectPipe)
			if l.flavor.bfd {
				s.local.node.AddBFDEndpoint(topology.BFDEndpoint{
					Interface: s.local.iface.Name(),
					Local:     s.local.iface.Addr(),
					Neighbor:  s.remote.iface.Addr(),
				})
			}
		}
	}
	for _, pl := range p.sessions {
		added, err := pl.node.AddSession(pl.session)
		if err != nil {
			return err
		}
		if added {
			l.metrics.sessionAdded(l.flavor.name, pl.session.Kind)
		}
	}
	return nil
}

// mesh connects all routers of every unmasked AS with internal sessions
// between their loopbacks. Pairs with a router lacking a loopback are logged
// and skipped. Pairs already meshed by a layer of another protocol are left
// alone, a router keeps a single internal session per peer.
func (l *Layer) mesh(ctx context.Context, reg *registry.Registry) error {
	logger := log.FromCtx(ctx)
	ases, err := registry.ByKind[*topology.AutonomousSystem](reg,
		registry.ScopeGlobal, topology.KindAS)
	if err != nil {
		return err
	}
	for _, as := range ases {
		if _, ok := l.masked[as.ASN()]; ok {
			continue
		}
		routers, err := registry.ByKind[*topology.Node](reg, as.Scope(), topology.KindRouter)
		if err != nil {
			return err
		}
		for _, local := range routers {
			for _, remote := range routers {
				if local == remote {
					continue
				}
				localLo, localOK := local.Loopback()
				remoteLo, remoteOK := remote.Loopback()
				if !localOK || !remoteOK {
					logger.Error("Skipping internal session, router without loopback",
						"asn", as.ASN(), "router", local.Name(), "peer", remote.Name())
					l.metrics.meshSkipped(l.flavor.name)
					continue
				}
				if s, ok := local.InternalSessionTo(remoteLo); ok &&
					s.Protocol != l.flavor.protocol {
					logger.Debug("Internal session already present",
						"asn", as.ASN(), "router", local.Name(), "peer", remote.Name(),
						"protocol", s.Protocol)
					continue
				}
				added, err := local.AddSession(topology.Session{
					Protocol:     l.flavor.protocol,
					Name:         internalName(remote.Name()),
					Kind:         topology.KindInternal,
					LocalAddr:    localLo,
					LocalASN:     as.ASN(),
					PeerAddr:     remoteLo,
					PeerASN:      as.ASN(),
					Relationship: topology.Peer,
				})
				if err != nil {
					return serrors.Wrap("adding internal session", err, "asn", as.ASN())
				}
				if added {
					l.metrics.sessionAdded(l.flavor.name, topology.KindInternal)
				}
			}
		}
	}
	return nil
}

// sweepBFD consolidates the BFD endpoints of every router and route server
// and returns the number of nodes that carry a BFD block.
func sweepBFD(reg *registry.Registry) int {
	blocks := 0
	for _, e := range reg.All() {
		if e.Key.Kind != topology.KindRouter && e.Key.Kind != topology.KindRouteServer {
			continue
		}
		n, ok := e.Value.(*topology.Node)
		if !ok {
			continue
		}
		if n.ConsolidateBFD() {
			blocks++
		}
	}
	return blocks
}
