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

package topofile

import (
	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/layers/base"
	"github.com/seed-emulator/seedemu/pkg/layers/peering"
	"github.com/seed-emulator/seedemu/pkg/layers/routing"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// Layers are the layers a topology file is built into. Nil layers are
// created by Build when the file needs them.
type Layers struct {
	Base    *base.Base
	Routing *routing.Routing
	Ebgp    *peering.Layer
	Mbgp    *peering.Layer
	// PeeringOptions are applied to the peering layers created by Build.
	PeeringOptions []peering.Option
}

// Build populates the layers with the content of the file.
func (f *File) Build(l *Layers) error {
	if l.Base == nil {
		l.Base = base.New()
	}
	if l.Routing == nil {
		l.Routing = routing.New()
	}
	for _, id := range f.IXes {
		if _, err := l.Base.CreateInternetExchange(id); err != nil {
			return serrors.Wrap("creating IX", err, "ix", id)
		}
	}
	for _, as := range f.ASes {
		if err := as.build(l.Base); err != nil {
			return err
		}
	}
	if f.Ebgp != nil {
		if l.Ebgp == nil {
			l.Ebgp = peering.NewEbgp(f.Ebgp.options(l.PeeringOptions)...)
		}
		if err := f.Ebgp.build(l.Ebgp); err != nil {
			return err
		}
	}
	if f.Mbgp != nil {
		if l.Mbgp == nil {
			l.Mbgp = peering.NewMbgp(f.Mbgp.options(l.PeeringOptions)...)
		}
		if err := f.Mbgp.build(l.Mbgp); err != nil {
			return err
		}
	}
	return nil
}

// Emulator adds the layers to a new emulator.
func (l *Layers) Emulator(opts ...emulator.Option) (*emulator.Emulator, error) {
	emu := emulator.New(opts...)
	layers := []emulator.Layer{l.Base, l.Routing}
	for _, p := range []*peering.Layer{l.Ebgp, l.Mbgp} {
		if p != nil {
			layers = append(layers, p)
		}
	}
	for _, layer := range layers {
		if err := emu.AddLayer(layer); err != nil {
			return nil, err
		}
	}
	return emu, nil
}

// Peering returns the non-nil peering layers.
func (l *Layers) Peering() []*peering.Layer {
	var res []*peering.Layer
	for _, p := range []*peering.Layer{l.Ebgp, l.Mbgp} {
		if p != nil {
			res = append(res, p)
		}
	}
	return res
}

func (a AS) build(b *base.Base) error {
	as, err := b.CreateAutonomousSystem(a.ASN)
	if err != nil {
		return serrors.Wrap("creating AS", err, "asn", a.ASN)
	}
	for _, n := range a.Networks {
		var opts []base.NetworkOption
		if n.Prefix.IsValid() {
			opts = append(opts, base.WithPrefix(n.Prefix))
		}
		if _, err := as.CreateNetwork(n.Name, opts...); err != nil {
			return serrors.Wrap("creating network", err, "asn", a.ASN, "network", n.Name)
		}
	}
	for _, r := range a.Routers {
		node, err := as.CreateRouter(r.Name)
		if err != nil {
			return serrors.Wrap("creating router", err, "asn", a.ASN, "router", r.Name)
		}
		r.join(node)
	}
	for _, h := range a.Hosts {
		node, err := as.CreateHost(h.Name)
		if err != nil {
			return serrors.Wrap("creating host", err, "asn", a.ASN, "host", h.Name)
		}
		h.join(node)
	}
	return nil
}

func (n Node) join(node *base.Node) {
	if n.Loopback.IsValid() {
		node.SetLoopback(n.Loopback)
	}
	for _, j := range n.Networks {
		if j.Address.IsValid() {
			node.JoinNetwork(j.Network, j.Address)
		} else {
			node.JoinNetwork(j.Network)
		}
	}
}

func (p *Peering) options(defaults []peering.Option) []peering.Option {
	opts := append([]peering.Option(nil), defaults...)
	if p.InternalMesh != nil {
		opts = append(opts, peering.WithInternalMesh(*p.InternalMesh))
	}
	return opts
}

func (p *Peering) build(l *peering.Layer) error {
	for _, rs := range p.RsPeers {
		if err := l.AddRsPeers(rs.IX, rs.ASes...); err != nil {
			return serrors.Wrap("adding route server peers", err,
				"layer", l.Name(), "ix", rs.IX)
		}
	}
	for _, pp := range p.PrivatePeerings {
		rel := topology.Peer
		if pp.Relationship != "" {
			var err error
			if rel, err = topology.ParseRelationship(pp.Relationship); err != nil {
				return serrors.Wrap("parsing relationship", err,
					"layer", l.Name(), "ix", pp.IX)
			}
		}
		if err := l.AddPrivatePeerings(pp.IX, pp.A, pp.B, rel); err != nil {
			return serrors.Wrap("adding private peerings", err,
				"layer", l.Name(), "ix", pp.IX)
		}
	}
	for _, asn := range p.Masked {
		l.MaskAsn(asn)
	}
	return nil
}
