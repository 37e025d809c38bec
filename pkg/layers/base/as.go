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

package base

import (
	"net/netip"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// AutonomousSystem is an AS under construction.
type AutonomousSystem struct {
	base  *Base
	as    *topology.AutonomousSystem
	nets  map[string]*topology.Network
	nodes map[string]*Node
	order []*Node
}

func (as *AutonomousSystem) ASN() addr.ASN { return as.as.ASN() }

// Scope returns the registry scope of the AS.
func (as *AutonomousSystem) Scope() string { return as.as.Scope() }

// Entity returns the AS entity.
func (as *AutonomousSystem) Entity() *topology.AutonomousSystem { return as.as }

// NetworkOption configures a network created with CreateNetwork.
type NetworkOption func(*networkOptions)

type networkOptions struct {
	prefix netip.Prefix
}

// WithPrefix sets the prefix of the network instead of the default
// 10.{asn}.{index}.0/24.
func WithPrefix(p netip.Prefix) NetworkOption {
	return func(o *networkOptions) {
		o.prefix = p
	}
}

// CreateNetwork creates a local network. Without WithPrefix the n-th network
// of the AS (counting from 0) gets 10.{asn}.{n}.0/24, which requires the AS
// number to be at most 255.
func (as *AutonomousSystem) CreateNetwork(
	name string,
	opts ...NetworkOption,
) (*topology.Network, error) {

	if as.base.configured {
		return nil, serrors.Join(ErrConfigured, nil, "asn", as.ASN(), "network", name)
	}
	if _, ok := as.nets[name]; ok {
		return nil, serrors.Join(ErrDuplicate, nil, "asn", as.ASN(), "network", name)
	}
	var o networkOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.prefix.IsValid() {
		p, err := defaultPrefix(as.ASN(), len(as.nets))
		if err != nil {
			return nil, serrors.Wrap("deriving network prefix", err, "network", name)
		}
		o.prefix = p
	}
	if !o.prefix.Addr().Is4() {
		return nil, serrors.New("network prefix must be IPv4",
			"asn", as.ASN(), "network", name, "prefix", o.prefix)
	}
	net := topology.NewNetwork(as.Scope(), name, topology.LocalNetwork, o.prefix)
	as.nets[name] = net
	as.as.AddNetwork(net)
	return net, nil
}

// Network returns the local network with the given name.
func (as *AutonomousSystem) Network(name string) (*topology.Network, bool) {
	net, ok := as.nets[name]
	return net, ok
}

// CreateRouter creates a router.
func (as *AutonomousSystem) CreateRouter(name string) (*Node, error) {
	return as.createNode(name, topology.RoleRouter)
}

// CreateHost creates a host.
func (as *AutonomousSystem) CreateHost(name string) (*Node, error) {
	return as.createNode(name, topology.RoleHost)
}

// Node returns the router or host with the given name.
func (as *AutonomousSystem) Node(name string) (*Node, bool) {
	n, ok := as.nodes[name]
	return n, ok
}

func (as *AutonomousSystem) createNode(name string, role topology.Role) (*Node, error) {
	if as.base.configured {
		return nil, serrors.Join(ErrConfigured, nil, "asn", as.ASN(), "node", name)
	}
	if _, ok := as.nodes[name]; ok {
		return nil, serrors.Join(ErrDuplicate, nil, "asn", as.ASN(), "node", name)
	}
	n := &Node{Node: topology.NewNode(as.Scope(), name, as.ASN(), role)}
	as.nodes[name] = n
	as.order = append(as.order, n)
	as.as.AddNode(n.Node)
	return n, nil
}

func (as *AutonomousSystem) register(reg *registry.Registry) error {
	if err := reg.Put(registry.Key{
		Scope: registry.ScopeGlobal, Kind: topology.KindAS, Name: as.Scope(),
	}, as.as); err != nil {
		return err
	}
	scoped := reg.Scoped(as.Scope())
	for _, net := range as.as.Networks() {
		if err := scoped.Put(topology.KindNet, net.Name(), net); err != nil {
			return err
		}
	}
	for _, n := range as.order {
		if err := reg.Put(n.Key(), n.Node); err != nil {
			return err
		}
	}
	return nil
}

// address picks the address of n on net.
func (as *AutonomousSystem) address(net *topology.Network, n *Node, j join) (netip.Addr, error) {
	if j.addr.IsValid() {
		return j.addr, nil
	}
	switch {
	case n.Role() == topology.RoleHost:
		return nextFree(net, firstHostAddr(net.Prefix()), netip.Addr.Next)
	case net.Type() == topology.IXNetwork:
		return ixRouterAddr(net, n.ASN())
	default:
		return nextFree(net, firstRouterAddr(net.Prefix()), netip.Addr.Prev)
	}
}

type join struct {
	network string
	addr    netip.Addr
}

// Node is a router or host under construction.
type Node struct {
	*topology.Node
	joins []join
}

// JoinNetwork records that the node joins the named network, either a
// network of its AS or an IX peering network ("ix100"). An optional address
// overrides automatic assignment. The join is resolved when the Base layer is
// configured.
func (n *Node) JoinNetwork(name string, address ...netip.Addr) *Node {
	j := join{network: name}
	if len(address) > 0 {
		j.addr = address[0]
	}
	n.joins = append(n.joins, j)
	return n
}
