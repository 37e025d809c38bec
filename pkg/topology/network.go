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

package topology

import (
	"errors"
	"net/netip"

	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

var (
	// ErrDuplicateAddress indicates that an address is already used on a
	// network.
	ErrDuplicateAddress = errors.New("duplicate interface address")
	// ErrAddressOutOfPrefix indicates that an address is outside the prefix of
	// the network it should be used on.
	ErrAddressOutOfPrefix = errors.New("address outside of network prefix")
)

// NetworkType distinguishes AS internal networks from IX peering LANs.
type NetworkType int

const (
	// LocalNetwork is a LAN inside an AS.
	LocalNetwork NetworkType = iota
	// IXNetwork is the peering LAN of an Internet Exchange.
	IXNetwork
)

func (t NetworkType) String() string {
	switch t {
	case LocalNetwork:
		return "local"
	case IXNetwork:
		return "ix"
	default:
		return "unknown"
	}
}

// Network is a named broadcast domain. Its name is unique within its scope.
type Network struct {
	scope  string
	name   string
	typ    NetworkType
	prefix netip.Prefix
	ifaces []*Interface
	used   map[netip.Addr]struct{}
}

// NewNetwork creates a network. The prefix is masked.
func NewNetwork(scope, name string, typ NetworkType, prefix netip.Prefix) *Network {
	return &Network{
		scope:  scope,
		name:   name,
		typ:    typ,
		prefix: prefix.Masked(),
		used:   make(map[netip.Addr]struct{}),
	}
}

func (n *Network) Scope() string { return n.scope }
func (n *Network) Name() string { return n.name }
func (n *Network) Type() NetworkType { return n.typ }
func (n *Network) Prefix() netip.Prefix { return n.prefix }

// Interfaces returns the attached interfaces in attachment order.
func (n *Network) Interfaces() []*Interface {
	return append([]*Interface(nil), n.ifaces...)
}

// InUse reports whether a is already assigned on the network.
func (n *Network) InUse(a netip.Addr) bool {
	_, ok := n.used[a]
	return ok
}

func (n *Network) attach(iface *Interface) error {
	if !n.prefix.Contains(iface.addr) {
		return serrors.Join(ErrAddressOutOfPrefix, nil,
			"network", n.name, "prefix", n.prefix, "addr", iface.addr)
	}
	if n.InUse(iface.addr) {
		return serrors.Join(ErrDuplicateAddress, nil,
			"network", n.name, "addr", iface.addr)
	}
	n.used[iface.addr] = struct{}{}
	n.ifaces = append(n.ifaces, iface)
	return nil
}

// Interface attaches a node to a network. Its name is the network name.
type Interface struct {
	node *Node
	net  *Network
	addr netip.Addr
}

func (i *Interface) Name() string { return i.net.name }
func (i *Interface) Node() *Node { return i.node }
func (i *Interface) Network() *Network { return i.net }
func (i *Interface) Addr() netip.Addr { return i.addr }
func (i *Interface) Prefix() netip.Prefix {
	return netip.PrefixFrom(i.addr, i.net.prefix.Bits())
}
