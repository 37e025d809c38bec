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
	"github.com/seed-emulator/seedemu/pkg/addr"
)

// AutonomousSystem groups the networks and nodes of one AS. It only grows.
type AutonomousSystem struct {
	asn      addr.ASN
	networks []*Network
	routers  []*Node
	hosts    []*Node
}

// NewAutonomousSystem creates an empty AS.
func NewAutonomousSystem(asn addr.ASN) *AutonomousSystem {
	return &AutonomousSystem{asn: asn}
}

func (as *AutonomousSystem) ASN() addr.ASN { return as.asn }

// Scope returns the registry scope of the AS entities.
func (as *AutonomousSystem) Scope() string { return as.asn.String() }

func (as *AutonomousSystem) AddNetwork(n *Network) { as.networks = append(as.networks, n) }

// AddNode adds a router or host.
func (as *AutonomousSystem) AddNode(n *Node) {
	if n.Role() == RoleHost {
		as.hosts = append(as.hosts, n)
		return
	}
	as.routers = append(as.routers, n)
}

func (as *AutonomousSystem) Networks() []*Network { return append([]*Network(nil), as.networks...) }
func (as *AutonomousSystem) Routers() []*Node { return append([]*Node(nil), as.routers...) }
func (as *AutonomousSystem) Hosts() []*Node { return append([]*Node(nil), as.hosts...) }

// InternetExchange owns a peering network and the route server attached to
// it.
type InternetExchange struct {
	id  addr.IXID
	net *Network
	rs  *Node
}

// NewInternetExchange creates an IX from its peering network and route
// server.
func NewInternetExchange(id addr.IXID, net *Network, rs *Node) *InternetExchange {
	return &InternetExchange{id: id, net: net, rs: rs}
}

func (ix *InternetExchange) ID() addr.IXID { return ix.id }
func (ix *InternetExchange) Network() *Network { return ix.net }
func (ix *InternetExchange) RouteServer() *Node { return ix.rs }
