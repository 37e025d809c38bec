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
	"fmt"
	"net/netip"
	"slices"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/registry"
)

var (
	// ErrDuplicateSession indicates that a node already has a different
	// session with the same protocol and name.
	ErrDuplicateSession = errors.New("duplicate session")
	// ErrAlreadyAttached indicates that a node joins the same network twice.
	ErrAlreadyAttached = errors.New("node already attached to network")
)

// Role is the immutable role of a node.
type Role int

const (
	RoleRouter Role = iota
	RoleRouteServer
	RoleHost
)

// Kind returns the registry kind of nodes with the role.
func (r Role) Kind() string {
	switch r {
	case RoleRouter:
		return KindRouter
	case RoleRouteServer:
		return KindRouteServer
	case RoleHost:
		return KindHost
	default:
		return ""
	}
}

func (r Role) String() string {
	switch r {
	case RoleRouter:
		return "Router"
	case RoleRouteServer:
		return "RouteServer"
	case RoleHost:
		return "Host"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// NodeState is the progress of a node's protocol configuration.
type NodeState int

const (
	Unconfigured NodeState = iota
	HasDirectPipe
	HasSessions
	HasConsolidatedBFD
)

func (s NodeState) String() string {
	switch s {
	case Unconfigured:
		return "Unconfigured"
	case HasDirectPipe:
		return "HasDirectPipe"
	case HasSessions:
		return "HasSessions"
	case HasConsolidatedBFD:
		return "HasConsolidatedBFD"
	default:
		return fmt.Sprintf("NodeState(%d)", int(s))
	}
}

// Node is a router, route server or host.
type Node struct {
	scope string
	name  string
	asn   addr.ASN
	role  Role

	ifaces   []*Interface
	loopback netip.Addr

	sessions   []Session
	sessionIdx map[sessionKey]int
	pipes      []TablePipe
	endpoints  map[BFDEndpoint]struct{}
	bfd        *BFDBlock
}

// NewNode creates a node. Route servers live in the "ix" scope, all other
// nodes in the scope of their AS.
func NewNode(scope, name string, asn addr.ASN, role Role) *Node {
	return &Node{
		scope:      scope,
		name:       name,
		asn:        asn,
		role:       role,
		sessionIdx: make(map[sessionKey]int),
		endpoints:  make(map[BFDEndpoint]struct{}),
	}
}

func (n *Node) Scope() string { return n.scope }
func (n *Node) Name() string { return n.name }
func (n *Node) ASN() addr.ASN { return n.asn }
func (n *Node) Role() Role { return n.role }

// Key returns the registry key of the node.
func (n *Node) Key() registry.Key {
	return registry.Key{Scope: n.scope, Kind: n.role.Kind(), Name: n.name}
}

func (n *Node) String() string {
	return n.Key().String()
}

// Join attaches the node to net with address a.
func (n *Node) Join(net *Network, a netip.Addr) (*Interface, error) {
	if _, ok := n.InterfaceOn(net); ok {
		return nil, serrors.Join(ErrAlreadyAttached, nil, "node", n, "network", net.Name())
	}
	iface := &Interface{node: n, net: net, addr: a}
	if err := net.attach(iface); err != nil {
		return nil, serrors.Wrap("joining network", err, "node", n)
	}
	n.ifaces = append(n.ifaces, iface)
	return iface, nil
}

// Interfaces returns the interfaces in join order.
func (n *Node) Interfaces() []*Interface {
	return append([]*Interface(nil), n.ifaces...)
}

// InterfaceOn returns the first interface attached to net.
func (n *Node) InterfaceOn(net *Network) (*Interface, bool) {
	for _, iface := range n.ifaces {
		if iface.net == net {
			return iface, true
		}
	}
	return nil, false
}

// Loopback returns the loopback address if one is assigned.
func (n *Node) Loopback() (netip.Addr, bool) {
	return n.loopback, n.loopback.IsValid()
}

// SetLoopback assigns the loopback address.
func (n *Node) SetLoopback(a netip.Addr) {
	n.loopback = a
}

// RouterID returns the loopback address, or the address of the first
// interface for nodes without loopback. The zero address is returned for
// nodes without any address.
func (n *Node) RouterID() netip.Addr {
	if n.loopback.IsValid() {
		return n.loopback
	}
	if len(n.ifaces) > 0 {
		return n.ifaces[0].addr
	}
	return netip.Addr{}
}

// CheckSession reports whether s can be added without conflict. Adding an
// identical session is allowed and has no effect.
func (n *Node) CheckSession(s Session) error {
	i, ok := n.sessionIdx[s.key()]
	if !ok || n.sessions[i] == s {
		return nil
	}
	return serrors.Join(ErrDuplicateSession, nil,
		"node", n, "protocol", s.Protocol, "name", s.Name)
}

// AddSession appends s to the node. It returns false if an identical session
// is already present.
func (n *Node) AddSession(s Session) (bool, error) {
	if err := n.CheckSession(s); err != nil {
		return false, err
	}
	if _, ok := n.sessionIdx[s.key()]; ok {
		return false, nil
	}
	n.sessionIdx[s.key()] = len(n.sessions)
	n.sessions = append(n.sessions, s)
	return true, nil
}

// Sessions returns all sessions in the order they were added.
func (n *Node) Sessions() []Session {
	return append([]Session(nil), n.sessions...)
}

// Session returns the session with the given protocol and name.
func (n *Node) Session(p Protocol, name string) (Session, bool) {
	i, ok := n.sessionIdx[sessionKey{protocol: p, name: name}]
	if !ok {
		return Session{}, false
	}
	return n.sessions[i], true
}

// InternalSessionTo returns the first internal session of the node towards
// peer, regardless of its protocol.
func (n *Node) InternalSessionTo(peer netip.Addr) (Session, bool) {
	for _, s := range n.sessions {
		if s.Kind == KindInternal && s.PeerAddr == peer {
			return s, true
		}
	}
	return Session{}, false
}

// AddPipe adds a table pipe. It returns false if the pipe already exists.
func (n *Node) AddPipe(p TablePipe) bool {
	if slices.Contains(n.pipes, p) {
		return false
	}
	n.pipes = append(n.pipes, p)
	return true
}

// Pipes returns the table pipes in the order they were added.
func (n *Node) Pipes() []TablePipe {
	return append([]TablePipe(nil), n.pipes...)
}

// AddBFDEndpoint records a BFD neighbor. It returns false if the endpoint
// was already recorded.
func (n *Node) AddBFDEndpoint(e BFDEndpoint) bool {
	if _, ok := n.endpoints[e]; ok {
		return false
	}
	n.endpoints[e] = struct{}{}
	return true
}

// BFDEndpoints returns the recorded BFD endpoints, sorted.
func (n *Node) BFDEndpoints() []BFDEndpoint {
	res := make([]BFDEndpoint, 0, len(n.endpoints))
	for e := range n.endpoints {
		res = append(res, e)
	}
	slices.SortFunc(res, compareEndpoints)
	return res
}

// ConsolidateBFD replaces the BFD block of the node with one covering every
// recorded endpoint. Nodes without endpoints keep no block and false is
// returned.
func (n *Node) ConsolidateBFD() bool {
	if len(n.endpoints) == 0 {
		return false
	}
	n.bfd = &BFDBlock{Endpoints: n.BFDEndpoints()}
	return true
}

// BFD returns the consolidated BFD block.
func (n *Node) BFD() (BFDBlock, bool) {
	if n.bfd == nil {
		return BFDBlock{}, false
	}
	return *n.bfd, true
}

// State returns the configuration state of the node.
func (n *Node) State() NodeState {
	switch {
	case n.bfd != nil:
		return HasConsolidatedBFD
	case len(n.sessions) > 0:
		return HasSessions
	case len(n.pipes) > 0:
		return HasDirectPipe
	default:
		return Unconfigured
	}
}
