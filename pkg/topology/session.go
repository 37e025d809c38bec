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
	"fmt"
	"net/netip"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

// Protocol is the routing protocol family a session belongs to. Sessions of
// different protocols never collide by name.
type Protocol string

const (
	ProtocolBGP  Protocol = "bgp"
	ProtocolMBGP Protocol = "mbgp"
)

// SessionKind describes the role a session plays for the node carrying it.
type SessionKind int

const (
	// KindRSClient is the session a route server holds towards a client.
	KindRSClient SessionKind = iota
	// KindRSPeer is the session a router holds towards a route server.
	KindRSPeer
	// KindPrivate is a bilateral session between two routers.
	KindPrivate
	// KindInternal is an iBGP session inside an AS.
	KindInternal
)

func (k SessionKind) String() string {
	switch k {
	case KindRSClient:
		return "rs_client"
	case KindRSPeer:
		return "rs_peer"
	case KindPrivate:
		return "private"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Relationship is the business relationship of a peering. On an intent,
// Provider means that the first AS is the provider of the second. On a
// session it is the role of the remote side as seen from the local node, so
// the customer side of a provider intent carries Provider and the provider
// side carries Customer.
type Relationship int

const (
	Peer Relationship = iota
	Provider
	Customer
	Unfiltered
)

func (r Relationship) String() string {
	switch r {
	case Peer:
		return "Peer"
	case Provider:
		return "Provider"
	case Customer:
		return "Customer"
	case Unfiltered:
		return "Unfiltered"
	default:
		return fmt.Sprintf("Relationship(%d)", int(r))
	}
}

// ParseRelationship parses the name of an intent relationship.
func ParseRelationship(s string) (Relationship, error) {
	switch s {
	case "Peer", "peer":
		return Peer, nil
	case "Provider", "provider":
		return Provider, nil
	case "Unfiltered", "unfiltered":
		return Unfiltered, nil
	default:
		return 0, serrors.New("unknown relationship", "relationship", s)
	}
}

// Reverse returns the relationship as seen from the other side.
func (r Relationship) Reverse() Relationship {
	switch r {
	case Provider:
		return Customer
	case Customer:
		return Provider
	default:
		return r
	}
}

// Session describes one routing session a node must run. Sessions are
// comparable; two sessions with the same protocol and name must be equal.
type Session struct {
	Protocol     Protocol
	Name         string
	Kind         SessionKind
	Interface    string
	LocalAddr    netip.Addr
	LocalASN     addr.ASN
	PeerAddr     netip.Addr
	PeerASN      addr.ASN
	Relationship Relationship
	// RSClient marks the route server side of a route server session.
	RSClient bool
	BFD      bool
}

type sessionKey struct {
	protocol Protocol
	name     string
}

func (s Session) key() sessionKey {
	return sessionKey{protocol: s.Protocol, name: s.Name}
}

// TablePipe pipes routes from one routing table into another.
type TablePipe struct {
	From string
	Into string
}

// DirectPipe feeds the directly connected networks into the main table.
var DirectPipe = TablePipe{From: "t_direct", Into: "master4"}
