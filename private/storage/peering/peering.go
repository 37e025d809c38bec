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

// Package peering defines the persistent export of peering intents and the
// sessions synthesized from them.
package peering

import (
	"context"
	"io"
	"net/netip"

	"github.com/iancoleman/strcase"

	"github.com/seed-emulator/seedemu/pkg/addr"
	peeringlayer "github.com/seed-emulator/seedemu/pkg/layers/peering"
	"github.com/seed-emulator/seedemu/pkg/registry"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// Intent types.
const (
	IntentRsPeer  = "rs_peer"
	IntentPrivate = "private"
)

// Intent is an exported peering intent. B is zero for route server intents.
type Intent struct {
	Layer        string
	Type         string
	IX           addr.IXID
	A            addr.ASN
	B            addr.ASN
	Relationship string
}

// Session is an exported session together with the node carrying it.
type Session struct {
	Node         string
	Role         string
	Protocol     string
	Name         string
	Kind         string
	Interface    string
	LocalAddr    netip.Addr
	LocalASN     addr.ASN
	PeerAddr     netip.Addr
	PeerASN      addr.ASN
	Relationship string
	RSClient     bool
	BFD          bool
}

// Snapshot is everything that is exported after a render.
type Snapshot struct {
	Intents  []Intent
	Sessions []Session
}

// DB stores snapshots. Export replaces the previously stored snapshot.
type DB interface {
	Export(ctx context.Context, snap Snapshot) error
	Intents(ctx context.Context) ([]Intent, error)
	Sessions(ctx context.Context) ([]Session, error)
	io.Closer
}

// Collect builds the snapshot of a rendered emulation. Intents are listed per
// layer in registration order, sessions in registry and session order.
func Collect(reg *registry.Registry, layers ...*peeringlayer.Layer) Snapshot {
	var snap Snapshot
	for _, l := range layers {
		for _, p := range l.RsPeers() {
			snap.Intents = append(snap.Intents, Intent{
				Layer:        l.Name(),
				Type:         IntentRsPeer,
				IX:           p.IX,
				A:            p.ASN,
				Relationship: RelationshipName(topology.Peer),
			})
		}
		for _, p := range l.PrivatePeerings() {
			snap.Intents = append(snap.Intents, Intent{
				Layer:        l.Name(),
				Type:         IntentPrivate,
				IX:           p.IX,
				A:            p.A,
				B:            p.B,
				Relationship: RelationshipName(p.Relationship),
			})
		}
	}
	for _, e := range reg.All() {
		n, ok := e.Value.(*topology.Node)
		if !ok {
			continue
		}
		for _, s := range n.Sessions() {
			snap.Sessions = append(snap.Sessions, Session{
				Node:         n.Key().String(),
				Role:         strcase.ToSnake(n.Role().String()),
				Protocol:     string(s.Protocol),
				Name:         s.Name,
				Kind:         s.Kind.String(),
				Interface:    s.Interface,
				LocalAddr:    s.LocalAddr,
				LocalASN:     s.LocalASN,
				PeerAddr:     s.PeerAddr,
				PeerASN:      s.PeerASN,
				Relationship: RelationshipName(s.Relationship),
				RSClient:     s.RSClient,
				BFD:          s.BFD,
			})
		}
	}
	return snap
}

// RelationshipName is the stored name of a relationship.
func RelationshipName(r topology.Relationship) string {
	return strcase.ToSnake(r.String())
}
