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

// Package peering synthesizes BGP sessions from declarative peering intents.
//
// Two layers share one synthesis core. The Ebgp layer emits plain BGP
// sessions with relationship specific names and export policies. The Mbgp
// layer emits sessions of the mbgp protocol with BFD enabled on every
// external session.
//
// Intents are registered before the emulation is rendered:
//
//	mbgp := peering.NewMbgp()
//	err := mbgp.AddRsPeers(100, 150, 151)
//	err = mbgp.AddPrivatePeering(101, 150, 152, topology.Peer)
//
// Configure resolves every intent against the registry before any node is
// touched. A resolution or consistency error therefore leaves all nodes
// unchanged. After the peerings are applied, the routers of every AS that is
// not masked are connected by a full mesh of internal sessions and every node
// with BFD neighbors receives one consolidated BFD block.
package peering

import (
	"context"
	"errors"
	"fmt"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/emulator"
	"github.com/seed-emulator/seedemu/pkg/layers/routing"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// Layer names.
const (
	EbgpLayerName = "Ebgp"
	MbgpLayerName = "Mbgp"
)

var (
	// ErrDuplicateIntent indicates that a peering was already registered.
	ErrDuplicateIntent = errors.New("duplicate peering intent")
	// ErrInvalidIntent indicates a peering that can never be established,
	// e.g. an AS peering with itself.
	ErrInvalidIntent = errors.New("invalid peering intent")
	// ErrUnresolved indicates that an intent names an AS that is not attached
	// to the IX, or an IX that does not exist.
	ErrUnresolved = errors.New("unresolved peering")
	// ErrInvalidTopology indicates a topology the peering cannot be built
	// on, e.g. a route server with more than one interface.
	ErrInvalidTopology = errors.New("invalid topology")
)

// flavor holds what differs between the Ebgp and the Mbgp layer.
type flavor struct {
	name     string
	protocol topology.Protocol
	bfd      bool
	// privateNames returns the session names on the a and the b side of a
	// private peering.
	privateNames func(a, b addr.ASN, rel topology.Relationship) (string, string)
}

var ebgpFlavor = flavor{
	name:     EbgpLayerName,
	protocol: topology.ProtocolBGP,
	privateNames: func(a, b addr.ASN, rel topology.Relationship) (string, string) {
		switch rel {
		case topology.Provider:
			return fmt.Sprintf("c_as%d", b), fmt.Sprintf("u_as%d", a)
		case topology.Unfiltered:
			return fmt.Sprintf("x_as%d", b), fmt.Sprintf("x_as%d", a)
		default:
			return fmt.Sprintf("p_as%d", b), fmt.Sprintf("p_as%d", a)
		}
	},
}

var mbgpFlavor = flavor{
	name:     MbgpLayerName,
	protocol: topology.ProtocolMBGP,
	bfd:      true,
	privateNames: func(a, b addr.ASN, _ topology.Relationship) (string, string) {
		return fmt.Sprintf("x_as%d", b), fmt.Sprintf("x_as%d", a)
	},
}

func rsClientName(asn addr.ASN) string { return fmt.Sprintf("p_as%d", asn) }
func rsPeerName(ix addr.IXID) string { return fmt.Sprintf("p_rs%d", ix) }
func internalName(peer string) string { return "ibgp_" + peer }

var _ emulator.Layer = (*Layer)(nil)

// Layer is a peering layer. Create it with NewEbgp or NewMbgp.
type Layer struct {
	flavor       flavor
	intents      intents
	masked       map[addr.ASN]struct{}
	maskedOrder  []addr.ASN
	internalMesh bool
	metrics      *Metrics
}

// Option configures a peering layer.
type Option func(*Layer)

// WithMetrics enables metrics.
func WithMetrics(m *Metrics) Option {
	return func(l *Layer) {
		l.metrics = m
	}
}

// WithInternalMesh enables or disables the internal full mesh. It is enabled
// by default.
func WithInternalMesh(enabled bool) Option {
	return func(l *Layer) {
		l.internalMesh = enabled
	}
}

// NewEbgp creates the Ebgp layer.
func NewEbgp(opts ...Option) *Layer {
	return newLayer(ebgpFlavor, opts)
}

// NewMbgp creates the Mbgp layer.
func NewMbgp(opts ...Option) *Layer {
	return newLayer(mbgpFlavor, opts)
}

func newLayer(f flavor, opts []Option) *Layer {
	l := &Layer{
		flavor:       f,
		intents:      newIntents(),
		masked:       make(map[addr.ASN]struct{}),
		internalMesh: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) Name() string { return l.flavor.name }

// Protocol returns the protocol of the sessions the layer emits.
func (l *Layer) Protocol() topology.Protocol { return l.flavor.protocol }

// BFD reports whether the layer enables BFD on external sessions.
func (l *Layer) BFD() bool { return l.flavor.bfd }

func (l *Layer) Dependencies() []emulator.Dependency {
	return []emulator.Dependency{{Layer: routing.LayerName}}
}

// AddRsPeer registers that the router of asn attached to ix peers with the
// route server of ix.
func (l *Layer) AddRsPeer(ix addr.IXID, asn addr.ASN) error {
	return l.AddRsPeers(ix, asn)
}

// AddRsPeers registers a route server peering for every AS. Either all of
// them are registered or, on error, none.
func (l *Layer) AddRsPeers(ix addr.IXID, asns ...addr.ASN) error {
	batch := make([]RsPeering, 0, len(asns))
	for _, asn := range asns {
		batch = append(batch, RsPeering{IX: ix, ASN: asn})
	}
	if err := l.intents.addRs(batch); err != nil {
		return err
	}
	l.metrics.setIntents(l.flavor.name, &l.intents)
	return nil
}

// AddPrivatePeering registers a bilateral peering between a and b at ix.
// With topology.Provider, a is the provider of b. The pair is unordered:
// registering (ix, b, a) after (ix, a, b) fails.
func (l *Layer) AddPrivatePeering(ix addr.IXID, a, b addr.ASN, rel topology.Relationship) error {
	return l.AddPrivatePeerings(ix, []addr.ASN{a}, []addr.ASN{b}, rel)
}

// AddPrivatePeerings registers a private peering for every pair of as × bs,
// in iteration order. The whole expansion is validated first: either all
// pairs are registered or, on error, none.
func (l *Layer) AddPrivatePeerings(
	ix addr.IXID,
	as, bs []addr.ASN,
	rel topology.Relationship,
) error {

	batch := make([]PrivatePeering, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			batch = append(batch, PrivatePeering{IX: ix, A: a, B: b, Relationship: rel})
		}
	}
	if err := l.intents.addPrivate(batch); err != nil {
		return err
	}
	l.metrics.setIntents(l.flavor.name, &l.intents)
	return nil
}

// MaskAsn excludes asn from the internal mesh. Its explicit peerings are not
// affected.
func (l *Layer) MaskAsn(asn addr.ASN) {
	if _, ok := l.masked[asn]; ok {
		return
	}
	l.masked[asn] = struct{}{}
	l.maskedOrder = append(l.maskedOrder, asn)
}

// MaskedAsns returns the masked AS numbers in the order they were masked.
func (l *Layer) MaskedAsns() []addr.ASN {
	return append([]addr.ASN(nil), l.maskedOrder...)
}

// RsPeers returns the route server intents in registration order.
func (l *Layer) RsPeers() []RsPeering {
	return append([]RsPeering(nil), l.intents.rs...)
}

// PrivatePeerings returns the private intents in registration order.
func (l *Layer) PrivatePeerings() []PrivatePeering {
	return append([]PrivatePeering(nil), l.intents.private...)
}

// Configure resolves all intents, applies the resulting sessions, builds the
// internal mesh and consolidates BFD. Running it again on the same registry
// adds nothing.
func (l *Layer) Configure(ctx context.Context, emu *emulator.Emulator) error {
	ctx, logger := log.WithLabels(ctx, "layer", l.flavor.name)
	reg := emu.Registry()

	p, err := l.resolve(ctx, reg)
	if err != nil {
		return err
	}
	if err := l.apply(p); err != nil {
		return err
	}
	logger.Info("Peerings applied",
		"rs_peerings", len(l.intents.rs), "private_peerings", len(l.intents.private),
		"sessions", len(p.sessions))

	if l.internalMesh {
		if err := l.mesh(ctx, reg); err != nil {
			return err
		}
	}
	blocks := sweepBFD(reg)
	l.metrics.setBFDBlocks(l.flavor.name, blocks)
	logger.Debug("BFD consolidated", "nodes", blocks)
	return nil
}

// Render does nothing. Node configuration is rendered by the bird package.
func (l *Layer) Render(context.Context, *emulator.Emulator) error {
	return nil
}
