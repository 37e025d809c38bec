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
	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// RsPeering is the intent that an AS peers with the route server of an IX.
type RsPeering struct {
	IX  addr.IXID
	ASN addr.ASN
}

// PrivatePeering is the intent that two ASes peer directly at an IX.
type PrivatePeering struct {
	IX           addr.IXID
	A            addr.ASN
	B            addr.ASN
	Relationship topology.Relationship
}

// pairKey identifies a private peering independent of its direction.
type pairKey struct {
	ix     addr.IXID
	lo, hi addr.ASN
}

func (p PrivatePeering) key() pairKey {
	lo, hi := p.A, p.B
	if hi < lo {
		lo, hi = hi, lo
	}
	return pairKey{ix: p.IX, lo: lo, hi: hi}
}

func (p PrivatePeering) validate() error {
	switch {
	case p.IX == 0 || p.A == 0 || p.B == 0:
		return serrors.Join(ErrInvalidIntent, nil,
			"ix", p.IX, "a", p.A, "b", p.B, "reason", "zero identifier")
	case p.A == p.B:
		return serrors.Join(ErrInvalidIntent, nil,
			"ix", p.IX, "asn", p.A, "reason", "AS peers with itself")
	}
	switch p.Relationship {
	case topology.Peer, topology.Provider, topology.Unfiltered:
		return nil
	default:
		return serrors.Join(ErrInvalidIntent, nil,
			"ix", p.IX, "a", p.A, "b", p.B, "relationship", p.Relationship)
	}
}

// intents is the insertion ordered intent table of a layer.
type intents struct {
	rs      []RsPeering
	rsIdx   map[RsPeering]struct{}
	private []PrivatePeering
	privIdx map[pairKey]struct{}
}

func newIntents() intents {
	return intents{
		rsIdx:   make(map[RsPeering]struct{}),
		privIdx: make(map[pairKey]struct{}),
	}
}

// addRs registers all of batch or nothing.
func (in *intents) addRs(batch []RsPeering) error {
	seen := make(map[RsPeering]struct{}, len(batch))
	for _, p := range batch {
		if p.IX == 0 || p.ASN == 0 {
			return serrors.Join(ErrInvalidIntent, nil,
				"ix", p.IX, "asn", p.ASN, "reason", "zero identifier")
		}
		_, dupInBatch := seen[p]
		if _, ok := in.rsIdx[p]; ok || dupInBatch {
			return serrors.Join(ErrDuplicateIntent, nil, "ix", p.IX, "asn", p.ASN)
		}
		seen[p] = struct{}{}
	}
	for _, p := range batch {
		in.rsIdx[p] = struct{}{}
		in.rs = append(in.rs, p)
	}
	return nil
}

// addPrivate registers all of batch or nothing.
func (in *intents) addPrivate(batch []PrivatePeering) error {
	seen := make(map[pairKey]struct{}, len(batch))
	for _, p := range batch {
		if err := p.validate(); err != nil {
			return err
		}
		k := p.key()
		_, dupInBatch := seen[k]
		if _, ok := in.privIdx[k]; ok || dupInBatch {
			return serrors.Join(ErrDuplicateIntent, nil, "ix", p.IX, "a", p.A, "b", p.B)
		}
		seen[k] = struct{}{}
	}
	for _, p := range batch {
		in.privIdx[p.key()] = struct{}{}
		in.private = append(in.private, p)
	}
	return nil
}
