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
	"cmp"
	"net/netip"
	"slices"
)

// BFDEndpoint is one BFD neighbor reachable over a local interface.
type BFDEndpoint struct {
	Interface string
	Local     netip.Addr
	Neighbor  netip.Addr
}

func compareEndpoints(a, b BFDEndpoint) int {
	if c := cmp.Compare(a.Interface, b.Interface); c != 0 {
		return c
	}
	if c := a.Local.Compare(b.Local); c != 0 {
		return c
	}
	return a.Neighbor.Compare(b.Neighbor)
}

// BFDBlock is the consolidated BFD configuration of a node.
type BFDBlock struct {
	// Endpoints is sorted by interface, local and neighbor address.
	Endpoints []BFDEndpoint
}

// Interfaces returns the distinct interface names of the block, sorted.
func (b BFDBlock) Interfaces() []string {
	var names []string
	for _, e := range b.Endpoints {
		names = append(names, e.Interface)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
