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

// Package topofile reads YAML topology files. A topology file describes the
// IXes and ASes of an emulation together with the peering intents of the
// Ebgp and Mbgp layers.
//
// Example:
//
//	ixes: [100]
//	ases:
//	  - asn: 150
//	    networks: [{name: net0}]
//	    routers:
//	      - name: router0
//	        networks: [net0, ix100]
//	ebgp:
//	  rs_peers:
//	    - {ix: 100, ases: [150]}
package topofile

import (
	"net/netip"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

// File is the content of a topology file.
type File struct {
	IXes []addr.IXID `yaml:"ixes"`
	ASes []AS        `yaml:"ases"`
	Ebgp *Peering    `yaml:"ebgp,omitempty"`
	Mbgp *Peering    `yaml:"mbgp,omitempty"`
}

// AS describes one autonomous system.
type AS struct {
	ASN      addr.ASN  `yaml:"asn"`
	Networks []Network `yaml:"networks"`
	Routers  []Node    `yaml:"routers"`
	Hosts    []Node    `yaml:"hosts"`
}

// Network is a local network. Without prefix, the default prefix of the AS
// is used.
type Network struct {
	Name   string       `yaml:"name"`
	Prefix netip.Prefix `yaml:"prefix,omitempty"`
}

// Node is a router or a host.
type Node struct {
	Name     string     `yaml:"name"`
	Loopback netip.Addr `yaml:"loopback,omitempty"`
	Networks []Join     `yaml:"networks"`
}

// Join attaches a node to a network. It is either written as the network
// name or as a mapping with name and address.
type Join struct {
	Network string     `yaml:"name"`
	Address netip.Addr `yaml:"address,omitempty"`
}

// UnmarshalYAML accepts the plain network name as shorthand.
func (j *Join) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		*j = Join{Network: name}
		return nil
	}
	type plain Join
	return unmarshal((*plain)(j))
}

// Peering lists the intents of one peering layer.
type Peering struct {
	RsPeers         []RsPeers         `yaml:"rs_peers"`
	PrivatePeerings []PrivatePeerings `yaml:"private_peerings"`
	Masked          []addr.ASN        `yaml:"masked"`
	// InternalMesh overrides the internal mesh setting of a layer created
	// by Build.
	InternalMesh *bool `yaml:"internal_mesh,omitempty"`
}

// RsPeers makes every listed AS a client of the route server of IX.
type RsPeers struct {
	IX   addr.IXID  `yaml:"ix"`
	ASes []addr.ASN `yaml:"ases"`
}

// PrivatePeerings peers every AS of A with every AS of B at IX. The
// relationship defaults to peer.
type PrivatePeerings struct {
	IX           addr.IXID  `yaml:"ix"`
	A            []addr.ASN `yaml:"a"`
	B            []addr.ASN `yaml:"b"`
	Relationship string     `yaml:"relationship,omitempty"`
}

// Load reads and parses the topology file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap("reading topology file", err, "file", path)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, serrors.Wrap("loading topology file", err, "file", path)
	}
	return f, nil
}

// Parse parses a topology file. Unknown fields are rejected.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, serrors.Wrap("parsing topology", err)
	}
	return &f, nil
}
