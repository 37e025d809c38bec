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

// Package bird renders the routing configuration of a single node in the
// configuration language of the BIRD internet routing daemon.
//
// The output only depends on the node. Sessions are rendered in the order
// they were added to the node, BFD interfaces and neighbors are sorted.
package bird

import (
	"errors"
	"io"
	"net/netip"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

const (
	importAll = "all"
	exportAll = "all"
	// exportOwn announces the own and the customer routes only.
	exportOwn = "where bgp_large_community ~ [LOCAL_COMM, CUSTOMER_COMM]"
)

// ErrDuplicateProtocol indicates that two sessions of a node render to the
// same BIRD protocol name.
var ErrDuplicateProtocol = errors.New("duplicate protocol name")

// localNets is the name of the direct protocol in the template.
const localNets = "local_nets"

var tmpl = template.Must(template.New("bird").Parse(birdTemplate))

// Render writes the BIRD configuration of n to w.
func Render(w io.Writer, n *topology.Node) error {
	if !n.RouterID().IsValid() {
		return serrors.New("node has no router id", "node", n)
	}
	c, err := newConfig(n)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, c); err != nil {
		return serrors.Wrap("rendering BIRD configuration", err, "node", n)
	}
	return nil
}

// String renders the BIRD configuration of n.
func String(n *topology.Node) (string, error) {
	var b strings.Builder
	if err := Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

type config struct {
	RouterID     netip.Addr
	ASN          addr.ASN
	Policy       bool
	DirectImport string
	Interfaces   string
	Pipes        []topology.TablePipe
	Sessions     []session
	BFD          *bfd
}

type session struct {
	Name     string
	Local    netip.Addr
	LocalASN addr.ASN
	Peer     netip.Addr
	PeerASN  addr.ASN
	Import   string
	Export   string
	RSClient bool
	BFD      bool
}

type bfd struct {
	Interfaces []string
	Neighbors  []netip.Addr
}

// ProtocolName returns the BIRD protocol name of s. BGP sessions keep their
// name, sessions of other protocols are prefixed with the protocol, e.g.
// "mbgp_p_as150".
func ProtocolName(s topology.Session) string {
	if s.Protocol == topology.ProtocolBGP {
		return s.Name
	}
	return string(s.Protocol) + "_" + s.Name
}

func newConfig(n *topology.Node) (config, error) {
	c := config{
		RouterID:     n.RouterID(),
		ASN:          n.ASN(),
		DirectImport: importAll,
		Pipes:        n.Pipes(),
	}
	var ifaces []string
	for _, iface := range n.Interfaces() {
		ifaces = append(ifaces, strconv.Quote(iface.Name()))
	}
	c.Interfaces = strings.Join(ifaces, ", ")

	names := map[string]struct{}{localNets: {}}
	for _, s := range n.Sessions() {
		name := ProtocolName(s)
		if _, ok := names[name]; ok {
			return config{}, serrors.Join(ErrDuplicateProtocol, nil,
				"node", n, "protocol", name)
		}
		names[name] = struct{}{}
		imp, exp, policy := filters(s)
		c.Policy = c.Policy || policy
		c.Sessions = append(c.Sessions, session{
			Name:     name,
			Local:    s.LocalAddr,
			LocalASN: s.LocalASN,
			Peer:     s.PeerAddr,
			PeerASN:  s.PeerASN,
			Import:   imp,
			Export:   exp,
			RSClient: s.RSClient,
			BFD:      s.BFD,
		})
	}
	if c.Policy {
		c.DirectImport = communityFilter("LOCAL_COMM", 0)
	}

	if block, ok := n.BFD(); ok {
		b := &bfd{Interfaces: block.Interfaces()}
		for _, e := range block.Endpoints {
			b.Neighbors = append(b.Neighbors, e.Neighbor)
		}
		slices.SortFunc(b.Neighbors, netip.Addr.Compare)
		b.Neighbors = slices.Compact(b.Neighbors)
		c.BFD = b
	}
	return c, nil
}

// filters returns the import and export statement of s and whether they use
// the community definitions.
func filters(s topology.Session) (string, string, bool) {
	if s.Protocol != topology.ProtocolBGP {
		return importAll, exportAll, false
	}
	if s.Kind != topology.KindPrivate && s.Kind != topology.KindRSPeer {
		return importAll, exportAll, false
	}
	switch s.Relationship {
	case topology.Customer:
		return communityFilter("CUSTOMER_COMM", 30), exportAll, true
	case topology.Peer:
		return communityFilter("PEER_COMM", 20), exportOwn, true
	case topology.Provider:
		return communityFilter("PROVIDER_COMM", 10), exportOwn, true
	default:
		return importAll, exportAll, false
	}
}

// communityFilter tags routes with community and, if pref is not zero, sets
// their local preference.
func communityFilter(community string, pref int) string {
	const indent = "\n            "
	var b strings.Builder
	b.WriteString("filter {")
	b.WriteString(indent + "bgp_large_community.add(" + community + ");")
	if pref != 0 {
		b.WriteString(indent + "bgp_local_pref = " + strconv.Itoa(pref) + ";")
	}
	b.WriteString(indent + "accept;")
	b.WriteString("\n        }")
	return b.String()
}
