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

package base

import (
	"net/netip"

	"go4.org/netipx"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/private/serrors"
	"github.com/seed-emulator/seedemu/pkg/topology"
)

// hostOffset is the first host number handed out to hosts.
const hostOffset = 71

func defaultPrefix(asn addr.ASN, idx int) (netip.Prefix, error) {
	if asn > 255 || idx > 255 {
		return netip.Prefix{}, serrors.Join(ErrPrefixRequired, nil, "asn", asn, "index", idx)
	}
	return netip.PrefixFrom(netip.AddrFrom4([4]byte{10, byte(asn), byte(idx), 0}), 24), nil
}

// usable returns the range of host addresses of p, without the network and
// broadcast address.
func usable(p netip.Prefix) netipx.IPRange {
	r := netipx.RangeOfPrefix(p)
	return netipx.IPRangeFrom(r.From().Next(), netipx.PrefixLastIP(p).Prev())
}

func firstHostAddr(p netip.Prefix) netip.Addr {
	a := p.Addr()
	for range hostOffset {
		a = a.Next()
	}
	return a
}

func firstRouterAddr(p netip.Prefix) netip.Addr {
	return usable(p).To()
}

// nextFree walks from start with step until it finds an address of net that
// is not in use.
func nextFree(
	net *topology.Network,
	start netip.Addr,
	step func(netip.Addr) netip.Addr,
) (netip.Addr, error) {

	r := usable(net.Prefix())
	for a := start; r.Contains(a); a = step(a) {
		if !net.InUse(a) {
			return a, nil
		}
	}
	return netip.Addr{}, serrors.Join(ErrAddressExhausted, nil,
		"network", net.Name(), "prefix", net.Prefix())
}

// ixRouterAddr returns host .{asn} of the IX network.
func ixRouterAddr(net *topology.Network, asn addr.ASN) (netip.Addr, error) {
	if asn < 1 || asn > 253 {
		return netip.Addr{}, serrors.Join(ErrAddressRequired, nil,
			"network", net.Name(), "asn", asn)
	}
	a := net.Prefix().Addr().As4()
	a[3] = byte(asn)
	return netip.AddrFrom4(a), nil
}
