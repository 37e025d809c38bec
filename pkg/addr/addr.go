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

// Package addr contains the numeric identifiers of the emulated Internet:
// autonomous system numbers and Internet Exchange ids.
package addr

import (
	"strconv"
	"strings"

	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

const (
	// MaxASN is the largest 32-bit AS number.
	MaxASN ASN = 1<<32 - 1
	// MaxIXID is the largest IX id. IX ids double as the AS number of the
	// route server and as the second octet of the peering LAN.
	MaxIXID IXID = 255
)

// ASN is an autonomous system number.
type ASN uint32

// ParseASN parses a decimal AS number. An optional "AS" prefix is accepted.
func ParseASN(s string) (ASN, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "AS"), 10, 32)
	if err != nil {
		return 0, serrors.Wrap("parsing AS number", err, "value", s)
	}
	if v == 0 {
		return 0, serrors.New("AS number must not be zero", "value", s)
	}
	return ASN(v), nil
}

// String returns the decimal representation. It is also the registry scope
// of the AS.
func (a ASN) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// MarshalText implements encoding.TextMarshaler.
func (a ASN) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ASN) UnmarshalText(text []byte) error {
	v, err := ParseASN(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// IXID identifies an Internet Exchange.
type IXID uint32

// ParseIXID parses a decimal IX id. An optional "ix" prefix is accepted.
func ParseIXID(s string) (IXID, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "ix"), 10, 32)
	if err != nil {
		return 0, serrors.Wrap("parsing IX id", err, "value", s)
	}
	if v == 0 || v > uint64(MaxIXID) {
		return 0, serrors.New("IX id out of range", "value", s, "max", MaxIXID)
	}
	return IXID(v), nil
}

func (ix IXID) String() string {
	return strconv.FormatUint(uint64(ix), 10)
}

// MarshalText implements encoding.TextMarshaler.
func (ix IXID) MarshalText() ([]byte, error) {
	return []byte(ix.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ix *IXID) UnmarshalText(text []byte) error {
	v, err := ParseIXID(string(text))
	if err != nil {
		return err
	}
	*ix = v
	return nil
}

// Name returns the name shared by the peering network and the route server
// of the IX, e.g. "ix100".
func (ix IXID) Name() string {
	return "ix" + ix.String()
}

// ASN returns the AS number the route server of the IX runs as.
func (ix IXID) ASN() ASN {
	return ASN(ix)
}
