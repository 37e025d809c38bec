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

package sqlite_test

import (
	"context"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seed-emulator/seedemu/pkg/log/testlog"
	"github.com/seed-emulator/seedemu/pkg/private/xtest"
	"github.com/seed-emulator/seedemu/private/storage/db"
	"github.com/seed-emulator/seedemu/private/storage/peering"
	"github.com/seed-emulator/seedemu/private/storage/peering/sqlite"
)

func snapshot() peering.Snapshot {
	return peering.Snapshot{
		Intents: []peering.Intent{
			{Layer: "Ebgp", Type: peering.IntentRsPeer, IX: 100, A: 150, Relationship: "peer"},
			{Layer: "Ebgp", Type: peering.IntentPrivate, IX: 100, A: 150, B: 151,
				Relationship: "provider"},
		},
		Sessions: []peering.Session{
			{
				Node:         "ix/rs/ix100",
				Role:         "route_server",
				Protocol:     "bgp",
				Name:         "p_as150",
				Kind:         "rs_client",
				Interface:    "ix100",
				LocalAddr:    netip.MustParseAddr("10.100.0.254"),
				LocalASN:     100,
				PeerAddr:     netip.MustParseAddr("10.100.0.150"),
				PeerASN:      150,
				Relationship: "peer",
				RSClient:     true,
				BFD:          true,
			},
			{
				Node:         "150/rnode/router0",
				Role:         "router",
				Protocol:     "bgp",
				Name:         "ibgp_router1",
				Kind:         "internal",
				LocalAddr:    netip.MustParseAddr("10.0.0.1"),
				LocalASN:     150,
				PeerAddr:     netip.MustParseAddr("10.0.0.2"),
				PeerASN:      150,
				Relationship: "peer",
			},
		},
	}
}

func TestExportReadBack(t *testing.T) {
	ctx := testlog.Context(t)
	b, err := sqlite.New(ctx, xtest.TempFile(t, ".db"))
	require.NoError(t, err)
	defer b.Close()

	want := snapshot()
	require.NoError(t, b.Export(ctx, want))

	intents, err := b.Intents(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want.Intents, intents))

	sessions, err := b.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want.Sessions, sessions, cmpopts.EquateComparable(netip.Addr{})))
}

func TestExportReplaces(t *testing.T) {
	ctx := context.Background()
	b, err := sqlite.NewInMemory(ctx, xtest.SanitizedName(t))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Export(ctx, snapshot()))
	second := snapshot()
	second.Intents = second.Intents[:1]
	second.Sessions = second.Sessions[1:]
	require.NoError(t, b.Export(ctx, second))

	intents, err := b.Intents(ctx)
	require.NoError(t, err)
	assert.Len(t, intents, 1)
	sessions, err := b.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "ibgp_router1", sessions[0].Name)
}

func TestExportDuplicateSessionRollsBack(t *testing.T) {
	ctx := context.Background()
	b, err := sqlite.NewInMemory(ctx, xtest.SanitizedName(t))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Export(ctx, snapshot()))
	dup := snapshot()
	dup.Sessions = append(dup.Sessions, dup.Sessions[0])
	assert.ErrorIs(t, b.Export(ctx, dup), db.ErrWriteFailed)

	// The previous export is still intact.
	sessions, err := b.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestExportRejectsSessionWithoutAddress(t *testing.T) {
	ctx := context.Background()
	b, err := sqlite.NewInMemory(ctx, xtest.SanitizedName(t))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Export(ctx, snapshot()))
	invalid := snapshot()
	invalid.Sessions[1].PeerAddr = netip.Addr{}
	assert.ErrorIs(t, b.Export(ctx, invalid), db.ErrInvalidInputData)

	sessions, err := b.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := xtest.TempFile(t, ".db")
	b, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, b.Export(ctx, snapshot()))
	require.NoError(t, b.Close())

	b, err = sqlite.New(ctx, path)
	require.NoError(t, err)
	defer b.Close()
	intents, err := b.Intents(ctx)
	require.NoError(t, err)
	assert.Len(t, intents, 2)
}
