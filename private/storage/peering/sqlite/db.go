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

package sqlite

import (
	"context"
	"database/sql"
	"net/netip"

	"github.com/seed-emulator/seedemu/pkg/addr"
	"github.com/seed-emulator/seedemu/pkg/log"
	"github.com/seed-emulator/seedemu/private/storage/db"
	"github.com/seed-emulator/seedemu/private/storage/peering"
)

const (
	// SchemaVersion is the version of the SQLite schema understood by this backend.
	SchemaVersion = 1
	// Schema is the SQLite database layout.
	Schema = `CREATE TABLE intents(
		row_id INTEGER NOT NULL,
		layer TEXT NOT NULL,
		type TEXT NOT NULL,
		ix INTEGER NOT NULL,
		a INTEGER NOT NULL,
		b INTEGER NOT NULL,
		relationship TEXT NOT NULL,
		PRIMARY KEY (row_id)
	);
	CREATE TABLE sessions(
		row_id INTEGER NOT NULL,
		node TEXT NOT NULL,
		role TEXT NOT NULL,
		protocol TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		interface TEXT NOT NULL,
		local_addr TEXT NOT NULL,
		local_asn INTEGER NOT NULL,
		peer_addr TEXT NOT NULL,
		peer_asn INTEGER NOT NULL,
		relationship TEXT NOT NULL,
		rs_client INTEGER NOT NULL,
		bfd INTEGER NOT NULL,
		UNIQUE (node, protocol, name),
		PRIMARY KEY (row_id)
	);`
)

var _ peering.DB = (*Backend)(nil)

// Backend implements the peering export on top of SQLite.
type Backend struct {
	db *db.Sqlite
}

// New opens the database at path and prepares the schema.
func New(ctx context.Context, path string) (*Backend, error) {
	return open(ctx, path, nil)
}

// NewInMemory opens a named in-memory database.
func NewInMemory(ctx context.Context, name string) (*Backend, error) {
	return open(ctx, name, &db.SqliteConfig{InMemory: true})
}

func open(ctx context.Context, path string, cfg *db.SqliteConfig) (*Backend, error) {
	s, err := db.NewSqlite(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Setup(ctx, Schema, SchemaVersion); err != nil {
		s.Close()
		return nil, err
	}
	return &Backend{db: s}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

// Export replaces the stored intents and sessions with snap in one
// transaction. Sessions without local or peer address are rejected before
// anything is written.
func (b *Backend) Export(ctx context.Context, snap peering.Snapshot) error {
	for _, s := range snap.Sessions {
		if !s.LocalAddr.IsValid() || !s.PeerAddr.IsValid() {
			return db.NewInputDataError("checking session addresses", nil,
				"node", s.Node, "protocol", s.Protocol, "name", s.Name)
		}
	}
	tx, err := b.db.Full.BeginTx(ctx, nil)
	if err != nil {
		return db.NewTxError("starting transaction", err)
	}
	if err := export(ctx, tx, snap); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return db.NewTxError("committing export", err)
	}
	log.FromCtx(ctx).Debug("Exported peering snapshot",
		"intents", len(snap.Intents), "sessions", len(snap.Sessions))
	return nil
}

func export(ctx context.Context, tx *sql.Tx, snap peering.Snapshot) error {
	for _, table := range []string{"intents", "sessions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return db.NewWriteError("clearing table", err, "table", table)
		}
	}
	const insertIntent = `INSERT INTO intents (layer, type, ix, a, b, relationship)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, in := range snap.Intents {
		_, err := tx.ExecContext(ctx, insertIntent, in.Layer, in.Type,
			int64(in.IX), int64(in.A), int64(in.B), in.Relationship)
		if err != nil {
			return db.NewWriteError("inserting intent", err,
				"layer", in.Layer, "ix", in.IX, "a", in.A, "b", in.B)
		}
	}
	const insertSession = `INSERT INTO sessions (node, role, protocol, name, kind,
		interface, local_addr, local_asn, peer_addr, peer_asn, relationship,
		rs_client, bfd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, s := range snap.Sessions {
		_, err := tx.ExecContext(ctx, insertSession, s.Node, s.Role, s.Protocol,
			s.Name, s.Kind, s.Interface, s.LocalAddr.String(), int64(s.LocalASN),
			s.PeerAddr.String(), int64(s.PeerASN), s.Relationship,
			boolToInt(s.RSClient), boolToInt(s.BFD))
		if err != nil {
			return db.NewWriteError("inserting session", err,
				"node", s.Node, "protocol", s.Protocol, "name", s.Name)
		}
	}
	return nil
}

// Intents returns the stored intents in export order.
func (b *Backend) Intents(ctx context.Context) ([]peering.Intent, error) {
	const query = `SELECT layer, type, ix, a, b, relationship FROM intents
		ORDER BY row_id`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query)
	if err != nil {
		return nil, db.NewReadError("querying intents", err)
	}
	defer rows.Close()

	var res []peering.Intent
	for rows.Next() {
		var in peering.Intent
		var ix, a, bASN int64
		if err := rows.Scan(&in.Layer, &in.Type, &ix, &a, &bASN, &in.Relationship); err != nil {
			return nil, db.NewReadError("scanning intent", err)
		}
		in.IX, in.A, in.B = addr.IXID(ix), addr.ASN(a), addr.ASN(bASN)
		res = append(res, in)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating intents", err)
	}
	return res, nil
}

// Sessions returns the stored sessions in export order.
func (b *Backend) Sessions(ctx context.Context) ([]peering.Session, error) {
	const query = `SELECT node, role, protocol, name, kind, interface, local_addr,
		local_asn, peer_addr, peer_asn, relationship, rs_client, bfd
		FROM sessions ORDER BY row_id`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query)
	if err != nil {
		return nil, db.NewReadError("querying sessions", err)
	}
	defer rows.Close()

	var res []peering.Session
	for rows.Next() {
		var s peering.Session
		var local, peer string
		var localASN, peerASN, rsClient, bfd int64
		err := rows.Scan(&s.Node, &s.Role, &s.Protocol, &s.Name, &s.Kind, &s.Interface,
			&local, &localASN, &peer, &peerASN, &s.Relationship, &rsClient, &bfd)
		if err != nil {
			return nil, db.NewReadError("scanning session", err)
		}
		if s.LocalAddr, err = netip.ParseAddr(local); err != nil {
			return nil, db.NewDataError("parsing local address", err, "node", s.Node)
		}
		if s.PeerAddr, err = netip.ParseAddr(peer); err != nil {
			return nil, db.NewDataError("parsing peer address", err, "node", s.Node)
		}
		s.LocalASN, s.PeerASN = addr.ASN(localASN), addr.ASN(peerASN)
		s.RSClient, s.BFD = rsClient != 0, bfd != 0
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating sessions", err)
	}
	return res, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
