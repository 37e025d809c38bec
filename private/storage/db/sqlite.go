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

package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

// Reader is the read only view of a database.
type Reader interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Stats() sql.DBStats
}

// SqliteConfig allows configuring the sqlite database instance.
type SqliteConfig struct {
	MaxOpenReadConns int
	InMemory         bool
}

// NewSqlite creates a new sqlite database with a read and write connection
// pool. The write pool is limited to one open connection.
//
// The Full connection can be used to perform any operation, including reads
// and transactions. The ReadOnly connection should only be used for reads.
func NewSqlite(path string, cfg *SqliteConfig) (*Sqlite, error) {
	var c SqliteConfig
	if cfg != nil {
		c = *cfg
	}
	// With shared cache, ":memory:" would be the same database for every
	// caller in the process.
	if strings.Contains(path, ":memory:") {
		return nil, serrors.New("use explicitly named memory database", "path", path)
	}
	noFile, ok := strings.CutPrefix(path, "file:")

	connParams := make(url.Values)
	// Start transactions as write transactions so that busy_timeout applies
	// when the database is locked.
	connParams.Add("_txlock", "immediate")
	connParams.Add("_pragma", "journal_mode(WAL)")
	connParams.Add("_pragma", "busy_timeout(1000)")
	connParams.Add("_pragma", "synchronous(NORMAL)")
	connParams.Add("_pragma", "foreign_keys(1)")
	if c.InMemory {
		registerMemoryDB(noFile)
		connParams.Add("mode", "memory")
		// The read and write pool share the same in-memory database.
		connParams.Add("cache", "shared")
	}

	connURL := path + "?" + connParams.Encode()
	if !ok {
		connURL = "file:" + connURL
	}

	write, err := sql.Open("sqlite", connURL)
	if err != nil {
		return nil, serrors.Wrap("opening write database", err, "path", path)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", connURL)
	if err != nil {
		write.Close()
		return nil, serrors.Wrap("opening read database", err, "path", path)
	}
	if c.MaxOpenReadConns == 0 {
		c.MaxOpenReadConns = max(4, runtime.NumCPU())
	}
	read.SetMaxOpenConns(c.MaxOpenReadConns)

	db := &Sqlite{
		Full:     write,
		ReadOnly: read,
		read:     read,
	}
	if c.InMemory {
		runtime.AddCleanup(db, func(name string) { unregisterMemoryDB(name) }, noFile)
	}
	return db, nil
}

type Sqlite struct {
	Full     *sql.DB
	ReadOnly Reader
	read     *sql.DB
}

// Setup applies schema to an empty database and records schemaVersion. A
// database that already carries a different version is rejected.
func (db *Sqlite) Setup(ctx context.Context, schema string, schemaVersion int) error {
	var existingVersion int
	err := db.Full.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&existingVersion)
	if err != nil {
		return NewReadError("checking database schema version", err)
	}
	switch {
	case existingVersion == 0:
		if _, err := db.Full.ExecContext(ctx, schema); err != nil {
			return NewWriteError("applying schema", err)
		}
		_, err := db.Full.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
		if err != nil {
			return NewWriteError("writing schema version", err)
		}
		return nil
	case existingVersion != schemaVersion:
		return serrors.New("database schema version mismatch",
			"expected", schemaVersion, "actual", existingVersion)
	default:
		return nil
	}
}

func (db *Sqlite) Close() error {
	var errs serrors.List
	if err := db.Full.Close(); err != nil {
		errs = append(errs, serrors.Wrap("closing write db", err))
	}
	if err := db.read.Close(); err != nil {
		errs = append(errs, serrors.Wrap("closing read db", err))
	}
	return errs.ToError()
}

// memoryDBCheck prevents two in-memory databases with the same name, they
// would share the same underlying database.
var memoryDBCheck = struct {
	mtx sync.Mutex
	dbs map[string]struct{}
}{
	dbs: make(map[string]struct{}),
}

func registerMemoryDB(name string) {
	memoryDBCheck.mtx.Lock()
	defer memoryDBCheck.mtx.Unlock()
	if _, ok := memoryDBCheck.dbs[name]; ok {
		panic(fmt.Sprintf("memory database with name %s already exists", name))
	}
	memoryDBCheck.dbs[name] = struct{}{}
}

func unregisterMemoryDB(name string) {
	memoryDBCheck.mtx.Lock()
	defer memoryDBCheck.mtx.Unlock()
	delete(memoryDBCheck.dbs, name)
}
