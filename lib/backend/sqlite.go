// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/buxton-foundation/buxton/lib/sqlitepool"
)

// schema is the persistent module's table. The group sentinel is the
// row with an empty name; the composite primary key makes Set an
// upsert via INSERT OR REPLACE.
const schema = `
CREATE TABLE IF NOT EXISTS kv (
    grp    TEXT NOT NULL,
    name   TEXT NOT NULL,
    record BLOB NOT NULL,
    PRIMARY KEY (grp, name)
) WITHOUT ROWID;
`

// sqliteBackend is the "persistent" storage module: one SQLite
// database file per (layer, uid) identity under the configured root
// directory. Database pools open lazily on the first operation that
// touches the identity.
type sqliteBackend struct {
	root   string
	logger *slog.Logger
	pools  map[string]*sqlitepool.Pool
}

func newSQLiteBackend(root string, logger *slog.Logger) (*sqliteBackend, error) {
	if root == "" {
		return nil, fmt.Errorf("database root is required")
	}
	return &sqliteBackend{
		root:   root,
		logger: logger,
		pools:  make(map[string]*sqlitepool.Pool),
	}, nil
}

// pool returns the connection pool for the database identity, opening
// it on first use. The daemon is single-threaded, so one connection
// per database suffices.
func (s *sqliteBackend) pool(db Database) (*sqlitepool.Pool, error) {
	filename := db.Filename()
	if pool, ok := s.pools[filename]; ok {
		return pool, nil
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(s.root, filename),
		PoolSize: 1,
		Logger:   s.logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	s.pools[filename] = pool
	return pool, nil
}

func (s *sqliteBackend) Get(db Database, key Key) (Record, error) {
	pool, err := s.pool(db)
	if err != nil {
		return Record{}, err
	}
	conn, err := pool.Take(context.Background())
	if err != nil {
		return Record{}, err
	}
	defer pool.Put(conn)

	var blob []byte
	err = sqlitex.Execute(conn, `SELECT record FROM kv WHERE grp = ? AND name = ?`, &sqlitex.ExecOptions{
		Args: []any{key.Group, key.Name},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			blob = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			return nil
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("querying %s: %w", key, err)
	}
	if blob == nil {
		return Record{}, ErrNotFound
	}
	return decodeRecord(blob)
}

func (s *sqliteBackend) Set(db Database, key Key, record Record) error {
	pool, err := s.pool(db)
	if err != nil {
		return err
	}
	conn, err := pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	blob, err := encodeRecord(record)
	if err != nil {
		return err
	}
	err = sqlitex.Execute(conn, `INSERT OR REPLACE INTO kv (grp, name, record) VALUES (?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{key.Group, key.Name, blob},
	})
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func (s *sqliteBackend) Unset(db Database, key Key) error {
	pool, err := s.pool(db)
	if err != nil {
		return err
	}
	conn, err := pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer pool.Put(conn)

	query := `DELETE FROM kv WHERE grp = ? AND name = ?`
	args := []any{key.Group, key.Name}
	if key.Name == "" {
		// Removing the sentinel removes the whole group in one
		// statement, which SQLite executes atomically.
		query = `DELETE FROM kv WHERE grp = ?`
		args = []any{key.Group}
	}
	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteBackend) List(db Database) ([]Key, error) {
	pool, err := s.pool(db)
	if err != nil {
		return nil, err
	}
	conn, err := pool.Take(context.Background())
	if err != nil {
		return nil, err
	}
	defer pool.Put(conn)

	var keys []Key
	err = sqlitex.Execute(conn, `SELECT grp, name FROM kv ORDER BY grp, name`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, Key{Group: stmt.ColumnText(0), Name: stmt.ColumnText(1)})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

func (s *sqliteBackend) Close() error {
	var errs []error
	for filename, pool := range s.pools {
		if err := pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", filename, err))
		}
	}
	s.pools = nil
	return errors.Join(errs...)
}
