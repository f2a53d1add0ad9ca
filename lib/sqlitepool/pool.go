// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening one layer database. Path is
// required; all other fields have defaults sized for the daemon.
type Config struct {
	// Path is the filesystem path of the database file, normally
	// <database_root>/<layer>.db for system layers and
	// <database_root>/<layer>-<uid>.db for user layers. The parent
	// directory must exist; the file is created if it does not.
	Path string

	// PoolSize is the number of connections. If zero or negative it
	// defaults to 1: the daemon's event loop is the only caller of a
	// layer database, and a request is processed to completion before
	// the next one starts, so a single connection is never contended.
	// Multi-goroutine readers (tests, offline tooling) may ask for
	// more.
	PoolSize int

	// Logger receives operational messages (database open/close,
	// pragma errors). If nil, a no-op logger is used.
	Logger *slog.Logger

	// OnConnect is called once per connection after the standard
	// pragmas are applied. The storage module uses it to create its
	// key/value schema. If OnConnect returns an error, the connection
	// is discarded and the error is returned to the caller of Take.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size pool of SQLite connections to one layer
// database, with Buxton-standard pragmas applied. It wraps
// sqlitex.Pool and exposes the same Take/Put API.
//
// Pool is safe for concurrent use. Individual connections are not —
// each goroutine must Take its own connection and Put it back when
// done.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open opens a layer database and applies Buxton-standard pragmas to
// every connection. Connections are initialized lazily on first Take.
//
// Open validates the configuration and returns an error if Path is
// empty or the database cannot be opened. The caller must call Close
// when the database is no longer needed; the storage module does so
// through the backend registry's teardown.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}

	logger.Info("layer database opened",
		"path", cfg.Path,
		"pool_size", poolSize,
	)

	return &Pool{
		inner:  inner,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Take borrows a connection from the pool. Blocks until a connection
// is available or ctx is cancelled. The caller MUST call Put when done
// with the connection, typically via defer:
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Safe to call with nil (no-op).
// After Put, the caller must not use the connection.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Close closes all connections. Blocks until every borrowed
// connection is returned. After Close, Take returns an error.
func (p *Pool) Close() error {
	err := p.inner.Close()
	if err != nil {
		p.logger.Error("layer database close error",
			"path", p.path,
			"error", err,
		)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("layer database closed", "path", p.path)
	return nil
}

// prepareConnection applies the standard pragmas and then calls the
// optional OnConnect callback. This runs once per connection, on
// first use.
//
// The pragma set is deliberately smaller than a general-purpose
// service store would carry: a layer database holds small
// configuration records, so page-cache and mmap tuning buy nothing
// here. WAL still matters at pool size 1 because buxtonctl --direct
// can have a layer database open while the daemon does too.
func prepareConnection(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}

	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlitepool: OnConnect: %w", err)
		}
	}

	return nil
}
