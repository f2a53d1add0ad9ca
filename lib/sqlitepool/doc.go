// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the SQLite databases behind Buxton's
// persistent layers. The storage module opens one pool per
// (layer, uid) database file; the pool applies the standard pragmas
// and installs the module's schema through the OnConnect hook.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers
// [Pool.Take] a connection, perform work, and [Pool.Put] it back.
// Connections are NOT safe for concurrent use — each goroutine must
// hold its own connection for the duration of its work. The daemon's
// event loop is single-threaded, so the default pool size is one
// connection; larger pools only matter for multi-goroutine readers
// such as tests or offline tooling.
//
// # Pragmas
//
// Every connection is initialized with these pragmas:
//
//   - journal_mode=WAL: a buxtonctl --direct process can read a layer
//     database while the daemon holds it open, and WAL keeps those
//     two from blocking each other.
//   - synchronous=NORMAL: transactions survive process crashes. Not
//     durable across power failure, which is acceptable for a
//     configuration database whose contents can be replayed by the
//     administrator or the installing package.
//   - busy_timeout=5000: wait up to 5 seconds for a cross-process
//     write lock instead of returning SQLITE_BUSY immediately.
//
// Configuration records are tiny, so the page-cache and mmap tuning a
// high-volume store would add is deliberately absent.
//
// # Design
//
// This package is intentionally thin: it applies the standard pragmas
// and exposes the underlying zombiezen types directly. There is no
// attempt to abstract away SQLite's connection model or invent a
// query builder. The storage module writes SQL and uses
// sqlitex.Execute for cached statements.
package sqlitepool
