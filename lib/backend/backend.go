// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"fmt"

	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
)

// GroupValue is the dummy string stored in every group sentinel
// record. The sentinel's presence, not its value, is what marks the
// group as existing.
const GroupValue = "BUXTON_GROUP_VALUE"

// ErrNotFound is returned by Get and Unset when the addressed record
// does not exist in the database.
var ErrNotFound = errors.New("record not found")

// Key addresses one record inside a database. An empty Name addresses
// the group sentinel itself.
type Key struct {
	Group string
	Name  string
}

// String renders the key for logs and List replies.
func (k Key) String() string {
	if k.Name == "" {
		return k.Group
	}
	return k.Group + "/" + k.Name
}

// Record is one stored entry: a typed value and its access label.
type Record struct {
	Value protocol.Value
	Label string
}

// Database identifies one storage database: a layer descriptor plus,
// for user layers, the owning uid bound from the calling client. Two
// requests by different users against the same user layer address
// different databases.
type Database struct {
	Layer config.Layer
	UID   uint32
}

// Filename returns the database file name a persistent module derives
// for this identity: <layer>.db for system layers, <layer>-<uid>.db
// for user layers.
func (d Database) Filename() string {
	if d.Layer.Type == config.LayerUser {
		return fmt.Sprintf("%s-%d.db", d.Layer.Name, d.UID)
	}
	return d.Layer.Name + ".db"
}

// Backend is the capability set a storage module exposes to the
// resolver. Implementations are synchronous and fast; the daemon
// treats every call as one atomic step of its event loop.
type Backend interface {
	// Get returns the record stored at key, or ErrNotFound.
	Get(db Database, key Key) (Record, error)

	// Set stores a record at key, replacing any existing record.
	Set(db Database, key Key, record Record) error

	// Unset removes the record at key. Unsetting a group sentinel
	// (empty key name) removes the sentinel and every keyed record of
	// the group in one atomic step. Returns ErrNotFound if nothing
	// was stored at key.
	Unset(db Database, key Key) error

	// List enumerates every key in the database, group sentinels
	// included, in unspecified order.
	List(db Database) ([]Key, error)

	// Close releases the module's resources. A module is closed at
	// most once, by the registry.
	Close() error
}
