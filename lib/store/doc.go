// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the layered resolution engine at the heart
// of the Buxton daemon.
//
// A [Control] owns the configured layers (in descriptor-file order),
// the backend registry, and the access-control primitive. Every
// operation takes the calling [Client]'s identity: peer credentials
// select the database for user layers, and the peer's label is the
// subject of every access check. A client with an empty label is a
// direct in-process caller and bypasses label checks entirely.
//
// Operations report protocol status codes, not Go errors: a missing
// group is a normal outcome the daemon encodes into a Status reply,
// not a failure that should unwind the event loop.
//
// Control is also the public API for privileged direct clients (the
// buxtonctl --direct path): they construct one from the same layer
// descriptors the daemon reads and call the operations in-process.
package store
