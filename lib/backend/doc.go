// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package backend defines the storage capability set behind Buxton
// layers and the registry that binds layer descriptors to storage
// module instances.
//
// A [Backend] exposes exactly four operations (get, set, unset, list)
// plus a destructor. Two modules implement it: "persistent" stores
// records in one SQLite database per (layer, uid) pair, and "memory"
// keeps them in process memory for volatile layers and tests.
//
// The [Registry] loads a module lazily on the first reference by any
// layer, caches the instance, and tears every loaded module down
// exactly once on Close. A failed load is not cached; the next
// request retries it.
package backend
