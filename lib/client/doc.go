// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the Buxton client library. It dials the daemon's
// Unix socket, frames requests, and correlates asynchronous replies.
//
// A background reader goroutine drains the socket; application
// goroutines issue requests concurrently. Each outbound request
// registers its msgid in a correlation table, and the reader routes
// the matching Status reply back to the caller. Registered change
// subscriptions live in a second, persistent table: CHANGED frames
// carry the msgid of the originating NOTIFY and dispatch to the
// callback supplied to [Client.Notify].
//
// The synchronous helpers (Set, Get, ListKeys, ...) wrap the
// correlation machinery behind a call-and-wait interface with a
// three-second deadline, matching the age at which the table's sweep
// drops abandoned entries.
package client
