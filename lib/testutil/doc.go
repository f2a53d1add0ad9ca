// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides the shared test helpers Buxton's socket
// and notification tests need.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets, which have a 108-byte path limit (sun_path in
// sockaddr_un) that deeply nested test temp directories can exceed.
//
// [RequireReceive] reads from a channel with a timeout safety valve,
// so tests waiting on asynchronous daemon deliveries (change
// notifications, shutdown completion) hang for a bounded time instead
// of forever when the delivery never comes.
//
// Helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
