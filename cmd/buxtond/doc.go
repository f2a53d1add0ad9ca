// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Buxtond is the Buxton configuration daemon. It serves the layered
// configuration database to local clients over a Unix stream socket,
// resolving every request against the configured layers with
// label-based access control.
//
// The daemon is single-threaded: one readiness loop polls the
// listening sockets, every connected client, the access-rule change
// watch, and the shutdown pipe. No request blocks; each framed
// message is processed to completion as one step of the loop.
//
// On startup:
//  1. Loads the daemon configuration (--config or BUXTON_CONFIG).
//  2. Parses the layer descriptor file; the layer set is immutable
//     from here on.
//  3. Loads the access rules and arms an inotify watch on the rule
//     file so edits take effect without a restart.
//  4. Acquires listening sockets: supervisor-inherited descriptors
//     when LISTEN_FDS is set, otherwise a manual bind at the
//     configured path with mode 0666.
//  5. Enters the event loop until SIGINT or SIGTERM.
package main
