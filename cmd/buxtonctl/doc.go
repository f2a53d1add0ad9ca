// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Buxtonctl is the command-line tool for the Buxton configuration
// database. It talks to the daemon over the Unix socket, or — with
// --direct, for root — opens the database in-process, bypassing both
// the daemon and label-based access control.
//
// Values are typed; each type has a get and a set subcommand
// (get-int32, set-string, ...). Group and label management use
// create-group, remove-group, get-label, and set-label. Exit status
// is 0 on success and non-zero on any failure.
package main
