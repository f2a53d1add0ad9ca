// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package smack answers one question for the rest of Buxton: may a
// subject label access an object label for reading or writing?
//
// Rules are cached from a Smack-style rule file of
// "subject object access" lines and refreshed when the daemon's event
// loop sees the rule-change descriptor become readable. The daemon
// and the direct store consult only the MayAccess predicate; how the
// rules got there is this package's business.
package smack
