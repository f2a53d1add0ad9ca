// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the Buxton wire protocol: framing,
// serialization, and deserialization of control messages exchanged
// between clients and the daemon over the Unix socket.
//
// Every message is a single length-prefixed frame:
//
//	magic:u32 | total_len:u32 | msg_type:u32 | msgid:u64 | param_count:u32 | params...
//
// followed by zero or more typed parameters, each carrying an access
// label and a value:
//
//	type:u32 | label_len:u32 | value_len:u32 | label_bytes | value_bytes
//
// All integers are little-endian. Strings (including labels) travel
// with a trailing NUL byte, so the smallest legal label is two bytes
// and the smallest legal string value is one byte (the empty string).
// Frames are capped at 4096 bytes and 16 parameters; anything larger
// is corrupt by definition and the sender is evicted.
//
// The codec is direction-aware: Set through Unnotify are only legal
// from client to server, Status and Changed only from server to
// client. Decode rejects a message type arriving from the wrong side.
package protocol
