// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"golang.org/x/sys/unix"

	"github.com/buxton-foundation/buxton/lib/store"
)

// subKey identifies one notification target.
type subKey struct {
	group string
	name  string
}

// client is the per-peer state tracked by the daemon: credentials
// captured at accept time, the security label refreshed on every
// inbound message, the partial-frame read buffer, the outbound frame
// queue, and the set of registered subscriptions.
type client struct {
	fd  int
	uid uint32
	pid int32

	// label is the peer's security attribute, the subject of every
	// access check. Empty when the kernel exposes none, which
	// disables label checks for this peer.
	label string

	readBuf []byte

	// writeQueue holds encoded frames awaiting socket readiness;
	// writeOffset is the progress into the head frame after a short
	// write.
	writeQueue  [][]byte
	writeOffset int

	// subs maps each registered notification target to the msgid of
	// the originating NOTIFY request.
	subs map[subKey]uint64
}

// identity returns the caller identity the resolver checks against.
func (c *client) identity() store.Client {
	return store.Client{UID: c.uid, PID: c.pid, Label: c.label}
}

// refreshLabel re-reads the peer's security attribute. The kernel may
// relabel a running process, so the daemon refreshes before every
// message rather than trusting the accept-time value.
func (c *client) refreshLabel() {
	label, err := unix.GetsockoptString(c.fd, unix.SOL_SOCKET, unix.SO_PEERSEC)
	if err != nil {
		return
	}
	// Some kernels NUL-terminate the attribute.
	for len(label) > 0 && label[len(label)-1] == 0 {
		label = label[:len(label)-1]
	}
	c.label = label
}

// enqueue appends an encoded frame to the write queue. The caller
// arranges for write-readiness polling.
func (c *client) enqueue(frame []byte) {
	c.writeQueue = append(c.writeQueue, frame)
}

// wantsWrite reports whether the client has queued output.
func (c *client) wantsWrite() bool {
	return len(c.writeQueue) > 0
}

// flush writes queued frames until the queue drains or the socket
// would block. Returns false on a write error.
func (c *client) flush() bool {
	for len(c.writeQueue) > 0 {
		frame := c.writeQueue[0][c.writeOffset:]
		n, err := unix.Write(c.fd, frame)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return true
		}
		if err != nil || n < 0 {
			return false
		}
		if n < len(frame) {
			c.writeOffset += n
			return true
		}
		c.writeQueue = c.writeQueue[1:]
		c.writeOffset = 0
	}
	return true
}
