// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package smack

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Watch arms an inotify descriptor on the rule file's directory and
// returns it for registration in the daemon's poll set. When the
// descriptor becomes readable the caller reloads the rules and drains
// the descriptor with Drain.
//
// Watching the directory rather than the file survives editors and
// deployment tools that replace the file via rename.
func (r *RuleSet) Watch() (int, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("inotify_init1: %w", err)
	}

	directory := filepath.Dir(r.path)
	mask := uint32(unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_MOVED_TO | unix.IN_CREATE)
	if _, err := unix.InotifyAddWatch(fd, directory, mask); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("inotify_add_watch on %s: %w", directory, err)
	}
	return fd, nil
}

// Drain consumes all pending inotify data from the watch descriptor.
// The event payloads are irrelevant — readiness itself is the signal
// to reload — but leaving them queued would spin the poll loop.
func Drain(fd int) {
	buffer := make([]byte, 4096)
	for {
		n, err := unix.Read(fd, buffer)
		if n <= 0 || err != nil {
			return
		}
	}
}
