// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// listenFDStart is the first descriptor number a supervisor passes
// listening sockets at, per the LISTEN_FDS protocol.
const listenFDStart = 3

// acquireListeners returns the daemon's listening descriptors:
// supervisor-inherited sockets when the LISTEN_FDS protocol addresses
// this process, otherwise one socket bound manually at socketPath.
func acquireListeners(socketPath string, logger *slog.Logger) ([]int, error) {
	inherited, err := inheritedListeners()
	if err != nil {
		return nil, err
	}
	if len(inherited) > 0 {
		logger.Info("using supervisor-provided sockets", "count", len(inherited))
		return inherited, nil
	}

	fd, err := bindSocket(socketPath)
	if err != nil {
		return nil, err
	}
	logger.Info("listening", "path", socketPath)
	return []int{fd}, nil
}

// inheritedListeners reads the LISTEN_PID / LISTEN_FDS environment.
// Returns nothing when the variables are absent or address another
// process.
func inheritedListeners() ([]int, error) {
	pidValue := os.Getenv("LISTEN_PID")
	if pidValue == "" {
		return nil, nil
	}
	pid, err := strconv.Atoi(pidValue)
	if err != nil || pid != os.Getpid() {
		return nil, nil
	}
	count, err := strconv.Atoi(os.Getenv("LISTEN_FDS"))
	if err != nil || count <= 0 {
		return nil, fmt.Errorf("LISTEN_PID matches but LISTEN_FDS is %q", os.Getenv("LISTEN_FDS"))
	}

	fds := make([]int, 0, count)
	for i := 0; i < count; i++ {
		fd := listenFDStart + i
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, fmt.Errorf("inherited fd %d: %w", fd, err)
		}
		unix.CloseOnExec(fd)
		fds = append(fds, fd)
	}
	return fds, nil
}

// bindSocket creates the well-known listening socket: any stale
// filesystem entry is unlinked first, and the bound path is opened up
// to mode 0666 so unprivileged clients can connect (authorization is
// the label layer's job, not the filesystem's).
func bindSocket(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("creating socket: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		unix.Close(fd)
		return -1, fmt.Errorf("removing stale socket %s: %w", path, err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("binding %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o666); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listening on %s: %w", path, err)
	}
	return fd, nil
}
