// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/buxton-foundation/buxton/lib/protocol"
	"github.com/buxton-foundation/buxton/lib/smack"
	"github.com/buxton-foundation/buxton/lib/store"
)

// soPriorityHigh is the SO_PRIORITY level set on accepted client
// sockets so configuration traffic jumps local queueing.
const soPriorityHigh = 6

// daemon owns all server state: the resolution engine, the client
// table, the subscription map, and the descriptors the event loop
// polls. Everything is confined to the loop goroutine; stop is the
// only method safe to call from outside it.
type daemon struct {
	control  *store.Control
	access   store.AccessChecker
	rules    *smack.RuleSet
	ruleFD   int
	notifier *notifier
	logger   *slog.Logger

	listeners []int
	clients   map[int]*client

	// wakeRead/wakeWrite form the self-pipe that interrupts Poll for
	// shutdown.
	wakeRead  int
	wakeWrite int
	stopping  bool
}

// newDaemon assembles a daemon over an initialized Control. rules and
// ruleFD are optional (nil / -1): without them access checks fall to
// the Control's own configuration and no reload watch is polled.
func newDaemon(control *store.Control, rules *smack.RuleSet, ruleFD int, logger *slog.Logger) (*daemon, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var pipeFDs [2]int
	if err := unix.Pipe2(pipeFDs[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("creating shutdown pipe: %w", err)
	}

	d := &daemon{
		control:   control,
		rules:     rules,
		ruleFD:    ruleFD,
		notifier:  newNotifier(),
		logger:    logger,
		clients:   make(map[int]*client),
		wakeRead:  pipeFDs[0],
		wakeWrite: pipeFDs[1],
	}
	if rules != nil {
		d.access = rules
	}
	control.OnChange(d.deliverChange)
	return d, nil
}

// stop interrupts the event loop from any goroutine.
func (d *daemon) stop() {
	_, _ = unix.Write(d.wakeWrite, []byte{0})
}

// serve runs the event loop over the given listening descriptors
// until stop is called. It owns the descriptors and closes them on
// return.
func (d *daemon) serve(listeners []int) error {
	d.listeners = listeners
	defer d.shutdown()

	for !d.stopping {
		fds := make([]unix.PollFd, 0, 3+len(d.listeners)+len(d.clients))
		fds = append(fds, unix.PollFd{Fd: int32(d.wakeRead), Events: unix.POLLIN})
		for _, fd := range d.listeners {
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		}
		if d.ruleFD >= 0 {
			fds = append(fds, unix.PollFd{Fd: int32(d.ruleFD), Events: unix.POLLIN})
		}
		for fd, c := range d.clients {
			events := int16(unix.POLLIN | unix.POLLPRI)
			if c.wantsWrite() {
				events |= unix.POLLOUT
			}
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: events})
		}

		n, err := unix.Poll(fds, -1)
		if err == unix.EINTR || n == 0 {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}

		for _, pfd := range fds {
			if pfd.Revents == 0 {
				continue
			}
			fd := int(pfd.Fd)
			switch {
			case fd == d.wakeRead:
				d.stopping = true
			case d.isListener(fd):
				d.acceptClients(fd)
			case fd == d.ruleFD:
				d.reloadRules()
			default:
				d.handleClient(fd, pfd.Revents)
			}
		}
	}
	return nil
}

func (d *daemon) isListener(fd int) bool {
	for _, l := range d.listeners {
		if l == fd {
			return true
		}
	}
	return false
}

// acceptClients drains the listener's accept queue. Credentials are
// read once here; the security label is refreshed per message.
func (d *daemon) acceptClients(listener int) {
	for {
		fd, _, err := unix.Accept4(listener, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return
		}
		if err != nil {
			d.logger.Error("accept failed", "error", err)
			return
		}

		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PRIORITY, soPriorityHigh); err != nil {
			d.logger.Warn("setting socket priority", "fd", fd, "error", err)
		}
		cred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
		if err != nil {
			d.logger.Error("reading peer credentials", "fd", fd, "error", err)
			unix.Close(fd)
			continue
		}

		c := &client{
			fd:   fd,
			uid:  cred.Uid,
			pid:  cred.Pid,
			subs: make(map[subKey]uint64),
		}
		c.refreshLabel()
		d.clients[fd] = c
		d.logger.Info("client connected", "fd", fd, "uid", c.uid, "pid", c.pid, "label", c.label)
	}
}

// reloadRules reacts to the rule-change watch: reload the cache and
// drain the descriptor. In-flight requests are unaffected; the next
// access check sees the new rules.
func (d *daemon) reloadRules() {
	if err := d.rules.Load(); err != nil {
		d.logger.Error("reloading access rules", "error", err)
	}
	smack.Drain(d.ruleFD)
}

// handleClient services one client's readiness events.
func (d *daemon) handleClient(fd int, revents int16) {
	c, ok := d.clients[fd]
	if !ok {
		return
	}
	if revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
		d.evict(c)
		return
	}
	if revents&(unix.POLLIN|unix.POLLPRI) != 0 {
		if !d.readFrom(c) {
			return
		}
	}
	if revents&unix.POLLOUT != 0 {
		if !c.flush() {
			d.evict(c)
		}
	}
}

// readFrom appends available bytes to the client's buffer and
// processes every complete frame. Returns false when the client was
// evicted.
func (d *daemon) readFrom(c *client) bool {
	buffer := make([]byte, protocol.MaxMessageSize)
	for {
		n, err := unix.Read(c.fd, buffer)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			break
		}
		if err != nil || n == 0 {
			d.evict(c)
			return false
		}
		c.readBuf = append(c.readBuf, buffer[:n]...)
	}

	for {
		size, ok, err := protocol.PeekSize(c.readBuf)
		if err != nil {
			d.evictCorrupt(c)
			return false
		}
		if !ok || len(c.readBuf) < size {
			return true
		}
		frame := c.readBuf[:size]
		msg, err := protocol.Decode(frame, protocol.ClientToServer)
		if err != nil {
			d.logger.Warn("corrupt frame", "fd", c.fd, "uid", c.uid, "error", err)
			d.evictCorrupt(c)
			return false
		}
		c.readBuf = c.readBuf[size:]
		// The kernel may relabel a running peer; re-resolve before
		// every message rather than trusting the accept-time value.
		c.refreshLabel()
		c.enqueue(d.dispatch(c, msg))
	}
}

// evictCorrupt sends a best-effort MESSAGE_CORRUPT status and evicts
// the client. Other clients are unaffected.
func (d *daemon) evictCorrupt(c *client) {
	frame, err := protocol.Encode(protocol.MessageStatus, 0, []protocol.Parameter{statusParam(protocol.StatusMessageCorrupt)})
	if err == nil {
		_, _ = unix.Write(c.fd, frame)
	}
	d.evict(c)
}

// evict retracts the client's subscriptions, closes its socket, and
// removes it from the table.
func (d *daemon) evict(c *client) {
	for key := range c.subs {
		d.notifier.remove(key.group, key.name, c.fd)
	}
	unix.Close(c.fd)
	delete(d.clients, c.fd)
	d.logger.Info("client disconnected", "fd", c.fd, "uid", c.uid)
}

// shutdown tears down every descriptor the daemon owns.
func (d *daemon) shutdown() {
	for _, c := range d.clients {
		d.evict(c)
	}
	for _, fd := range d.listeners {
		unix.Close(fd)
	}
	d.listeners = nil
	if d.ruleFD >= 0 {
		unix.Close(d.ruleFD)
		d.ruleFD = -1
	}
	unix.Close(d.wakeRead)
	unix.Close(d.wakeWrite)
}
