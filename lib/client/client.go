// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
)

// RequestTimeout bounds how long a synchronous call waits for its
// reply, and how long an unanswered correlation record survives
// before the sweep drops it.
const RequestTimeout = 3 * time.Second

// placeholderLabel is attached to request key parameters. The daemon
// never consults it; the codec just requires every parameter to carry
// a label.
const placeholderLabel = "_"

// ChangedFunc receives change notifications for one subscription.
// value is nil when the key was unset or its group removed.
type ChangedFunc func(name string, value *protocol.Value)

// StatusError reports a non-OK status reply from the daemon.
type StatusError struct {
	Status protocol.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %s", e.Status)
}

// pending is one unanswered request in the correlation table.
type pending struct {
	callback func(protocol.Message)
	created  time.Time
	msgType  protocol.MessageType

	// changed rides along on Notify requests; on STATUS(OK) the
	// record migrates to the persistent subscription table with this
	// callback.
	changed ChangedFunc
}

// Client is a connection to the Buxton daemon. It is safe for
// concurrent use: the correlation tables take a single mutex, and
// frame writes are serialized through it.
type Client struct {
	conn   *net.UnixConn
	logger *slog.Logger

	mu            sync.Mutex
	nextMsgID     uint64
	pending       map[uint64]*pending
	subscriptions map[uint64]ChangedFunc

	// done is closed when the reader goroutine exits; synchronous
	// callers waiting on a reply unblock through it.
	done     chan struct{}
	doneOnce sync.Once
}

// Connect dials the daemon at the given socket path. An empty path
// uses BUXTON_SOCKET or the compiled-in default.
func Connect(socketPath string, logger *slog.Logger) (*Client, error) {
	if socketPath == "" {
		socketPath = config.SocketPathFromEnv()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", socketPath, err)
	}
	c := &Client{
		conn:          conn,
		logger:        logger,
		pending:       make(map[uint64]*pending),
		subscriptions: make(map[uint64]ChangedFunc),
		done:          make(chan struct{}),
	}
	go c.read()
	return c, nil
}

// Close tears the connection down. The daemon retracts this client's
// subscriptions on disconnect.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// read drains frames from the socket and routes them: Status replies
// to the correlation table, Changed notifications to the subscription
// table.
func (c *Client) read() {
	defer c.doneOnce.Do(func() { close(c.done) })

	var buffer []byte
	chunk := make([]byte, protocol.MaxMessageSize)
	for {
		n, err := c.conn.Read(chunk)
		if err != nil {
			return
		}
		buffer = append(buffer, chunk[:n]...)

		for {
			size, ok, err := protocol.PeekSize(buffer)
			if err != nil {
				c.logger.Error("corrupt frame from daemon", "error", err)
				c.conn.Close()
				return
			}
			if !ok || len(buffer) < size {
				break
			}
			msg, err := protocol.Decode(buffer[:size], protocol.ServerToClient)
			buffer = buffer[size:]
			if err != nil {
				c.logger.Error("corrupt frame from daemon", "error", err)
				c.conn.Close()
				return
			}
			c.route(msg)
		}
	}
}

// route delivers one inbound frame.
func (c *Client) route(msg protocol.Message) {
	switch msg.Type {
	case protocol.MessageStatus:
		c.mu.Lock()
		record, ok := c.pending[msg.MsgID]
		if !ok {
			c.mu.Unlock()
			c.logger.Warn("status reply with no pending request", "msgid", msg.MsgID)
			return
		}
		delete(c.pending, msg.MsgID)

		// Table migrations happen before the caller observes the
		// reply, so a subscription is live the moment Notify returns.
		if status, err := replyStatus(msg); err == nil && status == protocol.StatusOK {
			switch record.msgType {
			case protocol.MessageNotify:
				c.subscriptions[msg.MsgID] = record.changed
			case protocol.MessageUnnotify:
				if removed, ok := unnotifiedMsgID(msg); ok {
					delete(c.subscriptions, removed)
				}
			}
		}
		c.mu.Unlock()
		record.callback(msg)

	case protocol.MessageChanged:
		c.mu.Lock()
		fn := c.subscriptions[msg.MsgID]
		c.mu.Unlock()
		if fn == nil {
			return
		}
		name := ""
		if len(msg.Params) > 0 && msg.Params[0].Value.Type == protocol.String {
			name = msg.Params[0].Value.String
		}
		var value *protocol.Value
		if len(msg.Params) > 1 {
			value = &msg.Params[1].Value
		}
		fn(name, value)
	}
}

// send registers a correlation record and writes the frame. The sweep
// for abandoned records rides on every send.
func (c *Client) send(msgType protocol.MessageType, params []protocol.Parameter, record *pending) (uint64, error) {
	c.mu.Lock()
	now := time.Now()
	for msgid, p := range c.pending {
		if now.Sub(p.created) > RequestTimeout {
			delete(c.pending, msgid)
		}
	}
	c.nextMsgID++
	msgid := c.nextMsgID
	record.created = now
	record.msgType = msgType

	frame, err := protocol.Encode(msgType, msgid, params)
	if err != nil {
		c.mu.Unlock()
		return 0, err
	}
	c.pending[msgid] = record
	_, err = c.conn.Write(frame)
	if err != nil {
		delete(c.pending, msgid)
	}
	c.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("writing request: %w", err)
	}
	return msgid, nil
}

// call sends a request and waits for its Status reply.
func (c *Client) call(msgType protocol.MessageType, params []protocol.Parameter, changed ChangedFunc) (protocol.Message, error) {
	replies := make(chan protocol.Message, 1)
	record := &pending{
		callback: func(msg protocol.Message) { replies <- msg },
		changed:  changed,
	}
	if _, err := c.send(msgType, params, record); err != nil {
		return protocol.Message{}, err
	}
	select {
	case msg := <-replies:
		return msg, nil
	case <-c.done:
		return protocol.Message{}, fmt.Errorf("connection closed")
	case <-time.After(RequestTimeout):
		return protocol.Message{}, fmt.Errorf("request timed out after %v", RequestTimeout)
	}
}

// replyStatus extracts the int32 status code from parameter 0.
func replyStatus(msg protocol.Message) (protocol.Status, error) {
	if len(msg.Params) == 0 || msg.Params[0].Value.Type != protocol.Int32 {
		return 0, fmt.Errorf("status reply missing status parameter")
	}
	return protocol.Status(msg.Params[0].Value.Int32), nil
}

// unnotifiedMsgID extracts the removed subscription's msgid from an
// Unnotify reply (parameter 2, after the status and the echoed key).
func unnotifiedMsgID(msg protocol.Message) (uint64, bool) {
	if len(msg.Params) < 3 || msg.Params[2].Value.Type != protocol.UInt64 {
		return 0, false
	}
	return msg.Params[2].Value.UInt64, true
}

// expectOK waits out a call and converts any non-OK status into a
// StatusError.
func (c *Client) expectOK(msgType protocol.MessageType, params []protocol.Parameter, changed ChangedFunc) (protocol.Message, error) {
	msg, err := c.call(msgType, params, changed)
	if err != nil {
		return protocol.Message{}, err
	}
	status, err := replyStatus(msg)
	if err != nil {
		return protocol.Message{}, err
	}
	if status != protocol.StatusOK {
		return protocol.Message{}, &StatusError{Status: status}
	}
	return msg, nil
}

// keyParams builds the leading string parameters of a request, one
// per part; callers leave the layer out themselves for a cross-layer
// Get.
func keyParams(parts ...string) []protocol.Parameter {
	params := make([]protocol.Parameter, 0, len(parts))
	for _, part := range parts {
		params = append(params, protocol.StringParam(placeholderLabel, part))
	}
	return params
}
