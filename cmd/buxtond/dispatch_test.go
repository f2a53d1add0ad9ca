// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/buxton-foundation/buxton/lib/backend"
	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
	"github.com/buxton-foundation/buxton/lib/store"
)

// testDaemon builds a daemon over memory-backed layers without any
// sockets; tests drive dispatch directly with constructed messages.
func testDaemon(t *testing.T, layers ...config.Layer) *daemon {
	t.Helper()
	t.Setenv("BUXTON_ROOT_CHECK", "0")
	registry := backend.NewRegistry(t.TempDir(), nil)
	control, err := store.New(layers, registry, nil, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	d, err := newDaemon(control, nil, -1, nil)
	if err != nil {
		t.Fatalf("newDaemon: %v", err)
	}
	t.Cleanup(func() {
		d.shutdown()
		control.Close()
	})
	return d
}

// addClient registers a fake peer in the client table. The fd is
// never a real descriptor; nothing in dispatch writes to it.
func addClient(d *daemon, fd int) *client {
	c := &client{fd: fd, uid: 1000, subs: make(map[subKey]uint64)}
	d.clients[fd] = c
	return c
}

func systemLayers() []config.Layer {
	return []config.Layer{
		{Name: "base", Type: config.LayerSystem, Backend: config.BackendMemory, Priority: 1},
	}
}

func request(t *testing.T, msgType protocol.MessageType, msgid uint64, params ...protocol.Parameter) protocol.Message {
	t.Helper()
	return protocol.Message{Type: msgType, MsgID: msgid, Params: params}
}

func str(value string) protocol.Parameter {
	return protocol.StringParam("_", value)
}

func decodeReply(t *testing.T, frame []byte) protocol.Message {
	t.Helper()
	msg, err := protocol.Decode(frame, protocol.ServerToClient)
	if err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	return msg
}

func replyStatus(t *testing.T, frame []byte) protocol.Status {
	t.Helper()
	msg := decodeReply(t, frame)
	if len(msg.Params) == 0 || msg.Params[0].Value.Type != protocol.Int32 {
		t.Fatalf("reply has no status parameter: %+v", msg)
	}
	return protocol.Status(msg.Params[0].Value.Int32)
}

func TestDispatchSetGetFlow(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	c := addClient(d, -1)

	if status := replyStatus(t, d.dispatch(c, request(t, protocol.MessageCreateGroup, 1, str("base"), str("net")))); status != protocol.StatusOK {
		t.Fatalf("CreateGroup = %v", status)
	}
	frame := d.dispatch(c, request(t, protocol.MessageSet, 2, str("base"), str("net"), str("mtu"),
		protocol.Parameter{Label: "_", Value: protocol.Int32Value(1500)}))
	if status := replyStatus(t, frame); status != protocol.StatusOK {
		t.Fatalf("Set = %v", status)
	}

	reply := decodeReply(t, d.dispatch(c, request(t, protocol.MessageGet, 3, str("net"), str("mtu"))))
	if reply.MsgID != 3 {
		t.Errorf("reply msgid = %d, want 3", reply.MsgID)
	}
	if len(reply.Params) != 2 {
		t.Fatalf("Get reply has %d params, want 2", len(reply.Params))
	}
	if value := reply.Params[1].Value; value.Type != protocol.Int32 || value.Int32 != 1500 {
		t.Errorf("Get value = %+v, want int32 1500", value)
	}
}

func TestDispatchBadArgs(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	c := addClient(d, -1)

	cases := []struct {
		name string
		msg  protocol.Message
	}{
		{"set missing value", request(t, protocol.MessageSet, 1, str("base"), str("net"), str("mtu"))},
		{"set empty name", request(t, protocol.MessageSet, 1, str("base"), str("net"), str(""), str("v"))},
		{"set numeric layer", request(t, protocol.MessageSet, 1,
			protocol.Parameter{Label: "_", Value: protocol.Int32Value(1)}, str("net"), str("mtu"), str("v"))},
		{"get one param", request(t, protocol.MessageGet, 1, str("net"))},
		{"get four params", request(t, protocol.MessageGet, 1, str("a"), str("b"), str("c"), str("d"))},
		{"unset two params", request(t, protocol.MessageUnset, 1, str("base"), str("net"))},
		{"create group one param", request(t, protocol.MessageCreateGroup, 1, str("base"))},
		{"remove group three params", request(t, protocol.MessageRemoveGroup, 1, str("base"), str("net"), str("x"))},
		{"list no params", request(t, protocol.MessageList, 1)},
		{"notify one param", request(t, protocol.MessageNotify, 1, str("net"))},
		{"notify empty group", request(t, protocol.MessageNotify, 1, str(""), str("mtu"))},
		{"set label two params", request(t, protocol.MessageSetLabel, 1, str("base"), str("net"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if status := replyStatus(t, d.dispatch(c, tc.msg)); status != protocol.StatusBadArgs {
				t.Errorf("status = %v, want BAD_ARGS", status)
			}
		})
	}
}

func TestDispatchRejectsServerTypes(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	c := addClient(d, -1)

	frame := d.dispatch(c, request(t, protocol.MessageStatus, 1, str("x")))
	if status := replyStatus(t, frame); status != protocol.StatusInvalidControlField {
		t.Errorf("status = %v, want INVALID_CONTROL_FIELD", status)
	}
}

func TestDispatchNotifyDelivery(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	watcher := addClient(d, -1)
	writer := addClient(d, -2)

	if status := replyStatus(t, d.dispatch(watcher, request(t, protocol.MessageNotify, 7, str("net"), str("mtu")))); status != protocol.StatusOK {
		t.Fatalf("Notify = %v", status)
	}
	if status := replyStatus(t, d.dispatch(watcher, request(t, protocol.MessageNotify, 8, str("net"), str("mtu")))); status != protocol.StatusExists {
		t.Errorf("duplicate Notify = %v, want EXISTS", status)
	}

	d.dispatch(writer, request(t, protocol.MessageCreateGroup, 1, str("base"), str("net")))
	d.dispatch(writer, request(t, protocol.MessageSet, 2, str("base"), str("net"), str("mtu"),
		protocol.Parameter{Label: "_", Value: protocol.Int32Value(9000)}))

	if len(watcher.writeQueue) != 1 {
		t.Fatalf("watcher has %d queued frames, want 1 CHANGED", len(watcher.writeQueue))
	}
	changed := decodeReply(t, watcher.writeQueue[0])
	if changed.Type != protocol.MessageChanged {
		t.Fatalf("queued frame type = %v, want CHANGED", changed.Type)
	}
	if changed.MsgID != 7 {
		t.Errorf("CHANGED msgid = %d, want the NOTIFY's msgid 7", changed.MsgID)
	}
	if len(changed.Params) != 2 || changed.Params[0].Value.String != "mtu" || changed.Params[1].Value.Int32 != 9000 {
		t.Errorf("CHANGED params = %+v, want key mtu and value 9000", changed.Params)
	}

	// The writer holds no subscription and must see nothing.
	if len(writer.writeQueue) != 0 {
		t.Errorf("writer has %d queued frames, want 0", len(writer.writeQueue))
	}
}

func TestDispatchUnsetChangedOmitsValue(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	watcher := addClient(d, -1)
	writer := addClient(d, -2)

	d.dispatch(writer, request(t, protocol.MessageCreateGroup, 1, str("base"), str("net")))
	d.dispatch(writer, request(t, protocol.MessageSet, 2, str("base"), str("net"), str("mtu"),
		protocol.Parameter{Label: "_", Value: protocol.Int32Value(1500)}))
	d.dispatch(watcher, request(t, protocol.MessageNotify, 7, str("net"), str("mtu")))

	if status := replyStatus(t, d.dispatch(writer, request(t, protocol.MessageUnset, 3, str("base"), str("net"), str("mtu")))); status != protocol.StatusOK {
		t.Fatalf("Unset = %v", status)
	}
	if len(watcher.writeQueue) != 1 {
		t.Fatalf("watcher has %d queued frames, want 1", len(watcher.writeQueue))
	}
	changed := decodeReply(t, watcher.writeQueue[0])
	if len(changed.Params) != 1 {
		t.Errorf("unset CHANGED has %d params, want the key name only", len(changed.Params))
	}
}

func TestDispatchUnnotifyEchoesMsgID(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	c := addClient(d, -1)

	d.dispatch(c, request(t, protocol.MessageNotify, 7, str("net"), str("mtu")))
	reply := decodeReply(t, d.dispatch(c, request(t, protocol.MessageUnnotify, 99, str("net"), str("mtu"))))
	if status := protocol.Status(reply.Params[0].Value.Int32); status != protocol.StatusOK {
		t.Fatalf("Unnotify = %v", status)
	}
	if reply.MsgID != 99 {
		t.Errorf("reply msgid = %d, want 99", reply.MsgID)
	}
	if len(reply.Params) != 3 {
		t.Fatalf("Unnotify reply has %d params, want 3", len(reply.Params))
	}
	if key := reply.Params[1].Value.String; key != "mtu" {
		t.Errorf("echoed key = %q, want mtu", key)
	}
	if msgid := reply.Params[2].Value.UInt64; msgid != 7 {
		t.Errorf("removed msgid = %d, want 7", msgid)
	}

	if status := replyStatus(t, d.dispatch(c, request(t, protocol.MessageUnnotify, 100, str("net"), str("mtu")))); status != protocol.StatusNotFound {
		t.Errorf("second Unnotify = %v, want NOT_FOUND", status)
	}
}

func TestDispatchList(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	c := addClient(d, -1)

	d.dispatch(c, request(t, protocol.MessageCreateGroup, 1, str("base"), str("net")))
	d.dispatch(c, request(t, protocol.MessageSet, 2, str("base"), str("net"), str("mtu"),
		protocol.Parameter{Label: "_", Value: protocol.Int32Value(1500)}))

	reply := decodeReply(t, d.dispatch(c, request(t, protocol.MessageList, 3, str("base"))))
	if status := protocol.Status(reply.Params[0].Value.Int32); status != protocol.StatusOK {
		t.Fatalf("List = %v", status)
	}
	keys := make(map[string]bool)
	for _, param := range reply.Params[1:] {
		keys[param.Value.String] = true
	}
	if !keys["net"] || !keys["net/mtu"] {
		t.Errorf("List keys = %v, want net and net/mtu", keys)
	}
}

func TestEvictRetractsSubscriptions(t *testing.T) {
	d := testDaemon(t, systemLayers()...)
	watcher := addClient(d, -1)
	writer := addClient(d, -2)

	d.dispatch(watcher, request(t, protocol.MessageNotify, 7, str("net"), str("mtu")))
	d.evict(watcher)
	if _, ok := d.clients[watcher.fd]; ok {
		t.Fatal("evicted client still in table")
	}

	d.dispatch(writer, request(t, protocol.MessageCreateGroup, 1, str("base"), str("net")))
	d.dispatch(writer, request(t, protocol.MessageSet, 2, str("base"), str("net"), str("mtu"),
		protocol.Parameter{Label: "_", Value: protocol.Int32Value(1)}))
	if len(d.notifier.matches("net", "mtu")) != 0 {
		t.Error("eviction left subscriptions behind")
	}
}
