// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/buxton-foundation/buxton/lib/protocol"
	"github.com/buxton-foundation/buxton/lib/store"
)

// statusParam builds the int32 status code parameter every Status
// reply carries at position 0.
func statusParam(status protocol.Status) protocol.Parameter {
	return protocol.Parameter{Label: store.DefaultLabel, Value: protocol.Int32Value(int32(status))}
}

// dispatch resolves one decoded request and returns the encoded
// Status reply. Mutations fan out to the notifier as a side effect of
// the store call, before the reply is built; the reply and any
// CHANGED frames are serialized through the per-client write queues.
func (d *daemon) dispatch(c *client, msg protocol.Message) []byte {
	status, extra := d.resolve(c, msg)
	params := append([]protocol.Parameter{statusParam(status)}, extra...)
	frame, err := protocol.Encode(protocol.MessageStatus, msg.MsgID, params)
	if err != nil {
		// The payload made the reply unencodable (an oversized List,
		// for instance). Degrade to a bare failure status.
		d.logger.Error("encoding reply", "type", msg.Type, "error", err)
		frame, _ = protocol.Encode(protocol.MessageStatus, msg.MsgID, []protocol.Parameter{statusParam(protocol.StatusFailed)})
	}
	return frame
}

// resolve maps a request to the resolver (or the notifier) and
// returns the status plus any extra reply parameters.
func (d *daemon) resolve(c *client, msg protocol.Message) (protocol.Status, []protocol.Parameter) {
	caller := c.identity()
	switch msg.Type {
	case protocol.MessageSet:
		if len(msg.Params) != 4 {
			return protocol.StatusBadArgs, nil
		}
		key, ok := requestKey(msg.Params[:3], 3)
		if !ok || key.Name == "" {
			return protocol.StatusBadArgs, nil
		}
		return d.control.Set(caller, key, msg.Params[3].Value), nil

	case protocol.MessageGet:
		var key store.Key
		switch len(msg.Params) {
		case 2:
			group, ok1 := stringArg(msg.Params, 0)
			name, ok2 := stringArg(msg.Params, 1)
			if !ok1 || !ok2 || group == "" {
				return protocol.StatusBadArgs, nil
			}
			key = store.Key{Group: group, Name: name}
		case 3:
			var ok bool
			if key, ok = requestKey(msg.Params, 3); !ok {
				return protocol.StatusBadArgs, nil
			}
		default:
			return protocol.StatusBadArgs, nil
		}
		record, status := d.control.Get(caller, key)
		if status != protocol.StatusOK {
			return status, nil
		}
		return status, []protocol.Parameter{{Label: record.Label, Value: record.Value}}

	case protocol.MessageUnset:
		if len(msg.Params) != 3 {
			return protocol.StatusBadArgs, nil
		}
		key, ok := requestKey(msg.Params, 3)
		if !ok || key.Name == "" {
			return protocol.StatusBadArgs, nil
		}
		return d.control.Unset(caller, key), nil

	case protocol.MessageCreateGroup:
		if len(msg.Params) != 2 {
			return protocol.StatusBadArgs, nil
		}
		key, ok := requestKey(msg.Params, 2)
		if !ok {
			return protocol.StatusBadArgs, nil
		}
		return d.control.CreateGroup(caller, key, ""), nil

	case protocol.MessageRemoveGroup:
		if len(msg.Params) != 2 {
			return protocol.StatusBadArgs, nil
		}
		key, ok := requestKey(msg.Params, 2)
		if !ok {
			return protocol.StatusBadArgs, nil
		}
		return d.control.RemoveGroup(caller, key), nil

	case protocol.MessageSetLabel:
		var (
			key   store.Key
			label string
		)
		switch len(msg.Params) {
		case 3:
			k, ok1 := requestKey(msg.Params[:2], 2)
			l, ok2 := stringArg(msg.Params, 2)
			if !ok1 || !ok2 {
				return protocol.StatusBadArgs, nil
			}
			key, label = k, l
		case 4:
			k, ok1 := requestKey(msg.Params[:3], 3)
			l, ok2 := stringArg(msg.Params, 3)
			if !ok1 || !ok2 || k.Name == "" {
				return protocol.StatusBadArgs, nil
			}
			key, label = k, l
		default:
			return protocol.StatusBadArgs, nil
		}
		return d.control.SetLabel(caller, key, label), nil

	case protocol.MessageList:
		layer, ok := stringArg(msg.Params, 0)
		if len(msg.Params) != 1 || !ok || layer == "" {
			return protocol.StatusBadArgs, nil
		}
		keys, status := d.control.ListKeys(caller, layer)
		if status != protocol.StatusOK {
			return status, nil
		}
		params := make([]protocol.Parameter, 0, len(keys))
		for _, key := range keys {
			params = append(params, protocol.StringParam(store.DefaultLabel, key.String()))
		}
		return status, params

	case protocol.MessageNotify:
		group, name, ok := notifyTarget(msg.Params)
		if !ok {
			return protocol.StatusBadArgs, nil
		}
		if !d.notifier.add(group, name, subscription{fd: c.fd, msgid: msg.MsgID}) {
			return protocol.StatusExists, nil
		}
		c.subs[subKey{group: group, name: name}] = msg.MsgID
		return protocol.StatusOK, nil

	case protocol.MessageUnnotify:
		group, name, ok := notifyTarget(msg.Params)
		if !ok {
			return protocol.StatusBadArgs, nil
		}
		msgid, found := d.notifier.remove(group, name, c.fd)
		if !found {
			return protocol.StatusNotFound, nil
		}
		delete(c.subs, subKey{group: group, name: name})
		echoed := name
		if echoed == "" {
			echoed = group
		}
		return protocol.StatusOK, []protocol.Parameter{
			protocol.StringParam(store.DefaultLabel, echoed),
			{Label: store.DefaultLabel, Value: protocol.UInt64Value(msgid)},
		}

	default:
		return protocol.StatusInvalidControlField, nil
	}
}

// requestKey extracts the leading layer/group[/name] string
// parameters of a mutation request: count is 2 for group addressing,
// 3 when a name follows. Callers enforce the message's total
// parameter count before slicing the key parameters off.
func requestKey(params []protocol.Parameter, count int) (store.Key, bool) {
	if len(params) < count {
		return store.Key{}, false
	}
	layer, ok1 := stringArg(params, 0)
	group, ok2 := stringArg(params, 1)
	if !ok1 || !ok2 || layer == "" || group == "" {
		return store.Key{}, false
	}
	key := store.Key{Layer: layer, Group: group}
	if count >= 3 {
		name, ok := stringArg(params, 2)
		if !ok {
			return store.Key{}, false
		}
		key.Name = name
	}
	return key, true
}

// stringArg returns the string value of parameter i.
func stringArg(params []protocol.Parameter, i int) (string, bool) {
	if i >= len(params) || params[i].Value.Type != protocol.String {
		return "", false
	}
	return params[i].Value.String, true
}

// notifyTarget extracts the (group, name) pair of a Notify or
// Unnotify request. An empty name watches the group sentinel itself.
func notifyTarget(params []protocol.Parameter) (string, string, bool) {
	if len(params) != 2 {
		return "", "", false
	}
	group, ok1 := stringArg(params, 0)
	name, ok2 := stringArg(params, 1)
	if !ok1 || !ok2 || group == "" {
		return "", "", false
	}
	return group, name, true
}
