// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/buxton-foundation/buxton/lib/protocol"
	"github.com/buxton-foundation/buxton/lib/smack"
	"github.com/buxton-foundation/buxton/lib/store"
)

// subscription records one client's interest in a (group, name)
// target. The msgid of the originating NOTIFY request is reused as
// the correlation id on every CHANGED delivered for this
// subscription.
type subscription struct {
	fd    int
	msgid uint64
}

// notifier matches committed mutations to registered subscriptions.
// Subscriptions are layer-agnostic: a change in any layer reaches
// every subscriber of its (group, name). The two-level map keeps
// delivery proportional to the subscriber count.
type notifier struct {
	subs map[string]map[string][]subscription
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[string][]subscription)}
}

// add registers a subscription. Returns false when the client already
// subscribes to this target; the group need not exist yet, so a
// subscriber can watch a key that a future CREATE-GROUP and SET will
// materialize.
func (n *notifier) add(group, name string, sub subscription) bool {
	names, ok := n.subs[group]
	if !ok {
		names = make(map[string][]subscription)
		n.subs[group] = names
	}
	for _, existing := range names[name] {
		if existing.fd == sub.fd {
			return false
		}
	}
	names[name] = append(names[name], sub)
	return true
}

// remove retracts one client's subscription to a target, returning
// the msgid it was registered under.
func (n *notifier) remove(group, name string, fd int) (uint64, bool) {
	subs := n.subs[group][name]
	for i, sub := range subs {
		if sub.fd == fd {
			n.subs[group][name] = append(subs[:i:i], subs[i+1:]...)
			return sub.msgid, true
		}
	}
	return 0, false
}

// matches returns the subscriptions watching a target.
func (n *notifier) matches(group, name string) []subscription {
	return n.subs[group][name]
}

// deliverChange fans one committed mutation out to its subscribers,
// skipping any whose label may not read the new value's label. The
// CHANGED frame carries the subscription's original msgid, the key
// name, and the new value; tombstone events omit the value parameter.
func (d *daemon) deliverChange(event store.Event) {
	name := event.Name
	if name == "" {
		name = event.Group
	}
	for _, sub := range d.notifier.matches(event.Group, event.Name) {
		subscriber, ok := d.clients[sub.fd]
		if !ok {
			continue
		}
		if d.access != nil && subscriber.label != "" && event.Label != "" &&
			!d.access.MayAccess(subscriber.label, event.Label, smack.Read) {
			continue
		}

		params := []protocol.Parameter{protocol.StringParam(store.DefaultLabel, name)}
		if event.Value != nil {
			params = append(params, protocol.Parameter{Label: event.Label, Value: *event.Value})
		}
		frame, err := protocol.Encode(protocol.MessageChanged, sub.msgid, params)
		if err != nil {
			d.logger.Error("encoding change notification", "group", event.Group, "name", event.Name, "error", err)
			continue
		}
		subscriber.enqueue(frame)
	}
}
