// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/buxton-foundation/buxton/lib/backend"
	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
	"github.com/buxton-foundation/buxton/lib/smack"
)

// DefaultLabel is adopted by values and groups created without an
// explicit label: direct clients have none, and a labelled client's
// own label is used instead.
const DefaultLabel = "_"

// Client is the identity a caller presents to every operation. The
// daemon fills it from the socket's peer credentials and security
// attribute; direct in-process callers carry their own uid and an
// empty label, which disables label checks.
type Client struct {
	UID   uint32
	PID   int32
	Label string
}

// labelled reports whether access checks apply to this caller.
func (c Client) labelled() bool { return c.Label != "" }

// Key addresses a group or value. Layer is optional for reads (empty
// triggers cross-layer resolution) and required for mutations; an
// empty Name addresses the group sentinel.
type Key struct {
	Layer string
	Group string
	Name  string
}

// Event describes one committed mutation, handed to the notifier for
// fanout. Value is nil when the key was removed; Label is the label
// the new value carries, or the removed value carried, and is the
// object of the notifier's per-subscriber read check.
type Event struct {
	Layer string
	Group string
	Name  string
	Value *protocol.Value
	Label string
}

// AccessChecker is the boolean access-control primitive. The smack
// rule cache implements it; tests substitute their own.
type AccessChecker interface {
	MayAccess(subject, object string, mode smack.AccessMode) bool
}

// Control executes operations against the configured layers. It is
// owned by the daemon's event loop (or a single direct caller) and is
// not safe for concurrent use.
type Control struct {
	layers   []config.Layer
	byName   map[string]config.Layer
	registry *backend.Registry
	access   AccessChecker
	ignore   bool // BUXTON_ROOT_CHECK=0: skip the uid 0 requirement
	notify   func(Event)
	logger   *slog.Logger
}

// New creates a Control over the given layers. Layer order is
// descriptor-file order and breaks priority ties during cross-layer
// resolution. A nil access checker disables label checks for every
// caller. The BUXTON_ROOT_CHECK environment variable is consulted
// once, here.
func New(layers []config.Layer, registry *backend.Registry, access AccessChecker, logger *slog.Logger) (*Control, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("at least one layer is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	byName := make(map[string]config.Layer, len(layers))
	for _, layer := range layers {
		byName[layer.Name] = layer
	}
	return &Control{
		layers:   layers,
		byName:   byName,
		registry: registry,
		access:   access,
		ignore:   os.Getenv("BUXTON_ROOT_CHECK") == "0",
		notify:   func(Event) {},
		logger:   logger,
	}, nil
}

// OnChange installs the mutation fanout hook. The daemon points it at
// the notifier; the default discards events.
func (c *Control) OnChange(fn func(Event)) {
	if fn == nil {
		fn = func(Event) {}
	}
	c.notify = fn
}

// Layers returns the configured layers in descriptor-file order.
func (c *Control) Layers() []config.Layer { return c.layers }

// Close tears down the backend registry.
func (c *Control) Close() error { return c.registry.Close() }

// database binds a layer to its storage identity for this caller:
// user layers take the caller's uid, system layers ignore it.
func database(layer config.Layer, client Client) backend.Database {
	db := backend.Database{Layer: layer}
	if layer.Type == config.LayerUser {
		db.UID = client.UID
	}
	return db
}

// mayAccess applies the access-control primitive. Direct clients
// (empty label) and label-check-disabled deployments always pass.
func (c *Control) mayAccess(client Client, objectLabel string, mode smack.AccessMode) bool {
	if c.access == nil || !client.labelled() {
		return true
	}
	return c.access.MayAccess(client.Label, objectLabel, mode)
}

// rootAllowed enforces the uid 0 requirement on system-layer group
// and label mutations, subject to the BUXTON_ROOT_CHECK override.
func (c *Control) rootAllowed(client Client, layer config.Layer) bool {
	if layer.Type != config.LayerSystem {
		return true
	}
	return c.ignore || client.UID == 0
}

// backendStatus maps a backend error to the status a Status reply
// carries.
func backendStatus(err error) protocol.Status {
	if errors.Is(err, backend.ErrNotFound) {
		return protocol.StatusNotFound
	}
	return protocol.StatusFailed
}

// Get resolves a read. With a layer it delegates to GetForLayer;
// without one it scans every configured layer, skips layers that fail
// (missing key, denied access, backend error), and picks the winner:
// the highest-priority system layer containing the key, else the
// highest-priority user layer, ties broken by descriptor-file order.
func (c *Control) Get(client Client, key Key) (backend.Record, protocol.Status) {
	if key.Layer != "" {
		return c.GetForLayer(client, key)
	}

	var (
		bestSystem, bestUser         *backend.Record
		systemPriority, userPriority int
	)
	for _, layer := range c.layers {
		record, status := c.getInLayer(client, layer, key.Group, key.Name)
		if status != protocol.StatusOK {
			continue
		}
		// A candidate is only displaced by a strictly higher
		// priority, so the earliest layer wins ties.
		switch layer.Type {
		case config.LayerSystem:
			if bestSystem == nil || layer.Priority > systemPriority {
				bestSystem = &record
				systemPriority = layer.Priority
			}
		case config.LayerUser:
			if bestUser == nil || layer.Priority > userPriority {
				bestUser = &record
				userPriority = layer.Priority
			}
		}
	}
	if bestSystem != nil {
		return *bestSystem, protocol.StatusOK
	}
	if bestUser != nil {
		return *bestUser, protocol.StatusOK
	}
	return backend.Record{}, protocol.StatusNotFound
}

// GetForLayer resolves a read against one named layer.
func (c *Control) GetForLayer(client Client, key Key) (backend.Record, protocol.Status) {
	layer, ok := c.byName[key.Layer]
	if !ok {
		return backend.Record{}, protocol.StatusNotFound
	}
	return c.getInLayer(client, layer, key.Group, key.Name)
}

func (c *Control) getInLayer(client Client, layer config.Layer, group, name string) (backend.Record, protocol.Status) {
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		c.logger.Error("backend unavailable", "layer", layer.Name, "backend", layer.Backend, "error", err)
		return backend.Record{}, protocol.StatusFailed
	}
	db := database(layer, client)

	sentinel, err := b.Get(db, backend.Key{Group: group})
	if err != nil {
		return backend.Record{}, backendStatus(err)
	}
	if !c.mayAccess(client, sentinel.Label, smack.Read) {
		return backend.Record{}, protocol.StatusPermissionDenied
	}
	if name == "" {
		return sentinel, protocol.StatusOK
	}

	record, err := b.Get(db, backend.Key{Group: group, Name: name})
	if err != nil {
		return backend.Record{}, backendStatus(err)
	}
	if !c.mayAccess(client, record.Label, smack.Read) {
		return backend.Record{}, protocol.StatusPermissionDenied
	}
	return record, protocol.StatusOK
}

// Set writes a value. The group sentinel must already exist. A
// labelled caller needs write access to the group, and to the
// existing value when overwriting; the existing label sticks. New
// values adopt the caller's label, or DefaultLabel for direct
// callers.
func (c *Control) Set(client Client, key Key, value protocol.Value) protocol.Status {
	layer, ok := c.byName[key.Layer]
	if !ok {
		return protocol.StatusNotFound
	}
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		c.logger.Error("backend unavailable", "layer", layer.Name, "backend", layer.Backend, "error", err)
		return protocol.StatusFailed
	}
	db := database(layer, client)

	sentinel, err := b.Get(db, backend.Key{Group: key.Group})
	if err != nil {
		return backendStatus(err)
	}
	if !c.mayAccess(client, sentinel.Label, smack.Write) {
		return protocol.StatusPermissionDenied
	}

	label := client.Label
	existing, err := b.Get(db, backend.Key{Group: key.Group, Name: key.Name})
	switch {
	case err == nil:
		if !c.mayAccess(client, existing.Label, smack.Write) {
			return protocol.StatusPermissionDenied
		}
		label = existing.Label
	case errors.Is(err, backend.ErrNotFound):
		if label == "" {
			label = DefaultLabel
		}
	default:
		return protocol.StatusFailed
	}

	if err := b.Set(db, backend.Key{Group: key.Group, Name: key.Name}, backend.Record{Value: value, Label: label}); err != nil {
		c.logger.Error("set failed", "layer", layer.Name, "group", key.Group, "name", key.Name, "error", err)
		return protocol.StatusFailed
	}
	c.notify(Event{Layer: layer.Name, Group: key.Group, Name: key.Name, Value: &value, Label: label})
	return protocol.StatusOK
}

// Unset removes a value. The group sentinel must exist, and a
// labelled caller needs write access to both the group and the value.
func (c *Control) Unset(client Client, key Key) protocol.Status {
	layer, ok := c.byName[key.Layer]
	if !ok {
		return protocol.StatusNotFound
	}
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		return protocol.StatusFailed
	}
	db := database(layer, client)

	sentinel, err := b.Get(db, backend.Key{Group: key.Group})
	if err != nil {
		return backendStatus(err)
	}
	if !c.mayAccess(client, sentinel.Label, smack.Write) {
		return protocol.StatusPermissionDenied
	}
	existing, err := b.Get(db, backend.Key{Group: key.Group, Name: key.Name})
	if err != nil {
		return backendStatus(err)
	}
	if !c.mayAccess(client, existing.Label, smack.Write) {
		return protocol.StatusPermissionDenied
	}

	if err := b.Unset(db, backend.Key{Group: key.Group, Name: key.Name}); err != nil {
		return backendStatus(err)
	}
	c.notify(Event{Layer: layer.Name, Group: key.Group, Name: key.Name, Label: existing.Label})
	return protocol.StatusOK
}

// CreateGroup materializes a group sentinel. On system layers only
// root may create groups (BUXTON_ROOT_CHECK=0 lifts this). The group
// adopts the supplied label, the caller's label, or DefaultLabel, in
// that order of preference.
func (c *Control) CreateGroup(client Client, key Key, label string) protocol.Status {
	if key.Name != "" {
		return protocol.StatusBadArgs
	}
	layer, ok := c.byName[key.Layer]
	if !ok {
		return protocol.StatusNotFound
	}
	if !c.rootAllowed(client, layer) {
		return protocol.StatusPermissionDenied
	}
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		return protocol.StatusFailed
	}
	db := database(layer, client)

	if _, err := b.Get(db, backend.Key{Group: key.Group}); err == nil {
		return protocol.StatusExists
	} else if !errors.Is(err, backend.ErrNotFound) {
		return protocol.StatusFailed
	}

	if label == "" {
		label = client.Label
	}
	if label == "" {
		label = DefaultLabel
	}
	value := protocol.StringValue(backend.GroupValue)
	if err := b.Set(db, backend.Key{Group: key.Group}, backend.Record{Value: value, Label: label}); err != nil {
		c.logger.Error("create group failed", "layer", layer.Name, "group", key.Group, "error", err)
		return protocol.StatusFailed
	}
	c.notify(Event{Layer: layer.Name, Group: key.Group, Value: &value, Label: label})
	return protocol.StatusOK
}

// RemoveGroup removes a group sentinel and every key under it in one
// atomic step, fanning out one event per removed key. System layers
// require root; user layers require write access to the group.
func (c *Control) RemoveGroup(client Client, key Key) protocol.Status {
	if key.Name != "" {
		return protocol.StatusBadArgs
	}
	layer, ok := c.byName[key.Layer]
	if !ok {
		return protocol.StatusNotFound
	}
	if !c.rootAllowed(client, layer) {
		return protocol.StatusPermissionDenied
	}
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		return protocol.StatusFailed
	}
	db := database(layer, client)

	sentinel, err := b.Get(db, backend.Key{Group: key.Group})
	if err != nil {
		return backendStatus(err)
	}
	if layer.Type == config.LayerUser && !c.mayAccess(client, sentinel.Label, smack.Write) {
		return protocol.StatusPermissionDenied
	}

	// Collect the doomed keys and their labels before the atomic
	// removal so each gets its own fanout event.
	keys, err := b.List(db)
	if err != nil {
		return protocol.StatusFailed
	}
	type removed struct {
		name  string
		label string
	}
	var doomed []removed
	for _, k := range keys {
		if k.Group != key.Group {
			continue
		}
		label := sentinel.Label
		if k.Name != "" {
			if record, err := b.Get(db, k); err == nil {
				label = record.Label
			}
		}
		doomed = append(doomed, removed{name: k.Name, label: label})
	}

	if err := b.Unset(db, backend.Key{Group: key.Group}); err != nil {
		return backendStatus(err)
	}
	for _, r := range doomed {
		c.notify(Event{Layer: layer.Name, Group: key.Group, Name: r.name, Label: r.label})
	}
	return protocol.StatusOK
}

// SetLabel replaces a stored label. Labels are managed on system
// layers only, by root only (same override as CreateGroup). The
// target group or value must exist.
func (c *Control) SetLabel(client Client, key Key, label string) protocol.Status {
	if label == "" {
		return protocol.StatusBadArgs
	}
	layer, ok := c.byName[key.Layer]
	if !ok {
		return protocol.StatusNotFound
	}
	if layer.Type != config.LayerSystem {
		return protocol.StatusPermissionDenied
	}
	if !c.rootAllowed(client, layer) {
		return protocol.StatusPermissionDenied
	}
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		return protocol.StatusFailed
	}
	db := database(layer, client)

	target := backend.Key{Group: key.Group, Name: key.Name}
	record, err := b.Get(db, target)
	if err != nil {
		return backendStatus(err)
	}
	record.Label = label
	if err := b.Set(db, target, record); err != nil {
		return protocol.StatusFailed
	}
	return protocol.StatusOK
}

// ListKeys enumerates every key in one layer, group sentinels
// included. The surface is already restricted to the named layer, so
// no per-key access checks apply.
func (c *Control) ListKeys(client Client, layerName string) ([]backend.Key, protocol.Status) {
	layer, ok := c.byName[layerName]
	if !ok {
		return nil, protocol.StatusNotFound
	}
	b, err := c.registry.Backend(layer.Backend)
	if err != nil {
		return nil, protocol.StatusFailed
	}
	keys, err := b.List(database(layer, client))
	if err != nil {
		return nil, protocol.StatusFailed
	}
	return keys, protocol.StatusOK
}
