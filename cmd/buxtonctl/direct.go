// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/buxton-foundation/buxton/lib/backend"
	"github.com/buxton-foundation/buxton/lib/client"
	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
	"github.com/buxton-foundation/buxton/lib/store"
)

// openDirect opens the database in-process, bypassing the daemon.
// Direct callers carry no label, so label checks do not apply; the
// path is restricted to root because it also bypasses the daemon's
// peer-credential handling.
func openDirect(configPath string) (operations, error) {
	if os.Geteuid() != 0 {
		return nil, fmt.Errorf("--direct requires root")
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	layers, err := config.LoadLayers(cfg.LayersFile)
	if err != nil {
		return nil, err
	}

	registry := backend.NewRegistry(cfg.DatabaseRoot, nil)
	control, err := store.New(layers, registry, nil, nil)
	if err != nil {
		registry.Close()
		return nil, err
	}
	return &directControl{
		control: control,
		caller:  store.Client{UID: uint32(os.Geteuid()), PID: int32(os.Getpid())},
	}, nil
}

// directControl adapts the store's status-code interface to the
// error-returning operations interface the subcommands consume.
type directControl struct {
	control *store.Control
	caller  store.Client
}

// statusErr converts a non-OK status into the same error shape the
// socket client produces, so subcommand output is identical on both
// paths.
func statusErr(status protocol.Status) error {
	if status == protocol.StatusOK {
		return nil
	}
	return &client.StatusError{Status: status}
}

func (d *directControl) Set(layer, group, name string, value protocol.Value) error {
	return statusErr(d.control.Set(d.caller, store.Key{Layer: layer, Group: group, Name: name}, value))
}

func (d *directControl) Get(layer, group, name string) (protocol.Value, string, error) {
	record, status := d.control.Get(d.caller, store.Key{Layer: layer, Group: group, Name: name})
	if status != protocol.StatusOK {
		return protocol.Value{}, "", statusErr(status)
	}
	return record.Value, record.Label, nil
}

func (d *directControl) Unset(layer, group, name string) error {
	return statusErr(d.control.Unset(d.caller, store.Key{Layer: layer, Group: group, Name: name}))
}

func (d *directControl) CreateGroup(layer, group string) error {
	return statusErr(d.control.CreateGroup(d.caller, store.Key{Layer: layer, Group: group}, ""))
}

func (d *directControl) RemoveGroup(layer, group string) error {
	return statusErr(d.control.RemoveGroup(d.caller, store.Key{Layer: layer, Group: group}))
}

func (d *directControl) SetLabel(layer, group, name, label string) error {
	return statusErr(d.control.SetLabel(d.caller, store.Key{Layer: layer, Group: group, Name: name}, label))
}

func (d *directControl) ListKeys(layer string) ([]string, error) {
	keys, status := d.control.ListKeys(d.caller, layer)
	if status != protocol.StatusOK {
		return nil, statusErr(status)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key.String())
	}
	return names, nil
}

func (d *directControl) Close() error {
	return d.control.Close()
}
