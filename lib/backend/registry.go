// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/buxton-foundation/buxton/lib/config"
)

// Registry maps backend names to loaded module instances. Modules
// load lazily: the first layer that references a name constructs the
// instance, later references share it. The registry is owned by the
// event loop (or a direct store) and is not safe for concurrent use.
type Registry struct {
	factories map[string]func() (Backend, error)
	loaded    map[string]Backend
	closed    bool
	logger    *slog.Logger
}

// NewRegistry creates a registry offering the two built-in modules:
// "persistent" rooted at databaseRoot, and "memory".
func NewRegistry(databaseRoot string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Registry{
		factories: make(map[string]func() (Backend, error)),
		loaded:    make(map[string]Backend),
		logger:    logger,
	}
	r.factories[config.BackendPersistent] = func() (Backend, error) {
		return newSQLiteBackend(databaseRoot, logger)
	}
	r.factories[config.BackendMemory] = func() (Backend, error) {
		return newMemoryBackend(), nil
	}
	return r
}

// Backend returns the loaded module instance for name, constructing
// it on first reference. A failed construction is not cached; the
// request that triggered it fails and the next reference retries.
func (r *Registry) Backend(name string) (Backend, error) {
	if r.closed {
		return nil, fmt.Errorf("backend registry is closed")
	}
	if b, ok := r.loaded[name]; ok {
		return b, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	b, err := factory()
	if err != nil {
		return nil, fmt.Errorf("loading backend %q: %w", name, err)
	}
	r.loaded[name] = b
	r.logger.Info("backend loaded", "backend", name)
	return b, nil
}

// Close tears down every loaded module exactly once. Calling Close
// again is a no-op.
func (r *Registry) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for name, b := range r.loaded {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing backend %q: %w", name, err))
		}
	}
	r.loaded = nil
	return errors.Join(errs...)
}
