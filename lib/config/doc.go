// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon's own configuration and the layer
// descriptor file.
//
// The daemon configuration is a single YAML file located via the
// BUXTON_CONFIG environment variable or the --config flag. There is
// no discovery and no environment-variable override of individual
// values; the file is the source of truth.
//
// Layer descriptors use INI-style sections, one per layer:
//
//	[base]
//	Type=System
//	Backend=persistent
//	Priority=0
//	Description=Operating system defaults
//
// Section order is preserved: it is the tie-breaker when cross-layer
// resolution finds two layers of equal priority. Layers are loaded
// once at daemon startup and are immutable afterwards.
package config
