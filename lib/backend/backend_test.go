// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package backend_test

import (
	"errors"
	"testing"

	"github.com/buxton-foundation/buxton/lib/backend"
	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/protocol"
)

func systemDatabase(name string) backend.Database {
	return backend.Database{
		Layer: config.Layer{Name: name, Type: config.LayerSystem, Backend: config.BackendMemory, Priority: 1},
	}
}

func userDatabase(name string, uid uint32) backend.Database {
	return backend.Database{
		Layer: config.Layer{Name: name, Type: config.LayerUser, Backend: config.BackendMemory, Priority: 1},
		UID:   uid,
	}
}

// openBackend returns a fresh instance of the named module rooted in
// a test directory, closed automatically.
func openBackend(t *testing.T, name string) backend.Backend {
	t.Helper()
	registry := backend.NewRegistry(t.TempDir(), nil)
	t.Cleanup(func() {
		if err := registry.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	b, err := registry.Backend(name)
	if err != nil {
		t.Fatalf("Backend(%q): %v", name, err)
	}
	return b
}

// eachModule runs the test once per storage module.
func eachModule(t *testing.T, test func(t *testing.T, b backend.Backend)) {
	for _, name := range []string{config.BackendMemory, config.BackendPersistent} {
		t.Run(name, func(t *testing.T) {
			test(t, openBackend(t, name))
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	values := []protocol.Value{
		protocol.StringValue("hello"),
		protocol.StringValue(""),
		protocol.Int32Value(-1500),
		protocol.UInt32Value(4000000000),
		protocol.Int64Value(-1 << 40),
		protocol.UInt64Value(1 << 60),
		protocol.FloatValue(3.5),
		protocol.DoubleValue(-2.25),
		protocol.BoolValue(true),
		protocol.BoolValue(false),
	}

	eachModule(t, func(t *testing.T, b backend.Backend) {
		db := systemDatabase("base")
		for i, value := range values {
			key := backend.Key{Group: "types", Name: value.Type.String() + string(rune('a'+i))}
			want := backend.Record{Value: value, Label: "_"}
			if err := b.Set(db, key, want); err != nil {
				t.Fatalf("Set(%v): %v", key, err)
			}
			got, err := b.Get(db, key)
			if err != nil {
				t.Fatalf("Get(%v): %v", key, err)
			}
			if got != want {
				t.Errorf("Get(%v) = %+v, want %+v", key, got, want)
			}
		}
	})
}

func TestGetMissing(t *testing.T) {
	eachModule(t, func(t *testing.T, b backend.Backend) {
		db := systemDatabase("base")
		if _, err := b.Get(db, backend.Key{Group: "net", Name: "mtu"}); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Get on empty database: err = %v, want ErrNotFound", err)
		}
	})
}

func TestSetReplaces(t *testing.T) {
	eachModule(t, func(t *testing.T, b backend.Backend) {
		db := systemDatabase("base")
		key := backend.Key{Group: "net", Name: "mtu"}
		if err := b.Set(db, key, backend.Record{Value: protocol.Int32Value(1500), Label: "_"}); err != nil {
			t.Fatalf("first Set: %v", err)
		}
		if err := b.Set(db, key, backend.Record{Value: protocol.Int32Value(9000), Label: "net"}); err != nil {
			t.Fatalf("second Set: %v", err)
		}
		got, err := b.Get(db, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Value.Int32 != 9000 || got.Label != "net" {
			t.Errorf("Get = %+v, want value 9000 label net", got)
		}
	})
}

func TestUnset(t *testing.T) {
	eachModule(t, func(t *testing.T, b backend.Backend) {
		db := systemDatabase("base")
		key := backend.Key{Group: "net", Name: "mtu"}
		if err := b.Unset(db, key); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Unset of missing key: err = %v, want ErrNotFound", err)
		}
		if err := b.Set(db, key, backend.Record{Value: protocol.Int32Value(1500), Label: "_"}); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := b.Unset(db, key); err != nil {
			t.Fatalf("Unset: %v", err)
		}
		if _, err := b.Get(db, key); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Get after Unset: err = %v, want ErrNotFound", err)
		}
	})
}

func TestUnsetGroupRemovesEveryKey(t *testing.T) {
	eachModule(t, func(t *testing.T, b backend.Backend) {
		db := systemDatabase("base")
		sentinel := backend.Key{Group: "net"}
		if err := b.Set(db, sentinel, backend.Record{Value: protocol.StringValue(backend.GroupValue), Label: "_"}); err != nil {
			t.Fatalf("Set sentinel: %v", err)
		}
		for _, name := range []string{"mtu", "hostname", "dns"} {
			key := backend.Key{Group: "net", Name: name}
			if err := b.Set(db, key, backend.Record{Value: protocol.StringValue("v"), Label: "_"}); err != nil {
				t.Fatalf("Set(%v): %v", key, err)
			}
		}
		// An unrelated group must survive.
		other := backend.Key{Group: "ui"}
		if err := b.Set(db, other, backend.Record{Value: protocol.StringValue(backend.GroupValue), Label: "_"}); err != nil {
			t.Fatalf("Set other sentinel: %v", err)
		}

		if err := b.Unset(db, sentinel); err != nil {
			t.Fatalf("Unset group: %v", err)
		}
		for _, name := range []string{"", "mtu", "hostname", "dns"} {
			if _, err := b.Get(db, backend.Key{Group: "net", Name: name}); !errors.Is(err, backend.ErrNotFound) {
				t.Errorf("Get(net/%s) after group removal: err = %v, want ErrNotFound", name, err)
			}
		}
		if _, err := b.Get(db, other); err != nil {
			t.Errorf("Get(ui) after removing net: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	eachModule(t, func(t *testing.T, b backend.Backend) {
		db := systemDatabase("base")
		stored := []backend.Key{
			{Group: "net"},
			{Group: "net", Name: "mtu"},
			{Group: "ui", Name: "theme"},
		}
		for _, key := range stored {
			if err := b.Set(db, key, backend.Record{Value: protocol.StringValue("v"), Label: "_"}); err != nil {
				t.Fatalf("Set(%v): %v", key, err)
			}
		}
		keys, err := b.List(db)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(keys) != len(stored) {
			t.Fatalf("List returned %d keys, want %d", len(keys), len(stored))
		}
		found := make(map[backend.Key]bool)
		for _, key := range keys {
			found[key] = true
		}
		for _, key := range stored {
			if !found[key] {
				t.Errorf("List missing %v", key)
			}
		}
	})
}

func TestUserDatabasesAreDisjoint(t *testing.T) {
	eachModule(t, func(t *testing.T, b backend.Backend) {
		key := backend.Key{Group: "app", Name: "theme"}
		alice := userDatabase("prefs", 1000)
		bob := userDatabase("prefs", 1001)

		if err := b.Set(alice, key, backend.Record{Value: protocol.StringValue("dark"), Label: "_"}); err != nil {
			t.Fatalf("Set for uid 1000: %v", err)
		}
		if _, err := b.Get(bob, key); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("Get for uid 1001: err = %v, want ErrNotFound", err)
		}
	})
}

func TestPersistentSurvivesReopen(t *testing.T) {
	root := t.TempDir()
	db := backend.Database{
		Layer: config.Layer{Name: "base", Type: config.LayerSystem, Backend: config.BackendPersistent, Priority: 1},
	}
	key := backend.Key{Group: "net", Name: "mtu"}
	want := backend.Record{Value: protocol.Int32Value(1500), Label: "system"}

	first := backend.NewRegistry(root, nil)
	b, err := first.Backend(config.BackendPersistent)
	if err != nil {
		t.Fatalf("Backend: %v", err)
	}
	if err := b.Set(db, key, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := backend.NewRegistry(root, nil)
	defer second.Close()
	b, err = second.Backend(config.BackendPersistent)
	if err != nil {
		t.Fatalf("Backend after reopen: %v", err)
	}
	got, err := b.Get(db, key)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != want {
		t.Errorf("Get after reopen = %+v, want %+v", got, want)
	}
}

func TestRegistryCachesInstances(t *testing.T) {
	registry := backend.NewRegistry(t.TempDir(), nil)
	defer registry.Close()

	first, err := registry.Backend(config.BackendMemory)
	if err != nil {
		t.Fatalf("Backend: %v", err)
	}
	second, err := registry.Backend(config.BackendMemory)
	if err != nil {
		t.Fatalf("Backend: %v", err)
	}
	if first != second {
		t.Error("two references to the same backend name returned distinct instances")
	}
}

func TestRegistryUnknownBackend(t *testing.T) {
	registry := backend.NewRegistry(t.TempDir(), nil)
	defer registry.Close()

	if _, err := registry.Backend("etcd"); err == nil {
		t.Error("Backend(\"etcd\") succeeded, want error")
	}
}

func TestRegistryDoubleClose(t *testing.T) {
	registry := backend.NewRegistry(t.TempDir(), nil)
	if _, err := registry.Backend(config.BackendMemory); err != nil {
		t.Fatalf("Backend: %v", err)
	}
	if err := registry.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := registry.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := registry.Backend(config.BackendMemory); err == nil {
		t.Error("Backend after Close succeeded, want error")
	}
}
