// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package backend

// memoryBackend keeps records in nested maps. Contents vanish with
// the process; layers that want durability use the persistent module.
type memoryBackend struct {
	// databases: database identity -> group -> name -> record. The
	// group sentinel is the entry at the empty name.
	databases map[string]map[string]map[string]Record
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		databases: make(map[string]map[string]map[string]Record),
	}
}

func (m *memoryBackend) database(db Database) map[string]map[string]Record {
	id := db.Filename()
	groups, ok := m.databases[id]
	if !ok {
		groups = make(map[string]map[string]Record)
		m.databases[id] = groups
	}
	return groups
}

func (m *memoryBackend) Get(db Database, key Key) (Record, error) {
	record, ok := m.database(db)[key.Group][key.Name]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

func (m *memoryBackend) Set(db Database, key Key, record Record) error {
	groups := m.database(db)
	names, ok := groups[key.Group]
	if !ok {
		names = make(map[string]Record)
		groups[key.Group] = names
	}
	names[key.Name] = record
	return nil
}

func (m *memoryBackend) Unset(db Database, key Key) error {
	groups := m.database(db)
	names, ok := groups[key.Group]
	if !ok {
		return ErrNotFound
	}
	if key.Name == "" {
		// Removing the sentinel removes the whole group.
		if _, ok := names[""]; !ok {
			return ErrNotFound
		}
		delete(groups, key.Group)
		return nil
	}
	if _, ok := names[key.Name]; !ok {
		return ErrNotFound
	}
	delete(names, key.Name)
	return nil
}

func (m *memoryBackend) List(db Database) ([]Key, error) {
	var keys []Key
	for group, names := range m.database(db) {
		for name := range names {
			keys = append(keys, Key{Group: group, Name: name})
		}
	}
	return keys, nil
}

func (m *memoryBackend) Close() error {
	m.databases = nil
	return nil
}
