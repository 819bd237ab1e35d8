// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package storage

import (
	"sync"

	"github.com/jade-signer/jade-signer/internal/keyfile"
)

// MemoryStore keeps keyfiles in memory. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[keyfile.Address]*keyfile.Keyfile
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[keyfile.Address]*keyfile.Keyfile)}
}

func (m *MemoryStore) Put(kf *keyfile.Keyfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[kf.Address] = kf.Clone()
	return nil
}

func (m *MemoryStore) Get(addr keyfile.Address) (*keyfile.Keyfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kf, ok := m.files[addr]
	if !ok {
		return nil, notFound(addr)
	}
	return kf.Clone(), nil
}

func (m *MemoryStore) List(f Filter) ([]keyfile.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]keyfile.Summary, 0, len(m.files))
	for _, kf := range m.files {
		all = append(all, kf.Summary())
	}
	return filterAndSort(all, f), nil
}

func (m *MemoryStore) SetHidden(addr keyfile.Address, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kf, ok := m.files[addr]
	if !ok {
		return notFound(addr)
	}
	kf.Hidden = hidden
	return nil
}

func (m *MemoryStore) Delete(addr keyfile.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[addr]; !ok {
		return notFound(addr)
	}
	delete(m.files, addr)
	return nil
}

func (m *MemoryStore) Type() Type { return TypeMemory }

func (m *MemoryStore) Close() error { return nil }
