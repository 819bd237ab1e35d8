// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
)

// Subdirectories of the storage base path.
const (
	KeystoreDir  = "keystore"
	ContractsDir = "contracts"
)

// Controller owns the active KeyfileStore. Reads run concurrently with each
// other; a write excludes every other operation on the store, so a
// read-modify-write inside Update is atomic with respect to other callers.
type Controller struct {
	mu        sync.RWMutex
	store     KeyfileStore
	contracts *ContractStore
	basePath  string
	logger    *slog.Logger
}

// NewController opens a backend of type typ at basePath/keystore and the
// contract store at basePath/contracts. A memory backend ignores basePath.
// Failures are ErrStorageInit.
func NewController(basePath string, typ Type, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store        KeyfileStore
		contractRoot string
		err          error
	)
	keystorePath := filepath.Join(basePath, KeystoreDir)

	switch typ {
	case TypeBolt:
		store, err = OpenBoltStore(keystorePath, logger)
	case TypeDir:
		store, err = OpenDirStore(keystorePath, logger)
	case TypeMemory:
		store = NewMemoryStore()
	default:
		err = fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, typ)
	}
	if err != nil {
		return nil, err
	}

	if typ != TypeMemory {
		contractRoot = filepath.Join(basePath, ContractsDir)
	}
	contracts, err := NewContractStore(contractRoot, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("storage opened", "type", string(typ), "path", keystorePath)
	return &Controller{
		store:     store,
		contracts: contracts,
		basePath:  basePath,
		logger:    logger,
	}, nil
}

// NewControllerWithStore wraps an already opened store. Contracts are kept
// in memory.
func NewControllerWithStore(store KeyfileStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	contracts, _ := NewContractStore("", logger)
	return &Controller{store: store, contracts: contracts, logger: logger}
}

// View runs fn with shared access to the store.
func (c *Controller) View(fn func(KeyfileStore) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.store)
}

// Update runs fn with exclusive access to the store.
func (c *Controller) Update(fn func(KeyfileStore) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.store)
}

// Reload drops backend caches so the next read sees on-disk changes made by
// other tools.
func (c *Controller) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inv, ok := c.store.(invalidator); ok {
		inv.Invalidate()
		c.logger.Debug("keystore cache invalidated")
	}
}

// Type returns the active backend type.
func (c *Controller) Type() Type {
	return c.store.Type()
}

// KeystorePath returns the directory holding the backend's records.
func (c *Controller) KeystorePath() string {
	if c.basePath == "" {
		return ""
	}
	return filepath.Join(c.basePath, KeystoreDir)
}

// Contracts returns the contract store.
func (c *Controller) Contracts() *ContractStore {
	return c.contracts
}

// Close closes the backend. The controller must not be used afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Close()
}
