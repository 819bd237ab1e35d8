// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/fsutil"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

// ErrInvalidContract is returned when a contract record is rejected.
var ErrInvalidContract = errmodel.New(errmodel.Validation, "invalid contract")

// Contract is a named contract address with its ABI, stored per chain.
type Contract struct {
	Address keyfile.Address `json:"address"`
	Name    string          `json:"name,omitempty"`
	ABI     json.RawMessage `json:"abi"`
}

// ContractStore keeps contracts under <root>/<chain>/<address>.json. A store
// with an empty root keeps everything in memory.
type ContractStore struct {
	root   string
	logger *slog.Logger

	mu     sync.RWMutex
	memory map[string]map[keyfile.Address]Contract
}

// NewContractStore returns a store rooted at root.
func NewContractStore(root string, logger *slog.Logger) (*ContractStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ContractStore{root: root, logger: logger}
	if root == "" {
		c.memory = make(map[string]map[keyfile.Address]Contract)
		return c, nil
	}
	if err := fsutil.CheckWritable(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageInit, root, err)
	}
	return c, nil
}

// Put stores a contract for chain, replacing any previous record.
func (c *ContractStore) Put(chain string, ct Contract) error {
	if ct.Address.IsZero() {
		return fmt.Errorf("%w: missing address", ErrInvalidContract)
	}
	if len(ct.ABI) == 0 || !json.Valid(ct.ABI) {
		return fmt.Errorf("%w: abi is not valid JSON", ErrInvalidContract)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, ct.ABI); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContract, err)
	}
	ct.ABI = compact.Bytes()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.memory != nil {
		if c.memory[chain] == nil {
			c.memory[chain] = make(map[keyfile.Address]Contract)
		}
		c.memory[chain][ct.Address] = ct
		return nil
	}

	dir := filepath.Join(c.root, chain)
	if err := fsutil.MkdirAll(dir); err != nil {
		return storeErr("create contract dir", err)
	}
	data, err := json.MarshalIndent(ct, "", "  ")
	if err != nil {
		return storeErr("encode contract", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, ct.Address.Hex()+keyfileExt), data); err != nil {
		return storeErr("put contract", err)
	}
	return nil
}

// List returns the contracts of chain ordered by address.
func (c *ContractStore) List(chain string) ([]Contract, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Contract
	if c.memory != nil {
		for _, ct := range c.memory[chain] {
			out = append(out, ct)
		}
	} else {
		var err error
		out, err = c.readDir(filepath.Join(c.root, chain))
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	if out == nil {
		out = []Contract{}
	}
	return out, nil
}

func (c *ContractStore) readDir(dir string) ([]Contract, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, storeErr("list contracts", err)
	}

	var out []Contract
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), keyfileExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			c.logger.Warn("skipping unreadable contract", "file", e.Name(), "error", err)
			continue
		}
		var ct Contract
		if err := json.Unmarshal(data, &ct); err != nil {
			c.logger.Warn("skipping invalid contract", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, ct)
	}
	return out, nil
}
