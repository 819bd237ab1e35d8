// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package storage persists encrypted keyfiles.
//
// KeyfileStore is the capability every backend provides. Three backends
// exist: an embedded key-value store (bbolt), a directory with one JSON file
// per address, and an in-memory map for tests. A Controller owns exactly one
// backend for the life of the process and serializes access to it.
package storage

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

var (
	// ErrNotFound indicates no keyfile exists for the address.
	ErrNotFound = errmodel.New(errmodel.NotFound, "account not found")

	// ErrStore indicates a backend I/O or corruption failure.
	ErrStore = errmodel.New(errmodel.Store, "storage error")

	// ErrStorageInit indicates the backend could not be opened.
	ErrStorageInit = errmodel.New(errmodel.StorageInit, "storage initialization failed")
)

// Type selects a backend.
type Type string

const (
	TypeBolt   Type = "bolt"
	TypeDir    Type = "fs"
	TypeMemory Type = "memory"
)

// ParseType parses a backend selector.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bolt", "kv", "embedded":
		return TypeBolt, nil
	case "fs", "dir", "filesystem":
		return TypeDir, nil
	case "memory", "mem":
		return TypeMemory, nil
	}
	return "", fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, s)
}

// Filter restricts List. Keyfiles are not bound to a chain, so there is no
// chain filter at this level.
type Filter struct {
	ShowHidden bool
}

// KeyfileStore stores keyfiles by address.
//
// Implementations are safe for concurrent use, but callers in this module
// always go through a Controller.
type KeyfileStore interface {
	// Put inserts or replaces the keyfile for kf.Address. A reader never
	// observes a partially written record, and a failed Put leaves the
	// previous record intact.
	Put(kf *keyfile.Keyfile) error

	// Get returns the keyfile for addr, or ErrNotFound.
	Get(addr keyfile.Address) (*keyfile.Keyfile, error)

	// List returns keyfile metadata ordered by address ascending.
	List(f Filter) ([]keyfile.Summary, error)

	// SetHidden sets the hidden flag of addr, or returns ErrNotFound.
	SetHidden(addr keyfile.Address, hidden bool) error

	// Delete removes the keyfile for addr, or returns ErrNotFound.
	Delete(addr keyfile.Address) error

	// Type returns the backend type.
	Type() Type

	// Close releases backend resources.
	Close() error
}

// invalidator is implemented by backends that cache directory contents.
type invalidator interface {
	Invalidate()
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

func notFound(addr keyfile.Address) error {
	return fmt.Errorf("%w: %s", ErrNotFound, addr)
}

func filterAndSort(in []keyfile.Summary, f Filter) []keyfile.Summary {
	out := make([]keyfile.Summary, 0, len(in))
	for _, s := range in {
		if s.Hidden && !f.ShowHidden {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}
