// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jade-signer/jade-signer/internal/fsutil"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

// keyfileExt is the suffix of keyfile documents in a DirStore.
const keyfileExt = ".json"

// DirStore keeps one JSON document per address, named <40 hex>.json.
//
// List is served from a summary cache built by scanning the directory. The
// cache is updated by this store's own writes and dropped by Invalidate when
// something else changes the directory.
type DirStore struct {
	dir    string
	logger *slog.Logger

	cacheLock sync.Mutex
	cache     map[keyfile.Address]keyfile.Summary
}

// OpenDirStore creates dir if needed and checks that it is writable.
func OpenDirStore(dir string, logger *slog.Logger) (*DirStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fsutil.CheckWritable(dir); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageInit, dir, err)
	}
	return &DirStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory the store writes to.
func (d *DirStore) Dir() string { return d.dir }

func (d *DirStore) path(addr keyfile.Address) string {
	return filepath.Join(d.dir, addr.Hex()+keyfileExt)
}

func (d *DirStore) Put(kf *keyfile.Keyfile) error {
	data, err := keyfile.Marshal(kf)
	if err != nil {
		return storeErr("encode keyfile", err)
	}
	if err := fsutil.WriteFileAtomic(d.path(kf.Address), data); err != nil {
		return storeErr("put", err)
	}

	d.cacheLock.Lock()
	if d.cache != nil {
		d.cache[kf.Address] = kf.Summary()
	}
	d.cacheLock.Unlock()
	return nil
}

func (d *DirStore) Get(addr keyfile.Address) (*keyfile.Keyfile, error) {
	data, err := os.ReadFile(d.path(addr))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(addr)
		}
		return nil, storeErr("read", err)
	}
	kf, err := keyfile.Parse(data)
	if err != nil {
		return nil, storeErr("decode "+addr.String(), err)
	}
	if kf.Address != addr {
		return nil, storeErr("get", fmt.Errorf("file for %s holds %s", addr, kf.Address))
	}
	return kf, nil
}

func (d *DirStore) List(f Filter) ([]keyfile.Summary, error) {
	d.cacheLock.Lock()
	defer d.cacheLock.Unlock()

	if d.cache == nil {
		cache, err := d.scan()
		if err != nil {
			return nil, err
		}
		d.cache = cache
	}

	all := make([]keyfile.Summary, 0, len(d.cache))
	for _, s := range d.cache {
		all = append(all, s)
	}
	return filterAndSort(all, f), nil
}

// scan reads every keyfile document in the directory. Documents that fail
// to parse are logged and skipped.
func (d *DirStore) scan() (map[keyfile.Address]keyfile.Summary, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, storeErr("scan", err)
	}

	cache := make(map[keyfile.Address]keyfile.Summary, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, keyfileExt) {
			continue
		}
		stem := strings.TrimSuffix(name, keyfileExt)
		if len(stem) != 2*keyfile.AddressLen {
			continue
		}
		if _, err := hex.DecodeString(stem); err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			d.logger.Warn("skipping unreadable keyfile", "file", name, "error", err)
			continue
		}
		kf, err := keyfile.Parse(data)
		if err != nil {
			d.logger.Warn("skipping invalid keyfile", "file", name, "error", err)
			continue
		}
		if kf.Address.Hex() != strings.ToLower(stem) {
			d.logger.Warn("skipping keyfile with mismatched name", "file", name, "address", kf.Address.String())
			continue
		}
		cache[kf.Address] = kf.Summary()
	}
	return cache, nil
}

func (d *DirStore) SetHidden(addr keyfile.Address, hidden bool) error {
	kf, err := d.Get(addr)
	if err != nil {
		return err
	}
	if kf.Hidden == hidden {
		return nil
	}
	kf.Hidden = hidden
	return d.Put(kf)
}

func (d *DirStore) Delete(addr keyfile.Address) error {
	if err := os.Remove(d.path(addr)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(addr)
		}
		return storeErr("delete", err)
	}

	d.cacheLock.Lock()
	if d.cache != nil {
		delete(d.cache, addr)
	}
	d.cacheLock.Unlock()
	return nil
}

// Invalidate drops the summary cache. The next List rescans the directory.
func (d *DirStore) Invalidate() {
	d.cacheLock.Lock()
	d.cache = nil
	d.cacheLock.Unlock()
}

func (d *DirStore) Type() Type { return TypeDir }

func (d *DirStore) Close() error { return nil }
