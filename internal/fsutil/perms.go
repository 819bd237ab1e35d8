// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package fsutil provides filesystem helpers for the signer's storage root.
// Everything under the root holds key material or its metadata, so
// directories are owner-only (0700) and files owner read/write (0600).
package fsutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// StoreDirPerm is the permission mode for store directories.
const StoreDirPerm os.FileMode = 0700

// StoreFilePerm is the permission mode for store files.
const StoreFilePerm os.FileMode = 0600

// MkdirAll creates a directory and all parents with store permissions.
// Unlike os.MkdirAll, this explicitly sets permissions after creation to
// bypass umask restrictions.
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, StoreDirPerm); err != nil {
		return err
	}
	return os.Chmod(path, StoreDirPerm)
}

// CreateFile opens a file for writing with store permissions.
// Caller is responsible for closing it.
func CreateFile(path string, flag int) (*os.File, error) {
	f, err := os.OpenFile(path, flag, StoreFilePerm)
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(StoreFilePerm); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return f, nil
}

// WriteFileAtomic replaces path with data. The data is written to a temporary
// file in the same directory, synced, then renamed over path, so a reader
// sees either the old or the new content. On failure path is untouched.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(StoreFilePerm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	// The rename has landed, so a directory sync failure is only logged.
	syncDir(dir)
	return nil
}

var openDir = os.Open

func syncDir(dir string) {
	d, err := openDir(dir)
	if err != nil {
		slog.Warn("failed to sync directory after rename", "dir", dir, "error", err)
		return
	}
	defer d.Close()
	// Some filesystems do not support fsync on directories.
	_ = d.Sync()
}

// CheckWritable verifies that dir exists (creating it if needed) and that a
// file can be created in it.
func CheckWritable(dir string) error {
	if err := MkdirAll(dir); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
