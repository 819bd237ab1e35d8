// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != StoreFilePerm {
		t.Errorf("mode = %o, want %o", info.Mode().Perm(), StoreFilePerm)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestWriteFileAtomic_FailureKeepsOldContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")
	if err := WriteFileAtomic(path, []byte("old")); err != nil {
		t.Fatal(err)
	}

	// A directory in the target's place makes the rename fail.
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(blocked, "child"), nil, 0600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(blocked, []byte("new")); err == nil {
		t.Fatal("expected rename over a non-empty directory to fail")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "old" {
		t.Errorf("content = %q, want old", data)
	}
}

func TestWriteFileAtomic_DirSyncFailureAfterRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")

	openDir = func(string) (*os.File, error) { return nil, errors.New("too many open files") }
	t.Cleanup(func() { openDir = os.Open })

	if err := WriteFileAtomic(path, []byte("written")); err != nil {
		t.Fatalf("WriteFileAtomic after successful rename: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "written" {
		t.Errorf("content = %q, want written", data)
	}
}

func TestMkdirAllAndCheckWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := CheckWritable(dir); err != nil {
		t.Fatalf("CheckWritable: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != StoreDirPerm {
		t.Errorf("mode = %o, want %o", info.Mode().Perm(), StoreDirPerm)
	}
}
