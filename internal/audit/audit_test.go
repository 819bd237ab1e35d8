// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line is not JSON: %q", sc.Text())
		}
		out = append(out, e)
	}
	return out
}

func TestLogger_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Log(Entry{Event: ServerStart, KeyCount: 2})
	l.Log(Entry{Event: SignApproved, Address: "0xabc", Chain: "etc", Kind: "message"})
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening appends.
	l, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	l.Log(Entry{Event: ServerStop})
	_ = l.Close()

	entries := readEntries(t, path)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[1].Event != SignApproved || entries[1].Chain != "etc" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestLogger_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	l.limit = 200

	for i := 0; i < 5; i++ {
		l.Log(Entry{Event: AccountCreated, Address: "0x0000000000000000000000000000000000000001"})
	}
	_ = l.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	if n := len(readEntries(t, path)); n == 0 || n == 5 {
		t.Errorf("current log has %d entries, expected rotation to split them", n)
	}
}

func TestLogger_RotateReopenFailureKeepsLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	var warnings bytes.Buffer
	l.errOut = &warnings
	l.limit = 200

	addr := "0x0000000000000000000000000000000000000001"
	l.Log(Entry{Event: AccountCreated, Address: addr})

	failed := false
	l.openFile = func(p string) (*os.File, error) {
		if !failed {
			failed = true
			return nil, errors.New("no space left on device")
		}
		return openAppend(p)
	}
	l.Log(Entry{Event: AccountImported, Address: addr})
	if !bytes.Contains(warnings.Bytes(), []byte("open new log")) {
		t.Fatalf("expected rotation warning, got %q", warnings.String())
	}
	if bytes.Contains(warnings.Bytes(), []byte("failed to write")) {
		t.Fatalf("entry was dropped: %q", warnings.String())
	}

	l.Log(Entry{Event: AccountRekeyed, Address: addr})
	_ = l.Close()

	archived := readEntries(t, path+".1")
	current := readEntries(t, path)
	if len(archived) != 2 || len(current) != 1 {
		t.Fatalf("archived %d, current %d entries; want 2 and 1", len(archived), len(current))
	}
	if archived[1].Event != AccountImported || current[0].Event != AccountRekeyed {
		t.Errorf("unexpected order: %+v / %+v", archived, current)
	}
}
