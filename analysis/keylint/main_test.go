// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, root, rel, src string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()

	writeSource(t, root, "pkg/bad.go", `package pkg

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
)

type req struct{ Passphrase string }

func leak(logger *slog.Logger, r req, passphrase string) error {
	logger.Info("unlocking", "passphrase", passphrase)
	_ = rand.Intn(3)
	return fmt.Errorf("bad %s", r.Passphrase)
}

type codec struct{}

type key struct{}

func (key) PubKey() int { return 0 }

func (codec) Unlock(a, b, c any) (key, error) { return key{}, nil }

func noZero(c codec) int {
	priv, _ := c.Unlock(nil, nil, "pw")
	return priv.PubKey()
}

func mutexOnly(mu *sync.Mutex) {
	mu.Lock()
	mu.Unlock()
}
`)

	writeSource(t, root, "pkg/good.go", `package pkg

import (
	"crypto/rand"
	"fmt"
	"log/slog"
)

type priv struct{}

func (priv) Zero() {}
func (priv) PubKey() string { return "" }

func newKey() (priv, error) { return priv{}, nil }

func NewPrivateKey() (priv, error) { return priv{}, nil }

func ok(logger *slog.Logger, address string) error {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	p, err := NewPrivateKey()
	if err != nil {
		return err
	}
	defer p.Zero()
	logger.Info("created", "address", address, "pub", p.PubKey())
	return fmt.Errorf("account %s", address)
}
`)

	writeSource(t, root, "pkg/bad_test.go", `package pkg

import "math/rand"

var _ = rand.Intn
`)

	findings, files, err := lint(root, []string{"pkg", "missing"})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if files != 2 {
		t.Errorf("files checked = %d, want 2", files)
	}

	var got []string
	for _, f := range findings {
		if !strings.HasSuffix(f.pos.Filename, "bad.go") {
			t.Errorf("unexpected finding in %s: %s", f.pos.Filename, f.reason)
		}
		got = append(got, f.reason)
	}
	want := []string{
		"math/rand imported; use crypto/rand",
		"passphrase passed to Info",
		"Passphrase passed to Errorf",
		"noZero obtains a private key but never zeroes one",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("findings:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}
