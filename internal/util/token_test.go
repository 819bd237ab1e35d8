// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.token")

	if err := os.WriteFile(path, []byte("deadbeef\n"), 0600); err != nil {
		t.Fatal(err)
	}
	token, err := ReadToken(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "deadbeef" {
		t.Fatalf("expected 'deadbeef', got %q", token)
	}

	token, err = ReadToken(filepath.Join(dir, "missing.token"))
	if err != nil || token != "" {
		t.Fatalf("missing file: got %q, %v", token, err)
	}
}

func TestLoadOrCreateToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "api.token")

	first, created, err := LoadOrCreateToken(path)
	if err != nil {
		t.Fatalf("LoadOrCreateToken: %v", err)
	}
	if !created || len(first) != 2*TokenLength {
		t.Fatalf("expected a new %d-char token, got created=%v len=%d", 2*TokenLength, created, len(first))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token mode = %o, want 600", info.Mode().Perm())
	}

	second, created, err := LoadOrCreateToken(path)
	if err != nil || created || second != first {
		t.Fatalf("second load = %q, created=%v, err=%v", second, created, err)
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		expected string
		want     bool
	}{
		{"matching", "abc123", "abc123", true},
		{"mismatch", "abc123", "xyz789", false},
		{"prefix", "abc", "abc123", false},
		{"empty provided", "", "abc123", false},
		{"both empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateToken(tt.provided, tt.expected); got != tt.want {
				t.Errorf("ValidateToken(%q, %q) = %v, want %v", tt.provided, tt.expected, got, tt.want)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateToken()
	if len(a) != 64 || a == b {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
}
