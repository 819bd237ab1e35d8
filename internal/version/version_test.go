// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Version+" ") {
		t.Fatalf("String() = %q, want prefix %q", s, Version)
	}
	if !strings.Contains(s, GitCommit) {
		t.Fatalf("String() = %q, missing commit", s)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.GoVersion == "" {
		t.Fatalf("unexpected info %+v", info)
	}
}
