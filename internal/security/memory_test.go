// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

//go:build linux

package security

import (
	"syscall"
	"testing"
)

func TestDisableCoreDumps(t *testing.T) {
	if err := DisableCoreDumps(); err != nil {
		t.Fatalf("DisableCoreDumps: %v", err)
	}
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_CORE, &rlimit); err != nil {
		t.Fatal(err)
	}
	if rlimit.Cur != 0 {
		t.Fatalf("core limit = %d, want 0", rlimit.Cur)
	}
}
