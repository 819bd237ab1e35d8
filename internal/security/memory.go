// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package security hardens the signer process against leaking key material
// through swap or core dumps.
package security

import (
	"errors"
	"log/slog"
)

// ErrUnsupported is returned on platforms without the needed system calls.
var ErrUnsupported = errors.New("memory protection not supported on this platform")

// Status reports which protections are active.
type Status struct {
	MemoryLocked      bool
	CoreDumpsDisabled bool
}

// Harden locks memory and disables core dumps. Failures are logged; when
// required is set, a failure to lock memory is returned as an error.
func Harden(logger *slog.Logger, required bool) (Status, error) {
	var st Status

	if err := DisableCoreDumps(); err != nil {
		logger.Warn("could not disable core dumps", "error", err)
	} else {
		st.CoreDumpsDisabled = true
	}

	if err := LockMemory(); err != nil {
		if required {
			return st, err
		}
		logger.Warn("could not lock memory, key material may be swapped to disk", "error", err)
	} else {
		st.MemoryLocked = true
	}
	return st, nil
}
