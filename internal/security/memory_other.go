// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

//go:build !linux

package security

func LockMemory() error { return ErrUnsupported }

func DisableCoreDumps() error { return ErrUnsupported }
