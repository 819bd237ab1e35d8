// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package util

const (
	// DefaultListenAddr is the default JSON-RPC listen address. Loopback
	// only; exposing the signer requires an explicit listen setting.
	DefaultListenAddr = "127.0.0.1:1920"

	// DataDirEnv names the environment variable holding the data directory.
	DataDirEnv = "JADE_SIGNER_DATA"

	// ConfigFileName is the config file inside the data directory.
	ConfigFileName = "config.yaml"
)
