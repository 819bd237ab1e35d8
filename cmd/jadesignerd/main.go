// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// jadesignerd serves the key-custody and signing JSON-RPC API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/jade-signer/jade-signer/internal/util"
	"github.com/jade-signer/jade-signer/internal/version"
)

type options struct {
	DataDir  string `short:"d" long:"datadir" description:"Data directory holding config.yaml (or set JADE_SIGNER_DATA)"`
	Listen   string `long:"listen" description:"Override the listen address from the config file"`
	Storage  string `long:"storage" description:"Override the keyfile backend" choice:"bolt" choice:"fs" choice:"memory"`
	KdfLevel string `long:"kdf-level" description:"Override the KDF cost for new keyfiles" choice:"low" choice:"normal" choice:"high"`
	LogLevel string `long:"log-level" description:"Override the log level" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	Version  bool   `long:"version" description:"Print version and exit"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.Version {
		fmt.Printf("jadesignerd %s\n", version.String())
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, logger, true)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer d.close()

	if err := d.run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the data directory's config file and applies flag
// overrides.
func loadConfig(opts options) (util.ServerConfig, error) {
	dataDir := util.GetSignerDataDir(opts.DataDir)
	cfg, err := util.LoadServerConfig(dataDir)
	if err != nil {
		return cfg, err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Storage != "" {
		cfg.Storage = opts.Storage
	}
	if opts.KdfLevel != "" {
		cfg.KdfLevel = opts.KdfLevel
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, nil
}
