// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// jadestore manages the signer's keystore offline. It opens the same
// storage backend as jadesignerd, so the daemon should be stopped (bolt)
// or watching the keystore (fs) while it runs.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/storage"
	"github.com/jade-signer/jade-signer/internal/util"
	"github.com/jade-signer/jade-signer/internal/version"
)

type globalOptions struct {
	DataDir string `short:"d" long:"datadir" description:"Data directory holding config.yaml (or set JADE_SIGNER_DATA)"`
	Storage string `long:"storage" description:"Override the keyfile backend" choice:"bolt" choice:"fs"`
	Debug   bool   `long:"debug" description:"Verbose logging"`
	Version bool   `long:"version" description:"Print version and exit"`
}

type cli struct {
	opts   globalOptions
	out    io.Writer
	prompt func(label string) (string, error)

	// codec overrides the codec built from kdf_level.
	codec *keyfile.Codec
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, prompt: readPassphrase}
}

func (c *cli) parser(options flags.Options) (*flags.Parser, error) {
	p := flags.NewParser(&c.opts, options)
	p.Name = "jadestore"
	p.SubcommandsOptional = true

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"list", "List accounts", "List the accounts in the keystore. Hidden accounts are shown with --all.", &listCommand{c: c}},
		{"new", "Create an account", "Generate a new secp256k1 key and store it under a passphrase.", &newCommand{c: c}},
		{"import", "Import a keyfile or raw private key", "Import a keyfile document or, with --raw, a hex private key read from FILE.", &importCommand{c: c}},
		{"export", "Export a keyfile", "Write the keyfile document of ADDRESS after verifying its passphrase.", &exportCommand{c: c}},
		{"rename", "Change account metadata", "Set the name or description of ADDRESS.", &renameCommand{c: c}},
		{"hide", "Hide an account", "Exclude ADDRESS from default listings.", &hideCommand{c: c, hidden: true}},
		{"unhide", "Unhide an account", "Include ADDRESS in default listings again.", &hideCommand{c: c}},
		{"passwd", "Change an account passphrase", "Re-encrypt ADDRESS under a new passphrase.", &passwdCommand{c: c}},
		{"delete", "Delete an account", "Remove ADDRESS from the keystore. Requires --yes.", &deleteCommand{c: c}},
		{"chains", "List supported chains", "Print the chain registry.", &chainsCommand{c: c}},
	}
	for _, cmd := range commands {
		if _, err := p.AddCommand(cmd.name, cmd.short, cmd.long, cmd.data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// run parses args and executes the selected command.
func (c *cli) run(args []string, options flags.Options) error {
	p, err := c.parser(options)
	if err != nil {
		return err
	}
	if _, err := p.ParseArgs(args); err != nil {
		return err
	}
	if p.Active == nil {
		if c.opts.Version {
			fmt.Fprintf(c.out, "jadestore %s\n", version.String())
			return nil
		}
		p.WriteHelp(c.out)
	}
	return nil
}

// open builds an account service over the configured storage. The returned
// function closes the storage.
func (c *cli) open() (*account.Service, func(), error) {
	cfg, err := util.LoadServerConfig(util.GetSignerDataDir(c.opts.DataDir))
	if err != nil {
		return nil, nil, err
	}
	if c.opts.Storage != "" {
		cfg.Storage = c.opts.Storage
	}
	typ, err := storage.ParseType(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	logger := util.NewCLILogger(os.Stderr, c.opts.Debug)

	codec := c.codec
	if codec == nil {
		level, err := crypto.ParseKdfLevel(cfg.KdfLevel)
		if err != nil {
			return nil, nil, err
		}
		codec = keyfile.NewCodec(level, cfg.KdfWorkers, logger)
	}

	ctrl, err := storage.NewController(cfg.BasePath, typ, logger)
	if err != nil {
		return nil, nil, err
	}
	svc := account.NewService(ctrl, codec, account.Config{
		Policy: account.Policy{
			MinLength:  cfg.MinPassphraseLength,
			MinClasses: cfg.MinPassphraseClasses,
		},
		AllowImportOverwrite: cfg.AllowImportOverwrite,
	}, slog.New(slog.DiscardHandler), nil)

	return svc, func() { _ = ctrl.Close() }, nil
}

func main() {
	err := newCLI(os.Stdout).run(os.Args[1:], flags.Default)
	if err == nil {
		return
	}
	var flagErr *flags.Error
	if errors.As(err, &flagErr) {
		if flagErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
