// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/audit"
	"github.com/jade-signer/jade-signer/internal/auth"
	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/rpc"
	"github.com/jade-signer/jade-signer/internal/security"
	"github.com/jade-signer/jade-signer/internal/signing"
	"github.com/jade-signer/jade-signer/internal/storage"
	"github.com/jade-signer/jade-signer/internal/util"
	"github.com/jade-signer/jade-signer/internal/version"
)

const shutdownTimeout = 5 * time.Second

type daemon struct {
	cfg      util.ServerConfig
	logger   *slog.Logger
	ctrl     *storage.Controller
	audit    audit.Recorder
	auditLog *audit.Logger
	server   *rpc.Server
}

// newDaemon opens storage and wires the services. harden applies the
// process memory protections; tests leave it off.
func newDaemon(cfg util.ServerConfig, logger *slog.Logger, harden bool) (*daemon, error) {
	d := &daemon{cfg: cfg, logger: logger, audit: audit.Nop{}}

	if harden {
		st, err := security.Harden(logger, cfg.RequireMemoryProtection)
		if err != nil {
			return nil, fmt.Errorf("memory protection required: %w", err)
		}
		logger.Info("memory protection", "locked", st.MemoryLocked, "core_dumps_disabled", st.CoreDumpsDisabled)
	}

	level, err := crypto.ParseKdfLevel(cfg.KdfLevel)
	if err != nil {
		return nil, err
	}
	typ, err := storage.ParseType(cfg.Storage)
	if err != nil {
		return nil, err
	}

	if cfg.AuditLog != "" {
		d.auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return nil, err
		}
		d.audit = d.auditLog
	}

	d.ctrl, err = storage.NewController(cfg.BasePath, typ, logger)
	if err != nil {
		d.close()
		return nil, err
	}

	authn, err := d.authenticator()
	if err != nil {
		d.close()
		return nil, err
	}

	known := rpc.MethodNames()
	for _, m := range cfg.DisabledMethods {
		if !slices.Contains(known, m) {
			logger.Warn("disabled_methods names an unknown method", "method", m)
		}
	}

	codec := keyfile.NewCodec(level, cfg.KdfWorkers, logger)
	accounts := account.NewService(d.ctrl, codec, account.Config{
		Policy: account.Policy{
			MinLength:  cfg.MinPassphraseLength,
			MinClasses: cfg.MinPassphraseClasses,
		},
		AllowImportOverwrite: cfg.AllowImportOverwrite,
	}, logger, d.audit)
	signer := signing.NewService(d.ctrl, codec, logger, d.audit)

	d.server = rpc.NewServer(accounts, signer, d.ctrl, rpc.Config{
		CORSOrigins:   cfg.CORSOrigins,
		Authenticator: authn,
		Authorizer:    auth.NewMethodAuthorizer(cfg.DisabledMethods),
		Metrics:       cfg.Metrics,
		Audit:         d.audit,
	}, logger)

	logger.Info("signer initialized",
		"version", version.Version,
		"storage", d.ctrl.Type(),
		"base_path", cfg.BasePath,
		"kdf_level", level,
		"auth", authn.Method())
	return d, nil
}

func (d *daemon) authenticator() (auth.Authenticator, error) {
	if d.cfg.APITokenFile == "" {
		d.logger.Warn("api_token_file not set, requests are not authenticated")
		return auth.NoAuth{}, nil
	}
	token, created, err := util.LoadOrCreateToken(d.cfg.APITokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load API token: %w", err)
	}
	if created {
		d.logger.Info("generated API token", "path", d.cfg.APITokenFile)
	}
	return auth.NewTokenAuthenticator(token), nil
}

// run serves until ctx is done, then drains in-flight requests.
func (d *daemon) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Listen, err)
	}
	return d.serve(ctx, ln)
}

func (d *daemon) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           d.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if d.cfg.WatchKeystore {
		if err := storage.Watch(gctx, d.ctrl, func() {
			d.audit.Log(audit.Entry{Event: audit.KeystoreReload, KeyCount: d.keyCount()})
		}); err != nil {
			d.logger.Warn("keystore watcher disabled", "error", err)
		}
	}

	g.Go(func() error {
		d.logger.Info("JSON-RPC listening", "addr", ln.Addr().String())
		d.audit.Log(audit.Entry{Event: audit.ServerStart, RemoteAddr: ln.Addr().String(), KeyCount: d.keyCount()})
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		d.audit.Log(audit.Entry{Event: audit.ServerStop})
		return err
	})
	return g.Wait()
}

// keyCount returns the number of stored keyfiles, hidden ones included.
func (d *daemon) keyCount() int {
	var n int
	err := d.ctrl.View(func(s storage.KeyfileStore) error {
		list, err := s.List(storage.Filter{ShowHidden: true})
		n = len(list)
		return err
	})
	if err != nil {
		d.logger.Warn("failed to count keyfiles", "error", err)
	}
	return n
}

func (d *daemon) close() {
	if d.ctrl != nil {
		if err := d.ctrl.Close(); err != nil {
			d.logger.Warn("failed to close storage", "error", err)
		}
	}
	if d.auditLog != nil {
		_ = d.auditLog.Close()
	}
}
