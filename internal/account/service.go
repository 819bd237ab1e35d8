// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package account implements the account lifecycle: list, create, import,
// export, metadata updates, hide/unhide and passphrase rotation.
//
// All storage access goes through the storage.Controller. Operations that
// read then write a keyfile do both inside one Update so no other request
// can interleave.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"

	"github.com/jade-signer/jade-signer/internal/audit"
	"github.com/jade-signer/jade-signer/internal/auth"
	"github.com/jade-signer/jade-signer/internal/chain"
	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/storage"
)

var (
	// ErrDuplicateAddress is returned when an import targets an address that
	// already has a keyfile and overwriting is not allowed.
	ErrDuplicateAddress = errmodel.New(errmodel.DuplicateAddress, "account already exists")

	// ErrInvalidImport is returned when an import request carries neither or
	// both of a keyfile document and a raw key.
	ErrInvalidImport = errmodel.New(errmodel.Validation, "import requires exactly one of keyfile or private key")
)

// Config holds the policy inputs of the service.
type Config struct {
	Policy Policy

	// AllowImportOverwrite lets an import replace an existing account.
	// Off by default: an import could otherwise silently swap the key
	// behind an address.
	AllowImportOverwrite bool
}

// Service implements the account operations.
type Service struct {
	ctrl   *storage.Controller
	codec  *keyfile.Codec
	cfg    Config
	logger *slog.Logger
	audit  audit.Recorder
}

// NewService wires a service. logger and rec may be nil.
func NewService(ctrl *storage.Controller, codec *keyfile.Codec, cfg Config, logger *slog.Logger, rec audit.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{ctrl: ctrl, codec: codec, cfg: cfg, logger: logger, audit: rec}
}

// ListRequest filters ListAccounts.
type ListRequest struct {
	// ChainID is optional. When set it must name a known chain. Keyfiles
	// are valid on every chain, so it does not narrow the result.
	ChainID    *uint64
	ShowHidden bool
}

// ListAccounts returns account metadata ordered by address.
func (s *Service) ListAccounts(ctx context.Context, req ListRequest) ([]keyfile.Summary, error) {
	if req.ChainID != nil {
		if _, _, err := chain.Resolve(req.ChainID); err != nil {
			return nil, err
		}
	}

	var out []keyfile.Summary
	err := s.ctrl.View(func(st storage.KeyfileStore) error {
		var err error
		out, err = st.List(storage.Filter{ShowHidden: req.ShowHidden})
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []keyfile.Summary{}
	}
	return out, nil
}

// CreateRequest describes a new account.
type CreateRequest struct {
	Name        string
	Description string
	Passphrase  string
}

// CreateAccount generates a key, encrypts it under the passphrase and
// stores it.
func (s *Service) CreateAccount(ctx context.Context, req CreateRequest) (keyfile.Address, error) {
	if err := s.cfg.Policy.Check(req.Passphrase); err != nil {
		return keyfile.Address{}, err
	}

	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return keyfile.Address{}, fmt.Errorf("failed to generate key: %w", err)
	}
	defer priv.Zero()

	kf, err := s.seal(ctx, priv, req.Passphrase)
	if err != nil {
		return keyfile.Address{}, err
	}
	kf.Name = req.Name
	kf.Description = req.Description

	err = s.ctrl.Update(func(st storage.KeyfileStore) error {
		return st.Put(kf)
	})
	if err != nil {
		return keyfile.Address{}, err
	}

	s.logger.Info("account created", "address", kf.Address.String())
	s.audit.Log(audit.Entry{Event: audit.AccountCreated, Principal: auth.PrincipalFromContext(ctx), Address: kf.Address.String()})
	return kf.Address, nil
}

// ImportRequest carries either an existing keyfile document or a raw
// private key. Exactly one must be set.
type ImportRequest struct {
	// Keyfile is imported as-is, keeping its own KDF parameters. If
	// Passphrase is set the document must decrypt with it.
	Keyfile *keyfile.Keyfile

	// PrivateKey is encrypted under Passphrase at the current KDF level.
	// The caller keeps ownership and zeroes it.
	PrivateKey []byte

	// Name and Description override the document's values when non-empty.
	Name        string
	Description string
	Passphrase  string
}

// ImportAccount stores an existing key.
func (s *Service) ImportAccount(ctx context.Context, req ImportRequest) (keyfile.Address, error) {
	if (req.Keyfile == nil) == (req.PrivateKey == nil) {
		return keyfile.Address{}, ErrInvalidImport
	}

	var (
		kf  *keyfile.Keyfile
		err error
	)
	if req.PrivateKey != nil {
		kf, err = s.importRaw(ctx, req)
	} else {
		kf, err = s.importDocument(ctx, req)
	}
	if err != nil {
		return keyfile.Address{}, err
	}

	var replaced bool
	err = s.ctrl.Update(func(st storage.KeyfileStore) error {
		_, err := st.Get(kf.Address)
		switch {
		case err == nil:
			if !s.cfg.AllowImportOverwrite {
				return fmt.Errorf("%w: %s", ErrDuplicateAddress, kf.Address)
			}
			replaced = true
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		return st.Put(kf)
	})
	if err != nil {
		return keyfile.Address{}, err
	}

	s.logger.Info("account imported", "address", kf.Address.String(), "hardware", kf.Hardware, "replaced", replaced)
	entry := audit.Entry{Event: audit.AccountImported, Principal: auth.PrincipalFromContext(ctx), Address: kf.Address.String()}
	if replaced {
		entry.Reason = "replaced existing keyfile"
	}
	s.audit.Log(entry)
	return kf.Address, nil
}

func (s *Service) importRaw(ctx context.Context, req ImportRequest) (*keyfile.Keyfile, error) {
	if err := s.cfg.Policy.Check(req.Passphrase); err != nil {
		return nil, err
	}
	priv, err := keyfile.ParsePrivateKey(req.PrivateKey)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	kf, err := s.seal(ctx, priv, req.Passphrase)
	if err != nil {
		return nil, err
	}
	kf.Name = req.Name
	kf.Description = req.Description
	return kf, nil
}

func (s *Service) importDocument(ctx context.Context, req ImportRequest) (*keyfile.Keyfile, error) {
	kf := req.Keyfile.Clone()
	if err := kf.Validate(); err != nil {
		return nil, err
	}
	if kf.ID == uuid.Nil {
		kf.ID = uuid.New()
	}
	if req.Name != "" {
		kf.Name = req.Name
	}
	if req.Description != "" {
		kf.Description = req.Description
	}

	if req.Passphrase != "" && !kf.Hardware {
		priv, err := s.codec.Unlock(ctx, kf, req.Passphrase)
		if err != nil {
			return nil, err
		}
		priv.Zero()
	}
	return kf, nil
}

// ExportAccount returns the stored document of addr. The passphrase must
// decrypt it even though the result stays encrypted, so that only a caller
// who could use the key can take a copy.
func (s *Service) ExportAccount(ctx context.Context, addr keyfile.Address, passphrase string) (*keyfile.Keyfile, error) {
	kf, err := s.get(addr)
	if err == nil {
		var priv *btcec.PrivateKey
		priv, err = s.codec.Unlock(ctx, kf, passphrase)
		if err == nil {
			priv.Zero()
		}
	}

	entry := audit.Entry{Event: audit.AccountExported, Principal: auth.PrincipalFromContext(ctx), Address: addr.String()}
	if err != nil {
		_, entry.Reason, _ = errmodel.Public(err)
		s.audit.Log(entry)
		return nil, err
	}
	s.audit.Log(entry)
	s.logger.Info("account exported", "address", addr.String())
	return kf, nil
}

// UpdateAccount changes display metadata. Nil fields are left unchanged.
func (s *Service) UpdateAccount(ctx context.Context, addr keyfile.Address, name, description *string) error {
	return s.ctrl.Update(func(st storage.KeyfileStore) error {
		kf, err := st.Get(addr)
		if err != nil {
			return err
		}
		if name == nil && description == nil {
			return nil
		}
		if name != nil {
			kf.Name = *name
		}
		if description != nil {
			kf.Description = *description
		}
		return st.Put(kf)
	})
}

// HideAccount excludes addr from default listings. Idempotent.
func (s *Service) HideAccount(ctx context.Context, addr keyfile.Address) error {
	return s.setHidden(addr, true)
}

// UnhideAccount reverses HideAccount. Idempotent.
func (s *Service) UnhideAccount(ctx context.Context, addr keyfile.Address) error {
	return s.setHidden(addr, false)
}

func (s *Service) setHidden(addr keyfile.Address, hidden bool) error {
	return s.ctrl.Update(func(st storage.KeyfileStore) error {
		return st.SetHidden(addr, hidden)
	})
}

// ShakeAccount re-encrypts the key of addr under a new passphrase at the
// current KDF level. Decrypt, re-encrypt and store happen under one write
// lock; the store replaces the record atomically, so a failure at any point
// leaves the old envelope in place.
func (s *Service) ShakeAccount(ctx context.Context, addr keyfile.Address, oldPassphrase, newPassphrase string) error {
	if err := s.cfg.Policy.Check(newPassphrase); err != nil {
		return err
	}

	err := s.ctrl.Update(func(st storage.KeyfileStore) error {
		kf, err := st.Get(addr)
		if err != nil {
			return err
		}
		priv, err := s.codec.Unlock(ctx, kf, oldPassphrase)
		if err != nil {
			return err
		}
		defer priv.Zero()

		key := priv.Serialize()
		defer crypto.ZeroBytes(key)

		env, err := s.codec.Encrypt(ctx, key, newPassphrase)
		if err != nil {
			return err
		}
		kf.Crypto = env
		return st.Put(kf)
	})

	entry := audit.Entry{Event: audit.AccountRekeyed, Principal: auth.PrincipalFromContext(ctx), Address: addr.String()}
	if err != nil {
		_, entry.Reason, _ = errmodel.Public(err)
		s.audit.Log(entry)
		return err
	}
	s.audit.Log(entry)
	s.logger.Info("account rekeyed", "address", addr.String())
	return nil
}

// DeleteAccount removes addr. Not exposed over RPC.
func (s *Service) DeleteAccount(ctx context.Context, addr keyfile.Address) error {
	err := s.ctrl.Update(func(st storage.KeyfileStore) error {
		return st.Delete(addr)
	})
	if err != nil {
		return err
	}
	s.logger.Info("account deleted", "address", addr.String())
	s.audit.Log(audit.Entry{Event: audit.AccountDeleted, Principal: auth.PrincipalFromContext(ctx), Address: addr.String()})
	return nil
}

func (s *Service) get(addr keyfile.Address) (*keyfile.Keyfile, error) {
	var kf *keyfile.Keyfile
	err := s.ctrl.View(func(st storage.KeyfileStore) error {
		var err error
		kf, err = st.Get(addr)
		return err
	})
	return kf, err
}

// seal builds a new keyfile for priv encrypted under passphrase.
func (s *Service) seal(ctx context.Context, priv *btcec.PrivateKey, passphrase string) (*keyfile.Keyfile, error) {
	key := priv.Serialize()
	defer crypto.ZeroBytes(key)

	env, err := s.codec.Encrypt(ctx, key, passphrase)
	if err != nil {
		return nil, err
	}
	return &keyfile.Keyfile{
		Version: keyfile.Version,
		ID:      uuid.New(),
		Address: keyfile.PubkeyToAddress(priv.PubKey()),
		Crypto:  env,
	}, nil
}
