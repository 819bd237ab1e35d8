// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package signing produces secp256k1 signatures with keys held in the
// keystore: EIP-155 transactions, EIP-191 personal messages and EIP-712
// typed data.
//
// A key is decrypted for one call only and zeroed before the call returns,
// whatever the outcome.
package signing

import (
	"context"
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/jade-signer/jade-signer/internal/audit"
	"github.com/jade-signer/jade-signer/internal/auth"
	"github.com/jade-signer/jade-signer/internal/chain"
	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/storage"
)

// Kinds of signing request, as recorded in the audit log.
const (
	KindTransaction = "transaction"
	KindMessage     = "message"
	KindTypedData   = "typed_data"
)

// Service signs with stored keys.
type Service struct {
	ctrl   *storage.Controller
	codec  *keyfile.Codec
	logger *slog.Logger
	audit  audit.Recorder
}

// NewService wires a service. logger and rec may be nil.
func NewService(ctrl *storage.Controller, codec *keyfile.Codec, logger *slog.Logger, rec audit.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{ctrl: ctrl, codec: codec, logger: logger, audit: rec}
}

// SignTransaction signs tx for the given chain and returns the RLP encoded
// signed transaction. The chain id is required.
func (s *Service) SignTransaction(ctx context.Context, tx Transaction, chainID *uint64, passphrase string) ([]byte, error) {
	name, id, err := chain.Resolve(chainID)
	if err != nil {
		return nil, err
	}

	var out []byte
	err = s.withKey(ctx, tx.From, passphrase, func(priv *btcec.PrivateKey) error {
		hash, err := tx.SigningHash(id)
		if err != nil {
			return err
		}
		sig, err := signHash(priv, hash)
		if err != nil {
			return err
		}
		out, err = tx.encodeSigned(id, sig)
		return err
	})
	s.record(ctx, tx.From, name, KindTransaction, err)
	return out, err
}

// Sign signs msg as an EIP-191 personal message. The result is r || s || v
// with v in {27, 28}.
func (s *Service) Sign(ctx context.Context, addr keyfile.Address, msg []byte, passphrase string) ([]byte, error) {
	sig, err := s.signDigest(ctx, addr, passphrase, func() ([]byte, error) {
		return MessageHash(msg), nil
	})
	s.record(ctx, addr, "", KindMessage, err)
	return sig, err
}

// SignTypedData signs the EIP-712 digest of td. The result is r || s || v
// with v in {27, 28}.
func (s *Service) SignTypedData(ctx context.Context, addr keyfile.Address, td apitypes.TypedData, passphrase string) ([]byte, error) {
	sig, err := s.signDigest(ctx, addr, passphrase, func() ([]byte, error) {
		return TypedDataHash(td)
	})
	s.record(ctx, addr, "", KindTypedData, err)
	return sig, err
}

func (s *Service) signDigest(ctx context.Context, addr keyfile.Address, passphrase string, digest func() ([]byte, error)) ([]byte, error) {
	// Hash first so a malformed payload never costs a KDF run.
	hash, err := digest()
	if err != nil {
		return nil, err
	}

	var sig []byte
	err = s.withKey(ctx, addr, passphrase, func(priv *btcec.PrivateKey) error {
		var err error
		sig, err = signHash(priv, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// withKey runs fn with the decrypted key of addr. The storage read lock is
// held only to fetch the keyfile.
func (s *Service) withKey(ctx context.Context, addr keyfile.Address, passphrase string, fn func(*btcec.PrivateKey) error) error {
	var kf *keyfile.Keyfile
	err := s.ctrl.View(func(st storage.KeyfileStore) error {
		var err error
		kf, err = st.Get(addr)
		return err
	})
	if err != nil {
		return err
	}

	priv, err := s.codec.Unlock(ctx, kf, passphrase)
	if err != nil {
		return err
	}
	defer priv.Zero()

	return fn(priv)
}

func (s *Service) record(ctx context.Context, addr keyfile.Address, chainName, kind string, err error) {
	entry := audit.Entry{
		Event:     audit.SignApproved,
		Principal: auth.PrincipalFromContext(ctx),
		Address:   addr.String(),
		Chain:     chainName,
		Kind:      kind,
	}
	if err != nil {
		entry.Event = audit.SignFailed
		_, entry.Reason, _ = errmodel.Public(err)
		s.logger.Debug("signing failed", "address", addr.String(), "kind", kind, "category", entry.Reason)
	} else {
		s.logger.Info("signed", "address", addr.String(), "kind", kind, "chain", chainName)
	}
	s.audit.Log(entry)
}
