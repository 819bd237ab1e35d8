// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package keyfile

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/sync/semaphore"

	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/errmodel"
)

var (
	// ErrInvalidPassphrase is returned for every decrypt failure. Wrong
	// passphrases and corrupt envelopes are not distinguished to callers.
	ErrInvalidPassphrase = errmodel.New(errmodel.InvalidPassphrase, "invalid passphrase")

	// ErrHardwareAccount is returned when key material is requested for an
	// account whose key is held by an external signer.
	ErrHardwareAccount = errmodel.New(errmodel.HardwareAccount, "hardware account has no local key material")

	// ErrAddressMismatch is returned when a decrypted key does not belong to
	// the keyfile's address.
	ErrAddressMismatch = errmodel.New(errmodel.Store, "keyfile address does not match its key")
)

// errMalformed marks envelope problems found during decrypt. It never leaves
// this package.
var errMalformed = errors.New("malformed envelope")

// Codec seals and opens keyfile envelopes. KDF work is bounded by a weighted
// semaphore so memory-hard derivations cannot exhaust the host.
type Codec struct {
	params crypto.Argon2Params
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewCodec returns a codec writing envelopes at level. workers limits
// concurrent KDF derivations; zero or less means runtime.NumCPU().
func NewCodec(level crypto.KdfLevel, workers int, logger *slog.Logger) *Codec {
	return NewCodecWithParams(level.Params(), workers, logger)
}

// NewCodecWithParams returns a codec with explicit Argon2id parameters.
func NewCodecWithParams(params crypto.Argon2Params, workers int, logger *slog.Logger) *Codec {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{
		params: params,
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}
}

// Encrypt seals key under passphrase with a fresh salt and nonce.
func (c *Codec) Encrypt(ctx context.Context, key []byte, passphrase string) (*CryptoEnvelope, error) {
	salt, err := crypto.RandomBytes(32)
	if err != nil {
		return nil, err
	}
	nonce, err := crypto.RandomBytes(crypto.GCMNonceSize)
	if err != nil {
		return nil, err
	}

	dk, err := c.derive(ctx, passphrase, func(pass []byte) ([]byte, error) {
		return crypto.DeriveArgon2id(pass, salt, c.params), nil
	})
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(dk)

	ct, tag, err := crypto.SealGCM(dk, nonce, key)
	if err != nil {
		return nil, fmt.Errorf("failed to seal key: %w", err)
	}

	return &CryptoEnvelope{
		Cipher:       CipherAES256GCM,
		CipherText:   ct,
		CipherParams: CipherParams{IV: nonce},
		KDF:          crypto.KdfArgon2id,
		KDFParams: KDFParams{
			DKLen: int(c.params.KeyLen),
			Salt:  salt,
			T:     c.params.Time,
			M:     c.params.MemoryKiB,
			P:     int(c.params.Threads),
		},
		MAC: tag,
	}, nil
}

// Decrypt opens env with passphrase. The caller must Destroy the result.
func (c *Codec) Decrypt(ctx context.Context, env *CryptoEnvelope, passphrase string) (*crypto.SecureBytes, error) {
	key, err := c.decrypt(ctx, env, passphrase)
	if err == nil {
		return crypto.NewSecureBytes(key), nil
	}

	switch {
	case errors.Is(err, crypto.ErrAuthFailed):
		c.logger.Debug("keyfile decrypt failed", "reason", "mac mismatch")
	case errors.Is(err, errMalformed):
		c.logger.Warn("keyfile decrypt failed", "reason", "malformed envelope", "error", err)
	default:
		// context cancellation while waiting for a KDF slot
		return nil, err
	}
	return nil, ErrInvalidPassphrase
}

// Unlock decrypts the key of kf and checks it belongs to kf.Address. The
// caller must zero the returned key.
func (c *Codec) Unlock(ctx context.Context, kf *Keyfile, passphrase string) (*btcec.PrivateKey, error) {
	if kf.Hardware || kf.Crypto == nil {
		return nil, ErrHardwareAccount
	}

	sb, err := c.Decrypt(ctx, kf.Crypto, passphrase)
	if err != nil {
		return nil, err
	}
	defer sb.Destroy()

	var priv *btcec.PrivateKey
	err = sb.WithBytes(func(b []byte) error {
		var perr error
		priv, perr = ParsePrivateKey(b)
		return perr
	})
	if err != nil {
		c.logger.Warn("keyfile holds an invalid key", "address", kf.Address.String())
		return nil, fmt.Errorf("%w: %s", ErrAddressMismatch, kf.Address)
	}

	if PubkeyToAddress(priv.PubKey()) != kf.Address {
		priv.Zero()
		c.logger.Warn("keyfile key does not match address", "address", kf.Address.String())
		return nil, fmt.Errorf("%w: %s", ErrAddressMismatch, kf.Address)
	}
	return priv, nil
}

func (c *Codec) decrypt(ctx context.Context, env *CryptoEnvelope, passphrase string) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: missing", errMalformed)
	}
	if err := env.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	p := env.KDFParams

	dk, err := c.derive(ctx, passphrase, func(pass []byte) ([]byte, error) {
		switch env.KDF {
		case crypto.KdfArgon2id:
			return crypto.DeriveArgon2id(pass, p.Salt, crypto.Argon2Params{
				Time: p.T, MemoryKiB: p.M, Threads: uint8(p.P), KeyLen: uint32(p.DKLen),
			}), nil
		case crypto.KdfScrypt:
			return crypto.DeriveScrypt(pass, p.Salt, p.N, p.R, p.P, p.DKLen)
		default:
			return crypto.DerivePBKDF2(pass, p.Salt, p.C, p.DKLen), nil
		}
	})
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(dk)

	if env.Cipher == CipherAES256GCM {
		key, err := crypto.OpenGCM(dk, env.CipherParams.IV, env.CipherText, env.MAC)
		if err != nil && !errors.Is(err, crypto.ErrAuthFailed) {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		return key, err
	}

	mac := crypto.Keccak256(dk[16:32], env.CipherText)
	if subtle.ConstantTimeCompare(mac, env.MAC) != 1 {
		return nil, crypto.ErrAuthFailed
	}
	key, err := crypto.AESCTR(dk[:16], env.CipherParams.IV, env.CipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return key, nil
}

// derive runs fn on an owned copy of the passphrase while holding a KDF slot.
// The copy is zeroed as soon as fn returns.
func (c *Codec) derive(ctx context.Context, passphrase string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for kdf worker: %w", err)
	}
	defer c.sem.Release(1)

	pass := []byte(passphrase)
	defer crypto.ZeroBytes(pass)

	dk, err := fn(pass)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return dk, nil
}
