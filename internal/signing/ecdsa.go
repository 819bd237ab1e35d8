// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package signing

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

// SignatureLength is the size of an r || s || v signature.
const SignatureLength = 65

// ErrInvalidSignature is returned when a signature cannot be recovered.
var ErrInvalidSignature = errmodel.New(errmodel.Validation, "invalid signature")

// signHash signs a 32-byte digest. The result is r || s || recid with recid
// in {0, 1}; callers adjust v for their encoding.
//
// SignCompact uses RFC 6979 nonces and returns a low-S signature with a
// leading header byte of 27 + recid for uncompressed keys.
func signHash(priv *btcec.PrivateKey, hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	compact := ecdsa.SignCompact(priv, hash, false)

	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// RecoverAddress returns the address whose key produced sig over hash. v may
// be given as 0/1 or 27/28.
func RecoverAddress(hash, sig []byte) (keyfile.Address, error) {
	if len(sig) != SignatureLength {
		return keyfile.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return keyfile.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[64])
	}

	compact := make([]byte, SignatureLength)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return keyfile.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return keyfile.PubkeyToAddress(pub), nil
}
