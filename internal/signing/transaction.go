// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package signing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/jade-signer/jade-signer/internal/chain"
	"github.com/jade-signer/jade-signer/internal/crypto"
	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/keyfile"
)

// ErrInvalidTransaction is returned for transactions that cannot be encoded.
var ErrInvalidTransaction = errmodel.New(errmodel.Validation, "invalid transaction")

// Transaction is a legacy (pre-typed) transaction. A nil To creates a
// contract.
type Transaction struct {
	From     keyfile.Address
	To       *keyfile.Address
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Data     []byte
	Nonce    uint64
}

func (tx *Transaction) validate() error {
	for name, v := range map[string]*big.Int{"gasPrice": tx.GasPrice, "value": tx.Value} {
		if v != nil && v.Sign() < 0 {
			return fmt.Errorf("%w: negative %s", ErrInvalidTransaction, name)
		}
	}
	return nil
}

// fields returns the six payload fields in RLP order.
func (tx *Transaction) fields() []any {
	var to []byte
	if tx.To != nil {
		to = tx.To[:]
	}
	return []any{
		tx.Nonce,
		orZero(tx.GasPrice),
		tx.Gas,
		to,
		orZero(tx.Value),
		tx.Data,
	}
}

// SigningHash returns the EIP-155 digest of tx for chain id.
func (tx *Transaction) SigningHash(id chain.ID) ([]byte, error) {
	if err := tx.validate(); err != nil {
		return nil, err
	}
	payload := append(tx.fields(), new(big.Int).SetUint64(uint64(id)), uint(0), uint(0))
	enc, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return crypto.Keccak256(enc), nil
}

// encodeSigned returns the RLP of tx with an EIP-155 signature. sig is
// r || s || recid.
func (tx *Transaction) encodeSigned(id chain.ID, sig []byte) ([]byte, error) {
	v := new(big.Int).SetUint64(uint64(sig[64]) + 2*uint64(id) + 35)
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])

	enc, err := rlp.EncodeToBytes(append(tx.fields(), v, r, s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return enc, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
