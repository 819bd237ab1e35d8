// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/keyfile"
	"github.com/jade-signer/jade-signer/internal/signing"
)

// ErrInvalidDataFormat is returned when request params match neither the
// current nor the legacy shape of a method.
var ErrInvalidDataFormat = errmodel.New(errmodel.Validation, "invalid data format")

var errMissing = errors.New("missing")

// Every method accepts its positional params alone (legacy shape) or
// followed by one additional object (current shape). The current shape is
// tried first. A legacy request gets the zero additional object: no chain,
// hidden accounts excluded, no passphrase, no hd path.

// additional is the trailing options object. Each method reads only the
// members it documents.
type additional struct {
	ChainID    *uint64
	ShowHidden bool
	HDPath     string
	Passphrase string
}

// normalize splits raw params into exactly len(names) positional elements
// and the additional object.
func normalize(raw json.RawMessage, names ...string) ([]json.RawMessage, additional, error) {
	var add additional

	elems, err := splitParams(raw)
	if err != nil {
		return nil, add, err
	}

	n := len(names)
	switch len(elems) {
	case n + 1:
		var chainID *quantity
		err := decodeObject(elems, n, "additional", map[string]any{
			"chain_id":    &chainID,
			"show_hidden": &add.ShowHidden,
			"hd_path":     &add.HDPath,
			"passphrase":  &add.Passphrase,
		})
		if err != nil {
			return nil, add, err
		}
		if chainID != nil {
			v := uint64(*chainID)
			add.ChainID = &v
		}
		return elems[:n], add, nil
	case n:
		return elems, add, nil
	default:
		return nil, add, fmt.Errorf("%w: expected %d or %d params, got %d", ErrInvalidDataFormat, n, n+1, len(elems))
	}
}

// splitParams returns the elements of a params array. Absent and null
// params are the empty array.
func splitParams(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: params must be an array", ErrInvalidDataFormat)
	}
	return elems, nil
}

func fieldError(i int, name string) error {
	return fmt.Errorf("%w: params[%d] (%s)", ErrInvalidDataFormat, i, name)
}

// decodeAt decodes elems[i] into v.
func decodeAt(elems []json.RawMessage, i int, name string, v any) error {
	if err := json.Unmarshal(elems[i], v); err != nil {
		return fieldError(i, name)
	}
	return nil
}

// decodeObject decodes the members of the object elems[i] into the targets
// keyed by member name. Absent members keep their zero value and unknown
// members are ignored. A failure names the member.
func decodeObject(elems []json.RawMessage, i int, name string, targets map[string]any) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(elems[i], &members); err != nil {
		return fieldError(i, name)
	}

	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := members[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, targets[k]); err != nil {
			return fieldError(i, name+"."+k)
		}
	}
	return nil
}

// quantity is a uint64 given as a JSON number, a decimal string or a 0x
// hex string.
type quantity uint64

func (q *quantity) UnmarshalJSON(b []byte) error {
	v, ok := math.ParseUint64(strings.Trim(string(b), `"`))
	if !ok {
		return fmt.Errorf("invalid quantity %s", b)
	}
	*q = quantity(v)
	return nil
}

// bigQuantity is an unsigned 256-bit integer in the same forms as quantity.
type bigQuantity big.Int

func (q *bigQuantity) UnmarshalJSON(b []byte) error {
	v, ok := math.ParseBig256(strings.Trim(string(b), `"`))
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid quantity %s", b)
	}
	*q = bigQuantity(*v)
	return nil
}

func (q *bigQuantity) int() *big.Int {
	if q == nil {
		return nil
	}
	return (*big.Int)(q)
}

// hexData is 0x prefixed hex. An empty string is no data.
type hexData []byte

func (h *hexData) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*h = nil
		return nil
	}
	v, err := hexutil.Decode(s)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

type listAccountsParams struct {
	ChainID    *uint64
	ShowHidden bool
	HDPath     string
}

func parseListAccounts(raw json.RawMessage) (listAccountsParams, error) {
	_, add, err := normalize(raw)
	if err != nil {
		return listAccountsParams{}, err
	}
	return listAccountsParams{ChainID: add.ChainID, ShowHidden: add.ShowHidden, HDPath: add.HDPath}, nil
}

type newAccountParams struct {
	Name        string
	Description string
	Passphrase  string
	ChainID     *uint64
}

func parseNewAccount(raw json.RawMessage) (newAccountParams, error) {
	var p newAccountParams
	elems, add, err := normalize(raw, "account")
	if err != nil {
		return p, err
	}
	var pass *string
	err = decodeObject(elems, 0, "account", map[string]any{
		"name":        &p.Name,
		"description": &p.Description,
		"passphrase":  &pass,
	})
	if err != nil {
		return p, err
	}
	if pass == nil {
		return p, fieldError(0, "account.passphrase")
	}
	p.Passphrase = *pass
	p.ChainID = add.ChainID
	return p, nil
}

// importAccountParams carries either a keyfile document or a raw key.
type importAccountParams struct {
	Keyfile *keyfile.Keyfile

	PrivateKey  []byte
	Name        string
	Description string

	// Passphrase encrypts a raw key, or proves ownership of a document.
	Passphrase string
	ChainID    *uint64
}

func parseImportAccount(raw json.RawMessage) (importAccountParams, error) {
	var p importAccountParams
	elems, add, err := normalize(raw, "keyfile")
	if err != nil {
		return p, err
	}
	p.ChainID = add.ChainID

	var probe map[string]json.RawMessage
	if err := decodeAt(elems, 0, "keyfile", &probe); err != nil {
		return p, err
	}

	if _, ok := probe["private_key"]; !ok {
		kf, err := keyfile.Parse(elems[0])
		if err != nil {
			return p, fmt.Errorf("%w: params[0] (keyfile): %w", ErrInvalidDataFormat, err)
		}
		p.Keyfile = kf
		p.Passphrase = add.Passphrase
		return p, nil
	}

	var key hexData
	err = decodeObject(elems, 0, "keyfile", map[string]any{
		"private_key": &key,
		"passphrase":  &p.Passphrase,
		"name":        &p.Name,
		"description": &p.Description,
	})
	if err != nil {
		return p, err
	}
	if len(key) == 0 {
		return p, fieldError(0, "keyfile.private_key")
	}
	p.PrivateKey = key
	return p, nil
}

// accountParams is the positional object shared by the account methods
// that target one address.
type accountParams struct {
	Address       keyfile.Address
	Passphrase    string
	Name          *string
	Description   *string
	OldPassphrase string
	NewPassphrase string
	ChainID       *uint64
}

// parseAccount decodes [{address, ...members}] (+ additional). Only the
// listed members are read.
func parseAccount(raw json.RawMessage, members ...string) (accountParams, error) {
	var p accountParams
	elems, add, err := normalize(raw, "account")
	if err != nil {
		return p, err
	}

	var addr *keyfile.Address
	all := map[string]any{
		"address":        &addr,
		"passphrase":     &p.Passphrase,
		"name":           &p.Name,
		"description":    &p.Description,
		"old_passphrase": &p.OldPassphrase,
		"new_passphrase": &p.NewPassphrase,
	}
	targets := map[string]any{"address": all["address"]}
	for _, m := range members {
		targets[m] = all[m]
	}
	if err := decodeObject(elems, 0, "account", targets); err != nil {
		return p, err
	}
	if addr == nil {
		return p, fieldError(0, "account.address")
	}
	p.Address = *addr
	p.ChainID = add.ChainID
	return p, nil
}

type signTransactionParams struct {
	Tx         signing.Transaction
	Passphrase string
	ChainID    *uint64
	HDPath     string
}

func parseSignTransaction(raw json.RawMessage) (signTransactionParams, error) {
	var p signTransactionParams
	elems, add, err := normalize(raw, "transaction", "passphrase")
	if err != nil {
		return p, err
	}

	var (
		from            *keyfile.Address
		gas, nonce      quantity
		gasPrice, value *bigQuantity
		data            hexData
	)
	err = decodeObject(elems, 0, "transaction", map[string]any{
		"from":     &from,
		"to":       &p.Tx.To,
		"gas":      &gas,
		"gasPrice": &gasPrice,
		"value":    &value,
		"data":     &data,
		"nonce":    &nonce,
	})
	if err != nil {
		return p, err
	}
	if from == nil {
		return p, fieldError(0, "transaction.from")
	}
	if err := decodeAt(elems, 1, "passphrase", &p.Passphrase); err != nil {
		return p, err
	}

	p.Tx.From = *from
	p.Tx.Gas = uint64(gas)
	p.Tx.GasPrice = gasPrice.int()
	p.Tx.Value = value.int()
	p.Tx.Data = data
	p.Tx.Nonce = uint64(nonce)
	p.ChainID = add.ChainID
	p.HDPath = add.HDPath
	return p, nil
}

type signParams struct {
	Data       []byte
	Address    keyfile.Address
	Passphrase string
	ChainID    *uint64
}

func parseSign(raw json.RawMessage) (signParams, error) {
	var p signParams
	elems, add, err := normalize(raw, "data", "address", "passphrase")
	if err != nil {
		return p, err
	}

	var data string
	if err := decodeAt(elems, 0, "data", &data); err != nil {
		return p, err
	}
	if strings.HasPrefix(data, "0x") || strings.HasPrefix(data, "0X") {
		if p.Data, err = hexutil.Decode(data); err != nil {
			return p, fieldError(0, "data")
		}
	} else {
		p.Data = []byte(data)
	}

	if err := decodeAt(elems, 1, "address", &p.Address); err != nil {
		return p, err
	}
	if err := decodeAt(elems, 2, "passphrase", &p.Passphrase); err != nil {
		return p, err
	}
	p.ChainID = add.ChainID
	return p, nil
}

type signTypedDataParams struct {
	Address    keyfile.Address
	TypedData  apitypes.TypedData
	Passphrase string
	ChainID    *uint64
}

func parseSignTypedData(raw json.RawMessage) (signTypedDataParams, error) {
	var p signTypedDataParams
	elems, add, err := normalize(raw, "address", "typed_data", "passphrase")
	if err != nil {
		return p, err
	}
	if err := decodeAt(elems, 0, "address", &p.Address); err != nil {
		return p, err
	}
	if err := decodeAt(elems, 1, "typed_data", &p.TypedData); err != nil {
		return p, err
	}
	if err := decodeAt(elems, 2, "passphrase", &p.Passphrase); err != nil {
		return p, err
	}
	p.ChainID = add.ChainID
	return p, nil
}

type importContractParams struct {
	Address keyfile.Address
	Name    string
	ABI     json.RawMessage
	ChainID *uint64
}

func parseImportContract(raw json.RawMessage) (importContractParams, error) {
	var p importContractParams
	elems, add, err := normalize(raw, "contract")
	if err != nil {
		return p, err
	}
	var addr *keyfile.Address
	err = decodeObject(elems, 0, "contract", map[string]any{
		"address": &addr,
		"name":    &p.Name,
		"abi":     &p.ABI,
	})
	if err != nil {
		return p, err
	}
	if addr == nil {
		return p, fieldError(0, "contract.address")
	}
	p.Address = *addr
	p.ChainID = add.ChainID
	return p, nil
}

// parseChainOnly decodes [] or [additional] and returns the chain id.
func parseChainOnly(raw json.RawMessage) (*uint64, error) {
	_, add, err := normalize(raw)
	return add.ChainID, err
}
