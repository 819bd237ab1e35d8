// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package chain holds the closed table of supported chains.
package chain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jade-signer/jade-signer/internal/errmodel"
)

// ID is an EIP-155 chain identifier. Only ids that fit in a byte are supported.
type ID uint8

var (
	// ErrMissingChainID is returned when an operation requires a chain and none was given.
	ErrMissingChainID = errmodel.New(errmodel.Validation, "missing chain id")

	// ErrInvalidChainID is returned for ids outside the table.
	ErrInvalidChainID = errmodel.New(errmodel.Validation, "invalid chain id")
)

var names = map[ID]string{
	1:  "eth",
	3:  "ropsten",
	4:  "rinkeby",
	5:  "goerli",
	42: "kovan",
	61: "etc",
	62: "morden",
	63: "mordor",
}

var ids = func() map[string]ID {
	m := make(map[string]ID, len(names))
	for id, name := range names {
		m[name] = id
	}
	return m
}()

// Chain is one entry of the table.
type Chain struct {
	ID   ID     `json:"chain_id"`
	Name string `json:"name"`
}

// NameFor returns the canonical name of id.
func NameFor(id ID) (string, bool) {
	name, ok := names[id]
	return name, ok
}

// IDFor returns the id of a canonical name. Names are case-insensitive.
func IDFor(name string) (ID, bool) {
	id, ok := ids[strings.ToLower(name)]
	return id, ok
}

// Resolve validates an optional wire chain id.
func Resolve(id *uint64) (string, ID, error) {
	if id == nil {
		return "", 0, ErrMissingChainID
	}
	if *id > math.MaxUint8 {
		return "", 0, fmt.Errorf("%w: %d", ErrInvalidChainID, *id)
	}
	name, ok := names[ID(*id)]
	if !ok {
		return "", 0, fmt.Errorf("%w: %d", ErrInvalidChainID, *id)
	}
	return name, ID(*id), nil
}

// Chains returns the table ordered by id.
func Chains() []Chain {
	out := make([]Chain, 0, len(names))
	for id, name := range names {
		out = append(out, Chain{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
