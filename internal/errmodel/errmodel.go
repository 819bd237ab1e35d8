// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package errmodel maps failures from every layer of the signer onto a small
// outward taxonomy with stable codes.
//
// Packages keep their own sentinel errors and wrap them with %w as usual.
// A sentinel is classified by building it with New, so errors.As finds the
// kind through any number of wrapping layers.
package errmodel

import (
	"errors"
	"fmt"
)

// Kind is the outward error category.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	InvalidPassphrase
	Store
	WeakPassphrase
	StorageInit
	HardwareAccount
	DuplicateAddress
)

var kindInfo = map[Kind]struct {
	category string
	code     int
}{
	Internal:          {"internal", -32603},
	Validation:        {"validation", -32602},
	NotFound:          {"not_found", -32010},
	InvalidPassphrase: {"invalid_passphrase", -32011},
	WeakPassphrase:    {"weak_passphrase", -32012},
	DuplicateAddress:  {"duplicate_address", -32013},
	HardwareAccount:   {"hardware_account", -32014},
	StorageInit:       {"storage_init", -32015},
	Store:             {"store", -32016},
}

// Category returns the stable category string of the kind.
func (k Kind) Category() string {
	return kindInfo[k].category
}

// Code returns the JSON-RPC error code of the kind.
func (k Kind) Code() int {
	return kindInfo[k].code
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.category
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Msg  string
}

// New returns a classified error. Use it to declare package sentinels.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	return e.Msg
}

// KindOf returns the kind of the first classified error in err's chain, or
// Internal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Public returns the code, category and message that may be shown to a
// caller. Passphrase failures and unclassified errors get fixed messages so
// nothing from the wrapped chain leaks out.
func Public(err error) (code int, category, message string) {
	kind := KindOf(err)
	switch kind {
	case InvalidPassphrase:
		message = "invalid passphrase"
	case Internal:
		message = "internal error"
	case Store:
		message = "storage error"
	case StorageInit:
		message = "storage unavailable"
	default:
		message = err.Error()
	}
	return kind.Code(), kind.Category(), message
}
