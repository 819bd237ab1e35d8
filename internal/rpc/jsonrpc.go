// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package rpc

import (
	"encoding/json"

	"github.com/jade-signer/jade-signer/internal/errmodel"
)

const jsonrpcVersion = "2.0"

// Protocol level error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// isNotification reports whether the request expects no response.
func (r *request) isNotification() bool {
	return r.ID == nil
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData carries the stable error category.
type ErrorData struct {
	Category string `json:"category"`
}

func (e *Error) Error() string {
	return e.Message
}

// toError converts a service error into its public form.
func toError(err error) *Error {
	code, category, msg := errmodel.Public(err)
	return &Error{Code: code, Message: msg, Data: &ErrorData{Category: category}}
}

func protocolError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
