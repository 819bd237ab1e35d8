// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package rpc serves the signer over JSON-RPC 2.0 on HTTP.
//
// Requests are POSTed to "/" as single calls or batches. Every call's params
// go through the normalizer in params.go before reaching the account or
// signing service, and every error leaves through errmodel.Public so that
// nothing from a wrapped chain is shown to the caller.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/jade-signer/jade-signer/internal/account"
	"github.com/jade-signer/jade-signer/internal/audit"
	"github.com/jade-signer/jade-signer/internal/auth"
	"github.com/jade-signer/jade-signer/internal/errmodel"
	"github.com/jade-signer/jade-signer/internal/signing"
	"github.com/jade-signer/jade-signer/internal/storage"
)

// maxBodySize bounds a request body, batches included.
const maxBodySize = 1 << 20

// Config holds the transport options.
type Config struct {
	// CORSOrigins lists the origins allowed to call from a browser. "*"
	// allows any origin. Empty disables CORS headers.
	CORSOrigins []string

	// Authenticator defaults to auth.NoAuth.
	Authenticator auth.Authenticator

	// Authorizer defaults to allowing every method.
	Authorizer auth.Authorizer

	// Metrics enables GET /metrics.
	Metrics bool

	// Audit receives authentication failures.
	Audit audit.Recorder
}

// Server dispatches JSON-RPC calls to the services.
type Server struct {
	accounts *account.Service
	signer   *signing.Service
	ctrl     *storage.Controller
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics
	methods  map[string]handlerFunc
	handler  http.Handler
}

// NewServer wires a server. logger may be nil.
func NewServer(accounts *account.Service, signer *signing.Service, ctrl *storage.Controller, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Authenticator == nil {
		cfg.Authenticator = auth.NoAuth{}
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = &auth.MethodAuthorizer{}
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.Nop{}
	}

	s := &Server{
		accounts: accounts,
		signer:   signer,
		ctrl:     ctrl,
		cfg:      cfg,
		logger:   logger,
		metrics:  newMetrics(),
	}
	s.registerMethods()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.requireAuth(s.handleRPC))
	mux.HandleFunc("GET /health", s.handleHealth)
	if cfg.Metrics {
		mux.Handle("GET /metrics", s.metrics.handler())
	}
	s.handler = s.cors(mux)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "jade-signer",
		"storage": string(s.ctrl.Type()),
	})
}

// cors adds CORS headers for allowed origins and answers preflight
// requests before authentication.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.cfg.CORSOrigins, "*") || slices.Contains(s.cfg.CORSOrigins, origin)
}

// requireAuth authenticates the HTTP request and puts the identity in the
// request context. Per-method authorization happens at dispatch.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.cfg.Authenticator.Authenticate(r.Context(), r)
		if err != nil {
			reason := "auth_failed"
			switch {
			case errors.Is(err, auth.ErrNoCredentials):
				reason = "missing_credentials"
			case errors.Is(err, auth.ErrInvalidCredentials):
				reason = "invalid_credentials"
			}
			s.cfg.Audit.Log(audit.Entry{Event: audit.AuthFailed, RemoteAddr: r.RemoteAddr, Reason: reason})
			s.metrics.authFailure.Inc()
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, response{
			JSONRPC: jsonrpcVersion,
			Error:   protocolError(codeInvalidRequest, "request too large"),
		})
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		s.handleBatch(w, r, body)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusOK, response{JSONRPC: jsonrpcVersion, Error: protocolError(codeParseError, "parse error")})
		return
	}
	resp := s.call(r.Context(), &req, r.RemoteAddr)
	if req.isNotification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, body []byte) {
	var batch []json.RawMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		writeJSON(w, http.StatusOK, response{JSONRPC: jsonrpcVersion, Error: protocolError(codeParseError, "parse error")})
		return
	}
	if len(batch) == 0 {
		writeJSON(w, http.StatusOK, response{JSONRPC: jsonrpcVersion, Error: protocolError(codeInvalidRequest, "empty batch")})
		return
	}

	out := make([]response, 0, len(batch))
	for _, raw := range batch {
		var req request
		if err := json.Unmarshal(raw, &req); err != nil {
			out = append(out, response{JSONRPC: jsonrpcVersion, Error: protocolError(codeInvalidRequest, "invalid request")})
			continue
		}
		resp := s.call(r.Context(), &req, r.RemoteAddr)
		if !req.isNotification() {
			out = append(out, resp)
		}
	}
	if len(out) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// call runs one request and builds its response.
func (s *Server) call(ctx context.Context, req *request, remote string) response {
	resp := response{JSONRPC: jsonrpcVersion, ID: req.ID}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		resp.Error = protocolError(codeInvalidRequest, "invalid request")
		return resp
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		s.metrics.observe("unknown", "method_not_found", time.Now())
		resp.Error = protocolError(codeMethodNotFound, "method not found")
		return resp
	}

	start := time.Now()
	result, err := s.dispatch(ctx, req.Method, handler, req.Params)
	if err != nil {
		resp.Error = toError(err)
		s.metrics.observe(req.Method, resp.Error.Data.Category, start)
		s.logCallError(req.Method, remote, err)
		return resp
	}
	s.metrics.observe(req.Method, "ok", start)
	resp.Result = result
	return resp
}

func (s *Server) dispatch(ctx context.Context, method string, handler handlerFunc, params json.RawMessage) (any, error) {
	if err := s.cfg.Authorizer.Authorize(ctx, auth.IdentityFromContext(ctx), method); err != nil {
		return nil, err
	}
	return handler(ctx, params)
}

// logCallError logs the full error chain locally. Unclassified and storage
// errors are logged at error level, caller mistakes at debug.
func (s *Server) logCallError(method, remote string, err error) {
	switch errmodel.KindOf(err) {
	case errmodel.Internal, errmodel.Store, errmodel.StorageInit:
		s.logger.Error("rpc call failed", "method", method, "remote", remote, "error", err)
	default:
		s.logger.Debug("rpc call rejected", "method", method, "remote", remote, "error", err)
	}
}
