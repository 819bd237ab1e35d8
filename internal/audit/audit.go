// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

// Package audit writes the append-only security log: one JSON object per
// line, synced after every entry. Entries never carry passphrases, key
// material or signed payloads.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jade-signer/jade-signer/internal/fsutil"
)

// EventType is the kind of audit event
type EventType string

const maxLogSize = 10 * 1024 * 1024 // 10 MB

const (
	AccountCreated  EventType = "ACCOUNT_CREATED"
	AccountImported EventType = "ACCOUNT_IMPORTED"
	AccountExported EventType = "ACCOUNT_EXPORTED"
	AccountRekeyed  EventType = "ACCOUNT_REKEYED"
	AccountDeleted  EventType = "ACCOUNT_DELETED"
	SignApproved    EventType = "SIGN_APPROVED"
	SignFailed      EventType = "SIGN_FAILED"
	AuthFailed      EventType = "AUTH_FAILED"
	ServerStart     EventType = "SERVER_START"
	ServerStop      EventType = "SERVER_STOP"
	KeystoreReload  EventType = "KEYSTORE_RELOAD"
)

// Entry is a single audit log entry
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Event      EventType `json:"event"`
	Principal  string    `json:"principal,omitempty"` // authenticated identity
	Address    string    `json:"address,omitempty"`
	Chain      string    `json:"chain,omitempty"`
	Kind       string    `json:"kind,omitempty"` // transaction, message, typed_data
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	KeyCount   int       `json:"key_count,omitempty"`
}

// Recorder receives audit entries.
type Recorder interface {
	Log(Entry)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Log(Entry) {}

// Logger handles append-only audit logging to a file, rotating it to
// <path>.1 when it would grow past 10 MB.
type Logger struct {
	file    *os.File
	mu      sync.Mutex
	path    string
	written uint64
	limit   uint64
	errOut  io.Writer

	openFile func(path string) (*os.File, error)
}

func openAppend(path string) (*os.File, error) {
	return fsutil.CreateFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY)
}

// Open opens or creates the audit log at path in append-only mode.
func Open(path string) (*Logger, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	var written uint64
	if info, err := file.Stat(); err == nil {
		written = uint64(info.Size())
	}

	return &Logger{
		file:     file,
		path:     path,
		written:  written,
		limit:    maxLogSize,
		errOut:   os.Stderr,
		openFile: openAppend,
	}, nil
}

// Log writes an audit entry
func (a *Logger) Log(entry Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: failed to marshal audit entry: %v\n", err)
		return
	}

	line := append(data, '\n')
	if a.written+uint64(len(line)) > a.limit {
		if err := a.rotate(); err != nil {
			fmt.Fprintf(a.errOut, "Warning: failed to rotate audit log: %v\n", err)
		}
	}

	if _, err := a.file.Write(line); err != nil {
		fmt.Fprintf(a.errOut, "Warning: failed to write audit entry: %v\n", err)
		return
	}
	a.written += uint64(len(line))
	_ = a.file.Sync()
}

// rotate archives the current log file and opens a fresh one.
// Must be called with a.mu held.
func (a *Logger) rotate() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("close current log: %w", err)
	}
	archive := a.path + ".1"
	if err := os.Rename(a.path, archive); err != nil {
		a.file, _ = a.openFile(a.path)
		a.written = 0
		return fmt.Errorf("rename log: %w", err)
	}
	file, err := a.openFile(a.path)
	if err != nil {
		// Put the old log back and keep appending to it.
		if rerr := os.Rename(archive, a.path); rerr == nil {
			a.file, _ = a.openFile(a.path)
		} else {
			a.file, _ = a.openFile(archive)
		}
		return fmt.Errorf("open new log: %w", err)
	}
	a.file = file
	a.written = 0
	return nil
}

// Close closes the audit log file
func (a *Logger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
