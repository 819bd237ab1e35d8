// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenLength is the number of random bytes in a token (32 bytes = 256 bits)
const TokenLength = 32

// GenerateToken generates a cryptographically secure random token
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ReadToken reads a token from a file
// Returns empty string if file doesn't exist (not an error)
// Warns to stderr if file permissions are more permissive than 0600
func ReadToken(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	if perm := info.Mode().Perm(); perm&0077 != 0 {
		fmt.Fprintf(os.Stderr, "WARNING: %s has mode %04o, should be 0600 (run: chmod 600 %s)\n", path, perm, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteToken writes a token to a file with secure permissions (0600)
func WriteToken(path, token string) error {
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadOrCreateToken returns the token stored at path, generating and saving
// a new one if the file does not exist. created reports whether a new token
// was written.
func LoadOrCreateToken(path string) (token string, created bool, err error) {
	token, err = ReadToken(path)
	if err != nil || token != "" {
		return token, false, err
	}

	token, err = GenerateToken()
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", false, fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := WriteToken(path, token); err != nil {
		return "", false, err
	}
	return token, true, nil
}

// ValidateToken compares two tokens in constant time to prevent timing attacks
func ValidateToken(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
