// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Jade Signer Authors

package testutil

import (
	"sync"

	"github.com/jade-signer/jade-signer/internal/audit"
)

// Recorder is an audit.Recorder that keeps entries in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

var _ audit.Recorder = (*Recorder)(nil)

func (r *Recorder) Log(e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}

// Events returns the event types in order.
func (r *Recorder) Events() []audit.EventType {
	entries := r.Entries()
	out := make([]audit.EventType, len(entries))
	for i, e := range entries {
		out[i] = e.Event
	}
	return out
}

// Last returns the most recent entry. It panics if none was recorded.
func (r *Recorder) Last() audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}
