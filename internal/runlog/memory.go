// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package runlog

import (
	"context"
	"sync"
)

// InMemoryLedger implements Ledger in memory.
// This is useful for testing or when persistence is disabled.
type InMemoryLedger struct {
	mu      sync.Mutex
	history map[string][]*Entry
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{history: make(map[string][]*Entry)}
}

// Record stores a copy of e.
func (l *InMemoryLedger) Record(_ context.Context, e *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history[e.Stage] = append(l.history[e.Stage], clone(e))
	return nil
}

// Last returns the most recently recorded run of stage.
func (l *InMemoryLedger) Last(_ context.Context, stage string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.history[stage]
	if len(h) == 0 {
		return nil, nil
	}
	return clone(h[len(h)-1]), nil
}

// LastSuccess returns the most recently recorded successful run of stage.
func (l *InMemoryLedger) LastSuccess(_ context.Context, stage string) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.history[stage]
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Succeeded() {
			return clone(h[i]), nil
		}
	}
	return nil, nil
}

// History returns up to limit runs of stage, newest first.
func (l *InMemoryLedger) History(_ context.Context, stage string, limit int) ([]*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := l.history[stage]
	var out []*Entry
	for i := len(h) - 1; i >= 0; i-- {
		out = append(out, clone(h[i]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
