// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package runlog

import (
	"context"
	"time"
)

// Entry is one stage run.
type Entry struct {
	RunID     string           `json:"run_id"`
	Stage     string           `json:"stage"`
	Date      string           `json:"date,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Rows      int64            `json:"rows"`
	Counts    map[string]int64 `json:"counts,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (e *Entry) Succeeded() bool {
	return e.Error == ""
}

// Duration returns the run duration.
func (e *Entry) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Ledger stores stage runs.
type Ledger interface {
	// Record stores a finished run.
	Record(ctx context.Context, e *Entry) error

	// Last returns the most recent run of stage, or nil.
	Last(ctx context.Context, stage string) (*Entry, error)

	// LastSuccess returns the most recent successful run of stage, or nil.
	LastSuccess(ctx context.Context, stage string) (*Entry, error)

	// History returns up to limit runs of stage, newest first.
	History(ctx context.Context, stage string, limit int) ([]*Entry, error)
}

func clone(e *Entry) *Entry {
	c := *e
	if e.Counts != nil {
		c.Counts = make(map[string]int64, len(e.Counts))
		for k, v := range e.Counts {
			c.Counts[k] = v
		}
	}
	return &c
}
