// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/runlog"
)

// ErrNoLedger is returned by Status when the run ledger is disabled.
var ErrNoLedger = errors.New("run ledger disabled")

// StageStatus is the latest known state of one stage.
type StageStatus struct {
	Stage       string
	Last        *runlog.Entry
	LastSuccess *runlog.Entry
}

// TableStatus is the size and version of one lake table.
type TableStatus struct {
	Path    string
	Rows    int64
	Version int64
}

// Status reports the last run and last successful run of every stage.
func (p *Pipeline) Status(ctx context.Context) ([]StageStatus, error) {
	if p.ledger == nil {
		return nil, ErrNoLedger
	}
	out := make([]StageStatus, 0, len(Stages))
	for _, s := range Stages {
		last, err := p.ledger.Last(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("read last %s run: %w", s, err)
		}
		ok, err := p.ledger.LastSuccess(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("read last successful %s run: %w", s, err)
		}
		out = append(out, StageStatus{Stage: s, Last: last, LastSuccess: ok})
	}
	return out, nil
}

// History returns up to limit runs of stage, newest first.
func (p *Pipeline) History(ctx context.Context, stage string, limit int) ([]*runlog.Entry, error) {
	if p.ledger == nil {
		return nil, ErrNoLedger
	}
	return p.ledger.History(ctx, stage, limit)
}

// Tables reports every lake table.
func (p *Pipeline) Tables(ctx context.Context) ([]TableStatus, error) {
	paths, err := p.lake.Paths(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TableStatus, 0, len(paths))
	for _, path := range paths {
		n, err := p.lake.Count(ctx, path)
		if err != nil {
			return nil, err
		}
		v, err := p.lake.Version(ctx, path)
		if err != nil {
			return nil, err
		}
		out = append(out, TableStatus{Path: path, Rows: n, Version: v})
	}
	return out, nil
}

// Describe returns schema and commit information for a lake path.
func (p *Pipeline) Describe(ctx context.Context, path string) (*lake.Info, error) {
	return p.lake.Describe(ctx, path)
}
