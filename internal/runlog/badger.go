// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package runlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/estatelake/internal/logging"
)

const keyPrefix = "runlog:"

func lastKey(stage string) []byte {
	return []byte(keyPrefix + "last:" + stage)
}

func okKey(stage string) []byte {
	return []byte(keyPrefix + "ok:" + stage)
}

func historyPrefix(stage string) []byte {
	return []byte(keyPrefix + "history:" + stage + ":")
}

func historyKey(e *Entry) []byte {
	// Zero-padded nanoseconds keep lexical order equal to start order.
	return []byte(fmt.Sprintf("%s%020d:%s", historyPrefix(e.Stage), e.StartTime.UnixNano(), e.RunID))
}

// BadgerLedger implements Ledger on BadgerDB.
type BadgerLedger struct {
	db    *badger.DB
	owned bool
}

// Open opens a ledger stored in dir.
func Open(dir string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(logging.NewBadgerLogger())
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open run ledger %s: %w", dir, err)
	}
	return &BadgerLedger{db: db, owned: true}, nil
}

// NewBadgerLedger creates a ledger using an already open BadgerDB.
func NewBadgerLedger(db *badger.DB) *BadgerLedger {
	return &BadgerLedger{db: db}
}

// Close closes the database when the ledger opened it.
func (l *BadgerLedger) Close() error {
	if !l.owned {
		return nil
	}
	return l.db.Close()
}

// Record stores e as the latest run of its stage.
func (l *BadgerLedger) Record(_ context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal run entry: %w", err)
	}

	return l.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(historyKey(e), data); err != nil {
			return err
		}
		if err := txn.Set(lastKey(e.Stage), data); err != nil {
			return err
		}
		if e.Succeeded() {
			return txn.Set(okKey(e.Stage), data)
		}
		return nil
	})
}

// Last returns the most recent run of stage.
func (l *BadgerLedger) Last(_ context.Context, stage string) (*Entry, error) {
	return l.get(lastKey(stage))
}

// LastSuccess returns the most recent successful run of stage.
func (l *BadgerLedger) LastSuccess(_ context.Context, stage string) (*Entry, error) {
	return l.get(okKey(stage))
}

// History returns up to limit runs of stage, newest first. A limit of zero
// or less returns every run.
func (l *BadgerLedger) History(_ context.Context, stage string, limit int) ([]*Entry, error) {
	var entries []*Entry
	prefix := historyPrefix(stage)

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key not greater than the seek key.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			entries = append(entries, &e)
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load run history: %w", err)
	}
	return entries, nil
}

func (l *BadgerLedger) get(key []byte) (*Entry, error) {
	var e *Entry
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			e = &Entry{}
			return json.Unmarshal(val, e)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load run entry: %w", err)
	}
	return e, nil
}
