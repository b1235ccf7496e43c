// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"database/sql"
	"errors"
	"io"

	"github.com/tomtom215/estatelake/internal/logging"
)

var (
	// ErrNotFound is returned when a path has no table.
	ErrNotFound = errors.New("lake table not found")

	// ErrSchemaOverwriteNeedsOverwrite is returned when a schema overwrite
	// is requested for an append.
	ErrSchemaOverwriteNeedsOverwrite = errors.New("schema overwrite requires overwrite mode")

	// ErrSchemaMismatch is returned by strict writes whose columns differ
	// from the stored schema.
	ErrSchemaMismatch = errors.New("batch schema does not match table schema")

	// ErrInvalidPath is returned for empty or unusable lake paths.
	ErrInvalidPath = errors.New("invalid lake path")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// rollback aborts tx unless it already finished.
func rollback(tx *sql.Tx, cause error) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Error().
			Err(err).
			AnErr("original_error", cause).
			Msg("Transaction rollback failed")
	}
}
