// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when the daily export does not exist.
	ErrNoData = errors.New("no data for date")

	// ErrParse classifies malformed input.
	ErrParse = errors.New("parse failure")
)

// ParseError reports a malformed NDJSON line.
type ParseError struct {
	// Line is the 1-based line number in the export.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrorType names the metric category of the error.
func (e *ParseError) ErrorType() string {
	return "parse"
}

// Is makes errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
