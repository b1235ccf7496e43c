// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package ingest

import (
	"time"
)

// Stats holds statistics about one ingest run.
type Stats struct {
	// Date is the calendar day that was ingested.
	Date string

	// Key is the object key that was read.
	Key string

	// Records is the number of records read from the export.
	Records int64

	// Columns is the number of columns written after normalization.
	Columns int

	// DroppedNull lists columns dropped because every value was null.
	DroppedNull []string

	// Coerced lists columns stored as text.
	Coerced []string

	// NewColumns lists columns added to the raw table by this run.
	NewColumns []string

	// Version is the raw table version after the write.
	Version int64

	// NoData is set when the export did not exist.
	NoData bool

	// StartTime is when the ingest started.
	StartTime time.Time

	// EndTime is when the ingest completed.
	EndTime time.Time
}

// Duration returns the duration of the ingest.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RecordsPerSecond returns the ingest rate.
func (s *Stats) RecordsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Records) / duration
}
