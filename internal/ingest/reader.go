// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/document"
)

// maxLineSize bounds a single NDJSON record.
const maxLineSize = 16 << 20

// Reader reads daily exports from the staging bucket.
type Reader struct {
	store    blobstore.Store
	bucket   string
	template string
}

// NewReader creates a reader for bucket using an object key template with a
// {date} placeholder. An empty template uses blobstore.DefaultObjectTemplate.
func NewReader(store blobstore.Store, bucket, template string) *Reader {
	if template == "" {
		template = blobstore.DefaultObjectTemplate
	}
	return &Reader{store: store, bucket: bucket, template: template}
}

// Key returns the object key of the export for date.
func (r *Reader) Key(date time.Time) (string, error) {
	return blobstore.ObjectKey(r.template, date)
}

// Read returns the records of the export for date.
// Returns ErrNoData when the export does not exist and a *ParseError for the
// first malformed line.
func (r *Reader) Read(ctx context.Context, date time.Time) ([]document.Document, error) {
	key, err := r.Key(date)
	if err != nil {
		return nil, err
	}

	rc, err := r.store.Open(ctx, r.bucket, key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoData, r.bucket, key)
	}
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rc)

	return ParseNDJSON(rc)
}

// Stage uploads an export for date, replacing any existing object.
func (r *Reader) Stage(ctx context.Context, date time.Time, data []byte) (string, error) {
	key, err := r.Key(date)
	if err != nil {
		return "", err
	}
	if err := r.store.Put(ctx, r.bucket, key, data, "application/x-ndjson"); err != nil {
		return "", err
	}
	return key, nil
}

// ParseNDJSON decodes one JSON object per line. Blank lines are skipped.
func ParseNDJSON(in io.Reader) ([]document.Document, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []document.Document
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		doc, err := document.Decode(raw)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: line + 1, Err: err}
	}
	return docs, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(blobstore.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrParse, s)
	}
	return d, nil
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
