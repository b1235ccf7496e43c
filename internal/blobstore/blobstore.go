// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package blobstore reads and writes objects in the staging object store
// where scrapers drop their daily NDJSON exports.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a bucket or object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidTemplate is returned for object templates without a {date} placeholder.
	ErrInvalidTemplate = errors.New("object template must contain {date}")
)

// DefaultObjectTemplate is the layout scrapers use for daily exports.
const DefaultObjectTemplate = "raw/scraped_data_{date}/scraped_data_{date}.ndjson"

// DateLayout is the calendar date format used in object keys.
const DateLayout = "2006-01-02"

// Store is an object store.
type Store interface {
	// Open streams an object. Returns ErrNotFound when it does not exist.
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Put writes an object, replacing any existing one.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// ListBuckets returns bucket names.
	ListBuckets(ctx context.Context) ([]string, error)

	// CreateBucket creates a bucket.
	CreateBucket(ctx context.Context, name string) error
}

// Get reads a whole object.
func Get(ctx context.Context, s Store, bucket, key string) ([]byte, error) {
	rc, err := s.Open(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rc)

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// EnsureBucket creates the bucket unless it already exists. It reports
// whether a bucket was created.
func EnsureBucket(ctx context.Context, s Store, name string) (bool, error) {
	buckets, err := s.ListBuckets(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list buckets: %w", err)
	}
	for _, b := range buckets {
		if b == name {
			return false, nil
		}
	}
	if err := s.CreateBucket(ctx, name); err != nil {
		return false, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return true, nil
}

// ObjectKey renders an object template for a calendar date.
func ObjectKey(template string, date time.Time) (string, error) {
	if !strings.Contains(template, "{date}") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTemplate, template)
	}
	return strings.ReplaceAll(template, "{date}", date.Format(DateLayout)), nil
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
