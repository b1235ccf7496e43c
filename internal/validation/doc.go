// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator whose error messages name the
// failing configuration key (taken from the koanf struct tag) rather than the
// Go field name, so a missing bucket reports "blob.bucket is required".
//
// Custom tags:
//
//	objecttemplate  object key template containing {date}, not starting with "/"
//	lakepath        relative slash-separated lake path without empty or dot segments
//
// Example:
//
//	type BlobConfig struct {
//	    Bucket string `koanf:"bucket" validate:"required"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
package validation
