// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import "errors"

// ErrFieldAbsent marks an extractor output whose source field is absent from
// every row of the batch. The output is empty and its write is skipped.
var ErrFieldAbsent = errors.New("expected field absent from batch")
