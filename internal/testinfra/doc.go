// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package testinfra starts throwaway service containers for integration tests.
//
// MinIO stands in for the staging object store and Postgres for the
// alternative warehouse. Tests using this package carry the integration
// build tag and skip when Docker is unavailable:
//
//	func TestS3RoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    minio, err := testinfra.NewMinIOContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, minio)
//	    // point blobstore.NewS3Store at minio.Endpoint
//	}
//
// First runs pull the images; later runs use the local cache.
package testinfra
