// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// SkipContainersEnvVar disables container-backed tests when set to any value.
const SkipContainersEnvVar = "ESTATELAKE_SKIP_CONTAINERS"

// SkipIfNoDocker skips the test when containers are disabled or no Docker
// daemon answers.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if os.Getenv(SkipContainersEnvVar) != "" {
		t.Skipf("Skipping test: %s is set", SkipContainersEnvVar)
	}
	if !IsDockerAvailable(context.Background()) {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable reports whether testcontainers can reach a Docker daemon.
func IsDockerAvailable(ctx context.Context) bool {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return provider.Health(ctx) == nil
}

// CleanupContainer terminates a container, logging instead of failing so
// cleanup never hides the test's own result.
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()

	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	}
}

// start runs req and returns the container with host:port of its first
// exposed port. The container is terminated when the address cannot be
// resolved.
func start(ctx context.Context, name string, req testcontainers.ContainerRequest) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create %s container: %w", name, err)
	}

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get %s endpoint: %w", name, err)
	}
	return container, addr, nil
}
