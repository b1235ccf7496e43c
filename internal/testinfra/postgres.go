// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the Postgres image used for warehouse tests.
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultPostgresPort is the Postgres listener port.
	DefaultPostgresPort = "5432"
)

// PostgresContainer is a running Postgres server.
type PostgresContainer struct {
	testcontainers.Container
	DSN string
}

// NewPostgresContainer starts a Postgres server with an "estatelake" database.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultPostgresImage,
		ExposedPorts: []string{DefaultPostgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "estatelake",
			"POSTGRES_PASSWORD": "estatelake",
			"POSTGRES_DB":       "estatelake",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, addr, err := start(ctx, "postgres", req)
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		Container: container,
		DSN:       fmt.Sprintf("postgres://estatelake:estatelake@%s/estatelake?sslmode=disable", addr),
	}, nil
}
