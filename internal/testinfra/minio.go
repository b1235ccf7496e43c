// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

//go:build integration

package testinfra

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinIOImage is the MinIO server image used for object store tests.
	DefaultMinIOImage = "minio/minio:RELEASE.2024-11-07T00-52-20Z"

	// DefaultMinIOPort is the S3 API port.
	DefaultMinIOPort = "9000"

	// DefaultMinIOUser and DefaultMinIOPassword are the root credentials.
	DefaultMinIOUser     = "estatelake"
	DefaultMinIOPassword = "estatelake-secret"
)

// MinIOContainer is a running MinIO server.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// MinIOOption configures the MinIO container.
type MinIOOption func(*minioConfig)

type minioConfig struct {
	image        string
	startTimeout time.Duration
}

// WithMinIOImage sets a custom MinIO image.
func WithMinIOImage(image string) MinIOOption {
	return func(c *minioConfig) {
		c.image = image
	}
}

// WithMinIOStartTimeout sets the timeout for waiting for MinIO to start.
func WithMinIOStartTimeout(timeout time.Duration) MinIOOption {
	return func(c *minioConfig) {
		c.startTimeout = timeout
	}
}

// NewMinIOContainer starts a MinIO server.
//
//	minio, err := testinfra.NewMinIOContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, minio)
func NewMinIOContainer(ctx context.Context, opts ...MinIOOption) (*MinIOContainer, error) {
	cfg := &minioConfig{
		image:        DefaultMinIOImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMinIOPort + "/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     DefaultMinIOUser,
			"MINIO_ROOT_PASSWORD": DefaultMinIOPassword,
		},
		Cmd: []string{"server", "/data"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMinIOPort+"/tcp"),
			wait.ForHTTP("/minio/health/live").WithPort(DefaultMinIOPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, addr, err := start(ctx, "minio", req)
	if err != nil {
		return nil, err
	}

	return &MinIOContainer{
		Container:       container,
		Endpoint:        "http://" + addr,
		AccessKeyID:     DefaultMinIOUser,
		SecretAccessKey: DefaultMinIOPassword,
	}, nil
}
