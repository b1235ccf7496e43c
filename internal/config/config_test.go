// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/validation"
)

// setRequiredEnv sets the variables without defaults and clears the rest so
// the host environment cannot leak into a test.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	for name := range envMappings {
		t.Setenv(strings.ToUpper(name), "")
		os.Unsetenv(strings.ToUpper(name))
	}
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("MINIO_ENDPOINT_URL", "http://minio:9000")
	t.Setenv("MINIO_ACCESS_KEY_ID", "access")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "secret")
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Blob.Endpoint = "http://minio:9000"
	cfg.Blob.AccessKeyID = "access"
	cfg.Blob.SecretAccessKey = "secret"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Blob.Bucket != "staging" {
		t.Errorf("Blob.Bucket = %q, want staging", cfg.Blob.Bucket)
	}
	if cfg.Blob.ObjectTemplate != blobstore.DefaultObjectTemplate {
		t.Errorf("Blob.ObjectTemplate = %q, want %q", cfg.Blob.ObjectTemplate, blobstore.DefaultObjectTemplate)
	}
	if !cfg.Blob.UsePathStyle {
		t.Error("Blob.UsePathStyle should be true by default")
	}
	if cfg.Lake.RawPath != "raw" || cfg.Lake.SilverPrefix != "silver" {
		t.Errorf("Lake paths = %q/%q, want raw/silver", cfg.Lake.RawPath, cfg.Lake.SilverPrefix)
	}
	if cfg.Warehouse.Driver != "duckdb" {
		t.Errorf("Warehouse.Driver = %q, want duckdb", cfg.Warehouse.Driver)
	}
	if !cfg.RunLog.Enabled {
		t.Error("RunLog.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if diff := cmp.Diff([]string{"result", "pageContext", "propertyData"}, cfg.Silver.Root()); diff != "" {
		t.Errorf("Silver.Root() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("BUCKET_NAME", "exports")
	t.Setenv("OBJECT_NAME_TEMPLATE", "daily/{date}.ndjson")
	t.Setenv("LAKE_PATH", "/var/lib/estatelake/lake.duckdb")
	t.Setenv("LAKE_THREADS", "4")
	t.Setenv("SILVER_CONCURRENCY", "6")
	t.Setenv("WAREHOUSE_DRIVER", "postgres")
	t.Setenv("WAREHOUSE_DSN", "postgres://estatelake@db/estatelake")
	t.Setenv("RUNLOG_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Blob.Endpoint != "http://minio:9000" {
		t.Errorf("Blob.Endpoint = %q", cfg.Blob.Endpoint)
	}
	if cfg.Blob.Bucket != "exports" {
		t.Errorf("Blob.Bucket = %q, want exports", cfg.Blob.Bucket)
	}
	if cfg.Blob.ObjectTemplate != "daily/{date}.ndjson" {
		t.Errorf("Blob.ObjectTemplate = %q", cfg.Blob.ObjectTemplate)
	}
	if cfg.Lake.Path != "/var/lib/estatelake/lake.duckdb" {
		t.Errorf("Lake.Path = %q", cfg.Lake.Path)
	}
	if cfg.Lake.Threads != 4 {
		t.Errorf("Lake.Threads = %d, want 4", cfg.Lake.Threads)
	}
	if cfg.Silver.Concurrency != 6 {
		t.Errorf("Silver.Concurrency = %d, want 6", cfg.Silver.Concurrency)
	}
	if cfg.Warehouse.Driver != "postgres" {
		t.Errorf("Warehouse.Driver = %q, want postgres", cfg.Warehouse.Driver)
	}
	if cfg.RunLog.Enabled {
		t.Error("RunLog.Enabled should be false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadIgnoresUnmappedEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("BLOB_BUCKET", "ignored")
	t.Setenv("PATH_STYLE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Blob.Bucket != "staging" {
		t.Errorf("Blob.Bucket = %q, want staging", cfg.Blob.Bucket)
	}
}

func TestLoadFileLayering(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "estatelake.yaml")
	yaml := `
blob:
  bucket: from-file
lake:
  path: /srv/lake.duckdb
  silver_prefix: clean
silver:
  property_root: data.property
warehouse:
  table_prefix: stg_
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LAKE_PATH", "/override/lake.duckdb")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Blob.Bucket != "from-file" {
		t.Errorf("Blob.Bucket = %q, want from-file", cfg.Blob.Bucket)
	}
	if cfg.Lake.Path != "/override/lake.duckdb" {
		t.Errorf("Lake.Path = %q, env should override the file", cfg.Lake.Path)
	}
	if cfg.Lake.SilverPrefix != "clean" {
		t.Errorf("Lake.SilverPrefix = %q, want clean", cfg.Lake.SilverPrefix)
	}
	if got := cfg.Lake.SilverPaths().Path("property_details"); got != "clean/property_details" {
		t.Errorf("silver path = %q, want clean/property_details", got)
	}
	if diff := cmp.Diff([]string{"data", "property"}, cfg.Silver.Root()); diff != "" {
		t.Errorf("Silver.Root() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Warehouse.TablePrefix != "stg_" {
		t.Errorf("Warehouse.TablePrefix = %q, want stg_", cfg.Warehouse.TablePrefix)
	}
}

func TestLoadDotEnv(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("MINIO_SECRET_ACCESS_KEY")
	dir := t.TempDir()
	t.Chdir(dir)

	dotenv := "MINIO_SECRET_ACCESS_KEY=from-dotenv\nBUCKET_NAME=dotenv-bucket\n"
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	// Already set variables win over .env.
	t.Setenv("BUCKET_NAME", "process-bucket")
	t.Cleanup(func() { os.Unsetenv("MINIO_SECRET_ACCESS_KEY") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Blob.SecretAccessKey != "from-dotenv" {
		t.Errorf("Blob.SecretAccessKey = %q, want from-dotenv", cfg.Blob.SecretAccessKey)
	}
	if cfg.Blob.Bucket != "process-bucket" {
		t.Errorf("Blob.Bucket = %q, want process-bucket", cfg.Blob.Bucket)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	if err := os.WriteFile("config.yaml", []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != "config.yaml" {
		t.Errorf("findConfigFile() = %q, want config.yaml", got)
	}

	custom := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(custom, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, custom)
	if got := findConfigFile(); got != custom {
		t.Errorf("findConfigFile() = %q, want %q", got, custom)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
		errSub string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing endpoint", modify: func(c *Config) { c.Blob.Endpoint = "" }, field: "blob.endpoint"},
		{name: "bad endpoint", modify: func(c *Config) { c.Blob.Endpoint = "not a url" }, field: "blob.endpoint"},
		{name: "missing secret", modify: func(c *Config) { c.Blob.SecretAccessKey = "" }, field: "blob.secret_access_key"},
		{name: "missing bucket", modify: func(c *Config) { c.Blob.Bucket = "" }, field: "blob.bucket"},
		{name: "template without date", modify: func(c *Config) { c.Blob.ObjectTemplate = "raw/latest.ndjson" }, field: "blob.object_template"},
		{name: "absolute raw path", modify: func(c *Config) { c.Lake.RawPath = "/raw" }, field: "lake.raw_path"},
		{name: "threads out of range", modify: func(c *Config) { c.Lake.Threads = 1000 }, field: "lake.threads"},
		{name: "unknown driver", modify: func(c *Config) { c.Warehouse.Driver = "mysql" }, field: "warehouse.driver"},
		{name: "bad pushgateway", modify: func(c *Config) { c.Metrics.PushgatewayURL = "::" }, field: "metrics.pushgateway_url"},
		{name: "runlog without path", modify: func(c *Config) { c.RunLog.Path = "" }, field: "runlog.path"},
		{name: "runlog disabled without path", modify: func(c *Config) { c.RunLog.Enabled = false; c.RunLog.Path = "" }},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, field: "logging.format"},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "loud" }, errSub: "logging.level"},
		{name: "raw equals silver", modify: func(c *Config) { c.Lake.SilverPrefix = "raw" }, errSub: "must differ"},
		{name: "raw inside silver", modify: func(c *Config) { c.Lake.RawPath = "silver/property_details" }, errSub: "collides"},
		{name: "warehouse is lake", modify: func(c *Config) { c.Warehouse.DSN = c.Lake.Path }, errSub: "must not be the lake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.field == "" && tt.errSub == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if tt.errSub != "" && !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q should contain %q", err, tt.errSub)
			}
			if tt.field != "" {
				var fe *validation.FieldErrors
				if !errors.As(err, &fe) {
					t.Fatalf("error %T is not *validation.FieldErrors", err)
				}
				found := false
				for _, f := range fe.Fields() {
					if f == tt.field {
						found = true
					}
				}
				if !found {
					t.Errorf("Fields() = %v, want %s", fe.Fields(), tt.field)
				}
			}
		})
	}
}

func TestBlobS3(t *testing.T) {
	cfg := validConfig()
	got := cfg.Blob.S3()
	want := blobstore.S3Config{
		Endpoint:        "http://minio:9000",
		Region:          "us-east-1",
		AccessKeyID:     "access",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("S3() mismatch (-want +got):\n%s", diff)
	}
}
