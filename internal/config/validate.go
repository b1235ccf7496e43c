// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package config

import (
	"fmt"

	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/validation"
)

// Validate checks struct tags first, then rules spanning several fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	if c.Lake.RawPath == c.Lake.SilverPrefix {
		return fmt.Errorf("lake.raw_path and lake.silver_prefix must differ, both are %q", c.Lake.RawPath)
	}
	for _, p := range c.Lake.SilverPaths() {
		if p == c.Lake.RawPath {
			return fmt.Errorf("silver path %q collides with lake.raw_path", p)
		}
	}
	if c.Warehouse.Driver == "duckdb" && c.Warehouse.DSN == c.Lake.Path {
		return fmt.Errorf("warehouse.dsn must not be the lake database %q", c.Lake.Path)
	}
	return nil
}
