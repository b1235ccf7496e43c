// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// BadgerLogger routes badger's printf-style logger through zerolog.
// Badger info and debug chatter is demoted to debug level.
type BadgerLogger struct {
	logger zerolog.Logger
}

// NewBadgerLogger creates a badger logger bound to the global logger.
func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{logger: WithComponent("badger")}
}

// Errorf logs at error level.
func (b *BadgerLogger) Errorf(format string, args ...interface{}) {
	b.logger.Error().Msgf(trimNewline(format), args...)
}

// Warningf logs at warn level.
func (b *BadgerLogger) Warningf(format string, args ...interface{}) {
	b.logger.Warn().Msgf(trimNewline(format), args...)
}

// Infof logs at debug level.
func (b *BadgerLogger) Infof(format string, args ...interface{}) {
	b.logger.Debug().Msgf(trimNewline(format), args...)
}

// Debugf logs at debug level.
func (b *BadgerLogger) Debugf(format string, args ...interface{}) {
	b.logger.Debug().Msgf(trimNewline(format), args...)
}

func trimNewline(format string) string {
	return strings.TrimRight(format, "\n")
}
