// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Pipeline stage metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estatelake_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"}, // "ingest", "silver", "merge"
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatelake_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"stage", "error_type"},
	)

	StageLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "estatelake_stage_last_success_timestamp",
			Help: "Unix timestamp of the last successful stage run",
		},
		[]string{"stage"},
	)

	// Data volume metrics
	RecordsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "estatelake_raw_records_read_total",
			Help: "Total number of records read from staging exports",
		},
	)

	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatelake_rows_written_total",
			Help: "Total number of rows appended to lake tables",
		},
		[]string{"layer", "table"}, // layer: "raw", "silver"
	)

	DeltaRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estatelake_silver_delta_records",
			Help: "Number of new property records selected by the last silver build",
		},
	)

	ExtractorSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatelake_extractor_skips_total",
			Help: "Total number of extractor outputs skipped because an expected field was absent",
		},
		[]string{"table"},
	)

	ValuesNulled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatelake_silver_values_nulled_total",
			Help: "Total number of source values stored as NULL because they did not fit a typed silver column",
		},
		[]string{"table", "column"},
	)

	// Warehouse metrics
	WarehouseRowsDelta = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "estatelake_warehouse_rows_delta",
			Help: "Row count change of a warehouse table during the last merge",
		},
		[]string{"table"},
	)

	WarehouseRowsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estatelake_warehouse_rows_merged_total",
			Help: "Total number of rows upserted into warehouse tables",
		},
		[]string{"table"},
	)
)

// RecordStage records the outcome of a pipeline stage.
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage, errorType(err)).Inc()
		return
	}
	StageLastSuccess.WithLabelValues(stage).Set(float64(time.Now().Unix()))
}

// ErrorClassifier lets domain errors name their metric category.
type ErrorClassifier interface {
	ErrorType() string
}

func errorType(err error) string {
	var c ErrorClassifier
	if errors.As(err, &c) {
		return c.ErrorType()
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// Push sends every registered metric to a Prometheus Pushgateway under job.
// Batch runs exit before a scrape would reach them.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(prometheus.DefaultGatherer)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
