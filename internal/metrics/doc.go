// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package metrics holds the Prometheus instrumentation of the pipeline.
//
// Metrics are registered on the default registry at package init through
// promauto. Pipeline runs are short-lived batch jobs, so instead of being
// scraped the registry is pushed to a Pushgateway at the end of a CLI run
// when metrics.pushgateway_url is configured:
//
//	start := time.Now()
//	stats, err := ingester.Ingest(ctx, date)
//	metrics.RecordStage("ingest", time.Since(start), err)
//	...
//	_ = metrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
//
// Metric families:
//
//	estatelake_stage_duration_seconds{stage}
//	estatelake_stage_errors_total{stage,error_type}
//	estatelake_stage_last_success_timestamp{stage}
//	estatelake_raw_records_read_total
//	estatelake_rows_written_total{layer,table}
//	estatelake_silver_delta_records
//	estatelake_extractor_skips_total{table}
//	estatelake_warehouse_rows_delta{table}
//	estatelake_warehouse_rows_merged_total{table}
package metrics
