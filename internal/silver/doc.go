// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package silver builds the normalized silver tables from the raw table.
//
// A build selects the raw rows whose property id is not yet present in the
// silver property table (the delta), cleans them once, and hands the cleaned
// rows to six independent extractors:
//
//	property_details  one row per property id
//	property_rooms    one row per (id, room_index)
//	property_images   one row per (id, image_index)
//	agents            one row per negotiator id seen in the run
//	locations         one row per distinct address/geo tuple seen in the run
//	property_energy   one row per property id carrying energy fields
//
// Every row of one build carries the same ingested_at timestamp. All
// non-empty outputs are committed to the lake in a single transaction, so a
// property id never becomes visible without its rooms, images and energy
// rows. Properties already present in silver are never reprocessed; updates
// are applied downstream by the warehouse merge.
package silver
