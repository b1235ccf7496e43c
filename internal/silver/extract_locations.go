// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/tomtom215/estatelake/internal/table"
)

// LocationColumns are the columns of locations. location_id is derived from
// the remaining address and geo columns.
var LocationColumns = []table.Column{
	{Name: "location_id", Type: table.Varchar},
	{Name: "house_number", Type: table.Varchar},
	{Name: "address1", Type: table.Varchar},
	{Name: "address2", Type: table.Varchar},
	{Name: "address3", Type: table.Varchar},
	{Name: "address4", Type: table.Varchar},
	{Name: "country", Type: table.Varchar},
	{Name: "postcode", Type: table.Varchar},
	{Name: "latitude", Type: table.Double},
	{Name: "longitude", Type: table.Double},
	{Name: IngestedAtColumn, Type: table.Timestamp},
}

var addressParts = []string{"house_number", "address1", "address2", "address3", "address4", "country", "postcode"}

type locationExtractor struct{}

func (locationExtractor) Name() string { return TableLocations }

// Extract emits one row per distinct address/geo tuple in the run.
// Properties with no address or coordinates project to the all-null tuple,
// which is emitted once like any other.
func (locationExtractor) Extract(rows []Cleaned) Output {
	tbl := table.New(LocationColumns...)
	seen := make(map[string]struct{})
	present := false
	for n := range rows {
		c := &rows[n]
		_, hasAddr := c.Field(addressField)
		_, hasLat := c.Field("latitude")
		_, hasLon := c.Field("longitude")
		if hasAddr || hasLat || hasLon {
			present = true
		}

		tuple := make([]any, 0, len(addressParts)+2)
		for _, p := range addressParts {
			tuple = append(tuple, c.Text(addressField, p))
		}
		tuple = append(tuple, c.Float("latitude"), c.Float("longitude"))

		id := LocationID(tuple)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		row := make([]any, 0, len(LocationColumns))
		row = append(row, id)
		row = append(row, tuple...)
		tbl.Rows = append(tbl.Rows, append(row, c.IngestedAt))
	}
	if !present {
		return absent(TableLocations, addressField, LocationColumns)
	}
	return Output{Name: TableLocations, Table: tbl}
}

// LocationID is the hex sha256 of the tuple values. Nulls and empty text
// hash differently.
func LocationID(tuple []any) string {
	h := sha256.New()
	for _, v := range tuple {
		if v == nil {
			h.Write([]byte{0})
		} else {
			h.Write([]byte{1})
			h.Write([]byte(table.Stringify(v)))
		}
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}
