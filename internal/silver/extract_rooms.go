// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import "github.com/tomtom215/estatelake/internal/table"

// RoomColumns are the columns of property_rooms.
var RoomColumns = []table.Column{
	{Name: "id", Type: table.Varchar},
	{Name: "room_index", Type: table.BigInt},
	{Name: "room_name", Type: table.Varchar},
	{Name: "dimensions", Type: table.Varchar},
	{Name: "dimensions_alt", Type: table.Varchar},
	{Name: "description", Type: table.Varchar},
	{Name: IngestedAtColumn, Type: table.Timestamp},
}

type roomExtractor struct{}

func (roomExtractor) Name() string { return TableRooms }

// Extract emits one row per room entry, in list order. Properties with a
// null or empty room list contribute nothing.
func (roomExtractor) Extract(rows []Cleaned) Output {
	tbl := table.New(RoomColumns...)
	seen := false
	for n := range rows {
		c := &rows[n]
		rooms, ok := explode(c, roomsField)
		if !ok {
			continue
		}
		seen = true
		for i, room := range rooms {
			tbl.Rows = append(tbl.Rows, []any{
				c.ID,
				int64(i),
				textAt(room, "name"),
				textAt(room, "dimensions"),
				textAt(room, "dimensionsAlt"),
				textAt(room, "description"),
				c.IngestedAt,
			})
		}
	}
	if !seen {
		return absent(TableRooms, roomsField, RoomColumns)
	}
	return Output{Name: TableRooms, Table: tbl}
}
