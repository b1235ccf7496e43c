// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import "github.com/tomtom215/estatelake/internal/table"

// ImageColumns are the columns of property_images.
var ImageColumns = []table.Column{
	{Name: "id", Type: table.Varchar},
	{Name: "image_index", Type: table.BigInt},
	{Name: "src_url", Type: table.Varchar},
	{Name: "url", Type: table.Varchar},
	{Name: "caption", Type: table.Varchar},
	{Name: "order", Type: table.BigInt},
	{Name: "etag", Type: table.Varchar},
	{Name: "last_modified", Type: table.Varchar},
	{Name: "created_at", Type: table.Varchar},
	{Name: "updated_at", Type: table.Varchar},
	{Name: IngestedAtColumn, Type: table.Timestamp},
}

// imageFields is the allow-list of image subfields, in column order after
// image_index. Other subfields are dropped.
var imageFields = []string{"srcUrl", "url", "caption", "order", "etag", "last_modified", "created_at", "updated_at"}

type imageExtractor struct{}

func (imageExtractor) Name() string { return TableImages }

func (imageExtractor) Extract(rows []Cleaned) Output {
	tbl := table.New(ImageColumns...)
	seen := false
	for n := range rows {
		c := &rows[n]
		images, ok := explode(c, imagesField)
		if !ok {
			continue
		}
		seen = true
		for i, img := range images {
			row := make([]any, 0, len(ImageColumns))
			row = append(row, c.ID, int64(i))
			for _, f := range imageFields {
				if f == "order" {
					row = append(row, intAt(img, f))
					continue
				}
				row = append(row, textAt(img, f))
			}
			tbl.Rows = append(tbl.Rows, append(row, c.IngestedAt))
		}
	}
	if !seen {
		return absent(TableImages, imagesField, ImageColumns)
	}
	return Output{Name: TableImages, Table: tbl}
}
