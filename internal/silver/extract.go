// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"fmt"
	"path"

	"github.com/tomtom215/estatelake/internal/document"
	"github.com/tomtom215/estatelake/internal/table"
)

// Silver table names.
const (
	TableProperties = "property_details"
	TableRooms      = "property_rooms"
	TableImages     = "property_images"
	TableAgents     = "agents"
	TableLocations  = "locations"
	TableEnergy     = "property_energy"
)

// IngestedAtColumn is stamped on every silver row.
const IngestedAtColumn = "ingested_at"

// Tables lists the silver tables in build order.
var Tables = []string{TableProperties, TableRooms, TableImages, TableAgents, TableLocations, TableEnergy}

// Paths maps silver table names to lake paths.
type Paths map[string]string

// DefaultPaths places every silver table under prefix.
func DefaultPaths(prefix string) Paths {
	p := make(Paths, len(Tables))
	for _, name := range Tables {
		p[name] = path.Join(prefix, name)
	}
	return p
}

// Path returns the lake path of a silver table.
func (p Paths) Path(name string) string {
	if v, ok := p[name]; ok && v != "" {
		return v
	}
	return path.Join("silver", name)
}

// Output is the result of one extractor.
type Output struct {
	Name  string
	Table *table.Table

	// Absent names the source field missing from every row of the batch.
	Absent string

	// Nulled counts, per typed column, source values that could not be
	// converted and were stored as NULL.
	Nulled map[string]int
}

// Empty reports whether the output has no rows to write.
func (o *Output) Empty() bool {
	return o.Table == nil || o.Table.Empty()
}

// Err returns ErrFieldAbsent when the source field was absent.
func (o *Output) Err() error {
	if o.Absent == "" {
		return nil
	}
	return fmt.Errorf("%s: %w: %s", o.Name, ErrFieldAbsent, o.Absent)
}

// Extractor derives one silver table from the cleaned delta.
type Extractor interface {
	Name() string
	Extract(rows []Cleaned) Output
}

// Extractors returns the six silver extractors.
func Extractors() []Extractor {
	return []Extractor{
		propertyExtractor{},
		roomExtractor{},
		imageExtractor{},
		agentExtractor{},
		locationExtractor{},
		energyExtractor{},
	}
}

func absent(name, field string, cols []table.Column) Output {
	return Output{Name: name, Table: table.New(cols...), Absent: field}
}

// textAt returns the value at path as text, or nil when absent.
func textAt(obj map[string]any, path ...string) any {
	v, ok := document.Lookup(obj, path...)
	if !ok {
		return nil
	}
	s, ok := document.String(v)
	if !ok {
		return nil
	}
	return s
}

func intAt(obj map[string]any, path ...string) any {
	v, ok := document.Lookup(obj, path...)
	if !ok {
		return nil
	}
	i, ok := document.Int(v)
	if !ok {
		return nil
	}
	return i
}

// explode returns the objects of the list at field for one property.
// present is false when the property has no such field.
func explode(c *Cleaned, field string) (items []map[string]any, present bool) {
	v, ok := c.Field(field)
	if !ok {
		return nil, false
	}
	list, ok := document.List(v)
	if !ok {
		return nil, true
	}
	items = make([]map[string]any, len(list))
	for i, item := range list {
		items[i], _ = document.AsMap(item)
	}
	return items, true
}
