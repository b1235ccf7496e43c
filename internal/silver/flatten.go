// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"strings"
	"time"
	"unicode"

	"github.com/tomtom215/estatelake/internal/document"
)

// Property object keys.
const (
	addressField = "address"
	summaryField = "accomadation_summary"
	roomsField   = "room_details"
	imagesField  = "images"
	extrasField  = "extras"
)

// Cleaned is one delta row after flattening and cleaning.
type Cleaned struct {
	ID          string
	Property    map[string]any
	FullAddress string
	Summary     string
	IngestedAt  time.Time
}

// Field resolves a path inside the property object.
func (c *Cleaned) Field(path ...string) (any, bool) {
	return document.Lookup(c.Property, path...)
}

// Text returns the property field at path as text, or nil when absent.
func (c *Cleaned) Text(path ...string) any {
	return textAt(c.Property, path...)
}

// Float returns the numeric property field at path, or nil when absent or
// not numeric.
func (c *Cleaned) Float(path ...string) any {
	v, ok := c.Field(path...)
	if !ok {
		return nil
	}
	f, ok := document.Float(v)
	if !ok {
		return nil
	}
	return f
}

// Int returns the integral property field at path, or nil when absent or
// not integral.
func (c *Cleaned) Int(path ...string) any {
	return intAt(c.Property, path...)
}

// Flatten cleans the delta rows. Every row is stamped with ingestedAt.
func Flatten(d *Delta, root []string, ingestedAt time.Time) []Cleaned {
	out := make([]Cleaned, len(d.Rows))
	for n, row := range d.Rows {
		prop := PropertyObject(row, root)
		summary, _ := document.Lookup(prop, summaryField)
		out[n] = Cleaned{
			ID:          d.IDs[n],
			Property:    prop,
			FullAddress: FullAddress(prop),
			Summary:     CleanSummary(summary),
			IngestedAt:  ingestedAt,
		}
	}
	return out
}

// FullAddress joins house number and address lines 1-3 with fixed
// separators. Missing parts contribute empty text.
func FullAddress(prop map[string]any) string {
	part := func(name string) string {
		return document.Text(prop, addressField, name)
	}
	return part("house_number") + " " + part("address1") + ", " + part("address2") + ", " + part("address3")
}

// CleanSummary splits the accommodation summary into lines, trims bullets and
// whitespace from each, drops empty lines and joins the rest with ", ".
// Null or empty input yields "".
func CleanSummary(v any) string {
	s, ok := document.String(v)
	if !ok || s == "" {
		return ""
	}
	lines := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimFunc(line, isBulletOrSpace); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, ", ")
}

func isBulletOrSpace(r rune) bool {
	return r == '•' || unicode.IsSpace(r)
}
