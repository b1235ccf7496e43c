// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var defaultRoot = []string{"result", "pageContext", "propertyData"}

func rawRow(id any, extra map[string]any) map[string]any {
	prop := map[string]any{"_id": id}
	for k, v := range extra {
		prop[k] = v
	}
	return map[string]any{
		"result": map[string]any{
			"pageContext": map[string]any{"propertyData": prop},
		},
	}
}

func TestSelectDelta(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{
		rawRow("p1", nil),
		rawRow("p2", nil),
		rawRow("p3", nil),
	}

	tests := []struct {
		name     string
		existing map[string]struct{}
		want     []string
	}{
		{"first run selects everything", nil, []string{"p1", "p2", "p3"}},
		{"set difference", IDSet([]any{"p2", "p9"}), []string{"p1", "p3"}},
		{"nothing new", IDSet([]any{"p1", "p2", "p3"}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := SelectDelta(rows, defaultRoot, tt.existing)
			if diff := cmp.Diff(tt.want, d.IDs); diff != "" {
				t.Errorf("delta ids mismatch (-want +got):\n%s", diff)
			}
			if d.Existing+d.Len() != len(rows) {
				t.Errorf("existing %d + selected %d != %d", d.Existing, d.Len(), len(rows))
			}
		})
	}
}

func TestSelectDeltaExactMatch(t *testing.T) {
	t.Parallel()

	// Silver ids are compared as text without trimming or case folding.
	d := SelectDelta([]map[string]any{rawRow("P1", nil), rawRow(" p1", nil)}, defaultRoot, IDSet([]any{"p1"}))
	if diff := cmp.Diff([]string{"P1", " p1"}, d.IDs); diff != "" {
		t.Errorf("delta ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectDeltaMissingAndDuplicateIDs(t *testing.T) {
	t.Parallel()

	rows := []map[string]any{
		rawRow("p1", map[string]any{"price": 100}),
		rawRow(nil, nil),
		rawRow("", nil),
		rawRow("p2", nil),
		rawRow("p1", map[string]any{"price": 200}),
	}
	d := SelectDelta(rows, defaultRoot, nil)

	if diff := cmp.Diff([]string{"p1", "p2"}, d.IDs); diff != "" {
		t.Errorf("delta ids mismatch (-want +got):\n%s", diff)
	}
	if d.MissingID != 2 {
		t.Errorf("MissingID = %d, want 2", d.MissingID)
	}
	if d.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", d.Duplicates)
	}
	prop := PropertyObject(d.Rows[0], defaultRoot)
	if prop["price"] != 200 {
		t.Errorf("duplicate id kept price %v, want the latest row (200)", prop["price"])
	}
}

func TestSelectDeltaNumericIDs(t *testing.T) {
	t.Parallel()

	d := SelectDelta([]map[string]any{rawRow(int64(42), nil)}, defaultRoot, IDSet([]any{"42"}))
	if d.Len() != 0 {
		t.Errorf("numeric id 42 not matched against silver id \"42\"")
	}
}

func TestPropertyObject(t *testing.T) {
	t.Parallel()

	bare := map[string]any{"_id": "p1"}
	flat := map[string]any{
		"result.pageContext.propertyData._id":   "p2",
		"result.pageContext.propertyData.title": "Flat B",
	}

	tests := []struct {
		name string
		row  map[string]any
		want string
	}{
		{"nested", rawRow("p0", nil), "p0"},
		{"bare property falls back to row", bare, "p1"},
		{"flattened keys", flat, "p2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, ok := PropertyID(PropertyObject(tt.row, defaultRoot))
			if !ok || id != tt.want {
				t.Errorf("PropertyID = %q, %v; want %q", id, ok, tt.want)
			}
		})
	}
}
