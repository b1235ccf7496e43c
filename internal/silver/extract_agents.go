// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import "github.com/tomtom215/estatelake/internal/table"

const (
	negotiatorIDField      = "negotiator_id"
	negotiatorDetailsField = "negotiator_details"
)

// AgentColumns are the columns of agents.
var AgentColumns = []table.Column{
	{Name: "negotiator_id", Type: table.Varchar},
	{Name: "name", Type: table.Varchar},
	{Name: "email", Type: table.Varchar},
	{Name: IngestedAtColumn, Type: table.Timestamp},
}

type agentExtractor struct{}

func (agentExtractor) Name() string { return TableAgents }

// Extract emits one row per negotiator id, keeping the first occurrence in
// the run. Rows without an id are dropped.
func (agentExtractor) Extract(rows []Cleaned) Output {
	tbl := table.New(AgentColumns...)
	seen := make(map[string]struct{})
	present := false
	for n := range rows {
		c := &rows[n]
		_, hasID := c.Field(negotiatorIDField)
		_, hasDetails := c.Field(negotiatorDetailsField)
		if !hasID && !hasDetails {
			continue
		}
		present = true

		id, ok := c.Text(negotiatorIDField).(string)
		if !ok || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		tbl.Rows = append(tbl.Rows, []any{
			id,
			c.Text(negotiatorDetailsField, "name"),
			c.Text(negotiatorDetailsField, "email"),
			c.IngestedAt,
		})
	}
	if !present {
		return absent(TableAgents, negotiatorIDField, AgentColumns)
	}
	return Output{Name: TableAgents, Table: tbl}
}
