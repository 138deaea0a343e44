// internal/output/rows.go
package output

import (
	"sort"
	"strconv"
	"strings"

	"github.com/valpere/ORDScrapexter/internal/ord"
)

// Column sets of the flattened tabular views.
var (
	componentColumns = []string{
		"dataset_id", "reaction_id", "input", "reaction_role",
		"identifiers", "amount_kind", "amount_value", "amount_units",
	}
	productColumns = []string{
		"dataset_id", "reaction_id", "reaction_role", "is_desired_product",
		"identifiers", "measurements",
	}
)

// DatasetIDs returns the document's dataset ids in sorted order.
func (d Document) DatasetIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// componentRows flattens every input component into one row.
func componentRows(doc Document) [][]string {
	var rows [][]string
	for _, id := range doc.DatasetIDs() {
		for _, r := range doc[id].Reactions {
			for _, tab := range r.Inputs {
				for _, c := range tab.Components {
					value, units := "", ""
					if q := c.Amount.Quantity(); q != nil {
						value, units = formatFloat(q.Value), q.Units
					}
					rows = append(rows, []string{
						id, r.ReactionID, tab.Name, c.ReactionRole,
						joinIdentifiers(c.Identifiers), c.Amount.Kind(), value, units,
					})
				}
			}
		}
	}
	return rows
}

// productRows flattens every outcome product into one row.
func productRows(doc Document) [][]string {
	var rows [][]string
	for _, id := range doc.DatasetIDs() {
		for _, r := range doc[id].Reactions {
			for _, p := range r.Outcomes {
				rows = append(rows, []string{
					id, r.ReactionID, p.ReactionRole, strconv.FormatBool(p.IsDesiredProduct),
					joinIdentifiers(p.Identifiers), joinMeasurements(p.Measurements),
				})
			}
		}
	}
	return rows
}

func joinIdentifiers(ids []ord.Identifier) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.Type+":"+id.Value)
	}
	return strings.Join(parts, "; ")
}

func joinMeasurements(ms []ord.Measurement) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		var b strings.Builder
		if m.Type != nil {
			b.WriteString(strconv.Itoa(*m.Type))
		}
		if m.Details != nil && *m.Details != "" {
			b.WriteString(" " + *m.Details)
		}
		if m.Mass != nil {
			b.WriteString(" " + formatFloat(m.Mass.Value) + " " + m.Mass.Units)
		}
		parts = append(parts, strings.TrimSpace(b.String()))
	}
	return strings.Join(parts, "; ")
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
