// Package metadata turns canonical records into what the admin UI renders:
// display rows, column descriptors, page payloads and exported JSON.
package metadata

import "github.com/pitabwire/canonico/model"

// PrepareForDisplay projects records into display rows, preserving order.
// The status code is translated to its label; an unset status renders empty.
func PrepareForDisplay(records []model.Canonico) []model.DisplayRow {
	rows := make([]model.DisplayRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, model.DisplayRow{
			Name:        rec.Name,
			Description: rec.Description,
			Status:      rec.Status.Label(),
			Version:     rec.Version,
		})
	}
	return rows
}

// CanonicoColumns returns the table columns for the canonical listing.
func CanonicoColumns() []model.ColumnDescriptor {
	return []model.ColumnDescriptor{
		{Label: "Canonical", Key: model.DisplayKeyName},
		{Label: "Description", Key: model.DisplayKeyDescription},
		{Label: "Status", Key: model.DisplayKeyStatus},
		{Label: "Version", Key: model.DisplayKeyVersion},
	}
}
