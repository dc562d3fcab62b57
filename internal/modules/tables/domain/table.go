package domain

import "mesaYaWaitlist/internal/shared/normalization"

// Table represents a seating unit and its occupancy flag.
type Table struct {
	ID        string
	TableID   string
	TableType string
	// Status is true when the table is occupied.
	Status bool
}

const (
	StatusLabelOccupied  = "Ocupada"
	StatusLabelAvailable = "Disponible"
)

// StatusLabel returns the human label shown on the table card.
func (t Table) StatusLabel() string {
	if t.Status {
		return StatusLabelOccupied
	}
	return StatusLabelAvailable
}

// StatusClass returns the css class matching StatusLabel.
func (t Table) StatusClass() string {
	if t.Status {
		return "occupied"
	}
	return "available"
}

// NormalizeTable constructs a Table from an arbitrary map payload.
func NormalizeTable(raw map[string]any) Table {
	raw = normalization.MapFromPayload(raw)
	return Table{
		ID:        normalization.AsIdentifier(raw["id"]),
		TableID:   normalization.AsIdentifier(raw["table_id"]),
		TableType: normalization.AsString(raw["table_type"]),
		Status:    normalization.AsBool(raw["status"]),
	}
}

// BuildTableList converts a decoded JSON array into tables, skipping
// elements that are not objects.
func BuildTableList(items []any) []Table {
	tables := make([]Table, 0, len(items))
	for _, item := range items {
		if rawMap, ok := item.(map[string]any); ok {
			tables = append(tables, NormalizeTable(rawMap))
		}
	}
	return tables
}

// CountOccupied returns how many tables are flagged as occupied.
func CountOccupied(tables []Table) int {
	count := 0
	for _, table := range tables {
		if table.Status {
			count++
		}
	}
	return count
}
