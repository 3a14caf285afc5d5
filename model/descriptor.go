package model

// DisplayRow is the read-only tabular projection of a Canonico. It is rebuilt
// on every list fetch and never sent back to the backend.
type DisplayRow struct {
	Name        string `json:"nomeCanonico"`
	Description string `json:"descricaoCanonico"`
	Status      string `json:"statusCanonico"`
	Version     int    `json:"versaoCanonico"`
}

// Display row keys referenced by column descriptors.
const (
	DisplayKeyName        = "nomeCanonico"
	DisplayKeyDescription = "descricaoCanonico"
	DisplayKeyStatus      = "statusCanonico"
	DisplayKeyVersion     = "versaoCanonico"
)

// ColumnDescriptor describes a visible table column. Key names a DisplayRow
// JSON field.
type ColumnDescriptor struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// CanonicoPage is the data loaded for the canonical list page.
type CanonicoPage struct {
	List    []DisplayRow       `json:"list"`
	Columns []ColumnDescriptor `json:"columns"`
}
