package meta

import "context"

// Row is one flattened record bound for a warehouse table.
type Row = map[string]any

// Table is a named, column-ordered row set produced by one dataset handler.
type Table struct {
	Name   string
	Fields []FieldDef
	Rows   []Row
}

// NewTable allocates an empty table with the catalog schema for name.
// Datasets outside the catalog (breakdown combinations) attach their own
// field list.
func NewTable(name string) *Table {
	return &Table{Name: name, Fields: FieldsFor(name)}
}

// Append adds one row preserving response order.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Empty reports whether the table holds no rows. Sinks skip empty tables.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = f.Name
	}
	return cols
}

// AdAccount is one roster entry handed to the per-account handlers.
type AdAccount struct {
	ID          string
	Name        string
	Currency    string
	Status      string
	CountryCode string
}

// DateWindow bounds an insights time_range. Both dates are inclusive
// YYYY-MM-DD strings.
type DateWindow struct {
	Since string
	Until string
}

// MediaStore persists creative assets to object storage.
//
// StoreImage returns the stored reference, falling back to the original
// remote URL when acquisition fails. StoreVideo returns an empty reference
// on failure: signed video URLs expire, so there is no safe fallback.
type MediaStore interface {
	StoreImage(ctx context.Context, creativeID, imageURL string) string
	StoreVideo(ctx context.Context, creativeID, videoID string) string
}
