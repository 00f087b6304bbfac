package domain

import "time"

// RawTable is one snapshot of the sheet: the header row and the data rows in
// source order. Rows may be shorter or longer than the header.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value at column col of row, or "" when the row is short.
func (t RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// CanonicalRecord is one sheet row re-typed through a ColumnBinding.
// Nil pointer fields mean the value is absent.
type CanonicalRecord struct {
	Site         string
	RegionOrCity string
	Status       *string
	FuelDate     *time.Time // calendar date at UTC midnight
	Lat          *float64
	Lng          *float64
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r CanonicalRecord) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}

// FilteredRecord is a CanonicalRecord that passed the RowFilter predicate.
type FilteredRecord struct {
	CanonicalRecord
}

// Canonical strips the filter wrapper, e.g. to re-run a filter over its own output.
func Canonical(records []FilteredRecord) []CanonicalRecord {
	out := make([]CanonicalRecord, len(records))
	for i, r := range records {
		out[i] = r.CanonicalRecord
	}
	return out
}
