// Package domain models the field-site fuelling sheet and the rules that turn
// one snapshot of it into canonical, filtered records.
//
// # Data Source
//
// The sheet is maintained by hand in a shared spreadsheet and exported as CSV.
// Nothing about its shape is stable between exports: columns get renamed,
// reordered, duplicated, or dropped, and cells hold whatever the last editor
// typed. Every run therefore re-derives the column layout from the header row.
//
// # Header Conventions
//
// Headers are compared after normalization (see [NormalizeHeader]):
//
//	"  Site Name "   →  "sitename"
//	"NEXT-FUEL_DATE" →  "nextfueldate"
//	"Lat"            →  "lat"
//
// Each semantic [ColumnRole] has a fixed list of accepted normalized aliases.
// Roles resolve in a fixed order (Site, RegionOrCity, Status, FuelDate,
// Latitude, Longitude) and a header bound to one role is never reused by a
// later one.
//
// Missing roles degrade instead of failing:
//
//	Site, RegionOrCity:          every row gets the label "Unknown"
//	FuelDate:                    every row gets no date (and is filtered out)
//	Status, Latitude, Longitude: the dependent check or output is disabled
//
// # Date Conventions
//
// Dates are parsed against an ordered list of layouts, day-first before
// month-first. "03/04/2025" is therefore 3 April 2025. This is lossy for
// all-numeric dates with both parts ≤ 12 and is accepted as such.
//
// Spreadsheet formula errors ("#N/A", "#DIV/0!", "#VALUE!", ...) and blank
// cells read as "no date". A value that matches no layout also reads as
// "no date"; parsing never fails the run.
//
// # Filtering
//
// A record is kept when it has a valid date, its region label equals the
// configured target (when a region column was found), and its status is in
// the configured allowed set (when a status column was found). See
// [RowFilter].
package domain
