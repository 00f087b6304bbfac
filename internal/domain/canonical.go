package domain

import (
	"math"
	"strconv"
	"strings"
)

// Canonicalize re-types every row of table through binding. It never fails:
// values that cannot be read become absent fields.
func Canonicalize(table RawTable, binding ColumnBinding, dates *DateNormalizer) []CanonicalRecord {
	out := make([]CanonicalRecord, 0, len(table.Rows))
	for row := range table.Rows {
		cell := func(role ColumnRole) (string, bool) {
			return textFor(table, row, binding.Get(role))
		}

		rec := CanonicalRecord{}
		rec.Site, _ = cell(RoleSite)
		rec.RegionOrCity, _ = cell(RoleRegionOrCity)

		if s, ok := cell(RoleStatus); ok && s != "" {
			rec.Status = &s
		}
		if s, ok := cell(RoleFuelDate); ok {
			if d, valid := dates.Parse(s); valid {
				rec.FuelDate = &d
			}
		}
		if s, ok := cell(RoleLatitude); ok {
			if v, valid := ParseCoordinate(s, 90); valid {
				rec.Lat = &v
			}
		}
		if s, ok := cell(RoleLongitude); ok {
			if v, valid := ParseCoordinate(s, 180); valid {
				rec.Lng = &v
			}
		}

		out = append(out, rec)
	}
	return out
}

// textFor returns the trimmed value of res for row, and false when the role
// is absent.
func textFor(table RawTable, row int, res Resolution) (string, bool) {
	switch res.Kind {
	case Bound:
		return strings.TrimSpace(table.Cell(row, res.Index)), true
	case Synthesized:
		return res.Default, true
	default:
		return "", false
	}
}

// ParseCoordinate parses a decimal degree value whose magnitude may not
// exceed limit. Blank, non-numeric, non-finite, and out-of-range values
// return false.
func ParseCoordinate(raw string, limit float64) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}
