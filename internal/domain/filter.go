package domain

import "strings"

// DefaultTargetRegion is the region kept when none is configured.
const DefaultTargetRegion = "central"

// DefaultAllowedStatuses are the operational states that still need fuel.
var DefaultAllowedStatuses = []string{"ON-AIR", "IN PROGRESS"}

// FilterConfig holds the business values the row predicate compares against.
// An empty TargetRegion or AllowedStatuses disables that check.
type FilterConfig struct {
	TargetRegion    string
	AllowedStatuses []string
}

// DropReason names the first check a record failed.
type DropReason string

const (
	DropMissingDate DropReason = "missing_date"
	DropRegion      DropReason = "region"
	DropStatus      DropReason = "status"
)

// FilterStats counts one Filter call.
type FilterStats struct {
	Input   int
	Kept    int
	Dropped map[DropReason]int
}

// RowFilter applies the keep/drop predicate for one snapshot. Region and
// status checks only run when the binding found those columns.
type RowFilter struct {
	region      string
	checkRegion bool

	statuses    map[string]struct{}
	checkStatus bool
}

// NewRowFilter prepares the predicate for records produced through binding.
func NewRowFilter(cfg FilterConfig, binding ColumnBinding) *RowFilter {
	f := &RowFilter{
		region:   normalizeRegion(cfg.TargetRegion),
		statuses: make(map[string]struct{}, len(cfg.AllowedStatuses)),
	}
	for _, s := range cfg.AllowedStatuses {
		if n := normalizeStatus(s); n != "" {
			f.statuses[n] = struct{}{}
		}
	}
	f.checkRegion = f.region != "" && binding.IsBound(RoleRegionOrCity)
	f.checkStatus = len(f.statuses) > 0 && binding.IsBound(RoleStatus)
	return f
}

// Check returns the reason r is dropped, or "" and true when it is kept.
func (f *RowFilter) Check(r CanonicalRecord) (DropReason, bool) {
	if r.FuelDate == nil {
		return DropMissingDate, false
	}
	if f.checkRegion && normalizeRegion(r.RegionOrCity) != f.region {
		return DropRegion, false
	}
	if f.checkStatus {
		if r.Status == nil {
			return DropStatus, false
		}
		if _, ok := f.statuses[normalizeStatus(*r.Status)]; !ok {
			return DropStatus, false
		}
	}
	return "", true
}

// Filter returns the kept records in input order.
func (f *RowFilter) Filter(records []CanonicalRecord) ([]FilteredRecord, FilterStats) {
	stats := FilterStats{Input: len(records), Dropped: make(map[DropReason]int)}
	kept := make([]FilteredRecord, 0, len(records))

	for _, r := range records {
		if reason, ok := f.Check(r); !ok {
			stats.Dropped[reason]++
			continue
		}
		kept = append(kept, FilteredRecord{CanonicalRecord: r})
	}

	stats.Kept = len(kept)
	return kept, stats
}

func normalizeRegion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeStatus uppercases and collapses inner whitespace: " in  progress" → "IN PROGRESS".
func normalizeStatus(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
