package domain

import (
	"strings"
	"time"
)

// DefaultDateLayouts is the parse priority for fuelling dates. Day-first
// numeric forms come before month-first ones, so ambiguous values such as
// "03/04/2025" read as 3 April.
var DefaultDateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"1/2/2006",
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2/1/06",
	"1/2/06",
	"2 Jan 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2, 2006",
}

// sentinelValues are spreadsheet formula errors that show up in date cells.
var sentinelValues = map[string]struct{}{
	"#N/A":    {},
	"#DIV/0!": {},
	"#VALUE!": {},
	"#REF!":   {},
	"#NAME?":  {},
	"#NUM!":   {},
	"#NULL!":  {},
}

// IsSentinel reports whether s is a spreadsheet formula error value.
func IsSentinel(s string) bool {
	_, ok := sentinelValues[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}

// DateNormalizer parses raw cell text into calendar dates.
type DateNormalizer struct {
	layouts []string
}

// NewDateNormalizer returns a normalizer trying layouts in order.
// An empty list selects DefaultDateLayouts.
func NewDateNormalizer(layouts []string) *DateNormalizer {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &DateNormalizer{layouts: append([]string(nil), layouts...)}
}

// Layouts returns a copy of the layouts in priority order.
func (d *DateNormalizer) Layouts() []string {
	return append([]string(nil), d.layouts...)
}

// Parse returns the calendar date in raw under the first layout that
// accepts it, as UTC midnight. Blank cells, formula errors, and text no
// layout accepts return false.
func (d *DateNormalizer) Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || IsSentinel(s) {
		return time.Time{}, false
	}

	for _, layout := range d.layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return CalendarDate(t), true
	}
	return time.Time{}, false
}

// CalendarDate drops the clock part of t, keeping the date as seen in t's
// own location, and returns it at UTC midnight.
func CalendarDate(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
