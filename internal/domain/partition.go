package domain

import "time"

// Partitions splits filtered records by fuel date relative to a given day.
type Partitions struct {
	Today   []FilteredRecord // due on the day
	Pending []FilteredRecord // overdue
	Future  []FilteredRecord // not yet actionable
}

// Partition compares calendar dates only; the clock part of today is ignored.
// Records without a date (only possible for unfiltered input) go nowhere.
func Partition(records []FilteredRecord, today time.Time) Partitions {
	day := CalendarDate(today)

	var p Partitions
	for _, r := range records {
		if r.FuelDate == nil {
			continue
		}
		switch d := CalendarDate(*r.FuelDate); {
		case d.Equal(day):
			p.Today = append(p.Today, r)
		case d.Before(day):
			p.Pending = append(p.Pending, r)
		default:
			p.Future = append(p.Future, r)
		}
	}
	return p
}
