// Command inspect runs the column, date and filter stages over a local sheet
// snapshot and prints what a real run would do with it. Nothing is written.
//
// Usage:
//
//	go run ./cmd/inspect -file sheet_cache.csv -today 2025-03-16
//	go run ./cmd/inspect -file sheet_cache.csv -tz Asia/Riyadh
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/fuelplan-etl/internal/adapter/sheet"
	"github.com/couchcryptid/fuelplan-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// phase tracks the findings of one inspection step.
type phase struct {
	name     string
	warnings []string
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) ok() bool { return len(p.warnings) == 0 }

type options struct {
	region   string
	statuses string
	formats  string
}

func main() {
	file := flag.String("file", "", "path to a CSV snapshot of the sheet")
	today := flag.String("today", "", "reference date as YYYY-MM-DD (default: current date in -tz)")
	tz := flag.String("tz", envOr("TIMEZONE", "UTC"), "timezone deciding the current date")
	var opts options
	flag.StringVar(&opts.region, "region", domain.DefaultTargetRegion, "target region; empty disables the check")
	flag.StringVar(&opts.statuses, "statuses", strings.Join(domain.DefaultAllowedStatuses, ","), "comma-separated allowed statuses")
	flag.StringVar(&opts.formats, "formats", "", "';'-separated date layouts overriding the defaults")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	now, err := referenceDay(clockwork.NewRealClock(), *today, *tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	table, err := sheet.NewFileCache(*file).Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	inspect(os.Stdout, table, now, opts)
}

// referenceDay returns the calendar day partitions are computed against:
// the -today value when given, otherwise the clock's date in tz.
func referenceDay(clock clockwork.Clock, today, tz string) (time.Time, error) {
	if today != "" {
		day, err := time.Parse("2006-01-02", today)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid -today %q: %w", today, err)
		}
		return day, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -tz %q: %w", tz, err)
	}
	return domain.CalendarDate(clock.Now().In(loc)), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func inspect(w io.Writer, table domain.RawTable, now time.Time, opts options) []*phase {
	fmt.Fprintln(w, "=== Fuel Plan Snapshot Inspection ===")
	fmt.Fprintf(w, "Headers: %d, rows: %d, today: %s\n\n", len(table.Headers), len(table.Rows), now.Format("2006-01-02"))

	binding := domain.Resolve(table.Headers)
	dates := domain.NewDateNormalizer(splitList(opts.formats, ";"))
	records := domain.Canonicalize(table, binding, dates)
	filter := domain.FilterConfig{TargetRegion: strings.TrimSpace(opts.region), AllowedStatuses: splitList(opts.statuses, ",")}
	kept, stats := domain.NewRowFilter(filter, binding).Filter(records)
	parts := domain.Partition(kept, now)

	phases := []*phase{
		inspectColumns(w, binding),
		inspectDates(w, table, binding, records),
		inspectFilter(w, stats),
		inspectPartition(w, kept, parts),
	}

	fmt.Fprintln(w)
	for _, p := range phases {
		status := "OK"
		if !p.ok() {
			status = fmt.Sprintf("WARN (%d)", len(p.warnings))
		}
		fmt.Fprintf(w, "  %-24s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.ok() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, msg := range p.warnings {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, msg)
		}
	}
	return phases
}

func inspectColumns(w io.Writer, b domain.ColumnBinding) *phase {
	p := &phase{name: "Column resolution"}
	fmt.Fprintln(w, "Columns:")
	for _, role := range domain.Roles() {
		r := b.Get(role)
		switch r.Kind {
		case domain.Bound:
			fmt.Fprintf(w, "  %-16s %q (column %d)\n", role, r.Header, r.Index+1)
		case domain.Synthesized:
			fmt.Fprintf(w, "  %-16s default %q\n", role, r.Default)
			p.warnf("no header for %s, every row gets %q", role, r.Default)
		default:
			fmt.Fprintf(w, "  %-16s absent\n", role)
		}
	}
	for _, s := range b.Shadowed {
		p.warnf("header %q also matches %s but is already used for %s", s.Header, s.Role, s.ClaimedBy)
	}
	return p
}

func inspectDates(w io.Writer, table domain.RawTable, b domain.ColumnBinding, records []domain.CanonicalRecord) *phase {
	p := &phase{name: "Date parsing"}
	res := b.Get(domain.RoleFuelDate)
	if res.Kind != domain.Bound {
		p.warnf("fuel date column missing, every row will be dropped")
		return p
	}

	var parsed, sentinel, blank int
	for i, rec := range records {
		raw := strings.TrimSpace(table.Cell(i, res.Index))
		switch {
		case rec.FuelDate != nil:
			parsed++
		case raw == "":
			blank++
		case domain.IsSentinel(raw):
			sentinel++
		default:
			p.warnf("row %d: unparseable date %q", i+2, raw)
		}
	}
	fmt.Fprintf(w, "Dates: %d parsed, %d blank, %d error markers, %d unparseable\n",
		parsed, blank, sentinel, len(p.warnings))
	return p
}

func inspectFilter(w io.Writer, stats domain.FilterStats) *phase {
	p := &phase{name: "Filter"}
	fmt.Fprintf(w, "Filter: %d kept of %d (missing date %d, region %d, status %d)\n",
		stats.Kept, stats.Input,
		stats.Dropped[domain.DropMissingDate], stats.Dropped[domain.DropRegion], stats.Dropped[domain.DropStatus])
	if stats.Input > 0 && stats.Kept == 0 {
		p.warnf("no rows survive the filter")
	}
	return p
}

func inspectPartition(w io.Writer, kept []domain.FilteredRecord, parts domain.Partitions) *phase {
	p := &phase{name: "Partition"}
	var geolocated int
	for _, r := range kept {
		if r.HasCoordinates() {
			geolocated++
		}
	}
	fmt.Fprintf(w, "Partition: %d today, %d pending, %d future; %d geolocated for the feed\n",
		len(parts.Today), len(parts.Pending), len(parts.Future), geolocated)
	if len(kept) > 0 && geolocated == 0 {
		p.warnf("no kept row has both coordinates, the dashboard feed will be empty")
	}
	return p
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
