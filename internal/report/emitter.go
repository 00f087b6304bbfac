// Package report renders filtered records into the run's artifacts: the two
// operator CSVs and the dashboard feed.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fuelplan-etl/internal/adapter/file"
	"github.com/couchcryptid/fuelplan-etl/internal/domain"
)

// Artifact file names inside the output directory.
const (
	TodayFile   = "fuel_today.csv"
	PendingFile = "fuel_pending.csv"
	FeedFile    = "data.json"
)

// isoDate is the date layout of every artifact.
const isoDate = "2006-01-02"

var csvHeader = []string{"site", "region_or_city", "fuel_date"}

// FeedEntry is one element of data.json. Field names are consumed by the
// dashboard as-is.
type FeedEntry struct {
	SiteName        string   `json:"SiteName"`
	CityName        string   `json:"CityName"`
	NextFuelingPlan string   `json:"NextFuelingPlan"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
}

// Summary describes what a single Emit call wrote.
type Summary struct {
	Today   int
	Pending int
	Future  int
	// Feed holds the entries written to data.json, in input order.
	Feed []FeedEntry
}

// Emitter writes artifacts into a directory, replacing previous ones.
type Emitter struct {
	dir    string
	logger *slog.Logger
}

// NewEmitter creates an Emitter rooted at dir. The directory is created on
// first Emit if missing.
func NewEmitter(dir string, logger *slog.Logger) *Emitter {
	return &Emitter{dir: dir, logger: logger}
}

// Dir returns the output directory.
func (e *Emitter) Dir() string { return e.dir }

// Emit partitions records against today and writes all three artifacts.
// Each file is replaced atomically; a failure leaves the previous version of
// that file in place.
func (e *Emitter) Emit(ctx context.Context, records []domain.FilteredRecord, today time.Time) (Summary, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	parts := domain.Partition(records, today)
	feed := BuildFeed(records)

	artifacts := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TodayFile, func(w io.Writer) error { return WriteCSV(w, parts.Today) }},
		{PendingFile, func(w io.Writer) error { return WriteCSV(w, parts.Pending) }},
		{FeedFile, func(w io.Writer) error { return WriteFeed(w, feed) }},
	}

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		if err := file.WriteAtomic(filepath.Join(e.dir, a.name), a.write); err != nil {
			return Summary{}, fmt.Errorf("write %s: %w", a.name, err)
		}
	}

	s := Summary{
		Today:   len(parts.Today),
		Pending: len(parts.Pending),
		Future:  len(parts.Future),
		Feed:    feed,
	}
	e.logger.Info("artifacts written",
		"dir", e.dir,
		"today", s.Today,
		"pending", s.Pending,
		"future", s.Future,
		"feed", len(s.Feed),
	)
	return s, nil
}

// WriteCSV writes the operator report for records. Undated records render
// with an empty fuel_date.
func WriteCSV(w io.Writer, records []domain.FilteredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Site, r.RegionOrCity, formatDate(r.FuelDate)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BuildFeed projects geolocated records into feed entries. Records lacking
// either coordinate are left out. The result is never nil.
func BuildFeed(records []domain.FilteredRecord) []FeedEntry {
	feed := make([]FeedEntry, 0, len(records))
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		lat, lng := *r.Lat, *r.Lng
		feed = append(feed, FeedEntry{
			SiteName:        r.Site,
			CityName:        r.RegionOrCity,
			NextFuelingPlan: formatDate(r.FuelDate),
			Lat:             &lat,
			Lng:             &lng,
		})
	}
	return feed
}

// WriteFeed encodes entries as an indented JSON array.
func WriteFeed(w io.Writer, entries []FeedEntry) error {
	if entries == nil {
		entries = []FeedEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(isoDate)
}
