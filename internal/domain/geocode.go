package domain

import (
	"context"
	"log/slog"
	"strings"
)

// EnrichWithGeocoding fills missing coordinates by forward-geocoding each
// record's city label. Records that already have both coordinates, or whose
// label is blank, synthesized, or equal to region, are left alone. Geocoding
// errors are logged and skipped (graceful degradation). The input slice is not modified;
// the returned count is the number of records that gained coordinates.
func EnrichWithGeocoding(ctx context.Context, records []FilteredRecord, geocoder Geocoder, area, region string, logger *slog.Logger) ([]FilteredRecord, int) {
	out := make([]FilteredRecord, len(records))
	copy(out, records)
	if geocoder == nil {
		return out, 0
	}

	region = normalizeRegion(region)
	enriched := 0
	for i := range out {
		rec := &out[i]
		if rec.HasCoordinates() {
			continue
		}
		place := strings.TrimSpace(rec.RegionOrCity)
		if place == "" || place == UnknownLabel {
			continue
		}
		if region != "" && normalizeRegion(place) == region {
			continue
		}

		result, err := geocoder.ForwardGeocode(ctx, place, area)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"site", rec.Site,
				"place", place,
				"error", err,
			)
			continue
		}
		if result.Lat == 0 && result.Lon == 0 {
			logger.Debug("forward geocoding returned no match", "site", rec.Site, "place", place)
			continue
		}

		lat, lng := result.Lat, result.Lon
		rec.Lat = &lat
		rec.Lng = &lng
		enriched++
	}
	return out, enriched
}
