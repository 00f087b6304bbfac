//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/fuelplan-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Riyadh", "sa")
	require.NoError(t, err)

	assert.InDelta(t, 24.71, result.Lat, 0.3, "lat should be near Riyadh")
	assert.InDelta(t, 46.67, result.Lon, 0.3, "lon should be near Riyadh")
	assert.Contains(t, result.FormattedAddress, "Riyadh")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ForwardGeocode_LowRelevance(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return a feature; only the absence of an
	// error is checked.
	_, err := c.ForwardGeocode(context.Background(), "XYZNONEXISTENT99", "")
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(t), 10, observability.NewMetrics())

	r1, err := cached.ForwardGeocode(context.Background(), "Jeddah", "sa")
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Jeddah")

	r2, err := cached.ForwardGeocode(context.Background(), "Jeddah", "sa")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
