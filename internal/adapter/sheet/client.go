// Package sheet fetches the shared spreadsheet's CSV export and keeps a local
// copy of the last good snapshot.
package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/couchcryptid/fuelplan-etl/internal/domain"
)

// maxBodySize bounds a single export download.
const maxBodySize = 32 << 20 // 32MB

// ErrExportTooLarge is returned when the export body exceeds maxBodySize.
// The partial body is discarded so it never replaces the cached snapshot.
var ErrExportTooLarge = errors.New("sheet export exceeds 32MB")

// StatusError reports a non-2xx response from the export endpoint.
type StatusError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sheet export: status %d: %s", e.StatusCode, e.Body)
}

// Client downloads the CSV export of a spreadsheet.
// It implements source.Fetcher.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a sheet client. timeout bounds the whole request,
// including reading the body.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads and decodes the export. HTML responses (a sign-in page
// served with 200 when the sheet is not shared publicly) are rejected.
func (c *Client) Fetch(ctx context.Context) (domain.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("sheet export request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RawTable{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mediaType == "text/html" {
		return domain.RawTable{}, fmt.Errorf("sheet export: unexpected content type %q", mediaType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read sheet export: %w", err)
	}
	if len(body) > maxBodySize {
		return domain.RawTable{}, ErrExportTooLarge
	}

	table, err := DecodeTable(bytes.NewReader(body))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("decode sheet export: %w", err)
	}

	c.logger.Debug("sheet export fetched",
		"bytes", len(body),
		"rows", len(table.Rows),
		"duration", time.Since(start),
	)
	return table, nil
}
