// Package source acquires the sheet snapshot for a run: the live export when
// reachable, otherwise the last good copy on disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/fuelplan-etl/internal/domain"
)

// ErrSourceUnavailable means neither the remote export nor the cache could
// be read. It is the only fatal condition of a run.
var ErrSourceUnavailable = errors.New("source unavailable: remote fetch failed and no cache")

// errRemoteDisabled stands in for the remote error when no fetcher is configured.
var errRemoteDisabled = errors.New("remote source not configured")

// Fetcher retrieves the live snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.RawTable, error)
}

// Cache stores the last good snapshot.
type Cache interface {
	Read() (domain.RawTable, error)
	Write(t domain.RawTable) error
}

// Origin tells where a snapshot came from.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginCache  Origin = "cache"
)

// Loader makes exactly one remote attempt and, failing that, one cache read.
type Loader struct {
	fetcher      Fetcher
	cache        Cache
	refreshCache bool
	logger       *slog.Logger
}

// NewLoader creates a Loader. A nil fetcher disables the remote attempt.
// When refreshCache is set, every successful fetch is written to the cache
// before it is returned.
func NewLoader(fetcher Fetcher, cache Cache, refreshCache bool, logger *slog.Logger) *Loader {
	return &Loader{
		fetcher:      fetcher,
		cache:        cache,
		refreshCache: refreshCache,
		logger:       logger,
	}
}

// Load returns the snapshot and its origin. The error wraps
// ErrSourceUnavailable together with both underlying causes.
func (l *Loader) Load(ctx context.Context) (domain.RawTable, Origin, error) {
	remoteErr := errRemoteDisabled
	if l.fetcher != nil {
		table, err := l.fetcher.Fetch(ctx)
		if err == nil {
			l.storeCache(table)
			return table, OriginRemote, nil
		}
		remoteErr = err
		l.logger.Warn("remote fetch failed, falling back to cache", "error", err)
	}

	table, cacheErr := l.cache.Read()
	if cacheErr != nil {
		return domain.RawTable{}, "", fmt.Errorf("%w: remote: %w; cache: %w", ErrSourceUnavailable, remoteErr, cacheErr)
	}

	l.logger.Info("loaded snapshot from cache", "rows", len(table.Rows))
	return table, OriginCache, nil
}

// storeCache refreshes the cache. Failure is logged: the run still has a
// good snapshot, only the next fallback gets staler.
func (l *Loader) storeCache(table domain.RawTable) {
	if !l.refreshCache {
		return
	}
	if err := l.cache.Write(table); err != nil {
		l.logger.Warn("cache refresh failed", "error", err)
		return
	}
	l.logger.Debug("cache refreshed", "rows", len(table.Rows))
}
