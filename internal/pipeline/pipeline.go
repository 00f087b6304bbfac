// Package pipeline wires one run: load the snapshot, resolve columns,
// canonicalize and filter rows, then emit and optionally publish the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fuelplan-etl/internal/domain"
	"github.com/couchcryptid/fuelplan-etl/internal/observability"
	"github.com/couchcryptid/fuelplan-etl/internal/report"
	"github.com/couchcryptid/fuelplan-etl/internal/source"
	"github.com/jonboulle/clockwork"
)

// Loader produces the raw snapshot for a run.
type Loader interface {
	Load(ctx context.Context) (domain.RawTable, source.Origin, error)
}

// Emitter writes the run's artifacts.
type Emitter interface {
	Emit(ctx context.Context, records []domain.FilteredRecord, today time.Time) (report.Summary, error)
}

// FeedPublisher ships the dashboard feed to a downstream system.
type FeedPublisher interface {
	Publish(ctx context.Context, entries []report.FeedEntry, generatedAt time.Time) error
}

// Result summarizes a completed run.
type Result struct {
	Origin    source.Origin
	Today     time.Time
	Binding   domain.ColumnBinding
	Filter    domain.FilterStats
	Geocoded  int
	Summary   report.Summary
	Published bool
}

// Pipeline runs the stages in order. It holds no state between runs.
type Pipeline struct {
	loader  Loader
	emitter Emitter
	filter  domain.FilterConfig
	logger  *slog.Logger
	metrics *observability.Metrics

	resolver    *domain.ColumnResolver
	dates       *domain.DateNormalizer
	clock       clockwork.Clock
	location    *time.Location
	geocoder    domain.Geocoder
	geocodeArea string
	publisher   FeedPublisher
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock "today" is read from.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLocation sets the timezone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithResolver replaces the default header aliases.
func WithResolver(r *domain.ColumnResolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithDateNormalizer replaces the default date layouts.
func WithDateNormalizer(d *domain.DateNormalizer) Option {
	return func(p *Pipeline) { p.dates = d }
}

// WithGeocoder enables coordinate enrichment. area narrows each lookup.
func WithGeocoder(g domain.Geocoder, area string) Option {
	return func(p *Pipeline) {
		p.geocoder = g
		p.geocodeArea = area
	}
}

// WithPublisher enables feed publishing after the artifacts are written.
func WithPublisher(fp FeedPublisher) Option {
	return func(p *Pipeline) { p.publisher = fp }
}

// New creates a Pipeline with the given stages and observability.
func New(loader Loader, emitter Emitter, filter domain.FilterConfig, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:   loader,
		emitter:  emitter,
		filter:   filter,
		logger:   logger,
		metrics:  metrics,
		resolver: domain.NewColumnResolver(domain.DefaultAliases),
		dates:    domain.NewDateNormalizer(nil),
		clock:    clockwork.NewRealClock(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full pass. The only errors are an unavailable source
// (wrapping source.ErrSourceUnavailable), a failed artifact write, or
// cancellation. Publishing problems are logged and counted.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := p.clock.Now()
	res := Result{Today: domain.CalendarDate(start.In(p.location))}

	table, origin, err := p.loader.Load(ctx)
	if err != nil {
		p.metrics.SourceFailures.Inc()
		return res, fmt.Errorf("load snapshot: %w", err)
	}
	res.Origin = origin
	p.metrics.SourceLoads.WithLabelValues(string(origin)).Inc()
	p.metrics.RowsRead.Add(float64(len(table.Rows)))
	p.logger.Info("snapshot loaded", "origin", origin, "columns", len(table.Headers), "rows", len(table.Rows))

	res.Binding = p.resolver.Resolve(table.Headers)
	p.recordBinding(res.Binding)

	records := domain.Canonicalize(table, res.Binding, p.dates)
	kept, stats := domain.NewRowFilter(p.filter, res.Binding).Filter(records)
	res.Filter = stats
	p.metrics.RowsKept.Add(float64(stats.Kept))
	for reason, n := range stats.Dropped {
		p.metrics.RowsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}
	p.logger.Info("rows filtered",
		"input", stats.Input,
		"kept", stats.Kept,
		"missing_date", stats.Dropped[domain.DropMissingDate],
		"region", stats.Dropped[domain.DropRegion],
		"status", stats.Dropped[domain.DropStatus],
	)

	if p.geocoder != nil {
		p.metrics.GeocodeEnabled.Set(1)
		kept, res.Geocoded = domain.EnrichWithGeocoding(ctx, kept, p.geocoder, p.geocodeArea, p.filter.TargetRegion, p.logger)
		p.logger.Info("geocoding complete", "enriched", res.Geocoded)
	}

	summary, err := p.emitter.Emit(ctx, kept, res.Today)
	if err != nil {
		return res, fmt.Errorf("emit artifacts: %w", err)
	}
	res.Summary = summary
	p.metrics.RecordsEmitted.WithLabelValues("today").Set(float64(summary.Today))
	p.metrics.RecordsEmitted.WithLabelValues("pending").Set(float64(summary.Pending))
	p.metrics.RecordsEmitted.WithLabelValues("future").Set(float64(summary.Future))
	p.metrics.RecordsEmitted.WithLabelValues("feed").Set(float64(len(summary.Feed)))

	if p.publisher != nil {
		res.Published = p.publish(ctx, summary.Feed, start)
	}

	end := p.clock.Now()
	p.metrics.RunDuration.Set(end.Sub(start).Seconds())
	p.metrics.LastSuccess.Set(float64(end.Unix()))
	p.logger.Info("run complete", "today", res.Today.Format("2006-01-02"), "duration", end.Sub(start))
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, feed []report.FeedEntry, generatedAt time.Time) bool {
	if err := p.publisher.Publish(ctx, feed, generatedAt); err != nil {
		p.metrics.FeedPublishErrors.Inc()
		p.logger.Warn("feed publish failed", "entries", len(feed), "error", err)
		return false
	}
	p.metrics.FeedPublished.Add(float64(len(feed)))
	return true
}

// recordBinding logs which header serves each role and exports the
// resolution kinds as gauges.
func (p *Pipeline) recordBinding(b domain.ColumnBinding) {
	attrs := make([]any, 0, 2*len(domain.Roles()))
	for _, role := range domain.Roles() {
		r := b.Get(role)
		for _, kind := range []domain.ResolutionKind{domain.Bound, domain.Synthesized, domain.Absent} {
			v := 0.0
			if r.Kind == kind {
				v = 1
			}
			p.metrics.ColumnResolution.WithLabelValues(role.String(), kind.String()).Set(v)
		}

		switch r.Kind {
		case domain.Bound:
			attrs = append(attrs, role.String(), r.Header)
		case domain.Synthesized:
			attrs = append(attrs, role.String(), fmt.Sprintf("<%s: %q>", r.Kind, r.Default))
			p.logger.Warn("column not found, using default", "role", role.String(), "default", r.Default)
		default:
			attrs = append(attrs, role.String(), "<absent>")
			p.logger.Info("optional column not found", "role", role.String())
		}
	}
	p.logger.Info("using columns", attrs...)

	for _, s := range b.Shadowed {
		p.logger.Warn("header matches an already bound column",
			"header", s.Header,
			"role", s.Role.String(),
			"claimed_by", s.ClaimedBy.String(),
		)
	}
}
