// Package scraper runs the resilient scrape loop: acquire a session,
// fetch, extract, transform, emit. One Scrape call is one logical scrape
// of one target URL; callers may run many concurrently.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alisaosipova/steam-csmoney/internal/logger"
	"github.com/alisaosipova/steam-csmoney/internal/metrics"
	"github.com/alisaosipova/steam-csmoney/pkg/fetcher"
	"github.com/alisaosipova/steam-csmoney/pkg/market"
	"github.com/alisaosipova/steam-csmoney/pkg/sessions"
	"github.com/alisaosipova/steam-csmoney/pkg/sink"
	"github.com/alisaosipova/steam-csmoney/pkg/snapshot"
)

// ErrMaxAttemptsReached is returned when the attempt bound is exceeded.
// When it is returned, the sink was never invoked.
var ErrMaxAttemptsReached = errors.New("max attempts reached")

// Config holds scrape-loop tuning.
type Config struct {
	// MaxAttempts bounds the number of failed attempts tolerated before
	// giving up. Zero means a single attempt.
	MaxAttempts int

	// Postpone is passed through to the session source on every
	// acquisition; it is the only throttle between attempts.
	Postpone time.Duration

	// Normalizer rewrites item display names.
	Normalizer market.Normalizer

	// Metrics is optional.
	Metrics *metrics.Registry
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 300,
		Postpone:    25 * time.Second,
		Normalizer:  market.IdentityNormalizer{},
	}
}

// Option configures a Scraper.
type Option func(*Config)

// WithMaxAttempts bounds the failed attempts tolerated before giving up.
func WithMaxAttempts(n int) Option {
	return func(c *Config) { c.MaxAttempts = n }
}

// WithPostpone sets the session acquisition postponement.
func WithPostpone(d time.Duration) Option {
	return func(c *Config) { c.Postpone = d }
}

// WithNormalizer sets the name normalizer.
func WithNormalizer(n market.Normalizer) Option {
	return func(c *Config) { c.Normalizer = n }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Config) { c.Metrics = m }
}

// Scraper composes the session source, fetcher and sink into the scrape
// loop. Each Scrape call owns its own attempt counter and batch; there is
// no shared state between concurrent calls.
type Scraper struct {
	source  sessions.Source
	fetcher fetcher.Fetcher
	sink    sink.Sink
	cfg     Config
}

// New creates a Scraper.
func New(source sessions.Source, f fetcher.Fetcher, s sink.Sink, opts ...Option) *Scraper {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scraper{
		source:  source,
		fetcher: f,
		sink:    s,
		cfg:     cfg,
	}
}

// Scrape runs attempts against url until one batch has been handed to the
// sink or the attempt bound is exceeded. Transient failures (transport
// errors, challenge pages, extraction failures) are counted and retried
// with a fresh fetch; mapping failures and sink failures propagate
// immediately. The sink is invoked exactly once on success and never on
// failure.
func (s *Scraper) Scrape(ctx context.Context, url string) error {
	failedAttempts := 0
	for failedAttempts <= s.cfg.MaxAttempts {
		sess, err := s.source.Acquire(ctx, s.cfg.Postpone)
		if err != nil {
			return fmt.Errorf("acquire session: %w", err)
		}
		if m := s.cfg.Metrics; m != nil {
			m.Attempts.Inc()
		}

		res, err := s.fetcher.Fetch(ctx, sess, url)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}

		text, ok := res.Content()
		if !ok {
			logger.Info("page yielded no content",
				"url", url,
				"attempt", failedAttempts,
				"session", sess.Name)
			if m := s.cfg.Metrics; m != nil {
				m.NoContent.Inc()
			}
			failedAttempts++
			continue
		}

		logger.Info("got a response", "url", url, "session", sess.Name)

		raw, err := snapshot.Items(text)
		if err != nil {
			// Stale content is never re-parsed; the next attempt
			// re-fetches.
			logger.Error("failed to extract page snapshot", "url", url, "error", err)
			if m := s.cfg.Metrics; m != nil {
				m.ExtractionFailures.Inc()
			}
			failedAttempts++
			continue
		}

		batch := &market.Batch{URL: url, FetchedAt: time.Now().UTC()}
		for _, record := range raw {
			items, err := market.Expand(record, s.cfg.Normalizer)
			if err != nil {
				return fmt.Errorf("map item from %s: %w", url, err)
			}
			batch.Append(items...)
		}

		if err := s.sink.Put(ctx, batch); err != nil {
			return fmt.Errorf("deliver batch from %s: %w", url, err)
		}
		if m := s.cfg.Metrics; m != nil {
			m.BatchesEmitted.Inc()
			m.ItemsEmitted.Add(float64(batch.Len()))
		}
		logger.Info("batch delivered", "url", url, "items", batch.Len())
		return nil
	}

	if m := s.cfg.Metrics; m != nil {
		m.Exhaustions.Inc()
	}
	return fmt.Errorf("scrape %s: %w", url, ErrMaxAttemptsReached)
}
