package streamcache

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a Stream.
type Option func(*config)

type config struct {
	spool    Spool
	spoolDir string
	logger   *slog.Logger
	meter    metric.MeterProvider
}

// WithSpool sets the backing store for fetched bytes. The Stream takes
// ownership and closes the spool on Close. The default is a temporary
// file spool, see NewFileSpool.
func WithSpool(spool Spool) Option {
	return func(cfg *config) {
		cfg.spool = spool
	}
}

// WithSpoolDir sets the directory used for the default file spool.
// Ignored when WithSpool is also given.
func WithSpoolDir(dir string) Option {
	return func(cfg *config) {
		cfg.spoolDir = dir
	}
}

// WithLogger sets the logger used for cache diagnostics and the
// hit/miss summary logged on Close. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			return
		}
		cfg.logger = logger
	}
}

// WithMeterProvider enables OpenTelemetry counters for cache hits,
// misses, and bytes fetched from the source. Metrics are disabled by
// default; the counters returned by Stats are always maintained.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.meter = provider
	}
}
