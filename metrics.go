package streamcache

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/meigma/streamcache"

// streamMetrics holds the optional OpenTelemetry instruments. A nil
// *streamMetrics disables recording.
type streamMetrics struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	fetchedBytes metric.Int64Counter
}

func newStreamMetrics(provider metric.MeterProvider) (*streamMetrics, error) {
	meter := provider.Meter(meterName)

	hits, err := meter.Int64Counter(
		"streamcache.cache.hits",
		metric.WithDescription("Reads served from the spool"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"streamcache.cache.misses",
		metric.WithDescription("Reads that fetched from the source"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return nil, err
	}

	fetchedBytes, err := meter.Int64Counter(
		"streamcache.source.fetched_bytes",
		metric.WithDescription("Bytes fetched from the source on misses"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &streamMetrics{
		hits:         hits,
		misses:       misses,
		fetchedBytes: fetchedBytes,
	}, nil
}

func (m *streamMetrics) recordHit() {
	if m == nil {
		return
	}
	m.hits.Add(context.Background(), 1)
}

func (m *streamMetrics) recordMiss(fetched int) {
	if m == nil {
		return
	}
	ctx := context.Background()
	m.misses.Add(ctx, 1)
	m.fetchedBytes.Add(ctx, int64(fetched))
}
