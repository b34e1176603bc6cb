package api

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"flightlog/internal/adapters/http/perf"
)

// DefaultSlowUpstreamMs is the default threshold for slow API call warnings.
const DefaultSlowUpstreamMs = 500

var slowUpstreamMs int64
var slowUpstreamOnce sync.Once

func getSlowUpstreamThreshold() float64 {
	slowUpstreamOnce.Do(func() {
		ms := DefaultSlowUpstreamMs
		if v := os.Getenv("FLIGHTLOG_SLOW_UPSTREAM_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowUpstreamMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowUpstreamMs))
}

// TimedTransport logs every API round trip and records it to a collector.
type TimedTransport struct {
	base      http.RoundTripper
	collector *perf.Collector
	threshold float64
}

// NewTimedTransport wraps base (http.DefaultTransport when nil).
// PRE: collector may be nil
// POST: Returns a RoundTripper that times each call
func NewTimedTransport(base http.RoundTripper, collector *perf.Collector) *TimedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TimedTransport{base: base, collector: collector, threshold: getSlowUpstreamThreshold()}
}

// RoundTrip implements http.RoundTripper.
func (t *TimedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", durationMs,
	}
	switch {
	case err != nil:
		slog.Warn("upstream_error", append(attrs, "error", err)...)
	case durationMs >= t.threshold:
		slog.Warn("slow_upstream", attrs...)
	default:
		slog.Debug("upstream", attrs...)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindUpstream,
			Path:       req.Method + " " + req.URL.Path,
			StatusCode: status,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
	return resp, err
}
