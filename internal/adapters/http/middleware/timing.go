package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"flightlog/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
// Page loads include at least one upstream API call, so this sits above the
// upstream threshold.
const DefaultSlowRequestMs = 800

// slowRequestMs is the cached threshold (read via atomic after first load).
var slowRequestMs int64

var slowRequestOnce sync.Once

// getSlowRequestThreshold returns the slow-request threshold in milliseconds.
func getSlowRequestThreshold() float64 {
	slowRequestOnce.Do(func() {
		ms := DefaultSlowRequestMs
		if v := os.Getenv("FLIGHTLOG_SLOW_REQUEST_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowRequestMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowRequestMs))
}

// requestIDCounter is an atomic counter for request IDs.
var requestIDCounter uint64

// statusWriter wraps http.ResponseWriter to capture the status code and to
// stamp a Server-Timing header before the first byte goes out.
type statusWriter struct {
	http.ResponseWriter
	status      int
	start       time.Time
	wroteHeader bool
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
// PRE: code is a valid HTTP status code
// POST: status stored, header written to underlying ResponseWriter
func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
		sw.status = code
		sw.Header().Set("Server-Timing", fmt.Sprintf("app;dur=%.1f", float64(time.Since(sw.start).Microseconds())/1000.0))
	}
	sw.ResponseWriter.WriteHeader(code)
}

// Write sends an implicit 200 through WriteHeader so the timing header is set.
func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

// statusWriterPool reduces allocations on the hot path.
var statusWriterPool = sync.Pool{
	New: func() any {
		return &statusWriter{}
	},
}

// idSegmentParents name path segments followed by a record id.
var idSegmentParents = map[string]bool{"flights": true, "notifications": true}

// routeLabel collapses record ids so /flights/12/delete and /flights/13/delete
// aggregate under one perf path.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if idSegmentParents[parts[i-1]] && isRecordID(parts[i]) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isRecordID(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return true
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Timing returns middleware that logs request duration.
// Requests to /static/ are excluded.
// Normal requests log at DEBUG; slow requests (above threshold) log at WARN.
// Every response carries X-Request-ID and Server-Timing headers.
// If collector is non-nil, entries are recorded for /debug/perf.
func Timing(collector *perf.Collector) func(http.Handler) http.Handler {
	threshold := getSlowRequestThreshold()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if isStatic(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := atomic.AddUint64(&requestIDCounter, 1)
			w.Header().Set("X-Request-ID", strconv.FormatUint(reqID, 10))

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			sw.start = start
			sw.wroteHeader = false
			defer func() {
				durationMs := float64(time.Since(start).Microseconds()) / 1000.0
				label := r.Method + " " + routeLabel(path)

				if durationMs >= threshold {
					slog.Warn("slow_request",
						"request_id", reqID,
						"route", label,
						"path", path,
						"status", sw.status,
						"duration_ms", durationMs,
					)
				} else {
					slog.Debug("request",
						"request_id", reqID,
						"route", label,
						"status", sw.status,
						"duration_ms", durationMs,
					)
				}

				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       label,
						StatusCode: sw.status,
						DurationMs: durationMs,
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
			if !sw.wroteHeader {
				// Empty body: flush the implicit 200 while the timing header can still be set.
				sw.WriteHeader(http.StatusOK)
			}
		})
	}
}
