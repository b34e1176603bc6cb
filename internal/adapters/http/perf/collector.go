package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest  EntryKind = iota // page request served by this process
	KindQuery                     // notification store query
	KindUpstream                  // call to the flight API
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /stats", "ExecContext" or "GET /api/flights"
	StatusCode int    // HTTP status; 0 for queries and failed upstream calls
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer for timing entries.
// When full, the oldest entries are overwritten. Aggregation happens in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	count   int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: size > 0 (otherwise DefaultRingSize is used)
// POST: Returns a ready-to-use collector with pre-allocated storage
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Record appends an entry to the ring buffer.
// POST: Entry stored; if buffer full, oldest entry overwritten
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % c.size
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.count)
}

// Snapshot holds aggregated timing data, served as JSON on /debug/perf.
type Snapshot struct {
	TotalRecorded   int64      `json:"total_recorded"`
	RequestP50Ms    float64    `json:"request_p50_ms"`
	RequestP95Ms    float64    `json:"request_p95_ms"`
	RequestP99Ms    float64    `json:"request_p99_ms"`
	UpstreamP95Ms   float64    `json:"upstream_p95_ms"`
	UpstreamErrors  int        `json:"upstream_errors"`
	SlowestPaths    []PathStat `json:"slowest_paths"`
	SlowestQueries  []PathStat `json:"slowest_queries"`
	SlowestUpstream []PathStat `json:"slowest_upstream"`
}

// PathStat aggregates timing for a single path or store method.
type PathStat struct {
	Path       string  `json:"path"`
	AvgMs      float64 `json:"avg_ms"`
	MaxMs      float64 `json:"max_ms"`
	Count      int     `json:"count"`
	ErrorCount int     `json:"errors"`
	TotalMs    float64 `json:"total_ms"`
}

// failed reports whether e ended in a server-side or transport error.
// Queries carry no status and never count.
func (e Entry) failed() bool {
	switch e.Kind {
	case KindRequest:
		return e.StatusCode >= 500
	case KindUpstream:
		return e.StatusCode == 0 || e.StatusCode >= 500
	}
	return false
}

type pathStats map[string]*PathStat

func (ps pathStats) add(e Entry) {
	s, ok := ps[e.Path]
	if !ok {
		s = &PathStat{Path: e.Path}
		ps[e.Path] = s
	}
	s.Count++
	if e.failed() {
		s.ErrorCount++
	}
	s.TotalMs += e.DurationMs
	if e.DurationMs > s.MaxMs {
		s.MaxMs = e.DurationMs
	}
}

// Snapshot computes aggregated stats over entries recorded at or after since.
// PRE: topN >= 0
// POST: Returns percentiles and the topN slowest paths of each kind
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.entries)
	c.mu.Unlock()

	var requestDurations, upstreamDurations []float64
	byKind := map[EntryKind]pathStats{
		KindRequest:  {},
		KindQuery:    {},
		KindUpstream: {},
	}
	upstreamErrors := 0

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats, ok := byKind[e.Kind]
		if !ok {
			continue
		}
		stats.add(e)
		switch e.Kind {
		case KindRequest:
			requestDurations = append(requestDurations, e.DurationMs)
		case KindUpstream:
			upstreamDurations = append(upstreamDurations, e.DurationMs)
			if e.failed() {
				upstreamErrors++
			}
		}
	}

	snap := Snapshot{
		TotalRecorded:   c.TotalRecorded(),
		UpstreamErrors:  upstreamErrors,
		SlowestPaths:    topByAvg(byKind[KindRequest], topN),
		SlowestQueries:  topByAvg(byKind[KindQuery], topN),
		SlowestUpstream: topByAvg(byKind[KindUpstream], topN),
	}

	if len(requestDurations) > 0 {
		sort.Float64s(requestDurations)
		snap.RequestP50Ms = percentile(requestDurations, 50)
		snap.RequestP95Ms = percentile(requestDurations, 95)
		snap.RequestP99Ms = percentile(requestDurations, 99)
	}
	if len(upstreamDurations) > 0 {
		sort.Float64s(upstreamDurations)
		snap.UpstreamP95Ms = percentile(upstreamDurations, 95)
	}
	return snap
}

// percentile returns the p-th percentile from a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the n slowest paths by average duration, averages filled in.
func topByAvg(stats pathStats, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
