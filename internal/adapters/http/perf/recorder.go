// Package perf keeps a rolling window of request timings for /healthz.
package perf

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the number of samples a Recorder keeps.
const DefaultWindow = 4096

// Sample is one finished request.
type Sample struct {
	Route    string // see RouteKey
	Status   int
	Duration time.Duration
	At       time.Time
}

// Recorder is a fixed-size ring of samples. When full the oldest sample is
// overwritten. Aggregation happens only in Summary.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	total   int64
}

// NewRecorder creates a Recorder holding up to size samples.
// POST: size <= 0 uses DefaultWindow
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultWindow
	}
	return &Recorder{samples: make([]Sample, size)}
}

// Record stores s.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	r.samples[r.next] = s
	r.next = (r.next + 1) % len(r.samples)
	r.total++
	r.mu.Unlock()
}

// RouteStat aggregates the samples of one route.
type RouteStat struct {
	Route   string  `json:"route"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	totalMs float64
}

// Summary is the aggregate of the samples newer than a cut-off.
type Summary struct {
	Total        int64       `json:"total"` // every request ever recorded
	Window       int         `json:"window"`
	ServerErrors int         `json:"server_errors"`
	P50Ms        float64     `json:"p50_ms"`
	P95Ms        float64     `json:"p95_ms"`
	Slowest      []RouteStat `json:"slowest,omitempty"`
}

// Summary aggregates samples recorded at or after since.
// POST: Slowest holds at most topN routes ordered by average duration, descending
func (r *Recorder) Summary(since time.Time, topN int) Summary {
	r.mu.Lock()
	buf := slices.Clone(r.samples)
	total := r.total
	r.mu.Unlock()

	sum := Summary{Total: total}
	var durations []float64
	routes := map[string]*RouteStat{}
	for _, s := range buf {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		ms := float64(s.Duration.Microseconds()) / 1000
		durations = append(durations, ms)
		if s.Status >= 500 {
			sum.ServerErrors++
		}
		rs, ok := routes[s.Route]
		if !ok {
			rs = &RouteStat{Route: s.Route}
			routes[s.Route] = rs
		}
		rs.Count++
		rs.totalMs += ms
		rs.MaxMs = max(rs.MaxMs, ms)
	}

	sum.Window = len(durations)
	if len(durations) > 0 {
		slices.Sort(durations)
		sum.P50Ms = percentile(durations, 50)
		sum.P95Ms = percentile(durations, 95)
	}

	for _, rs := range routes {
		rs.AvgMs = rs.totalMs / float64(rs.Count)
		sum.Slowest = append(sum.Slowest, *rs)
	}
	slices.SortFunc(sum.Slowest, func(a, b RouteStat) int {
		switch {
		case a.AvgMs > b.AvgMs:
			return -1
		case a.AvgMs < b.AvgMs:
			return 1
		}
		return strings.Compare(a.Route, b.Route)
	})
	if len(sum.Slowest) > topN {
		sum.Slowest = sum.Slowest[:topN]
	}
	return sum
}

// percentile interpolates the p-th percentile of a sorted slice.
// PRE: sorted is non-empty and ascending
func percentile(sorted []float64, p float64) float64 {
	idx := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// planPages are the fixed pages under /plans/ that are not plan ids.
var planPages = map[string]bool{"new": true, "quick": true, "generate": true}

// RouteKey groups a request under its route so plan ids do not split the
// statistics: "GET /plans/3f2a/edit" becomes "GET /plans/{id}/edit".
func RouteKey(method, path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "plans" && !planPages[parts[1]] {
		parts[1] = "{id}"
	}
	return method + " /" + strings.Join(parts, "/")
}
