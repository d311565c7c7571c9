package api

import (
	"sort"
	"sync"
	"time"
)

// RouteStats aggregates the requests served by one route
type RouteStats struct {
	Method      string        `json:"method"`
	Route       string        `json:"route"`
	Count       int64         `json:"count"`
	Errors      int64         `json:"errors"`
	Slow        int64         `json:"slow"`
	TotalTime   time.Duration `json:"-"`
	MaxDuration time.Duration `json:"-"`
	AvgMillis   float64       `json:"avgMs"`
	MaxMillis   float64       `json:"maxMs"`
	LastSeen    time.Time     `json:"lastSeen"`
}

// Collector keeps per-route request statistics in memory
type Collector struct {
	mu     sync.Mutex
	routes map[string]*RouteStats
	slow   time.Duration
}

// NewCollector creates a collector counting requests over slow as slow
func NewCollector(slow time.Duration) *Collector {
	return &Collector{routes: make(map[string]*RouteStats), slow: slow}
}

// Record adds one served request
func (c *Collector) Record(method, route string, status int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := method + " " + route
	rs, ok := c.routes[key]
	if !ok {
		rs = &RouteStats{Method: method, Route: route}
		c.routes[key] = rs
	}
	rs.Count++
	rs.TotalTime += d
	if d > rs.MaxDuration {
		rs.MaxDuration = d
	}
	if status >= 500 {
		rs.Errors++
	}
	if d > c.slow {
		rs.Slow++
	}
	rs.LastSeen = time.Now().UTC()
}

// Snapshot returns a copy of every route's stats, slowest average first
func (c *Collector) Snapshot() []RouteStats {
	c.mu.Lock()
	out := make([]RouteStats, 0, len(c.routes))
	for _, rs := range c.routes {
		s := *rs
		s.AvgMillis = float64(s.TotalTime.Microseconds()) / float64(s.Count) / 1000
		s.MaxMillis = float64(s.MaxDuration.Microseconds()) / 1000
		out = append(out, s)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMillis == out[j].AvgMillis {
			return out[i].Route < out[j].Route
		}
		return out[i].AvgMillis > out[j].AvgMillis
	})
	return out
}
