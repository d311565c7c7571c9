package handlers

import (
	"net/http"
	"strconv"

	"github.com/linesmerrill/relief-portal-api/api"
)

// Metrics exported for testing purposes
type Metrics struct {
	Collector *api.Collector
}

// MetricsSummary totals the request statistics over every route
type MetricsSummary struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalErrors   int64   `json:"totalErrors"`
	SlowRequests  int64   `json:"slowRequests"`
	ErrorRate     float64 `json:"errorRate"`
	RouteCount    int     `json:"routeCount"`
}

// MetricsResponse is the admin metrics dashboard
type MetricsResponse struct {
	Summary MetricsSummary   `json:"summary"`
	Routes  []api.RouteStats `json:"routes"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	HasMore bool             `json:"hasMore"`
}

func summarize(routes []api.RouteStats) MetricsSummary {
	s := MetricsSummary{RouteCount: len(routes)}
	for _, rs := range routes {
		s.TotalRequests += rs.Count
		s.TotalErrors += rs.Errors
		s.SlowRequests += rs.Slow
	}
	if s.TotalRequests > 0 {
		s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	}
	return s
}

// MetricsHandler returns per-route request statistics, slowest first
func (m Metrics) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20 // Default: 20 routes per page
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}
	offset := 0
	if parsed, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && parsed >= 0 {
		offset = parsed
	}

	routes := m.Collector.Snapshot()
	resp := MetricsResponse{Summary: summarize(routes), Limit: limit, Offset: offset, Routes: []api.RouteStats{}}
	if offset < len(routes) {
		end := offset + limit
		if end > len(routes) {
			end = len(routes)
		}
		resp.Routes = routes[offset:end]
		resp.HasMore = end < len(routes)
	}
	writeJSON(w, http.StatusOK, resp)
}
