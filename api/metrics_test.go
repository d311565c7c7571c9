package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/relief-portal-api/api"
)

func TestCollector(t *testing.T) {
	c := api.NewCollector(time.Second)
	c.Record(http.MethodGet, "/api/victims", 200, 10*time.Millisecond)
	c.Record(http.MethodGet, "/api/victims", 500, 30*time.Millisecond)
	c.Record(http.MethodPost, "/api/funds", 201, 2*time.Second)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "/api/funds", snap[0].Route)
	assert.Equal(t, int64(1), snap[0].Slow)

	victims := snap[1]
	assert.Equal(t, int64(2), victims.Count)
	assert.Equal(t, int64(1), victims.Errors)
	assert.InDelta(t, 20.0, victims.AvgMillis, 0.01)
	assert.InDelta(t, 30.0, victims.MaxMillis, 0.01)
}

func TestRequestLogger(t *testing.T) {
	c := api.NewCollector(time.Second)
	r := mux.NewRouter()
	r.Use(api.RequestLogger(c))
	var seenID string
	r.HandleFunc("/api/victims/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = api.RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/victims/VIC-2024-000001", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, rr.Header().Get("X-Request-ID"), seenID)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "/api/victims/{id}", snap[0].Route)
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	r := mux.NewRouter()
	r.Use(api.RequestLogger(nil))
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}
