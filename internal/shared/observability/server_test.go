package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Health(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.RecordRun(at, true)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "up", status.Status)
	assert.True(t, status.Clean)
	assert.True(t, at.Equal(status.LastRun))
}

func TestServer_Metrics(t *testing.T) {
	UnitsParsedTotal.Add(0)
	rec := httptest.NewRecorder()
	NewServer("127.0.0.1:0").Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "archcheck_units_parsed_total")
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	require.NoError(t, s.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
