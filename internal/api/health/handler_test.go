package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	return status
}

func TestHandleLiveness(t *testing.T) {
	h := New("flowradar", "test")

	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	h := New("flowradar", "test")
	h.Register("clickhouse", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeStatus(t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Len(t, status.Checks, 2)
}

func TestHandleReadiness_FailingComponent(t *testing.T) {
	h := New("flowradar", "test")
	h.Register("clickhouse", func(ctx context.Context) error { return nil })
	h.Register("feed", func(ctx context.Context) error { return assert.AnError })

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	status := decodeStatus(t, rec)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["feed"].Status)
	assert.Equal(t, "healthy", status.Checks["clickhouse"].Status)
}

func TestHandleHealth_Degraded(t *testing.T) {
	h := New("flowradar", "test")
	h.Register("postgres", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return assert.AnError })

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code, "degraded still answers 200")
	status := decodeStatus(t, rec)
	assert.Equal(t, "degraded", status.Status)
}

func TestHandleHealth_AllDown(t *testing.T) {
	h := New("flowradar", "test")
	h.Register("postgres", func(ctx context.Context) error { return assert.AnError })

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decodeStatus(t, rec).Status)
}

func TestHandleHealth_NoChecksRegistered(t *testing.T) {
	h := New("flowradar", "test")

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeStatus(t, rec).Status)
}
