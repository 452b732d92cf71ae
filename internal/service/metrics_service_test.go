package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/timetables", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/timetables", http.StatusOK, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordTimetable(true)
	m.RecordAllocation("ok", 12)
	m.RecordAllocation("capacity_exceeded", 0)
	m.RecordMail(true)
	m.RecordMail(false)
	m.RecordCodeRun("go", true, time.Second)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.TimetablesGenerated)
	assert.Equal(t, uint64(12), snap.SeatsAllocated)
	assert.Equal(t, uint64(1), snap.MailsSent)
	assert.Equal(t, uint64(1), snap.MailsFailed)
	assert.Equal(t, uint64(1), snap.CodeRuns)
}

func TestMetricsServiceHandlerExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordTimetable(false)
	m.RecordAuth("password", false)
	m.RecordTestFinished("time_expired")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `timetables_generated_total{mode="deterministic"} 1`)
	assert.Contains(t, string(body), `auth_attempts_total{method="password",outcome="failure"} 1`)
	assert.Contains(t, string(body), `coding_tests_finished_total{reason="time_expired"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordMail(true)
	m.RecordAuth("google", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
