package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/middleware"
	"github.com/noah-isme/eduvita-api/internal/service"
)

type fakeDashboardSrv struct {
	adminResp *dto.AdminDashboardResponse
	adminErr  error
	adminHit  bool
	refreshed bool
}

func (f *fakeDashboardSrv) Admin(_ context.Context, refresh bool) (*dto.AdminDashboardResponse, bool, error) {
	f.refreshed = refresh
	return f.adminResp, f.adminHit, f.adminErr
}

func TestDashboardHandlerAdminSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		adminResp: &dto.AdminDashboardResponse{Timetables: 3, Users: dto.UserCounts{Total: 7}},
		adminHit:  true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	middleware.SetCacheHit(c, false)

	handler.Admin(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.AdminDashboardResponse `json:"data"`
		Meta map[string]interface{}     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, 3, envelope.Data.Timetables)
	assert.Equal(t, 7, envelope.Data.Users.Total)
}

func TestDashboardHandlerAdminRefresh(t *testing.T) {
	svc := &fakeDashboardSrv{adminResp: &dto.AdminDashboardResponse{}}
	r := newTestRouter()
	r.GET("/admin/dashboard", NewDashboardHandler(svc).Admin)

	w := performRequest(r, httptest.NewRequest(http.MethodGet, "/admin/dashboard?refresh=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.refreshed)

	performRequest(r, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.False(t, svc.refreshed)
}

func TestDashboardHandlerAdminError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{adminErr: errors.New("db down")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)

	handler.Admin(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	r := newTestRouter()
	r.GET("/ready", h.Ready)
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Prometheus)

	w := performRequest(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"connection refused"}}`, w.Body.String())

	w = performRequest(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
