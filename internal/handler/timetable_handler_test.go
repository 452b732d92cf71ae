package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
)

type fakeTimetableService struct {
	lastFilter models.TimetableFilter
	lastMeta   service.RequestMeta
	cacheHit   bool
	createErr  error
}

func (f *fakeTimetableService) Catalog() dto.TimetableCatalogResponse {
	return dto.TimetableCatalogResponse{Departments: []string{"IT"}}
}

func (f *fakeTimetableService) Preview(_ context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, error) {
	return &models.Timetable{Department: req.Department, PeriodCount: req.Periods}, nil
}

func (f *fakeTimetableService) Create(_ context.Context, req dto.GenerateTimetableRequest, meta service.RequestMeta) (*models.Timetable, error) {
	f.lastMeta = meta
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Timetable{ID: "tt-1", Department: req.Department}, nil
}

func (f *fakeTimetableService) List(_ context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, bool, error) {
	f.lastFilter = filter
	return []models.Timetable{{ID: "tt-1", Department: "IT"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.cacheHit, nil
}

func (f *fakeTimetableService) Get(_ context.Context, id string) (*models.Timetable, error) {
	if id != "tt-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return &models.Timetable{ID: id}, nil
}

func (f *fakeTimetableService) Delete(context.Context, string, service.RequestMeta) error {
	return nil
}

func (f *fakeTimetableService) RenderPDF(_ context.Context, id string) ([]byte, string, error) {
	return []byte("%PDF-1.3 fake"), "timetable_it_20240304.pdf", nil
}

func newTimetableRouter(svc *fakeTimetableService) http.Handler {
	h := NewTimetableHandler(svc)
	r := newTestRouter()
	r.GET("/timetables/catalog", h.Catalog)
	r.POST("/timetables/preview", h.Preview)
	r.POST("/timetables", asUser("admin-1", models.RoleAdmin), h.Create)
	r.GET("/timetables", h.List)
	r.GET("/timetables/:id", h.Get)
	r.DELETE("/timetables/:id", h.Delete)
	r.GET("/timetables/:id/pdf", h.PDF)
	return r
}

const timetablePayload = `{"department":"IT","days":["Monday"],"periods":4,"startTime":"08:00","endTime":"12:00","breakStart":"10:00","breakEnd":"10:15","pairs":[{"subject":"Math","teacher":"Ana"}]}`

func TestTimetableHandlerCreate(t *testing.T) {
	svc := &fakeTimetableService{}
	r := newTimetableRouter(svc)

	w := performRequest(r, jsonRequest(http.MethodPost, "/timetables", timetablePayload))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"tt-1"}`, string(decodeEnvelope(t, w).Data))
	assert.Equal(t, "admin-1", svc.lastMeta.ActorID)
}

func TestTimetableHandlerCreateSurfacesDomainErrors(t *testing.T) {
	r := newTimetableRouter(&fakeTimetableService{createErr: appErrors.ErrEmptySelection})

	w := performRequest(r, jsonRequest(http.MethodPost, "/timetables", timetablePayload))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_SELECTION", decodeEnvelope(t, w).Error.Code)
}

func TestTimetableHandlerListReportsCacheHit(t *testing.T) {
	svc := &fakeTimetableService{cacheHit: true}
	r := newTimetableRouter(svc)

	w := performRequest(r, httptest.NewRequest(http.MethodGet, "/timetables?department=IT&page=2&page_size=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
	assert.Equal(t, models.TimetableFilter{Department: "IT", Page: 2, PageSize: 5}, svc.lastFilter)
}

func TestTimetableHandlerGetAndPDF(t *testing.T) {
	r := newTimetableRouter(&fakeTimetableService{})

	w := performRequest(r, httptest.NewRequest(http.MethodGet, "/timetables/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(r, httptest.NewRequest(http.MethodGet, "/timetables/tt-1/pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timetable_it_20240304.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 fake", w.Body.String())

	w = performRequest(r, httptest.NewRequest(http.MethodDelete, "/timetables/tt-1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTimetableHandlerCatalogAndPreview(t *testing.T) {
	r := newTimetableRouter(&fakeTimetableService{})

	w := performRequest(r, httptest.NewRequest(http.MethodGet, "/timetables/catalog", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"departments":["IT"]`)

	w = performRequest(r, jsonRequest(http.MethodPost, "/timetables/preview", `{"department":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, jsonRequest(http.MethodPost, "/timetables/preview", timetablePayload))
	assert.Equal(t, http.StatusOK, w.Code)
}
