package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/middleware"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

type timetableService interface {
	Catalog() dto.TimetableCatalogResponse
	Preview(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, error)
	Create(ctx context.Context, req dto.GenerateTimetableRequest, meta service.RequestMeta) (*models.Timetable, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, bool, error)
	Get(ctx context.Context, id string) (*models.Timetable, error)
	Delete(ctx context.Context, id string, meta service.RequestMeta) error
	RenderPDF(ctx context.Context, id string) ([]byte, string, error)
}

// TimetableHandler exposes timetable generation and storage.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Catalog godoc
// @Summary Timetable catalog
// @Description Departments, weekdays and default subject-teacher pairs
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/catalog [get]
func (h *TimetableHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Catalog(), nil)
}

// Preview godoc
// @Summary Preview timetable
// @Description Generate a timetable without storing it
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/preview [post]
func (h *TimetableHandler) Preview(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid timetable payload"))
		return
	}

	timetable, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, timetable, nil)
}

// Create godoc
// @Summary Create timetable
// @Description Generate and store a timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid timetable payload"))
		return
	}

	timetable, err := h.service.Create(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreatedResponse{ID: timetable.ID})
}

// List godoc
// @Summary List timetables
// @Description Stored timetables newest first
// @Tags Timetables
// @Produce json
// @Param department query string false "Department filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	filter := models.TimetableFilter{Department: strings.TrimSpace(c.Query("department"))}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, items, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, timetable, nil)
}

// Delete godoc
// @Summary Delete timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// PDF godoc
// @Summary Download timetable PDF
// @Tags Timetables
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id}/pdf [get]
func (h *TimetableHandler) PDF(c *gin.Context) {
	data, name, err := h.service.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", data)
}
