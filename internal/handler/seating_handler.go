package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

type seatingService interface {
	Allocate(ctx context.Context, req dto.AllocateSeatsRequest) (*dto.AllocateSeatsResponse, error)
	CreateChart(ctx context.Context, req dto.CreateSeatChartRequest, meta service.RequestMeta) (*dto.SeatChartResponse, error)
	UploadChart(ctx context.Context, contentType string, size int64, r io.Reader, meta service.RequestMeta) (*dto.SeatChartResponse, error)
	ListCharts(ctx context.Context, page, size int) ([]dto.SeatChartResponse, *models.Pagination, error)
	DeleteChart(ctx context.Context, id string, meta service.RequestMeta) error
	Open(ctx context.Context, token string) (*os.File, *models.SeatChart, error)
}

// multipartOverhead is the slack allowed on top of the file limit for
// boundaries and part headers.
const multipartOverhead = 64 << 10

// SeatingHandler exposes exam seat allocation and chart files.
type SeatingHandler struct {
	service        seatingService
	maxUploadBytes int64
}

// NewSeatingHandler constructs the handler. maxUploadBytes bounds the
// uploaded chart file; zero falls back to 10 MiB.
func NewSeatingHandler(svc seatingService, maxUploadBytes int64) *SeatingHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 * 1024 * 1024
	}
	return &SeatingHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the seating routes. Every authenticated role may list
// charts; allocation, chart creation, upload and deletion pass adminOnly.
func (h *SeatingHandler) RegisterRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	rg.GET("/charts", h.ListCharts)
	rg.POST("/allocate", adminOnly, h.Allocate)
	rg.POST("/charts", adminOnly, h.CreateChart)
	rg.POST("/charts/upload", adminOnly, h.UploadChart)
	rg.DELETE("/charts/:id", adminOnly, h.DeleteChart)
}

// Allocate godoc
// @Summary Preview seat allocation
// @Description Allocate department headcounts onto the venue grid
// @Tags Seating
// @Accept json
// @Produce json
// @Param payload body dto.AllocateSeatsRequest true "Venue and demand"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /seating/allocate [post]
func (h *SeatingHandler) Allocate(c *gin.Context) {
	var req dto.AllocateSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid allocation payload"))
		return
	}

	plan, err := h.service.Allocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, plan, nil)
}

// CreateChart godoc
// @Summary Create seat chart
// @Description Allocate, render as pdf or csv and store the chart
// @Tags Seating
// @Accept json
// @Produce json
// @Param payload body dto.CreateSeatChartRequest true "Chart payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /seating/charts [post]
func (h *SeatingHandler) CreateChart(c *gin.Context) {
	var req dto.CreateSeatChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid chart payload"))
		return
	}

	chart, err := h.service.CreateChart(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, chart)
}

// UploadChart godoc
// @Summary Upload seat chart
// @Description Store a PDF chart rendered by the client
// @Tags Seating
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /seating/charts/upload [post]
func (h *SeatingHandler) UploadChart(c *gin.Context) {
	limit := h.maxUploadBytes + multipartOverhead
	if c.Request.ContentLength > limit {
		response.Error(c, h.tooLarge())
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, h.tooLarge())
			return
		}
		response.Error(c, bindError(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	chart, err := h.service.UploadChart(c.Request.Context(), header.Header.Get("Content-Type"), header.Size, file, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, chart)
}

func (h *SeatingHandler) tooLarge() error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
}

// ListCharts godoc
// @Summary List seat charts
// @Tags Seating
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /seating/charts [get]
func (h *SeatingHandler) ListCharts(c *gin.Context) {
	page, size := pageParams(c)
	charts, pagination, err := h.service.ListCharts(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, charts, pagination)
}

// DeleteChart godoc
// @Summary Delete seat chart
// @Tags Seating
// @Param id path string true "Chart ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /seating/charts/{id} [delete]
func (h *SeatingHandler) DeleteChart(c *gin.Context) {
	if err := h.service.DeleteChart(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Download godoc
// @Summary Download stored file
// @Description Streams a stored chart identified by a signed token
// @Tags Files
// @Produce application/octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *SeatingHandler) Download(c *gin.Context) {
	file, chart, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read seat chart"))
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), chart.Format.ContentType(), file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", chart.FileName),
	})
}
