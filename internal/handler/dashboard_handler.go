package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/middleware"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context, refresh bool) (*dto.AdminDashboardResponse, bool, error)
}

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin overview
// @Description Accounts per role, stored timetables and seat charts, submissions and running tests.
// @Tags Dashboard
// @Produce json
// @Param refresh query bool false "Recompute instead of serving the cached summary"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	summary, cacheHit, err := h.service.Admin(c.Request.Context(), refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
