package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req service.CreateUserRequest, meta service.RequestMeta) (*models.User, error)
	Update(ctx context.Context, id string, req service.UpdateUserRequest, meta service.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, id string, meta service.RequestMeta) error
}

// UserHandler exposes account administration to admins.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List accounts
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "ADMIN, TEACHER or STUDENT"
// @Param active query bool false "Only active or inactive accounts"
// @Param skill query string false "Accounts listing this skill"
// @Param search query string false "Matches email and names"
// @Param sort_by query string false "email, first_name, last_name, last_login, created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter, err := userFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

func userFilterFromQuery(c *gin.Context) (models.UserFilter, error) {
	filter := models.UserFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Skill:     strings.TrimSpace(c.Query("skill")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(strings.ToUpper(raw))
		if !role.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown role "+raw)
		}
		filter.Role = &role
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, bindError(err, "active must be true or false")
		}
		filter.Active = &active
	}
	return filter, nil
}

// Get godoc
// @Summary Account detail
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Create godoc
// @Summary Create an account
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindAdminPayload(c, &req) {
		return
	}
	user, err := h.service.Create(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Update godoc
// @Summary Update an account
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if !bindAdminPayload(c, &req) {
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Delete godoc
// @Summary Deactivate an account
// @Description Accounts are kept and marked inactive; their refresh sessions are revoked.
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if requireClaims(c) == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// bindAdminPayload requires an authenticated caller and decodes the JSON body,
// rendering the failure itself when either step fails.
func bindAdminPayload(c *gin.Context, dst interface{}) bool {
	if requireClaims(c) == nil {
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return false
	}
	return true
}
