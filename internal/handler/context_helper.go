package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/middleware"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims renders 401 and returns nil when the request is anonymous.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

func requestMeta(c *gin.Context) service.RequestMeta {
	meta := service.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := claimsFromContext(c); claims != nil {
		meta.ActorID = claims.UserID
	}
	return meta
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
