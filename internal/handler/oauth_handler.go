package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

type oauthService interface {
	AuthURL(ctx context.Context, provider string) (string, error)
	Callback(ctx context.Context, provider, code, state, ip, userAgent string) (*models.LoginResponse, error)
}

// OAuthHandler runs the browser side of social sign-in.
type OAuthHandler struct {
	service     oauthService
	frontendURL string
	cookie      CookieConfig
	logger      *zap.Logger
}

// NewOAuthHandler constructs the handler. Redirects land on frontendURL.
func NewOAuthHandler(svc oauthService, frontendURL string, cookie CookieConfig, logger *zap.Logger) *OAuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthHandler{service: svc, frontendURL: strings.TrimRight(frontendURL, "/"), cookie: cookie, logger: logger}
}

// AuthURL godoc
// @Summary Social sign-in URL
// @Description Returns the provider consent URL carrying a fresh state value
// @Tags Authentication
// @Produce json
// @Param provider path string true "google or github"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /auth/oauth/{provider} [get]
func (h *OAuthHandler) AuthURL(c *gin.Context) {
	link, err := h.service.AuthURL(c.Request.Context(), c.Param("provider"))
	if err != nil {
		switch service.OAuthReason(err) {
		case service.OAuthReasonInvalidProvider:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported oauth provider"))
		case service.OAuthReasonConfiguration:
			response.Error(c, appErrors.New("OAUTH_NOT_CONFIGURED", http.StatusServiceUnavailable, "oauth provider is not configured"))
		default:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start oauth flow"))
		}
		return
	}

	response.JSON(c, http.StatusOK, dto.OAuthURLResponse{URL: link}, nil)
}

// Callback godoc
// @Summary Social sign-in callback
// @Description Exchanges the code, sets the session cookie and redirects to the dashboard. Failures redirect to /login?error=reason.
// @Tags Authentication
// @Param provider path string true "google or github"
// @Param code query string false "Authorization code"
// @Param state query string false "State value"
// @Success 302
// @Router /auth/oauth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	if reason := c.Query("error"); reason != "" {
		h.logger.Info("oauth provider returned error", zap.String("provider", provider), zap.String("error", reason))
		h.fail(c, service.OAuthReasonAuthFailed)
		return
	}

	res, err := h.service.Callback(c.Request.Context(), provider, c.Query("code"), c.Query("state"), c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		reason := service.OAuthReason(err)
		h.logger.Warn("oauth callback failed", zap.String("provider", provider), zap.String("reason", reason), zap.Error(err))
		h.fail(c, reason)
		return
	}

	setSessionCookie(c, h.cookie, res.AccessToken)
	c.Redirect(http.StatusFound, h.frontendURL+res.DashboardURL)
}

func (h *OAuthHandler) fail(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(reason))
}
