package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
)

// Reasons reported to the frontend login page when a social sign-in fails.
const (
	OAuthReasonConfiguration      = "configuration"
	OAuthReasonAuthFailed         = "auth_failed"
	OAuthReasonEmailRequired      = "email_required"
	OAuthReasonEmailNotRegistered = "email_not_registered"
	OAuthReasonInvalidProvider    = "invalid_provider"
	OAuthReasonNoCode             = "no_code"
	OAuthReasonUnknown            = "unknown"
)

// OAuthError classifies a social sign-in failure.
type OAuthError struct {
	Reason string
	Err    error
}

func (e *OAuthError) Error() string {
	if e.Err != nil {
		return "oauth " + e.Reason + ": " + e.Err.Error()
	}
	return "oauth " + e.Reason
}

func (e *OAuthError) Unwrap() error { return e.Err }

// OAuthReason extracts the failure reason from err, defaulting to unknown.
func OAuthReason(err error) string {
	var oe *OAuthError
	if errors.As(err, &oe) {
		return oe.Reason
	}
	return OAuthReasonUnknown
}

type oauthStateStore interface {
	Save(ctx context.Context, state, provider string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, error)
}

type socialAuthenticator interface {
	SocialLogin(ctx context.Context, profile models.SocialProfile, ip, userAgent string) (*models.LoginResponse, error)
}

// OAuthService runs the authorization code flow for the registered providers.
type OAuthService struct {
	providers map[string]SocialProvider
	states    oauthStateStore
	auth      socialAuthenticator
	stateTTL  time.Duration
	logger    *zap.Logger
}

// NewOAuthService registers providers by name.
func NewOAuthService(states oauthStateStore, auth socialAuthenticator, stateTTL time.Duration, logger *zap.Logger, providers ...SocialProvider) *OAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	registry := make(map[string]SocialProvider, len(providers))
	for _, p := range providers {
		registry[p.Name()] = p
	}
	return &OAuthService{providers: registry, states: states, auth: auth, stateTTL: stateTTL, logger: logger}
}

func (s *OAuthService) provider(name string) (SocialProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, &OAuthError{Reason: OAuthReasonInvalidProvider}
	}
	if !p.Configured() {
		return nil, &OAuthError{Reason: OAuthReasonConfiguration}
	}
	return p, nil
}

// AuthURL issues a state value and returns the provider consent URL.
func (s *OAuthService) AuthURL(ctx context.Context, providerName string) (string, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return "", err
	}
	state, err := randomState()
	if err != nil {
		return "", &OAuthError{Reason: OAuthReasonUnknown, Err: err}
	}
	if err := s.states.Save(ctx, state, p.Name(), s.stateTTL); err != nil {
		return "", &OAuthError{Reason: OAuthReasonUnknown, Err: err}
	}
	return p.AuthCodeURL(state), nil
}

// Callback validates the state, resolves the profile and signs the user in.
func (s *OAuthService) Callback(ctx context.Context, providerName, code, state, ip, userAgent string) (*models.LoginResponse, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, &OAuthError{Reason: OAuthReasonNoCode}
	}

	owner, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, &OAuthError{Reason: OAuthReasonUnknown, Err: err}
	}
	if state == "" || owner != p.Name() {
		return nil, &OAuthError{Reason: OAuthReasonAuthFailed, Err: errors.New("state mismatch")}
	}

	profile, err := p.Profile(ctx, code)
	if err != nil {
		s.logger.Warn("oauth profile lookup failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, &OAuthError{Reason: OAuthReasonAuthFailed, Err: err}
	}
	if profile.Email == "" {
		return nil, &OAuthError{Reason: OAuthReasonEmailRequired}
	}

	res, err := s.auth.SocialLogin(ctx, *profile, ip, userAgent)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, &OAuthError{Reason: OAuthReasonEmailNotRegistered, Err: err}
		}
		if errors.Is(err, appErrors.ErrInactiveAccount) {
			return nil, &OAuthError{Reason: OAuthReasonAuthFailed, Err: err}
		}
		return nil, &OAuthError{Reason: OAuthReasonUnknown, Err: err}
	}
	return res, nil
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
