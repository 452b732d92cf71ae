package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
)

func testUser(t *testing.T, id, email, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: id, Email: email, PasswordHash: string(hash), FirstName: "Asha", LastName: "Rao", Role: role, Active: true}
}

func newTestAuthService(repo *fakeUserRepo, audit *fakeAudit, otp *fakeOTPStore, mailer *fakeMailSender) *AuthService {
	return NewAuthService(repo, audit, otp, mailer, nil, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "eduvita",
		Audience:           []string{"eduvita-web"},
	})
}

func TestAuthServiceLoginIssuesTokens(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "admin@example.com", "password123", models.RoleAdmin))
	audit := &fakeAudit{}
	svc := newTestAuthService(repo, audit, &fakeOTPStore{}, &fakeMailSender{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "Admin@Example.com", Password: "password123", IP: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(900), res.ExpiresIn)
	assert.Equal(t, AdminDashboardPath, res.DashboardURL)
	assert.Equal(t, "u1", res.User.ID)
	assert.Contains(t, repo.lastSeen, "u1")
	assert.Equal(t, []string{models.AuditActionLogin}, audit.actions())

	stored, ok := repo.tokens[hashToken(res.RefreshToken)]
	require.True(t, ok, "refresh token must be stored by digest")
	assert.NotEqual(t, res.RefreshToken, stored.TokenHash)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "Asha Rao", claims.Name)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	inactive := testUser(t, "u2", "gone@example.com", "password123", models.RoleStudent)
	inactive.Active = false
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleStudent), inactive)
	svc := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "gone@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, appErrors.ErrInactiveAccount))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleStudent))
	svc := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, UserDashboardPath, login.DashboardURL)

	refreshed, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.tokens[hashToken(login.RefreshToken)].Revoked)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized), "a rotated token cannot be reused")

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "unknown"})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRefreshRejectsExpired(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleStudent))
	svc := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	repo.tokens[hashToken("old")] = &models.RefreshToken{ID: "t1", UserID: "u1", TokenHash: hashToken("old"), ExpiresAt: time.Now().Add(-time.Minute)}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRegistrationFlow(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "taken@example.com", "password123", models.RoleStudent))
	otp := &fakeOTPStore{}
	mailer := &fakeMailSender{}
	audit := &fakeAudit{}
	svc := newTestAuthService(repo, audit, otp, mailer)
	ctx := context.Background()

	err := svc.RequestRegistrationOTP(ctx, models.RegisterOTPRequest{Email: "taken@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	require.NoError(t, svc.RequestRegistrationOTP(ctx, models.RegisterOTPRequest{Email: " New@Example.com "}))
	code := otp.codes["new@example.com"]
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "new@example.com", mailer.sent[0].To.Address)

	req := models.RegisterRequest{Email: " NEW@example.com ", OTP: "000000", Password: "password123", FirstName: "Nia"}
	if code == "000000" {
		req.OTP = "111111"
	}
	_, err = svc.Register(ctx, req)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidOTP))

	req.OTP = code
	res, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, UserDashboardPath, res.DashboardURL)
	assert.NotEmpty(t, res.AccessToken)
	assert.Len(t, mailer.sent, 2, "welcome mail is queued")
	assert.Contains(t, audit.actions(), models.AuditActionRegister)

	created, err := repo.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))

	_, err = svc.Register(ctx, req)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidOTP), "codes are single use")
}

func TestAuthServiceSocialLogin(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleTeacher))
	svc := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	ctx := context.Background()

	res, err := svc.SocialLogin(ctx, models.SocialProfile{Provider: "github", ProviderID: "42", Email: "USER@example.com"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "github:42", repo.linked["u1"])

	_, err = svc.SocialLogin(ctx, models.SocialProfile{Provider: "google", Email: "stranger@example.com"}, "", "")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.SocialLogin(ctx, models.SocialProfile{Provider: "google"}, "", "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceLogout(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleStudent))
	svc := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(ctx, login.RefreshToken, "someone-else", "", "")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	require.NoError(t, svc.Logout(ctx, login.RefreshToken, "u1", "", ""))
	assert.True(t, repo.tokens[hashToken(login.RefreshToken)].Revoked)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleStudent))
	svc := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newpassword1"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	require.NoError(t, svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))
	assert.True(t, repo.tokens[hashToken(login.RefreshToken)].Revoked)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "user@example.com", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newFakeUserRepo(testUser(t, "u1", "user@example.com", "password123", models.RoleStudent))
	issuer := newTestAuthService(repo, &fakeAudit{}, &fakeOTPStore{}, &fakeMailSender{})
	login, err := issuer.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "different"})
	_, err = other.ValidateToken(login.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", DashboardPath(models.RoleAdmin))
	assert.Equal(t, "/dashboard", DashboardPath(models.RoleTeacher))
	assert.Equal(t, "/dashboard", DashboardPath(models.RoleStudent))
}
