package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	DashboardURL string    `json:"dashboard_url"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// RegisterOTPRequest asks for a verification code to be mailed.
type RegisterOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterRequest creates an account after OTP verification.
type RegisterRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	OTP        string   `json:"otp" validate:"required,len=6,numeric"`
	Password   string   `json:"password" validate:"required,min=8"`
	FirstName  string   `json:"first_name" validate:"required,max=100"`
	LastName   string   `json:"last_name" validate:"omitempty,max=100"`
	Role       UserRole `json:"role" validate:"omitempty,oneof=STUDENT TEACHER"`
	Education  string   `json:"education" validate:"omitempty,max=200"`
	Skills     []string `json:"skills" validate:"omitempty,max=30,dive,max=50"`
	ResumeLink string   `json:"resume_link" validate:"omitempty,url"`
	IP         string   `json:"-"`
	UserAgent  string   `json:"-"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// SocialProfile is the identity a provider returns after code exchange.
type SocialProfile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
}
