package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduvita-api/internal/models"
)

const userColumns = "id, email, password_hash, first_name, last_name, role, active, education, skills, resume_link, google_id, github_id, last_login, created_at, updated_at"

// UserRepository provides database access for accounts and refresh sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) findOne(ctx context.Context, label, where string, arg interface{}) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where + " LIMIT 1"
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find user by %s: %w", label, err)
	}
	return &user, nil
}

// FindByEmail returns a user by case-insensitive email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", "LOWER(email) = $1", strings.ToLower(strings.TrimSpace(email)))
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id", "id = $1", id)
}

// ExistsByEmail reports whether an account already uses email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// LinkProvider stores the social provider subject on the account.
func (r *UserRepository) LinkProvider(ctx context.Context, id, provider, subject string) error {
	column := map[string]string{"google": "google_id", "github": "github_id"}[provider]
	if column == "" {
		return fmt.Errorf("link provider: unsupported provider %q", provider)
	}
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	if _, err := r.db.ExecContext(ctx, query, id, subject, time.Now().UTC()); err != nil {
		return fmt.Errorf("link provider: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	base := `FROM users WHERE 1=1`
	var args []interface{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		base += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		base += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		args = append(args, strings.ToLower(skill))
		base += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(skills) AS skill WHERE LOWER(skill) = $%d)", len(args))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		n := len(args)
		base += fmt.Sprintf(" AND (LOWER(email) LIKE $%d OR LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d)", n, n, n)
	}

	sortBy := map[string]string{
		"email": "email", "created_at": "created_at", "updated_at": "updated_at",
		"first_name": "first_name", "last_name": "last_name", "last_login": "last_login",
	}[filter.SortBy]
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" {
		sortOrder = "DESC"
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, base, sortBy, sortOrder, size, (page-1)*size)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// CountByRole returns the number of active users per role.
func (r *UserRepository) CountByRole(ctx context.Context) (map[models.UserRole]int, error) {
	const query = `SELECT role, COUNT(*) AS total FROM users WHERE active = TRUE GROUP BY role`
	var rows []struct {
		Role  models.UserRole `db:"role"`
		Total int             `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	out := make(map[models.UserRole]int, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Total
	}
	return out, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Skills == nil {
		user.Skills = []string{}
	}

	const query = `INSERT INTO users (id, email, password_hash, first_name, last_name, role, active, education, skills, resume_link, created_at, updated_at) VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :active, :education, :skills, :resume_link, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update updates mutable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	if user.Skills == nil {
		user.Skills = []string{}
	}
	const query = `UPDATE users SET first_name = :first_name, last_name = :last_name, role = :role, active = :active, education = :education, skills = :skills, resume_link = :resume_link, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete performs a soft delete by marking the user inactive.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh session.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token_hash, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh session by token digest.
func (r *UserRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token_hash, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token_hash = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a session revoked. It reports false when the
// session was already revoked so concurrent refreshes cannot both succeed.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) (bool, error) {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, revokedAt)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n > 0, nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
