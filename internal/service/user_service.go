package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	FirstName  string          `json:"first_name" validate:"required,max=100"`
	LastName   string          `json:"last_name" validate:"omitempty,max=100"`
	Role       models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	Active     bool            `json:"active"`
	Password   string          `json:"password" validate:"required,min=8"`
	Education  string          `json:"education" validate:"omitempty,max=200"`
	Skills     []string        `json:"skills" validate:"omitempty,max=30,dive,max=50"`
	ResumeLink string          `json:"resume_link" validate:"omitempty,url"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	FirstName  string          `json:"first_name" validate:"required,max=100"`
	LastName   string          `json:"last_name" validate:"omitempty,max=100"`
	Role       models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	Active     *bool           `json:"active"`
	Education  *string         `json:"education" validate:"omitempty,max=200"`
	Skills     []string        `json:"skills" validate:"omitempty,max=30,dive,max=50"`
	ResumeLink *string         `json:"resume_link" validate:"omitempty,url"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new user.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, meta RequestMeta) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Active:       req.Active,
		PasswordHash: string(passwordHash),
		Education:    req.Education,
		Skills:       req.Skills,
		ResumeLink:   req.ResumeLink,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionUserCreate, "users", user.ID, nil, map[string]interface{}{"email": user.Email, "role": user.Role})
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, meta RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"role": user.Role, "active": user.Active}

	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Role = req.Role
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Education != nil {
		user.Education = *req.Education
	}
	if req.Skills != nil {
		user.Skills = req.Skills
	}
	if req.ResumeLink != nil {
		user.ResumeLink = *req.ResumeLink
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionUserUpdate, "users", user.ID, before, map[string]interface{}{"role": user.Role, "active": user.Active})
	return user, nil
}

// Delete performs a soft delete (inactive) on a user. Admins cannot deactivate themselves.
func (s *UserService) Delete(ctx context.Context, id string, meta RequestMeta) error {
	if id == meta.ActorID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Warn("failed to revoke sessions of deactivated user", zap.String("user_id", id), zap.Error(err))
	}

	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionUserDelete, "users", user.ID, map[string]interface{}{"active": user.Active}, map[string]interface{}{"active": false})
	return nil
}
