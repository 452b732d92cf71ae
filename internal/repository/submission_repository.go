package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduvita-api/internal/models"
)

// SubmissionRepository stores coding test answers.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, user_id, username, question_id, language, code, attempt, submitted_at) VALUES (:id, :user_id, :username, :question_id, :language, :code, :attempt, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// List returns submissions newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	base := `FROM submissions WHERE 1=1`
	var args []interface{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		base += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.QuestionID != "" {
		args = append(args, filter.QuestionID)
		base += fmt.Sprintf(" AND question_id = $%d", len(args))
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT id, user_id, username, question_id, language, code, attempt, submitted_at %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d", base, size, (page-1)*size)
	items := []models.Submission{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return items, total, nil
}

// Count returns the total number of submissions.
func (r *SubmissionRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions`); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return total, nil
}
