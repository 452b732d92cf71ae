package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduvita-api/internal/models"
)

// QuestionRepository stores coding test questions.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs a QuestionRepository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// List returns all questions ordered by position.
func (r *QuestionRepository) List(ctx context.Context) ([]models.Question, error) {
	const query = `SELECT id, title, prompt, position, created_at FROM questions ORDER BY position ASC, created_at ASC`
	questions := []models.Question{}
	if err := r.db.SelectContext(ctx, &questions, query); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// Create inserts a question.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO questions (id, title, prompt, position, created_at) VALUES (:id, :title, :prompt, :position, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}
