package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduvita-api/internal/models"
)

const testSessionColumns = "user_id, started_at, deadline, current_question, attempt, completed, reattempted, disqualified, time_expired, attempts_remaining, updated_at"

// TestSessionRepository persists per-user coding test progress.
type TestSessionRepository struct {
	db *sqlx.DB
}

// NewTestSessionRepository constructs a TestSessionRepository.
func NewTestSessionRepository(db *sqlx.DB) *TestSessionRepository {
	return &TestSessionRepository{db: db}
}

// Get loads the session for userID.
func (r *TestSessionRepository) Get(ctx context.Context, userID string) (*models.TestSession, error) {
	var s models.TestSession
	if err := r.db.GetContext(ctx, &s, "SELECT "+testSessionColumns+" FROM test_sessions WHERE user_id = $1", userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get test session: %w", err)
	}
	return &s, nil
}

// Save inserts or replaces the session for its user.
func (r *TestSessionRepository) Save(ctx context.Context, s *models.TestSession) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO test_sessions (user_id, started_at, deadline, current_question, attempt, completed, reattempted, disqualified, time_expired, attempts_remaining, updated_at) VALUES (:user_id, :started_at, :deadline, :current_question, :attempt, :completed, :reattempted, :disqualified, :time_expired, :attempts_remaining, :updated_at) ON CONFLICT (user_id) DO UPDATE SET started_at = EXCLUDED.started_at, deadline = EXCLUDED.deadline, current_question = EXCLUDED.current_question, attempt = EXCLUDED.attempt, completed = EXCLUDED.completed, reattempted = EXCLUDED.reattempted, disqualified = EXCLUDED.disqualified, time_expired = EXCLUDED.time_expired, attempts_remaining = EXCLUDED.attempts_remaining, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("save test session: %w", err)
	}
	return nil
}

// CountActive counts sessions still running at now.
func (r *TestSessionRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM test_sessions WHERE completed = FALSE AND disqualified = FALSE AND time_expired = FALSE AND deadline > $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, now); err != nil {
		return 0, fmt.Errorf("count active test sessions: %w", err)
	}
	return total, nil
}
