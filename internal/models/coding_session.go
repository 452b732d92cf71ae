package models

import "time"

// Question is one problem of the coding test.
type Question struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Prompt    string    `db:"prompt" json:"prompt"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TestSession tracks one user's progress through the timed coding test.
type TestSession struct {
	UserID            string    `db:"user_id" json:"user_id"`
	StartedAt         time.Time `db:"started_at" json:"started_at"`
	Deadline          time.Time `db:"deadline" json:"deadline"`
	CurrentQuestion   int       `db:"current_question" json:"current_question"`
	Attempt           int       `db:"attempt" json:"attempt"`
	Completed         bool      `db:"completed" json:"completed"`
	Reattempted       bool      `db:"reattempted" json:"reattempted"`
	Disqualified      bool      `db:"disqualified" json:"disqualified"`
	TimeExpired       bool      `db:"time_expired" json:"time_expired"`
	AttemptsRemaining int       `db:"attempts_remaining" json:"attempts_remaining"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Locked reports whether the session no longer accepts submissions at now.
func (s *TestSession) Locked(now time.Time) bool {
	return s.Completed || s.Disqualified || s.TimeExpired || !now.Before(s.Deadline)
}

// Submission is one answer to a coding question.
type Submission struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	QuestionID  string    `db:"question_id" json:"question_id"`
	Language    string    `db:"language" json:"language"`
	Code        string    `db:"code" json:"code"`
	Attempt     int       `db:"attempt" json:"attempt"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	UserID     string
	QuestionID string
	Page       int
	PageSize   int
}
