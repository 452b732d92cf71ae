package dto

import (
	"time"

	"github.com/noah-isme/eduvita-api/internal/models"
)

// RunCodeRequest executes code without recording a submission.
type RunCodeRequest struct {
	Language string `json:"language" validate:"required,max=30"`
	Version  string `json:"version" validate:"omitempty,max=30"`
	Code     string `json:"code" validate:"required"`
	Stdin    string `json:"stdin" validate:"max=10000"`
}

// SubmitAnswerRequest records the answer for the current question.
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Language   string `json:"language" validate:"required,max=30"`
	Code       string `json:"code" validate:"required"`
}

// SubmitAnswerResponse tells the client what comes next.
type SubmitAnswerResponse struct {
	IsComplete        bool             `json:"isComplete"`
	NextQuestion      *models.Question `json:"nextQuestion"`
	AttemptsRemaining int              `json:"attemptsRemaining"`
	SubmissionID      string           `json:"submissionId"`
}

// TestGuidelines are the rules shown before starting.
type TestGuidelines struct {
	Questions       int `json:"questions"`
	DurationMinutes int `json:"durationMinutes"`
	Reattempts      int `json:"reattempts"`
}

// TestStatusResponse is the caller's current coding test state.
type TestStatusResponse struct {
	Started           bool             `json:"started"`
	Completed         bool             `json:"completed"`
	Reattempted       bool             `json:"reattempted"`
	Disqualified      bool             `json:"disqualified"`
	TimeExpired       bool             `json:"timeExpired"`
	AttemptsRemaining int              `json:"attemptsRemaining"`
	Deadline          *time.Time       `json:"deadline,omitempty"`
	RemainingSeconds  int64            `json:"remainingSeconds"`
	Answered          int              `json:"answered"`
	CurrentQuestion   *models.Question `json:"currentQuestion,omitempty"`
	Guidelines        TestGuidelines   `json:"guidelines"`
}

// CreateQuestionRequest adds a question to the test.
type CreateQuestionRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Prompt   string `json:"prompt" validate:"required"`
	Position int    `json:"position" validate:"required,min=1"`
}
