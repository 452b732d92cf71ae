package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/pkg/coderunner"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
)

type questionRepository interface {
	List(ctx context.Context) ([]models.Question, error)
	Create(ctx context.Context, q *models.Question) error
}

type testSessionRepository interface {
	Get(ctx context.Context, userID string) (*models.TestSession, error)
	Save(ctx context.Context, s *models.TestSession) error
}

type submissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
}

type codeRunner interface {
	Execute(ctx context.Context, req coderunner.Request) (*coderunner.Result, error)
}

// CodingTestConfig tunes the timed test.
type CodingTestConfig struct {
	Duration         time.Duration
	Reattempts       int
	MaxCodeSizeBytes int
	// GuidelineQuestions is the question count announced before the test starts.
	GuidelineQuestions int
}

// CodingTestService runs the timed coding test: sessions, code runs and answers.
type CodingTestService struct {
	questions   questionRepository
	sessions    testSessionRepository
	submissions submissionRepository
	runner      codeRunner
	audit       auditWriter
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         CodingTestConfig
	now         func() time.Time

	locks sync.Map
}

// CodingTestServiceParams groups constructor dependencies.
type CodingTestServiceParams struct {
	Questions   questionRepository
	Sessions    testSessionRepository
	Submissions submissionRepository
	Runner      codeRunner
	Audit       auditWriter
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      CodingTestConfig
}

// NewCodingTestService constructs the service with defaults.
func NewCodingTestService(p CodingTestServiceParams) *CodingTestService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Config.Duration <= 0 {
		p.Config.Duration = time.Hour
	}
	if p.Config.Reattempts < 0 {
		p.Config.Reattempts = 0
	}
	if p.Config.MaxCodeSizeBytes <= 0 {
		p.Config.MaxCodeSizeBytes = 64 * 1024
	}
	if p.Config.GuidelineQuestions <= 0 {
		p.Config.GuidelineQuestions = 5
	}
	return &CodingTestService{
		questions: p.Questions, sessions: p.Sessions, submissions: p.Submissions, runner: p.Runner,
		audit: p.Audit, metrics: p.Metrics, validator: p.Validator, logger: p.Logger, cfg: p.Config,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// lock serialises state changes for one user's session.
func (s *CodingTestService) lock(userID string) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Guidelines returns the rules shown before the test.
func (s *CodingTestService) Guidelines() dto.TestGuidelines {
	return dto.TestGuidelines{
		Questions:       s.cfg.GuidelineQuestions,
		DurationMinutes: int(s.cfg.Duration.Minutes()),
		Reattempts:      s.cfg.Reattempts,
	}
}

// Status reports the caller's session, expiring it when the deadline passed.
func (s *CodingTestService) Status(ctx context.Context, userID string) (*dto.TestStatusResponse, error) {
	defer s.lock(userID)()

	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &dto.TestStatusResponse{AttemptsRemaining: s.cfg.Reattempts, Guidelines: s.Guidelines()}, nil
	}
	if err := s.expire(ctx, session); err != nil {
		return nil, err
	}
	questions, err := s.listQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return s.status(session, questions), nil
}

// Start opens a session with a fresh deadline. A user starts once; later
// rounds go through Reattempt.
func (s *CodingTestService) Start(ctx context.Context, userID string) (*dto.TestStatusResponse, error) {
	defer s.lock(userID)()

	existing, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "coding test already started")
	}
	questions, err := s.listQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "no questions are available")
	}

	now := s.now()
	session := &models.TestSession{
		UserID:            userID,
		StartedAt:         now,
		Deadline:          now.Add(s.cfg.Duration),
		Attempt:           1,
		AttemptsRemaining: s.cfg.Reattempts,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start coding test")
	}
	s.logger.Info("coding test started", zap.String("user_id", userID), zap.Time("deadline", session.Deadline))
	return s.status(session, questions), nil
}

// Run executes code on the runner without recording anything.
func (s *CodingTestService) Run(ctx context.Context, req dto.RunCodeRequest) (*coderunner.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run payload")
	}
	if len(req.Code) > s.cfg.MaxCodeSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code is too large")
	}

	start := time.Now()
	result, err := s.runner.Execute(ctx, coderunner.Request{
		Language: strings.ToLower(req.Language),
		Version:  req.Version,
		Code:     req.Code,
		Stdin:    req.Stdin,
	})
	s.metrics.RecordCodeRun(strings.ToLower(req.Language), err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("code run failed", zap.String("language", req.Language), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "code execution failed")
	}
	return result, nil
}

// Submit records the answer to the current question and advances the session.
func (s *CodingTestService) Submit(ctx context.Context, userID, username string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if len(req.Code) > s.cfg.MaxCodeSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code is too large")
	}
	defer s.lock(userID)()

	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "coding test has not been started")
	}
	if err := s.expire(ctx, session); err != nil {
		return nil, err
	}
	switch {
	case session.Disqualified:
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "you have been disqualified")
	case session.TimeExpired:
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "time is up")
	case session.Completed:
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "coding test is already complete")
	}

	questions, err := s.listQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if session.CurrentQuestion >= len(questions) {
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "no questions remain")
	}
	if questions[session.CurrentQuestion].ID != req.QuestionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "answer does not match the current question")
	}

	submission := &models.Submission{
		UserID:     userID,
		Username:   username,
		QuestionID: req.QuestionID,
		Language:   strings.ToLower(req.Language),
		Code:       req.Code,
		Attempt:    session.Attempt,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}

	session.CurrentQuestion++
	res := &dto.SubmitAnswerResponse{SubmissionID: submission.ID, AttemptsRemaining: session.AttemptsRemaining}
	if session.CurrentQuestion >= len(questions) {
		session.Completed = true
		res.IsComplete = true
		s.metrics.RecordTestFinished("completed")
	} else {
		next := questions[session.CurrentQuestion]
		res.NextQuestion = &next
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coding test")
	}
	return res, nil
}

// Reattempt restarts a finished test once per remaining attempt.
func (s *CodingTestService) Reattempt(ctx context.Context, userID string) (*dto.TestStatusResponse, error) {
	defer s.lock(userID)()

	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "coding test has not been started")
	}
	if err := s.expire(ctx, session); err != nil {
		return nil, err
	}
	switch {
	case session.Disqualified:
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "you have been disqualified")
	case !session.Completed && !session.TimeExpired:
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "finish the current attempt first")
	case session.AttemptsRemaining <= 0:
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "no reattempts remaining")
	}

	now := s.now()
	session.StartedAt = now
	session.Deadline = now.Add(s.cfg.Duration)
	session.CurrentQuestion = 0
	session.Completed = false
	session.TimeExpired = false
	session.Reattempted = true
	session.Attempt++
	session.AttemptsRemaining--
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restart coding test")
	}
	questions, err := s.listQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return s.status(session, questions), nil
}

// Complete ends the current attempt early.
func (s *CodingTestService) Complete(ctx context.Context, userID string) (*dto.TestStatusResponse, error) {
	return s.finish(ctx, userID, "completed", func(ts *models.TestSession) { ts.Completed = true })
}

// Disqualify locks the session permanently and forfeits remaining attempts.
func (s *CodingTestService) Disqualify(ctx context.Context, userID string) (*dto.TestStatusResponse, error) {
	return s.finish(ctx, userID, "disqualified", func(ts *models.TestSession) {
		ts.Disqualified = true
		ts.AttemptsRemaining = 0
	})
}

func (s *CodingTestService) finish(ctx context.Context, userID, reason string, apply func(*models.TestSession)) (*dto.TestStatusResponse, error) {
	defer s.lock(userID)()

	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrTestLocked, "coding test has not been started")
	}
	if !session.Disqualified {
		wasOpen := !session.Locked(s.now())
		apply(session)
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coding test")
		}
		if wasOpen {
			s.metrics.RecordTestFinished(reason)
		}
	}
	questions, err := s.listQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return s.status(session, questions), nil
}

// ListSubmissions returns submissions newest first.
func (s *CodingTestService) ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	items, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListQuestions returns the questions in test order.
func (s *CodingTestService) ListQuestions(ctx context.Context) ([]models.Question, error) {
	return s.listQuestions(ctx)
}

// CreateQuestion adds a question.
func (s *CodingTestService) CreateQuestion(ctx context.Context, req dto.CreateQuestionRequest, meta RequestMeta) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	q := &models.Question{Title: strings.TrimSpace(req.Title), Prompt: req.Prompt, Position: req.Position}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionQuestionCreate, "questions", q.ID, nil, map[string]interface{}{"title": q.Title, "position": q.Position})
	return q, nil
}

func (s *CodingTestService) loadSession(ctx context.Context, userID string) (*models.TestSession, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coding test")
	}
	return session, nil
}

// expire flags an open session whose deadline passed and persists it.
func (s *CodingTestService) expire(ctx context.Context, session *models.TestSession) error {
	if session.Completed || session.Disqualified || session.TimeExpired || s.now().Before(session.Deadline) {
		return nil
	}
	session.TimeExpired = true
	if err := s.sessions.Save(ctx, session); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coding test")
	}
	s.metrics.RecordTestFinished("time_expired")
	return nil
}

func (s *CodingTestService) listQuestions(ctx context.Context) ([]models.Question, error) {
	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	return questions, nil
}

func (s *CodingTestService) status(session *models.TestSession, questions []models.Question) *dto.TestStatusResponse {
	now := s.now()
	deadline := session.Deadline
	res := &dto.TestStatusResponse{
		Started:           true,
		Completed:         session.Completed,
		Reattempted:       session.Reattempted,
		Disqualified:      session.Disqualified,
		TimeExpired:       session.TimeExpired,
		AttemptsRemaining: session.AttemptsRemaining,
		Deadline:          &deadline,
		Answered:          session.CurrentQuestion,
		Guidelines:        s.Guidelines(),
	}
	if !session.Locked(now) {
		res.RemainingSeconds = int64(deadline.Sub(now) / time.Second)
		if session.CurrentQuestion < len(questions) {
			q := questions[session.CurrentQuestion]
			res.CurrentQuestion = &q
		}
	}
	return res
}
