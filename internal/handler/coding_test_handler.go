package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/service"
	"github.com/noah-isme/eduvita-api/pkg/coderunner"
	"github.com/noah-isme/eduvita-api/pkg/response"
)

type codingTestService interface {
	Status(ctx context.Context, userID string) (*dto.TestStatusResponse, error)
	Start(ctx context.Context, userID string) (*dto.TestStatusResponse, error)
	Run(ctx context.Context, req dto.RunCodeRequest) (*coderunner.Result, error)
	Submit(ctx context.Context, userID, username string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	Reattempt(ctx context.Context, userID string) (*dto.TestStatusResponse, error)
	Complete(ctx context.Context, userID string) (*dto.TestStatusResponse, error)
	Disqualify(ctx context.Context, userID string) (*dto.TestStatusResponse, error)
	ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error)
	ListQuestions(ctx context.Context) ([]models.Question, error)
	CreateQuestion(ctx context.Context, req dto.CreateQuestionRequest, meta service.RequestMeta) (*models.Question, error)
}

// CodingTestHandler serves the timed coding test and its admin views.
type CodingTestHandler struct {
	service codingTestService
}

// NewCodingTestHandler constructs the handler.
func NewCodingTestHandler(svc codingTestService) *CodingTestHandler {
	return &CodingTestHandler{service: svc}
}

// Status godoc
// @Summary Coding test status
// @Description Current session state, deadline and question for the caller
// @Tags Coding Test
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests/status [get]
func (h *CodingTestHandler) Status(c *gin.Context) {
	h.sessionAction(c, h.service.Status)
}

// Start godoc
// @Summary Start coding test
// @Tags Coding Test
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tests/start [post]
func (h *CodingTestHandler) Start(c *gin.Context) {
	h.sessionAction(c, h.service.Start)
}

// Reattempt godoc
// @Summary Reattempt coding test
// @Tags Coding Test
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tests/reattempt [post]
func (h *CodingTestHandler) Reattempt(c *gin.Context) {
	h.sessionAction(c, h.service.Reattempt)
}

// Complete godoc
// @Summary Finish coding test
// @Tags Coding Test
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests/complete [post]
func (h *CodingTestHandler) Complete(c *gin.Context) {
	h.sessionAction(c, h.service.Complete)
}

// Disqualify godoc
// @Summary Disqualify from coding test
// @Description Called by the client when proctoring rules are broken
// @Tags Coding Test
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests/disqualify [post]
func (h *CodingTestHandler) Disqualify(c *gin.Context) {
	h.sessionAction(c, h.service.Disqualify)
}

// Run godoc
// @Summary Run code
// @Description Execute code on the sandboxed engine and return its output
// @Tags Coding Test
// @Accept json
// @Produce json
// @Param payload body dto.RunCodeRequest true "Code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /tests/run [post]
func (h *CodingTestHandler) Run(c *gin.Context) {
	var req dto.RunCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid run payload"))
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Submit answer
// @Tags Coding Test
// @Accept json
// @Produce json
// @Param payload body dto.SubmitAnswerRequest true "Answer"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tests/submissions [post]
func (h *CodingTestHandler) Submit(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid submission payload"))
		return
	}

	username := claims.Name
	if username == "" {
		username = claims.Email
	}
	res, err := h.service.Submit(c.Request.Context(), claims.UserID, username, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// ListSubmissions godoc
// @Summary List submissions
// @Tags Coding Test
// @Produce json
// @Param user_id query string false "User filter"
// @Param question_id query string false "Question filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *CodingTestHandler) ListSubmissions(c *gin.Context) {
	filter := models.SubmissionFilter{
		UserID:     strings.TrimSpace(c.Query("user_id")),
		QuestionID: strings.TrimSpace(c.Query("question_id")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// ListQuestions godoc
// @Summary List questions
// @Tags Coding Test
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /questions [get]
func (h *CodingTestHandler) ListQuestions(c *gin.Context) {
	questions, err := h.service.ListQuestions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, questions, nil)
}

// CreateQuestion godoc
// @Summary Create question
// @Tags Coding Test
// @Accept json
// @Produce json
// @Param payload body dto.CreateQuestionRequest true "Question"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /questions [post]
func (h *CodingTestHandler) CreateQuestion(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid question payload"))
		return
	}

	question, err := h.service.CreateQuestion(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, question)
}

func (h *CodingTestHandler) sessionAction(c *gin.Context, action func(context.Context, string) (*dto.TestStatusResponse, error)) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	status, err := action(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}
