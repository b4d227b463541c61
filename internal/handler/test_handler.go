package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skillstage/skillstage-backend/internal/middleware"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/response"
	"github.com/skillstage/skillstage-backend/internal/service"
	"github.com/skillstage/skillstage-backend/internal/validator"
)

// TestHandler handles the candidate-facing test session endpoints.
type TestHandler struct {
	sessionService *service.SessionService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(sessionService *service.SessionService) *TestHandler {
	return &TestHandler{sessionService: sessionService}
}

// StartTest godoc
// POST /api/v1/tests
// Starts a new timed attempt at the requested step.
func (h *TestHandler) StartTest(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.StartTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.sessionService.Start(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// GetSession godoc
// GET /api/v1/tests/:session_id
// Returns the owner's session view for reloads: stripped questions, recorded
// answers and remaining time.
func (h *TestHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.sessionService.GetForOwner(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// ListSessions godoc
// GET /api/v1/tests
// Lists the requesting user's attempt history.
func (h *TestHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessions, err := h.sessionService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	if sessions == nil {
		sessions = []model.TestSession{}
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// SaveAnswers godoc
// PUT /api/v1/tests/:session_id/answers
// Replaces the session's autosaved answer set (last write wins).
func (h *TestHandler) SaveAnswers(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.RecordAnswers(c.Request.Context(), claims.UserID, sessionID, req.Answers); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": len(req.Answers)})
}

// SubmitTest godoc
// POST /api/v1/tests/:session_id/submit
// Finishes the attempt and returns the grade. Safe to retry: a second submit
// returns the stored outcome.
func (h *TestHandler) SubmitTest(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// An empty body is a plain "grade what I autosaved" submit.
	var req model.SubmitTestRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	outcome, err := h.sessionService.Submit(c.Request.Context(), claims.UserID, sessionID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}
