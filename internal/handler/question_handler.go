package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skillstage/skillstage-backend/internal/middleware"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/response"
	"github.com/skillstage/skillstage-backend/internal/service"
	"github.com/skillstage/skillstage-backend/internal/validator"
)

// QuestionHandler handles admin question pool endpoints.
type QuestionHandler struct {
	questionService     *service.QuestionService
	questionsPerSession int
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, questionsPerSession int) *QuestionHandler {
	return &QuestionHandler{
		questionService:     questionService,
		questionsPerSession: questionsPerSession,
	}
}

// ListQuestions godoc
// GET /api/v1/admin/questions
// Lists pool questions with optional level/competency filters.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	var level *model.Level
	if raw := c.Query("level"); raw != "" {
		l := model.Level(raw)
		if !l.Valid() {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		level = &l
	}

	questions, total, err := h.questionService.List(c.Request.Context(), level, c.Query("competency"), page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}

	if questions == nil {
		questions = []model.Question{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

// GetQuestion godoc
// GET /api/v1/admin/questions/:id
// Returns one question including its answer key.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
// Adds a question to the pool.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// BulkUploadQuestions godoc
// POST /api/v1/admin/questions/bulk
// Inserts a batch of questions in one transaction.
func (h *QuestionHandler) BulkUploadQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.BulkUploadQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.BulkCreate(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions, "count": len(questions)})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
// Rewrites a pool question. In-flight sessions keep their sampled snapshot.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
// Removes a question from the pool.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "question deleted successfully"})
}

// PoolHealth godoc
// GET /api/v1/admin/questions/pool-health
// Reports per-step pool counts against the session size.
func (h *QuestionHandler) PoolHealth(c *gin.Context) {
	entries, err := h.questionService.PoolHealth(c.Request.Context(), h.questionsPerSession)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"steps": entries})
}
