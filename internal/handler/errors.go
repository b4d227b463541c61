package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/response"
)

// failFromError maps domain errors to HTTP status and error codes. Handlers
// call it for any service error they do not treat specially.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, model.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, model.ErrInvalidStep):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidStep)
	case errors.Is(err, model.ErrStep1RetakeBlocked):
		response.Fail(c, http.StatusForbidden, response.ErrStep1RetakeBlocked)
	case errors.Is(err, model.ErrInsufficientPool):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientPool)
	case errors.Is(err, model.ErrSessionNotActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
	case errors.Is(err, model.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, model.ErrAnswerOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, model.ErrMissingAnswerIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, model.ErrGradingFailure):
		response.Fail(c, http.StatusInternalServerError, response.ErrGradingFailure)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
