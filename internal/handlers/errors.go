package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/services"
	"github.com/cfaprep/exam-service/internal/validator"
)

// handleServiceError maps service layer errors onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule": businessRuleError.Rule,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrExamNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrAttemptNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrTopicNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrQuestionNotInAttempt),
		errors.Is(err, services.ErrNoActiveSubscription):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrExamNotAvailable),
		errors.Is(err, services.ErrProductInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrAttemptAlreadySubmitted),
		errors.Is(err, services.ErrAttemptNotActive),
		errors.Is(err, services.ErrExamHasAttempts),
		errors.Is(err, services.ErrQuestionInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrAttemptTimeExpired):
		c.JSON(http.StatusGone, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrExamNoQuestions),
		errors.Is(err, services.ErrOptionNotInQuestion):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	default:
		h.logger.Error("unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
