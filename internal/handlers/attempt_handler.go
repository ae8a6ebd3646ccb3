package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/services"
	"github.com/cfaprep/exam-service/internal/utils"
	"github.com/cfaprep/exam-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt opens (or resumes) the caller's attempt on an exam
// @Summary Start exam attempt
// @Description Starts an attempt, or returns the caller's open attempt on the same exam
// @Tags attempts
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 201 {object} services.AttemptResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Starting exam attempt", "exam_id", examID)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), &services.StartAttemptRequest{ExamID: examID}, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// GetAttempt returns one attempt as its owner may see it
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// RecordAnswer records or clears one answer of an in-progress attempt
// @Summary Record answer
// @Description Overwrites the selection for one question; null clears it
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.RecordAnswerRequest true "Answer data"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Recording answer", "attempt_id", id)

	var req services.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.RecordAnswer(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SubmitAttempt finalizes an attempt; repeated submissions return the same result
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Submitting exam attempt", "attempt_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetTimeRemaining reports the derived timer state of an attempt
// @Summary Get remaining time
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.TimeRemainingResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/time-remaining [get]
func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	remaining, err := h.attemptService.TimeRemaining(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, remaining)
}

// GetAttemptAnalytics returns the per-topic breakdown of a submitted attempt
// @Summary Get attempt analytics
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptAnalytics
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/analytics [get]
func (h *AttemptHandler) GetAttemptAnalytics(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	analytics, err := h.attemptService.Analytics(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// ListAttempts lists the caller's attempts
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param status query string false "Attempt status filter"
// @Param exam_id query uint false "Exam filter"
// @Success 200 {object} services.AttemptListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.AttemptFilters{
		Limit:     queryInt(c, "limit", 20),
		Offset:    queryInt(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "started_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if status := c.Query("status"); status != "" {
		s := models.AttemptStatus(status)
		filters.Status = &s
	}
	if examID := queryInt(c, "exam_id", 0); examID > 0 {
		id := uint(examID)
		filters.ExamID = &id
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &t
		}
	}

	attempts, err := h.attemptService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}
