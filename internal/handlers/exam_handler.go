package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/services"
	"github.com/cfaprep/exam-service/internal/utils"
	"github.com/cfaprep/exam-service/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	validator   *validator.Validator
}

func NewExamHandler(
	examService services.ExamService,
	validator *validator.Validator,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		validator:   validator,
	}
}

// CreateExam creates an exam definition
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var req services.CreateExamRequest
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

	exam, err := h.examService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam returns one exam; students receive it without the answer key
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	exam, err := h.examService.GetByIDWithQuestions(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// UpdateExam updates exam settings and optionally its question list
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param exam body services.UpdateExamRequest true "Exam data"
// @Success 200 {object} services.ExamResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating exam", "exam_id", id)

	var req services.UpdateExamRequest
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

	exam, err := h.examService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// DeleteExam removes an exam that has no recorded attempts
// @Summary Delete exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam deleted"})
}

// ListExams lists exams with filters
// @Summary List exams
// @Tags exams
// @Produce json
// @Param type query string false "Exam type filter"
// @Param level query string false "Level filter"
// @Success 200 {object} services.ExamListResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.ExamFilters{
		Limit:     queryInt(c, "limit", 20),
		Offset:    queryInt(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if examType := c.Query("type"); examType != "" {
		t := models.ExamType(examType)
		filters.Type = &t
	}
	if level := c.Query("level"); level != "" {
		l := models.CourseLevel(level)
		filters.Level = &l
	}
	if courseID := queryInt(c, "course_id", 0); courseID > 0 {
		id := uint(courseID)
		filters.CourseID = &id
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filters.Active = &v
	}

	exams, err := h.examService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}
