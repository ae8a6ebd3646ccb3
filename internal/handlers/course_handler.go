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

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
	validator     *validator.Validator
}

func NewCourseHandler(
	courseService services.CourseService,
	validator *validator.Validator,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
		validator:     validator,
	}
}

// CreateCourse creates a course catalog entry
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	h.LogRequest(c, "Creating course")

	var req services.CreateCourseRequest
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

	course, err := h.courseService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse returns one course with its topics
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse edits course fields
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param course body services.UpdateCourseRequest true "Course data"
// @Success 200 {object} models.Course
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	var req services.UpdateCourseRequest
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

	course, err := h.courseService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes a course
// @Summary Delete course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted"})
}

// ListCourses lists catalog courses
// @Summary List courses
// @Tags courses
// @Produce json
// @Param level query string false "Level filter"
// @Param active query bool false "Active filter"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	filters := repositories.CourseFilters{
		Limit:     queryInt(c, "limit", 20),
		Offset:    queryInt(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if level := c.Query("level"); level != "" {
		l := models.CourseLevel(level)
		filters.Level = &l
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filters.Active = &v
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	courses, err := h.courseService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// AddTopic adds a syllabus topic to a course
// @Summary Add topic
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param topic body services.CreateTopicRequest true "Topic data"
// @Success 201 {object} models.Topic
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/topics [post]
func (h *CourseHandler) AddTopic(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CreateTopicRequest
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

	topic, err := h.courseService.AddTopic(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, topic)
}

// RemoveTopic removes a topic from a course
// @Summary Remove topic
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Param topic_id path uint true "Topic ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/topics/{topic_id} [delete]
func (h *CourseHandler) RemoveTopic(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	topicID := h.parseIDParam(c, "topic_id")
	if topicID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.RemoveTopic(c.Request.Context(), id, topicID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Topic removed"})
}
