package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/services"
	"github.com/cfaprep/exam-service/internal/utils"
	"github.com/cfaprep/exam-service/internal/validator"
)

const maxImportSize = 10 << 20 // 10 MiB upload cap

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importExport    services.ImportExportService
	validator       *validator.Validator
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExport services.ImportExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importExport:    importExport,
		validator:       validator,
	}
}

// CreateQuestion adds a question to the bank
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
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

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion returns one question with its options
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion edits a question, optionally replacing its option set
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Question data"
// @Success 200 {object} models.Question
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
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

	question, err := h.questionService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question that no exam references
// @Summary Delete question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// ListQuestions lists bank questions with filters
// @Summary List questions
// @Tags questions
// @Produce json
// @Param type query string false "Question type filter"
// @Param topic_id query uint false "Topic filter"
// @Param tags query string false "Comma separated tag filter"
// @Param search query string false "Stem search"
// @Success 200 {object} services.QuestionListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filters := questionFiltersFromQuery(c)

	questions, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// ImportQuestions ingests an XLSX question workbook
// @Summary Import questions
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX workbook"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions")

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File exceeds the 10 MiB import limit",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read upload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.importExport.ImportQuestionsXLSX(c.Request.Context(), data, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions streams the filtered question bank as an XLSX workbook
// @Summary Export questions
// @Tags questions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /questions/export [get]
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	h.LogRequest(c, "Exporting questions")

	filters := questionFiltersFromQuery(c)

	data, err := h.importExport.ExportQuestionsXLSX(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="questions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func questionFiltersFromQuery(c *gin.Context) repositories.QuestionFilters {
	filters := repositories.QuestionFilters{
		Limit:     queryInt(c, "limit", 20),
		Offset:    queryInt(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if questionType := c.Query("type"); questionType != "" {
		t := models.QuestionType(questionType)
		filters.Type = &t
	}
	if topicID := queryInt(c, "topic_id", 0); topicID > 0 {
		id := uint(topicID)
		filters.TopicID = &id
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filters.Tags = append(filters.Tags, tag)
			}
		}
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	return filters
}
