package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountAttempts counts attempts for an exam
func (h *SharedHelpers) CountAttempts(ctx context.Context, examID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count, err
}

// CountAttemptsByStatus counts attempts for an exam in one status
func (h *SharedHelpers) CountAttemptsByStatus(ctx context.Context, examID uint, status models.AttemptStatus) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ? AND status = ?", examID, status).
		Count(&count).Error
	return count, err
}

// ApplyAttemptFilters applies common filters to attempt queries
func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyExamFilters applies common filters to exam queries
func (h *SharedHelpers) ApplyExamFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

// ApplyQuestionFilters applies common filters to question queries
func (h *SharedHelpers) ApplyQuestionFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.TopicID != nil {
		query = query.Where("topic_id = ?", *filters.TopicID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("stem ILIKE ?", "%"+*filters.Search+"%")
	}
	for _, tag := range filters.Tags {
		query = query.Where("tags @> ?", `["`+tag+`"]`)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with a column
// whitelist to prevent SQL injection through sort parameters
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"name":       true,
		"status":     true,
		"type":       true,
		"level":      true,
		"started_at": true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
