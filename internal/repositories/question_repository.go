package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
)

// QuestionRepository manages question bank content
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)

	// ReplaceOptions swaps a question's option set atomically
	ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.Option) error

	// IsUsedInExams reports whether any exam references the question
	IsUsedInExams(ctx context.Context, tx *gorm.DB, questionID uint) (bool, error)
}
