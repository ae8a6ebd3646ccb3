package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
)

// ExamRepository manages exam definitions. All methods accept an optional
// transaction handle; nil uses the repository's own connection.
type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)

	CountQuestions(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)
	HasAttempts(ctx context.Context, tx *gorm.DB, examID uint) (bool, error)
}

// ExamQuestionRepository manages the ordered question list of an exam
type ExamQuestionRepository interface {
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error)
	Add(ctx context.Context, tx *gorm.DB, examID, questionID uint, position int) error
	Remove(ctx context.Context, tx *gorm.DB, examID, questionID uint) error
	Replace(ctx context.Context, tx *gorm.DB, examID uint, questions []QuestionOrder) error
}
