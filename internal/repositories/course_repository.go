package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
)

// CourseRepository manages course catalog entries
type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithTopics(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
}

// TopicRepository manages syllabus topics within courses
type TopicRepository interface {
	Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Topic, error)
	Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}
