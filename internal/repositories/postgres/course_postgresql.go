package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/cache"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := c.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByIDWithTopics(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := c.getDB(tx)
	var course models.Course
	if err := db.WithContext(ctx).
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("topics.position ASC")
		}).
		First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	c.cacheManager.Fast.InvalidatePattern(ctx, "course:*")
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	c.cacheManager.Fast.InvalidatePattern(ctx, "course:*")
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := c.getDB(tx)
	var courses []*models.Course
	var total int64

	query := db.WithContext(ctx).Model(&models.Course{})
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+*filters.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = NewSharedHelpers(db).ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

// ===== TOPIC REPOSITORY IMPLEMENTATION =====

type TopicPostgreSQL struct {
	db *gorm.DB
}

func NewTopicPostgreSQL(db *gorm.DB) repositories.TopicRepository {
	return &TopicPostgreSQL{db: db}
}

func (t *TopicPostgreSQL) Create(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Create(topic).Error; err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

func (t *TopicPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error) {
	db := t.getDB(tx)
	var topic models.Topic
	if err := db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (t *TopicPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Topic, error) {
	db := t.getDB(tx)
	var topics []*models.Topic
	if err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("failed to get topics by course: %w", err)
	}
	return topics, nil
}

func (t *TopicPostgreSQL) Update(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Save(topic).Error; err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	return nil
}

func (t *TopicPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := t.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Topic{}, id).Error
}

func (t *TopicPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}
