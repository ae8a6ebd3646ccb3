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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 50).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	if tx != nil {
		return q.fetchByID(ctx, db, id)
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		return q.fetchByID(ctx, db, id)
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

func (q *QuestionPostgreSQL) fetchByID(ctx context.Context, db *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Preload("Topic").
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Preload("Topic").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by ids: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}

	q.cacheManager.InvalidateQuestion(ctx, question.ID)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Transaction(func(txInner *gorm.DB) error {
		if err := txInner.Where("question_id = ?", id).Delete(&models.Option{}).Error; err != nil {
			return fmt.Errorf("failed to delete question options: %w", err)
		}
		if err := txInner.Delete(&models.Question{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}

		q.cacheManager.InvalidateQuestion(ctx, id)
		return nil
	})
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.helpers.ApplyQuestionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Preload("Topic").
		Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.Option) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Transaction(func(txInner *gorm.DB) error {
		if err := txInner.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
			return fmt.Errorf("failed to clear options: %w", err)
		}

		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = questionID
		}

		if len(options) > 0 {
			if err := txInner.Create(&options).Error; err != nil {
				return fmt.Errorf("failed to insert options: %w", err)
			}
		}

		q.cacheManager.InvalidateQuestion(ctx, questionID)
		return nil
	})
}

func (q *QuestionPostgreSQL) IsUsedInExams(ctx context.Context, tx *gorm.DB, questionID uint) (bool, error) {
	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("question_id = ?", questionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
