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

type ExamPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	// Reads in a transaction bypass the cache so they see uncommitted writes
	if tx != nil {
		var exam models.Exam
		if err := db.WithContext(ctx).First(&exam, id).Error; err != nil {
			return nil, err
		}
		return &exam, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			return nil, err
		}
		return &dbExam, nil
	})
	if err != nil {
		return nil, err
	}

	return &exam, nil
}

func (e *ExamPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	var exam models.Exam
	if err := db.WithContext(ctx).
		Preload("Course").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.position ASC")
		}).
		Preload("Questions.Question").
		Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Preload("Questions.Question.Topic").
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	e.cacheManager.InvalidateExam(ctx, exam.ID)
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	e.cacheManager.InvalidateExam(ctx, id)
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	var exams []*models.Exam
	var total int64

	query := db.WithContext(ctx).Model(&models.Exam{})
	query = e.helpers.ApplyExamFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Course").Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (e *ExamPostgreSQL) CountQuestions(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count, err
}

func (e *ExamPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, examID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// ===== EXAM QUESTION REPOSITORY IMPLEMENTATION =====

type ExamQuestionPostgreSQL struct {
	db *gorm.DB
}

func NewExamQuestionPostgreSQL(db *gorm.DB) repositories.ExamQuestionRepository {
	return &ExamQuestionPostgreSQL{db: db}
}

func (eq *ExamQuestionPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	db := eq.getDB(tx)
	var questions []*models.ExamQuestion
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("position ASC").
		Preload("Question").
		Preload("Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	return questions, nil
}

func (eq *ExamQuestionPostgreSQL) Add(ctx context.Context, tx *gorm.DB, examID, questionID uint, position int) error {
	db := eq.getDB(tx)
	entry := models.ExamQuestion{
		ExamID:     examID,
		QuestionID: questionID,
		Position:   position,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to add question to exam: %w", err)
	}
	return nil
}

func (eq *ExamQuestionPostgreSQL) Remove(ctx context.Context, tx *gorm.DB, examID, questionID uint) error {
	db := eq.getDB(tx)
	return db.WithContext(ctx).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		Delete(&models.ExamQuestion{}).Error
}

// Replace swaps the whole ordered list in one transaction
func (eq *ExamQuestionPostgreSQL) Replace(ctx context.Context, tx *gorm.DB, examID uint, questions []repositories.QuestionOrder) error {
	db := eq.getDB(tx)
	return db.WithContext(ctx).Transaction(func(txInner *gorm.DB) error {
		if err := txInner.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear exam questions: %w", err)
		}

		if len(questions) == 0 {
			return nil
		}

		entries := make([]models.ExamQuestion, 0, len(questions))
		for _, q := range questions {
			entries = append(entries, models.ExamQuestion{
				ExamID:     examID,
				QuestionID: q.QuestionID,
				Position:   q.Position,
			})
		}

		if err := txInner.CreateInBatches(entries, 100).Error; err != nil {
			return fmt.Errorf("failed to insert exam questions: %w", err)
		}

		return nil
	})
}

func (eq *ExamQuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return eq.db
}
