package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/cache"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).
		Preload("Exam").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("attempt_answers.position ASC")
		}).
		Preload("Answers.Question").
		Preload("Answers.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.position ASC")
		}).
		Preload("Answers.Question.Topic").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.ExamAttempt
	var total int64

	query := db.WithContext(ctx).Model(&models.ExamAttempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Exam").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, tx *gorm.DB, userID string, examID uint) (*models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).
		Where("user_id = ? AND exam_id = ? AND status = ?", userID, examID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FinalizeIfInProgress is the single write that decides submission races. The
// status predicate makes the update a compare-and-set; RowsAffected tells the
// caller whether this submission won.
func (a *AttemptPostgreSQL) FinalizeIfInProgress(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, scorePercent float64, reason string) (bool, error) {
	db := a.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":        models.AttemptSubmitted,
			"submitted_at":  submittedAt,
			"score_percent": scorePercent,
			"submit_reason": reason,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to finalize attempt: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		a.cacheManager.InvalidateAttempt(ctx, id)
	}

	return result.RowsAffected > 0, nil
}

func (a *AttemptPostgreSQL) GetExamAttemptStats(ctx context.Context, tx *gorm.DB, examID uint) (*repositories.ExamAttemptStats, error) {
	db := a.getDB(tx)

	total, err := a.helpers.CountAttempts(ctx, examID)
	if err != nil {
		return nil, err
	}

	inProgress, err := a.helpers.CountAttemptsByStatus(ctx, examID, models.AttemptInProgress)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Completed int64
		AvgScore  float64
		Passed    int64
	}
	err = db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_attempts.exam_id = ? AND exam_attempts.status = ?", examID, models.AttemptSubmitted).
		Joins("JOIN exams ON exams.id = exam_attempts.exam_id").
		Select("COUNT(*) as completed, COALESCE(AVG(score_percent), 0) as avg_score, SUM(CASE WHEN score_percent >= exams.pass_score_percent THEN 1 ELSE 0 END) as passed").
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attempt stats: %w", err)
	}

	passRate := float64(0)
	if agg.Completed > 0 {
		passRate = float64(agg.Passed) / float64(agg.Completed)
	}

	return &repositories.ExamAttemptStats{
		TotalAttempts:     int(total),
		CompletedAttempts: int(agg.Completed),
		InProgressCount:   int(inProgress),
		AverageScore:      agg.AvgScore,
		PassRate:          passRate,
	}, nil
}

func (a *AttemptPostgreSQL) GetUserAttemptStats(ctx context.Context, tx *gorm.DB, userID string) (*repositories.UserAttemptStats, error) {
	db := a.getDB(tx)

	var total, examsTaken int64
	if err := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("user_id = ?", userID).
		Distinct("exam_id").
		Count(&examsTaken).Error; err != nil {
		return nil, err
	}

	var agg struct {
		Completed int64
		AvgScore  float64
		BestScore float64
		Passed    int64
	}
	err := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_attempts.user_id = ? AND exam_attempts.status = ?", userID, models.AttemptSubmitted).
		Joins("JOIN exams ON exams.id = exam_attempts.exam_id").
		Select("COUNT(*) as completed, COALESCE(AVG(score_percent), 0) as avg_score, COALESCE(MAX(score_percent), 0) as best_score, SUM(CASE WHEN score_percent >= exams.pass_score_percent THEN 1 ELSE 0 END) as passed").
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user attempt stats: %w", err)
	}

	return &repositories.UserAttemptStats{
		TotalAttempts:     int(total),
		CompletedAttempts: int(agg.Completed),
		AverageScore:      agg.AvgScore,
		BestScore:         agg.BestScore,
		ExamsTaken:        int(examsTaken),
		PassedCount:       int(agg.Passed),
	}, nil
}

// getDB returns the transaction DB if provided, otherwise the default DB
func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// ===== ANSWER REPOSITORY IMPLEMENTATION =====

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// CreateBatch inserts the attempt's frozen answer rows in one pass
func (ar *AnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	db := ar.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(answers, 100).Error; err != nil {
		return fmt.Errorf("failed to create answer rows: %w", err)
	}

	return nil
}

func (ar *AnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	db := ar.getDB(tx)
	var answers []*models.AttemptAnswer
	if err := db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Options").
		Where("attempt_id = ?", attemptID).
		Order("position ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers by attempt: %w", err)
	}
	return answers, nil
}

func (ar *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	db := ar.getDB(tx)
	var answer models.AttemptAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

// UpdateSelection writes the selection through a single guarded statement:
// the row changes only while the parent attempt is still in progress, so a
// write racing a submission can never mutate a finalized attempt. RowsAffected
// tells the caller whether the guard held. The explicit column update keeps a
// nil selection meaningful instead of being skipped as a zero value.
func (ar *AnswerPostgreSQL) UpdateSelection(ctx context.Context, tx *gorm.DB, answerID uint, selectedOptionID *uint) (bool, error) {
	db := ar.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.AttemptAnswer{}).
		Where("id = ? AND EXISTS (SELECT 1 FROM exam_attempts WHERE exam_attempts.id = attempt_answers.attempt_id AND exam_attempts.status = ?)",
			answerID, models.AttemptInProgress).
		Update("selected_option_id", selectedOptionID)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update selection: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (ar *AnswerPostgreSQL) ApplyGrades(ctx context.Context, tx *gorm.DB, grades []repositories.AnswerGrade) error {
	if len(grades) == 0 {
		return nil
	}

	db := ar.getDB(tx)
	for _, grade := range grades {
		if err := db.WithContext(ctx).
			Model(&models.AttemptAnswer{}).
			Where("id = ?", grade.AnswerID).
			Update("is_correct", grade.IsCorrect).Error; err != nil {
			return fmt.Errorf("failed to apply grade for answer %d: %w", grade.AnswerID, err)
		}
	}

	return nil
}

func (ar *AnswerPostgreSQL) GetTopicAccuracy(ctx context.Context, tx *gorm.DB, attemptID uint) ([]repositories.TopicAccuracy, error) {
	db := ar.getDB(tx)
	var rows []repositories.TopicAccuracy

	err := db.WithContext(ctx).
		Table("attempt_answers aa").
		Joins("JOIN questions q ON q.id = aa.question_id").
		Joins("JOIN topics t ON t.id = q.topic_id").
		Where("aa.attempt_id = ? AND aa.is_correct IS NOT NULL", attemptID).
		Select("t.id as topic_id, t.name as topic_name, COUNT(*) as total_scored, SUM(CASE WHEN aa.is_correct THEN 1 ELSE 0 END) as correct_count").
		Group("t.id, t.name").
		Order("t.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get topic accuracy: %w", err)
	}

	for i := range rows {
		if rows[i].TotalScored > 0 {
			rows[i].Accuracy = float64(rows[i].CorrectCount) / float64(rows[i].TotalScored)
		}
	}

	return rows, nil
}

func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}
