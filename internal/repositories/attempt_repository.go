package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
)

// AttemptRepository manages exam attempt lifecycle
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.ExamAttempt, int64, error)

	// GetActiveAttempt returns the user's in-progress attempt for an exam,
	// or gorm.ErrRecordNotFound when none exists
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, userID string, examID uint) (*models.ExamAttempt, error)

	// FinalizeIfInProgress performs the submission compare-and-set: the row
	// flips to submitted only if it is still in progress. Returns false when
	// another submission won the race.
	FinalizeIfInProgress(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, scorePercent float64, reason string) (bool, error)

	GetExamAttemptStats(ctx context.Context, tx *gorm.DB, examID uint) (*ExamAttemptStats, error)
	GetUserAttemptStats(ctx context.Context, tx *gorm.DB, userID string) (*UserAttemptStats, error)
}

// AnswerRepository manages the answer rows of an attempt
type AnswerRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.AttemptAnswer) error

	// GetByAttempt returns the attempt's rows with their questions and
	// options, ordered by position
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error)

	// GetByAttemptAndQuestion returns gorm.ErrRecordNotFound when the
	// question is not part of the attempt's snapshot
	GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error)

	// UpdateSelection overwrites the recorded selection; nil clears it. The
	// write is guarded on the parent attempt still being in progress and
	// reports false when the guard fails, so a selection can never land on a
	// finalized attempt.
	UpdateSelection(ctx context.Context, tx *gorm.DB, answerID uint, selectedOptionID *uint) (bool, error)

	// ApplyGrades writes correctness flags computed at submission
	ApplyGrades(ctx context.Context, tx *gorm.DB, grades []AnswerGrade) error

	// GetTopicAccuracy aggregates scored answers per topic for one attempt
	GetTopicAccuracy(ctx context.Context, tx *gorm.DB, attemptID uint) ([]TopicAccuracy, error)
}
