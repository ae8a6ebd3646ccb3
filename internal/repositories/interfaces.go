package repositories

import (
	"time"

	"github.com/cfaprep/exam-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Level     *models.CourseLevel `json:"level"`
	Active    *bool               `json:"active"`
	CreatedBy *string             `json:"created_by"`
	Search    *string             `json:"search"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`
	SortOrder string              `json:"sort_order"`
}

type QuestionFilters struct {
	Type      *models.QuestionType `json:"type"`
	TopicID   *uint                `json:"topic_id"`
	CreatedBy *string              `json:"created_by"`
	Tags      []string             `json:"tags"`
	Search    *string              `json:"search"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

type ExamFilters struct {
	Type      *models.ExamType    `json:"type"`
	Level     *models.CourseLevel `json:"level"`
	CourseID  *uint               `json:"course_id"`
	Active    *bool               `json:"active"`
	CreatedBy *string             `json:"created_by"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`
	SortOrder string              `json:"sort_order"`
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	UserID    *string               `json:"user_id"`
	ExamID    *uint                 `json:"exam_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type SubscriptionFilters struct {
	UserID *string                    `json:"user_id"`
	Status *models.SubscriptionStatus `json:"status"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// QuestionOrder pairs a question with its position when (re)building an
// exam's question list
type QuestionOrder struct {
	QuestionID uint `json:"question_id"`
	Position   int  `json:"position"`
}

// AnswerGrade carries one scored answer row during attempt finalization
type AnswerGrade struct {
	AnswerID  uint  `json:"answer_id"`
	IsCorrect *bool `json:"is_correct"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ExamAttemptStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	InProgressCount   int     `json:"in_progress_count"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
}

type UserAttemptStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	BestScore         float64 `json:"best_score"`
	ExamsTaken        int     `json:"exams_taken"`
	PassedCount       int     `json:"passed_count"`
}

// TopicAccuracy is one row of the per-topic analytics breakdown. Unscored
// answers (constructed response) are excluded.
type TopicAccuracy struct {
	TopicID      uint    `json:"topic_id"`
	TopicName    string  `json:"topic_name"`
	TotalScored  int     `json:"total_scored"`
	CorrectCount int     `json:"correct_count"`
	Accuracy     float64 `json:"accuracy"`
}
