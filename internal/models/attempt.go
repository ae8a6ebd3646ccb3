package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

const (
	SubmitReasonManual  = "manual"
	SubmitReasonTimeout = "timeout"
)

// ExamAttempt is one user's session against one exam. It is the only entity
// the attempt engine creates and mutates; it becomes immutable once submitted.
type ExamAttempt struct {
	ID     uint          `json:"id" gorm:"primaryKey"`
	ExamID uint          `json:"exam_id" gorm:"not null;index:idx_attempt_exam_user"`
	UserID string        `json:"user_id" gorm:"not null;index:idx_attempt_exam_user;size:255"`
	Status AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	// Timing. Remaining time is always derived from StartedAt and the exam's
	// time limit, never stored as a countdown.
	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at"`

	// Nil until the attempt is finalized.
	ScorePercent *float64 `json:"score_percent"`
	SubmitReason *string  `json:"submit_reason" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam    Exam            `json:"exam" gorm:"foreignKey:ExamID"`
	User    User            `json:"-" gorm:"foreignKey:UserID"`
	Answers []AttemptAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

// AttemptAnswer is one row of the attempt's frozen question set. Rows are
// created unanswered when the attempt starts; exactly one row exists per
// question of the snapshot.
type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index:idx_answer_attempt_question,unique"`
	QuestionID uint `json:"question_id" gorm:"not null;index:idx_answer_attempt_question,unique"`
	Position   int  `json:"position" gorm:"not null"`

	// Nil = unanswered (or cleared).
	SelectedOptionID *uint `json:"selected_option_id"`

	// Nil until scored at submission; stays nil for constructed-response
	// questions, which are never auto-graded.
	IsCorrect *bool `json:"is_correct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt  ExamAttempt `json:"-" gorm:"foreignKey:AttemptID"`
	Question Question    `json:"question" gorm:"foreignKey:QuestionID"`
}

// Answered reports whether a selection is currently recorded.
func (a *AttemptAnswer) Answered() bool {
	return a.SelectedOptionID != nil
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
