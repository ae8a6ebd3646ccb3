package models

import (
	"time"

	"gorm.io/gorm"
)

type ExamType string

const (
	ExamTypeCourse ExamType = "course" // full mock exam attached to a course
	ExamTypeQuiz   ExamType = "quiz"   // short topic quiz
)

const DefaultPassScorePercent = 70

type Exam struct {
	ID       uint        `json:"id" gorm:"primaryKey"`
	Name     string      `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Type     ExamType    `json:"type" gorm:"not null;index" validate:"required,oneof=course quiz"`
	Level    CourseLevel `json:"level" gorm:"not null;index" validate:"required,oneof=level_1 level_2 level_3"`
	CourseID *uint       `json:"course_id" gorm:"index"`

	// Nil means untimed: the attempt stays open until manually submitted.
	TimeLimitMinutes *int `json:"time_limit_minutes" validate:"omitempty,min=1,max=360"`

	// Display threshold only. The attempt engine stores the raw percentage;
	// pass/fail is derived in responses.
	PassScorePercent int `json:"pass_score_percent" gorm:"default:70" validate:"min=0,max=100"`

	Active bool `json:"active" gorm:"default:true;index"`

	// Optional availability window. Attempts may start at StartsAt and may no
	// longer start at EndsAt.
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course    *Course        `json:"course" gorm:"foreignKey:CourseID"`
	Questions []ExamQuestion `json:"questions" gorm:"foreignKey:ExamID"`
	Attempts  []ExamAttempt  `json:"-" gorm:"foreignKey:ExamID"`

	// Computed (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
}

// ExamQuestion orders questions within an exam. Admin edits to this list do
// not affect attempts already started; each attempt snapshots the list at
// creation time.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;index:idx_exam_question,unique"`
	QuestionID uint `json:"question_id" gorm:"not null;index:idx_exam_question,unique"`
	Position   int  `json:"position" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam     Exam     `json:"-" gorm:"foreignKey:ExamID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

// AvailableAt reports whether the exam can be started at the given instant.
func (e *Exam) AvailableAt(now time.Time) bool {
	if !e.Active {
		return false
	}
	if e.StartsAt != nil && now.Before(*e.StartsAt) {
		return false
	}
	if e.EndsAt != nil && !now.Before(*e.EndsAt) {
		return false
	}
	return true
}

func (Exam) TableName() string {
	return "exams"
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
