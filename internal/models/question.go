package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice      QuestionType = "mcq"
	VignetteChoice      QuestionType = "vignette_mcq"
	ConstructedResponse QuestionType = "constructed_response"
)

// IsOptionBased reports whether the question type carries selectable options
// and can therefore be auto-scored.
func (t QuestionType) IsOptionBased() bool {
	return t == MultipleChoice || t == VignetteChoice
}

type Question struct {
	ID   uint         `json:"id" gorm:"primaryKey"`
	Type QuestionType `json:"type" gorm:"not null;index" validate:"required,oneof=mcq vignette_mcq constructed_response"`
	Stem string       `json:"stem" gorm:"type:text;not null" validate:"required"`

	// Vignette (item-set) questions share a case text shown above the stem.
	VignetteText *string `json:"vignette_text" gorm:"type:text"`

	TopicID *uint          `json:"topic_id" gorm:"index"`
	Tags    datatypes.JSON `json:"tags" gorm:"type:jsonb"` // []string

	Explanation *string `json:"explanation" gorm:"type:text" validate:"omitempty,max=2000"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Topic   *Topic   `json:"topic" gorm:"foreignKey:TopicID"`
	Options []Option `json:"options" gorm:"foreignKey:QuestionID"`
	Creator User     `json:"-" gorm:"foreignKey:CreatedBy"`
}

// Option is one answer choice of an option-based question. Exactly one option
// per MCQ/vignette question carries IsCorrect=true.
type Option struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null" validate:"required"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
	Position   int    `json:"position" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CorrectOption returns the option flagged correct, or nil for
// constructed-response questions (which carry no key).
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

func (Question) TableName() string {
	return "questions"
}

func (Option) TableName() string {
	return "question_options"
}
