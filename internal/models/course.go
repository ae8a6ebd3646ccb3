package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseLevel string

const (
	LevelOne   CourseLevel = "level_1"
	LevelTwo   CourseLevel = "level_2"
	LevelThree CourseLevel = "level_3"
)

type Course struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Level       CourseLevel `json:"level" gorm:"not null;index" validate:"required,oneof=level_1 level_2 level_3"`
	Description *string     `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Active      bool        `json:"active" gorm:"default:true;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Topics []Topic `json:"topics" gorm:"foreignKey:CourseID"`
	Exams  []Exam  `json:"exams" gorm:"foreignKey:CourseID"`
}

// Topic is a syllabus area within a course (e.g. Ethics, Fixed Income).
// Questions reference a topic; attempt analytics aggregate by it.
type Topic struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID uint   `json:"course_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null;size:200" validate:"required,max=200"`
	Weight   int    `json:"weight" gorm:"default:0"` // syllabus weight percent, display only
	Position int    `json:"position" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Topic) TableName() string {
	return "topics"
}
