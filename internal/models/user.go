package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleEditor  UserRole = "editor"
	RoleAdmin   UserRole = "admin"
)

// User is a read-only mirror of the identity provider's user record.
// Account lifecycle (signup, password, sessions) is managed externally.
type User struct {
	ID     string   `json:"id" gorm:"primaryKey;size:255"`
	Name   string   `json:"name" gorm:"size:255"`
	Email  string   `json:"email" gorm:"size:255;index"`
	Role   UserRole `json:"role" gorm:"default:student;index"`
	Avatar *string  `json:"avatar" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (r UserRole) CanManageContent() bool {
	return r == RoleEditor || r == RoleAdmin
}
