package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
)

// UserRepository manages the local mirror of identity provider users
type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)

	// Upsert inserts or refreshes the user row mirrored from token claims
	Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error

	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.User, int64, error)
}
