package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert refreshes the mirrored identity row on every authenticated request,
// so profile edits in the identity provider propagate without a sync job
func (u *UserPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role", "avatar", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.User, int64, error) {
	db := u.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}
