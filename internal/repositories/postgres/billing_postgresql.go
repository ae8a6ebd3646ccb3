package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
)

type BillingPostgreSQL struct {
	db *gorm.DB
}

func NewBillingPostgreSQL(db *gorm.DB) repositories.BillingRepository {
	return &BillingPostgreSQL{db: db}
}

func (b *BillingPostgreSQL) CreateProduct(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	db := b.getDB(tx)
	if err := db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (b *BillingPostgreSQL) GetProduct(ctx context.Context, tx *gorm.DB, id uint) (*models.Product, error) {
	db := b.getDB(tx)
	var product models.Product
	if err := db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (b *BillingPostgreSQL) UpdateProduct(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	db := b.getDB(tx)
	if err := db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (b *BillingPostgreSQL) ListProducts(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.Product, error) {
	db := b.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		query = query.Where("active = true")
	}

	var products []*models.Product
	if err := query.Order("price_cents ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CreatePaymentEvent relies on the unique provider_ref index for replay
// detection: an ignored insert means the webhook was seen before
func (b *BillingPostgreSQL) CreatePaymentEvent(ctx context.Context, tx *gorm.DB, event *models.PaymentEvent) error {
	db := b.getDB(tx)
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_ref"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return fmt.Errorf("failed to create payment event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repositories.ErrDuplicatePaymentEvent
	}

	return nil
}

func (b *BillingPostgreSQL) GetPaymentEventByRef(ctx context.Context, tx *gorm.DB, provider models.PaymentProvider, providerRef string) (*models.PaymentEvent, error) {
	db := b.getDB(tx)
	var event models.PaymentEvent
	if err := db.WithContext(ctx).
		Where("provider = ? AND provider_ref = ?", provider, providerRef).
		First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (b *BillingPostgreSQL) MarkPaymentProcessed(ctx context.Context, tx *gorm.DB, id uint) error {
	db := b.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.PaymentEvent{}).
		Where("id = ?", id).
		Update("processed", true).Error
}

func (b *BillingPostgreSQL) CreateSubscription(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	db := b.getDB(tx)
	if err := db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (b *BillingPostgreSQL) GetActiveSubscription(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*models.Subscription, error) {
	db := b.getDB(tx)
	var sub models.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND expires_at > ?", userID, models.SubscriptionActive, now).
		Order("expires_at DESC").
		Preload("Product").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return &sub, nil
}

func (b *BillingPostgreSQL) ListSubscriptions(ctx context.Context, tx *gorm.DB, filters repositories.SubscriptionFilters) ([]*models.Subscription, int64, error) {
	db := b.getDB(tx)
	var subs []*models.Subscription
	var total int64

	query := db.WithContext(ctx).Model(&models.Subscription{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Preload("Product").Find(&subs).Error; err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

func (b *BillingPostgreSQL) ExpireSubscriptions(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	db := b.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND expires_at <= ?", models.SubscriptionActive, now).
		Update("status", models.SubscriptionExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (b *BillingPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}
