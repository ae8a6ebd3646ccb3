package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cfaprep/exam-service/internal/models"
)

// BillingRepository manages products, payment events and subscriptions
type BillingRepository interface {
	// Products
	CreateProduct(ctx context.Context, tx *gorm.DB, product *models.Product) error
	GetProduct(ctx context.Context, tx *gorm.DB, id uint) (*models.Product, error)
	UpdateProduct(ctx context.Context, tx *gorm.DB, product *models.Product) error
	ListProducts(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.Product, error)

	// Payment events. CreatePaymentEvent returns ErrDuplicatePaymentEvent
	// when the provider reference was already ingested.
	CreatePaymentEvent(ctx context.Context, tx *gorm.DB, event *models.PaymentEvent) error
	GetPaymentEventByRef(ctx context.Context, tx *gorm.DB, provider models.PaymentProvider, providerRef string) (*models.PaymentEvent, error)
	MarkPaymentProcessed(ctx context.Context, tx *gorm.DB, id uint) error

	// Subscriptions
	CreateSubscription(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error
	GetActiveSubscription(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, tx *gorm.DB, filters SubscriptionFilters) ([]*models.Subscription, int64, error)

	// ExpireSubscriptions flips active rows past their expiry; returns the
	// number of rows changed
	ExpireSubscriptions(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}
