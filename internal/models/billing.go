package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentProvider string

const (
	ProviderStripe      PaymentProvider = "stripe"
	ProviderFlutterwave PaymentProvider = "flutterwave"
	ProviderPayFast     PaymentProvider = "payfast"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Product is a purchasable access plan (e.g. "Level I, 6 months").
type Product struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null;size:200" validate:"required,max=200"`
	PriceCents   int64  `json:"price_cents" gorm:"not null" validate:"min=0"`
	Currency     string `json:"currency" gorm:"not null;size:3" validate:"required,len=3"`
	DurationDays int    `json:"duration_days" gorm:"not null" validate:"min=1"`
	Active       bool   `json:"active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Subscription struct {
	ID        uint               `json:"id" gorm:"primaryKey"`
	UserID    string             `json:"user_id" gorm:"not null;index;size:255"`
	ProductID uint               `json:"product_id" gorm:"not null;index"`
	Status    SubscriptionStatus `json:"status" gorm:"default:active;index"`
	StartsAt  time.Time          `json:"starts_at" gorm:"not null"`
	ExpiresAt time.Time          `json:"expires_at" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Product Product `json:"product" gorm:"foreignKey:ProductID"`
	User    User    `json:"-" gorm:"foreignKey:UserID"`
}

// PaymentEvent is the raw webhook record from a payment provider. ProviderRef
// is unique so replayed webhooks are ingested at most once.
type PaymentEvent struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Provider    PaymentProvider `json:"provider" gorm:"not null;index"`
	ProviderRef string          `json:"provider_ref" gorm:"not null;uniqueIndex;size:255"`
	UserID      string          `json:"user_id" gorm:"not null;index;size:255"`
	ProductID   uint            `json:"product_id" gorm:"not null"`
	AmountCents int64           `json:"amount_cents"`
	Currency    string          `json:"currency" gorm:"size:3"`
	Payload     datatypes.JSON  `json:"payload" gorm:"type:jsonb"`
	Processed   bool            `json:"processed" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
