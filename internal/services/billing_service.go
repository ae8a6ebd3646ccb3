package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/cfaprep/exam-service/internal/events"
	"github.com/cfaprep/exam-service/internal/models"
	"github.com/cfaprep/exam-service/internal/repositories"
	"github.com/cfaprep/exam-service/internal/validator"
)

type billingService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

func NewBillingService(repo repositories.Repository, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) BillingService {
	return &billingService{
		repo:      repo,
		publisher: publisher,
		validator: v,
		logger:    logger,
	}
}

func (s *billingService) CreateProduct(ctx context.Context, req *CreateProductRequest, userID string) (*models.Product, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil || user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, 0, "product", "create", "requires admin role")
	}

	product := &models.Product{
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		Active:       true,
	}
	if err := s.repo.Billing().CreateProduct(ctx, nil, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

func (s *billingService) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	products, err := s.repo.Billing().ListProducts(ctx, nil, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// HandlePaymentWebhook ingests a normalized provider callback. The payment
// event row has a unique provider reference, so a replayed webhook is detected
// at insert time and returns the original result without granting a second
// subscription.
func (s *billingService) HandlePaymentWebhook(ctx context.Context, req *PaymentWebhookRequest) (*WebhookResult, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	product, err := s.repo.Billing().GetProduct(ctx, nil, req.ProductID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product %d: %w", req.ProductID, err)
	}
	if !product.Active {
		return nil, ErrProductInactive
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	now := time.Now().UTC()
	event := &models.PaymentEvent{
		Provider:    req.Provider,
		ProviderRef: req.ProviderRef,
		UserID:      req.UserID,
		ProductID:   req.ProductID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Payload:     datatypes.JSON(payload),
	}

	var subscription *models.Subscription
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if txErr := txRepo.Billing().CreatePaymentEvent(ctx, nil, event); txErr != nil {
			return txErr
		}

		// A payment extends an existing active subscription instead of
		// overlapping it.
		startsAt := now
		current, txErr := txRepo.Billing().GetActiveSubscription(ctx, nil, req.UserID, now)
		if txErr == nil {
			startsAt = current.ExpiresAt
		} else if !repositories.IsNotFoundError(txErr) {
			return txErr
		}

		subscription = &models.Subscription{
			UserID:    req.UserID,
			ProductID: product.ID,
			Status:    models.SubscriptionActive,
			StartsAt:  startsAt,
			ExpiresAt: startsAt.AddDate(0, 0, product.DurationDays),
		}
		if txErr := txRepo.Billing().CreateSubscription(ctx, nil, subscription); txErr != nil {
			return fmt.Errorf("failed to create subscription: %w", txErr)
		}

		return txRepo.Billing().MarkPaymentProcessed(ctx, nil, event.ID)
	})
	if errors.Is(err, repositories.ErrDuplicatePaymentEvent) {
		existing, lookupErr := s.repo.Billing().GetPaymentEventByRef(ctx, nil, req.Provider, req.ProviderRef)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to load duplicate payment event: %w", lookupErr)
		}

		s.logger.Info("duplicate payment webhook ignored",
			"provider", req.Provider, "provider_ref", req.ProviderRef)
		return &WebhookResult{PaymentEventID: existing.ID, Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicPaymentReceived, events.NewEvent("payment.received", events.PaymentReceivedEvent{
		PaymentEventID: event.ID,
		Provider:       string(req.Provider),
		UserID:         req.UserID,
		ProductID:      product.ID,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		ReceivedAt:     now,
	}))

	s.logger.Info("payment processed",
		"payment_event_id", event.ID, "provider", req.Provider, "user_id", req.UserID,
		"subscription_id", subscription.ID, "expires_at", subscription.ExpiresAt)

	return &WebhookResult{
		PaymentEventID: event.ID,
		SubscriptionID: &subscription.ID,
	}, nil
}

func (s *billingService) GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repo.Billing().GetActiveSubscription(ctx, nil, userID, time.Now().UTC())
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}

// ExpireSubscriptions is run periodically to flip rows past their expiry
func (s *billingService) ExpireSubscriptions(ctx context.Context) (int64, error) {
	count, err := s.repo.Billing().ExpireSubscriptions(ctx, nil, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	if count > 0 {
		s.logger.Info("subscriptions expired", "count", count)
	}
	return count, nil
}

func (s *billingService) publishEvent(ctx context.Context, topic string, event events.Event) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "event_type", event.Type, "error", err)
	}
}
