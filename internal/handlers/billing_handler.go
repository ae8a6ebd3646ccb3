package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/services"
	"github.com/cfaprep/exam-service/internal/utils"
	"github.com/cfaprep/exam-service/internal/validator"
)

type BillingHandler struct {
	BaseHandler
	billingService services.BillingService
	validator      *validator.Validator
}

func NewBillingHandler(
	billingService services.BillingService,
	validator *validator.Validator,
	logger utils.Logger,
) *BillingHandler {
	return &BillingHandler{
		BaseHandler:    NewBaseHandler(logger),
		billingService: billingService,
		validator:      validator,
	}
}

// CreateProduct creates a purchasable plan (admin only)
// @Summary Create product
// @Tags billing
// @Accept json
// @Produce json
// @Param product body services.CreateProductRequest true "Product data"
// @Success 201 {object} models.Product
// @Failure 403 {object} ErrorResponse
// @Router /billing/products [post]
func (h *BillingHandler) CreateProduct(c *gin.Context) {
	h.LogRequest(c, "Creating product")

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	product, err := h.billingService.CreateProduct(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ListProducts lists purchasable plans
// @Summary List products
// @Tags billing
// @Produce json
// @Param active query bool false "Only active products"
// @Success 200 {array} models.Product
// @Router /billing/products [get]
func (h *BillingHandler) ListProducts(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"

	products, err := h.billingService.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// PaymentWebhook ingests a normalized provider callback. Replayed webhooks
// are acknowledged without granting a second subscription.
// @Summary Payment webhook
// @Tags billing
// @Accept json
// @Produce json
// @Param webhook body services.PaymentWebhookRequest true "Normalized webhook"
// @Success 200 {object} services.WebhookResult
// @Failure 400 {object} ErrorResponse
// @Router /billing/webhooks [post]
func (h *BillingHandler) PaymentWebhook(c *gin.Context) {
	h.LogRequest(c, "Processing payment webhook")

	var req services.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.billingService.HandlePaymentWebhook(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMySubscription returns the caller's active subscription
// @Summary Get active subscription
// @Tags billing
// @Produce json
// @Success 200 {object} models.Subscription
// @Failure 404 {object} ErrorResponse
// @Router /billing/subscription [get]
func (h *BillingHandler) GetMySubscription(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	sub, err := h.billingService.GetActiveSubscription(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}
