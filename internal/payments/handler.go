package payments

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
)

// Handler exposes the payment read view and the Stripe webhook endpoint.
// Authorization/capture/refund/tip are driven internally by
// internal/delivery through the PaymentAdapter interface, not over HTTP.
type Handler struct {
	service       *Service
	webhookSecret string
}

// NewHandler creates a handler without webhook signature verification
// (development only).
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// NewHandlerWithWebhookSecret creates a handler that verifies the Stripe
// webhook signature against webhookSecret.
func NewHandlerWithWebhookSecret(service *Service, webhookSecret string) *Handler {
	return &Handler{service: service, webhookSecret: webhookSecret}
}

// GetPayment handles GET /deliveries/{delivery_id}/payment.
func (h *Handler) GetPayment(c *gin.Context) {
	if _, err := middleware.GetUserID(c); err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	payment, err := h.service.repo.GetPaymentByDeliveryID(c.Request.Context(), deliveryID)
	if err != nil {
		common.ErrorResponse(c, http.StatusNotFound, "payment not found")
		return
	}

	common.SuccessResponse(c, payment)
}

// GetReceipt handles GET /deliveries/{delivery_id}/receipt.
func (h *Handler) GetReceipt(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	receipt, err := h.service.GetReceipt(c.Request.Context(), deliveryID, userID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get receipt")
		return
	}

	common.SuccessResponse(c, receipt)
}

// HandleStripeWebhook handles POST /webhooks/stripe. It verifies the
// signature when a webhook secret is configured and otherwise falls back
// to unverified parsing for local development.
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Get().Error("failed to read webhook body", zap.Error(err))
		common.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	var eventType, objectID string

	if h.webhookSecret != "" {
		sig := c.GetHeader("Stripe-Signature")
		if sig == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing signature header")
			return
		}

		event, err := webhook.ConstructEvent(payload, sig, h.webhookSecret)
		if err != nil {
			logger.Get().Warn("invalid webhook signature", zap.Error(err))
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid webhook signature")
			return
		}

		eventType = string(event.Type)
		if event.Data != nil && event.Data.Object != nil {
			if id, ok := event.Data.Object["id"].(string); ok {
				objectID = id
			}
		}
	} else {
		logger.Get().Warn("webhook signature verification disabled")

		var event struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(payload, &event); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid webhook payload")
			return
		}
		eventType = event.Type
		if obj, ok := event.Data["object"].(map[string]interface{}); ok {
			if id, ok := obj["id"].(string); ok {
				objectID = id
			}
		}
	}

	logger.Get().Info("received stripe webhook", zap.String("event_type", eventType), zap.String("object_id", objectID))
	common.SuccessResponseWithStatus(c, http.StatusOK, nil, "received")
}

// RegisterRoutes registers payment read and webhook routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	protected := r.Group("/api/v1/deliveries")
	protected.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		protected.GET("/:id/payment", h.GetPayment)
		protected.GET("/:id/receipt", h.GetReceipt)
	}

	r.POST("/api/v1/webhooks/stripe", h.HandleStripeWebhook)
}
