package promos

import (
	"net/http"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler exposes the dry-run validation endpoint. Promo application itself
// happens inside CreateDelivery's payment authorization, not here.
type Handler struct {
	validator *Validator
}

// NewHandler wires a Handler to its Validator.
func NewHandler(validator *Validator) *Handler {
	return &Handler{validator: validator}
}

// Validate handles POST /promo-codes/validate: it runs the §4.7 rule set
// against the caller and a proposed order amount without reserving anything.
func (h *Handler) Validate(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.validator.Validate(c.Request.Context(), req.Code, userID, req.OrderAmount)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to validate promo code")
		return
	}

	common.SuccessResponse(c, result)
}

// RegisterRoutes registers the promo code endpoints.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	promoCodes := r.Group("/api/v1/promo-codes")
	promoCodes.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		promoCodes.POST("/validate", h.Validate)
	}
}
