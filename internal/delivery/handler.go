package delivery

import (
	"net/http"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/models"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/pagination"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the delivery lifecycle.
type Handler struct {
	service *Service
}

// NewHandler creates a new delivery handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func respondErr(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}

// ========================================
// ESTIMATION
// ========================================

// GetEstimate returns a pricing estimate for a prospective delivery.
// POST /api/v1/deliveries/estimate
func (h *Handler) GetEstimate(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validation.ValidateDeliveryLeg(validation.DeliveryLeg{
		PickupLatitude: req.PickupLatitude, PickupLongitude: req.PickupLongitude,
		DropoffLatitude: req.DropoffLatitude, DropoffLongitude: req.DropoffLongitude,
	}); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	estimate, err := h.service.Estimate(c.Request.Context(), userID, &req)
	if err != nil {
		respondErr(c, err, "failed to get estimate")
		return
	}

	common.SuccessResponse(c, estimate)
}

// ========================================
// SENDER ENDPOINTS
// ========================================

// CreateDelivery creates a new delivery request.
// POST /api/v1/deliveries
func (h *Handler) CreateDelivery(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validation.ValidateDeliveryLeg(validation.DeliveryLeg{
		PickupLatitude: req.PickupLatitude, PickupLongitude: req.PickupLongitude,
		DropoffLatitude: req.DropoffLatitude, DropoffLongitude: req.DropoffLongitude,
	}); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateScheduledPickup(req.ScheduledPickupAt); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.service.CreateDelivery(c.Request.Context(), userID, &req)
	if err != nil {
		respondErr(c, err, "failed to create delivery")
		return
	}

	common.CreatedResponse(c, response)
}

// GetDelivery retrieves a delivery with its full event history. It accepts
// either a bearer token (sender or assigned courier) or a `tracking_token`
// query parameter (§6) — RequireAuth lets both shapes of request reach here.
// GET /api/v1/deliveries/:id
func (h *Handler) GetDelivery(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	userID, authErr := middleware.GetUserID(c)
	if authErr != nil {
		token := c.Query("tracking_token")
		if token == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		response, err := h.service.GetByTrackingToken(c.Request.Context(), deliveryID, token)
		if err != nil {
			respondErr(c, err, "failed to get delivery")
			return
		}
		common.SuccessResponse(c, response)
		return
	}

	response, err := h.service.GetDelivery(c.Request.Context(), userID, deliveryID)
	if err != nil {
		respondErr(c, err, "failed to get delivery")
		return
	}

	common.SuccessResponse(c, response)
}

// GetMyDeliveries lists the sender's deliveries.
// GET /api/v1/deliveries
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)

	var filters DeliveryListFilters
	if status := c.Query("status"); status != "" {
		s := DeliveryStatus(status)
		filters.Status = &s
	}

	deliveries, total, err := h.service.GetMyDeliveries(c.Request.Context(), userID, &filters, params.Limit, params.Offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	if deliveries == nil {
		deliveries = []*Delivery{}
	}

	meta := pagination.BuildMeta(params.Limit, params.Offset, total)
	common.SuccessResponseWithMeta(c, gin.H{
		"deliveries": deliveries,
	}, meta)
}

// CancelDelivery cancels a delivery (sender only).
// POST /api/v1/deliveries/:id/cancel
func (h *Handler) CancelDelivery(c *gin.Context) {
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

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	response, err := h.service.Cancel(c.Request.Context(), deliveryID, userID, req.Reason)
	if err != nil {
		respondErr(c, err, "failed to cancel delivery")
		return
	}

	common.SuccessResponse(c, response)
}

// TipDelivery adds a tip to a delivered delivery.
// POST /api/v1/deliveries/:id/tip
func (h *Handler) TipDelivery(c *gin.Context) {
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

	var req struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Tip(c.Request.Context(), deliveryID, userID, req.Amount); err != nil {
		respondErr(c, err, "failed to add tip")
		return
	}

	common.SuccessResponse(c, gin.H{"message": "tip added"})
}

// RateDelivery rates a completed delivery.
// POST /api/v1/deliveries/:id/rate
func (h *Handler) RateDelivery(c *gin.Context) {
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

	var req RateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RateDelivery(c.Request.Context(), deliveryID, userID, &req); err != nil {
		respondErr(c, err, "failed to rate delivery")
		return
	}

	common.SuccessResponse(c, gin.H{"message": "delivery rated"})
}

// GetStats returns the caller's delivery statistics.
// GET /api/v1/deliveries/stats
func (h *Handler) GetStats(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), userID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// ========================================
// PUBLIC TRACKING
// ========================================

// TrackDelivery returns a read-only view of a delivery for a TrackingToken
// holder — no bearer auth, no access codes, per §6.
// GET /api/v1/track/:id?tracking_token=...
func (h *Handler) TrackDelivery(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	token := c.Query("tracking_token")
	if token == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "tracking token required")
		return
	}

	response, err := h.service.GetByTrackingToken(c.Request.Context(), deliveryID, token)
	if err != nil {
		respondErr(c, err, "delivery not found")
		return
	}

	common.SuccessResponse(c, response)
}

// ReportIssue files a DeliveryIssue against a delivery (sender or courier).
// POST /api/v1/deliveries/:id/report-issue
func (h *Handler) ReportIssue(c *gin.Context) {
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

	var req ReportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	issue, err := h.service.ReportIssue(c.Request.Context(), deliveryID, userID, &req)
	if err != nil {
		respondErr(c, err, "failed to report issue")
		return
	}

	common.CreatedResponse(c, issue)
}

// ========================================
// COURIER ENDPOINTS
// ========================================

// ClaimDelivery lets a courier accept an offered delivery.
// POST /api/v1/courier/deliveries/:id/claim
func (h *Handler) ClaimDelivery(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	response, err := h.service.Claim(c.Request.Context(), deliveryID, courierID)
	if err != nil {
		respondErr(c, err, "failed to claim delivery")
		return
	}

	common.SuccessResponse(c, response)
}

// AdvanceDelivery applies a courier-initiated status transition.
// POST /api/v1/courier/deliveries/:id/status
func (h *Handler) AdvanceDelivery(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := h.service.Advance(c.Request.Context(), deliveryID, courierID, &req)
	if err != nil {
		respondErr(c, err, "failed to advance delivery")
		return
	}

	common.SuccessResponse(c, response)
}

// GetActiveDelivery returns the courier's single active delivery, if any.
// GET /api/v1/courier/deliveries/active
func (h *Handler) GetActiveDelivery(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	response, err := h.service.GetActiveDelivery(c.Request.Context(), courierID)
	if err != nil {
		respondErr(c, err, "failed to get active delivery")
		return
	}

	common.SuccessResponse(c, response)
}

// GetCourierDeliveries lists a courier's delivery history.
// GET /api/v1/courier/deliveries
func (h *Handler) GetCourierDeliveries(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)

	deliveries, total, err := h.service.GetCourierDeliveries(c.Request.Context(), courierID, nil, params.Limit, params.Offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	if deliveries == nil {
		deliveries = []*Delivery{}
	}

	meta := pagination.BuildMeta(params.Limit, params.Offset, total)
	common.SuccessResponseWithMeta(c, gin.H{
		"deliveries": deliveries,
	}, meta)
}

// GetCourierStats returns a courier's delivery statistics.
// GET /api/v1/courier/deliveries/stats
func (h *Handler) GetCourierStats(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.service.GetCourierStats(c.Request.Context(), courierID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// ========================================
// ROUTE REGISTRATION
// ========================================

// RegisterRoutes registers delivery routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	r.GET("/api/v1/track/:id", h.TrackDelivery)

	deliveries := r.Group("/api/v1/deliveries")
	deliveries.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		deliveries.POST("/estimate", h.GetEstimate)
		deliveries.POST("", h.CreateDelivery)
		deliveries.GET("", h.GetMyDeliveries)
		deliveries.GET("/stats", h.GetStats)
		deliveries.POST("/:id/cancel", h.CancelDelivery)
		deliveries.POST("/:id/tip", h.TipDelivery)
		deliveries.POST("/:id/rate", h.RateDelivery)
		deliveries.POST("/:id/report-issue", h.ReportIssue)
	}

	// GET /:id admits either a bearer token or a tracking_token query param,
	// so it sits outside the strictly-authed group above.
	r.GET("/api/v1/deliveries/:id", middleware.RequireAuth(jwtProvider), h.GetDelivery)

	courierDeliveries := r.Group("/api/v1/courier/deliveries")
	courierDeliveries.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	courierDeliveries.Use(middleware.RequireRole(models.RoleCourier))
	{
		courierDeliveries.GET("/active", h.GetActiveDelivery)
		courierDeliveries.GET("", h.GetCourierDeliveries)
		courierDeliveries.GET("/stats", h.GetCourierStats)
		courierDeliveries.POST("/:id/claim", h.ClaimDelivery)
		courierDeliveries.POST("/:id/status", h.AdvanceDelivery)
	}
}
