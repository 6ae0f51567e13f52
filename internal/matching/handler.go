package matching

import (
	"net/http"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/models"
	"github.com/gin-gonic/gin"
)

// Handler exposes the courier-facing availability, location, and offer-pull
// endpoints backed by Service.
type Handler struct {
	service *Service
}

// NewHandler wires a Handler to its Service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type setAvailabilityRequest struct {
	Available bool     `json:"available"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// SetAvailability handles PUT /courier/availability.
func (h *Handler) SetAvailability(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetAvailability(c.Request.Context(), courierID, req.Available, req.Latitude, req.Longitude); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to update availability")
		return
	}

	common.SuccessResponse(c, gin.H{"available": req.Available})
}

type locationSampleRequest struct {
	Latitude   float64    `json:"latitude" binding:"required"`
	Longitude  float64    `json:"longitude" binding:"required"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// SubmitLocation handles POST /courier/location.
func (h *Handler) SubmitLocation(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req locationSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.IngestLocation(c.Request.Context(), courierID, req.Latitude, req.Longitude, req.RecordedAt); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to record location")
		return
	}

	common.SuccessResponse(c, gin.H{"recorded": true})
}

// GetDeliveryRequests handles GET /courier/delivery-requests.
func (h *Handler) GetDeliveryRequests(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	offers, err := h.service.GetEligibleOffers(c.Request.Context(), courierID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load delivery requests")
		return
	}

	common.SuccessResponse(c, gin.H{"offers": offers})
}

// RegisterRoutes registers the courier availability/location/offer routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	courier := r.Group("/api/v1/courier")
	courier.Use(middleware.AuthMiddlewareWithProvider(jwtProvider), middleware.RequireRole(models.RoleCourier))
	{
		courier.PUT("/availability", h.SetAvailability)
		courier.POST("/location", h.SubmitLocation)
		courier.GET("/delivery-requests", h.GetDeliveryRequests)
	}
}
