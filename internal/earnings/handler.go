package earnings

import (
	"net/http"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/models"
	"github.com/gin-gonic/gin"
)

// Handler exposes the courier earnings dashboard and payout request.
type Handler struct {
	service *Service
}

// NewHandler creates a new earnings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetEarnings handles GET /courier/earnings?period=day|week|month|all.
func (h *Handler) GetEarnings(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), courierID, c.Query("period"))
	if err != nil {
		respondErr(c, err, "failed to load earnings")
		return
	}

	common.SuccessResponse(c, summary)
}

// RequestPayout handles POST /courier/payouts, cashing out the courier's
// account balance per RequestPayout's immediate-settlement rule.
func (h *Handler) RequestPayout(c *gin.Context) {
	courierID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	payout, err := h.service.RequestPayout(c.Request.Context(), courierID, &req)
	if err != nil {
		respondErr(c, err, "failed to request payout")
		return
	}

	common.CreatedResponse(c, payout)
}

func respondErr(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}

// RegisterRoutes registers the courier earnings routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	courier := r.Group("/api/v1/courier")
	courier.Use(middleware.AuthMiddlewareWithProvider(jwtProvider), middleware.RequireRole(models.RoleCourier))
	{
		courier.GET("/earnings", h.GetEarnings)
		courier.POST("/payouts", h.RequestPayout)
	}
}
