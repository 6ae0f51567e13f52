package settings

import (
	"net/http"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Handler exposes the operator-facing system_settings endpoints. Pricing
// multipliers and dispatch tunables live here, so writes are admin-only.
type Handler struct {
	service *Service
}

// NewHandler wires a Handler to its Service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetSettings handles GET /admin/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	values, err := h.service.All(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load settings")
		return
	}
	common.SuccessResponse(c, gin.H{"settings": values})
}

type updateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// UpdateSetting handles PUT /admin/settings/:key.
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")
	if _, ok := Defaults[key]; !ok {
		common.ErrorResponse(c, http.StatusNotFound, "unknown setting key")
		return
	}

	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Set(c.Request.Context(), key, req.Value); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to update setting")
		return
	}

	common.SuccessResponse(c, gin.H{"key": key, "value": req.Value})
}

// RegisterRoutes registers the admin settings routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	admin := r.Group("/api/v1/admin/settings")
	admin.Use(middleware.AuthMiddlewareWithProvider(jwtProvider), middleware.RequireAdmin())
	{
		admin.GET("", h.GetSettings)
		admin.PUT("/:key", h.UpdateSetting)
	}
}
