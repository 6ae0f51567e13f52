package notifications

import (
	"net/http"
	"strconv"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the read side of notifications. Notifications are
// created internally by other services via Service.Notify, not over HTTP.
type Handler struct {
	service *Service
}

// NewHandler wires a Handler to its Service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetNotifications handles GET /notifications.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, err := h.service.GetUserNotifications(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	common.SuccessResponse(c, gin.H{"notifications": notifications})
}

// GetUnreadCount handles GET /notifications/unread-count.
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.service.GetUnreadCount(c.Request.Context(), userID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load unread count")
		return
	}

	common.SuccessResponse(c, gin.H{"unread_count": count})
}

// MarkAsRead handles PUT /notifications/{id}/read.
func (h *Handler) MarkAsRead(c *gin.Context) {
	if _, err := middleware.GetUserID(c); err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	common.SuccessResponse(c, gin.H{"read": true})
}

// MarkAllAsRead handles PUT /notifications/read-all.
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to mark notifications read")
		return
	}

	common.SuccessResponse(c, gin.H{"read": true})
}

// RegisterRoutes registers notification read routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	notifications := r.Group("/api/v1/notifications")
	notifications.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.PUT("/:id/read", h.MarkAsRead)
		notifications.PUT("/read-all", h.MarkAllAsRead)
	}
}
