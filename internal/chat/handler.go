package chat

import (
	"net/http"
	"strconv"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the JWT-authenticated message endpoints.
type Handler struct {
	service *Service
}

// NewHandler wires a Handler to its Service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMessages handles GET /messages/{delivery_id}. It accepts either a
// bearer token (sender/courier) or a tracking_token query parameter (§6).
func (h *Handler) GetMessages(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	userID, authErr := middleware.GetUserID(c)
	if authErr != nil {
		token := c.Query("tracking_token")
		if token == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := h.service.ResolveTrackingToken(c.Request.Context(), deliveryID, token); err != nil {
			respondErr(c, err, "failed to load messages")
			return
		}
		messages, err := h.service.GetMessages(c.Request.Context(), deliveryID, uuid.Nil, false, limit, offset)
		if err != nil {
			respondErr(c, err, "failed to load messages")
			return
		}
		common.SuccessResponse(c, gin.H{"messages": messages})
		return
	}

	messages, err := h.service.GetMessages(c.Request.Context(), deliveryID, userID, true, limit, offset)
	if err != nil {
		respondErr(c, err, "failed to load messages")
		return
	}

	common.SuccessResponse(c, gin.H{"messages": messages})
}

// SendMessage handles POST /messages/{delivery_id}. It accepts either a
// bearer token (sender/courier) or a tracking_token query parameter, in
// which case the message is sent on behalf of the recipient token holder.
func (h *Handler) SendMessage(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, authErr := middleware.GetUserID(c)
	if authErr != nil {
		token := c.Query("tracking_token")
		if token == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := h.service.ResolveTrackingToken(c.Request.Context(), deliveryID, token); err != nil {
			respondErr(c, err, "failed to send message")
			return
		}
		msg, err := h.service.SendAsTrackingTokenHolder(c.Request.Context(), deliveryID, req)
		if err != nil {
			respondErr(c, err, "failed to send message")
			return
		}
		common.SuccessResponse(c, msg)
		return
	}

	msg, err := h.service.SendAsUser(c.Request.Context(), deliveryID, userID, req)
	if err != nil {
		respondErr(c, err, "failed to send message")
		return
	}

	common.SuccessResponse(c, msg)
}

// MarkRead handles PUT /messages/{id}/read.
func (h *Handler) MarkRead(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid message ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), messageID, userID); err != nil {
		respondErr(c, err, "failed to mark message read")
		return
	}

	common.SuccessResponse(c, gin.H{"read": true})
}

func respondErr(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}

// RegisterRoutes registers the message endpoints.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	messages := r.Group("/api/v1/messages")
	messages.Use(middleware.RequireAuth(jwtProvider))
	{
		messages.GET("/:id", h.GetMessages)
		messages.POST("/:id", h.SendMessage)
	}
	r.PUT("/api/v1/messages/:id/read", middleware.AuthMiddlewareWithProvider(jwtProvider), h.MarkRead)
}
