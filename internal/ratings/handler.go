package ratings

import (
	"net/http"
	"strconv"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the read side of ratings; submission itself happens
// through POST /deliveries/{id}/rate, routed via internal/delivery.
type Handler struct {
	service *Service
}

// NewHandler creates a new ratings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMyRatings returns the caller's received ratings, paginated.
func (h *Handler) GetMyRatings(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ratings, total, err := h.service.GetForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load ratings")
		return
	}

	avg, count, err := h.service.GetAverage(c.Request.Context(), userID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load rating average")
		return
	}

	common.SuccessResponse(c, gin.H{
		"ratings":        ratings,
		"total":          total,
		"average_rating": avg,
		"rating_count":   count,
	})
}

// GetUserAverage returns a user's average rating for profile views. The
// eligibility predicate's min_courier_rating check computes its own
// average in SQL and does not go through this endpoint.
func (h *Handler) GetUserAverage(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	avg, count, err := h.service.GetAverage(c.Request.Context(), userID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to load rating average")
		return
	}

	common.SuccessResponse(c, gin.H{"average_rating": avg, "rating_count": count})
}

// RegisterRoutes registers ratings read routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	ratings := r.Group("/api/v1/ratings")
	ratings.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		ratings.GET("/me", h.GetMyRatings)
		ratings.GET("/:userId", h.GetUserAverage)
	}
}
