package middleware

import (
	"net/http"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/config"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"go.uber.org/zap"
)

// RequestTimeout bounds every request by the configured timeout, honoring
// per-route overrides ("METHOD:/path" keys). On expiry it responds 504 with
// an X-Timeout marker header.
func RequestTimeout(cfg *config.TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := cfg.TimeoutForRoute(c.Request.Method, c.FullPath())

		timeout.New(
			timeout.WithTimeout(d),
			timeout.WithResponse(func(c *gin.Context) {
				c.Header("X-Timeout", "true")
				c.JSON(http.StatusGatewayTimeout, gin.H{
					"error":   "Request timeout",
					"message": "The request took too long to process",
				})

				logger.WithContext(c.Request.Context()).Warn("Request timeout",
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Duration("timeout", d),
				)
			}),
		)(c)
	}
}
