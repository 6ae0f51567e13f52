package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS middleware handles Cross-Origin Resource Sharing.
// Allowed origins are read from the CORS_ORIGINS environment variable
// (comma-separated). Falls back to http://localhost:3000 for development.
func CORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	originsStr := os.Getenv("CORS_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
		"Authorization", "Idempotency-Key", "X-Request-ID", "X-CSRF-Token",
		"Cache-Control", "X-Requested-With",
	}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	return cors.New(corsConfig)
}
