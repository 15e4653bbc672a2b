package middleware

import (
	"fmt"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/checkout-service-api/internal/config"
	"github.com/makkenzo/checkout-service-api/internal/ierr"
	"github.com/makkenzo/checkout-service-api/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces a per-client fixed-window ceiling for one route
// group. A failing limiter store fails open: dropping traffic because Redis
// blinked would be worse than briefly not limiting.
func RateLimitMiddleware(store ratelimit.Store, route string, limit config.RouteLimit, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RateLimitMiddleware")
	return func(c *gin.Context) {
		key := route + ":" + c.ClientIP()

		allowed, retryAfter, err := store.Allow(c.Request.Context(), key, limit.Requests, limit.Window)
		if err != nil {
			log.Warn("Rate limit store unavailable, allowing request", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			log.Info("Rate limit exceeded",
				zap.String("route", route),
				zap.String("client_ip", c.ClientIP()),
			)
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			_ = c.Error(ierr.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
