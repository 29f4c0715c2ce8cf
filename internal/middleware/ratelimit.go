package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/requestdata"
	"github.com/healthbridge/healthbridge-backend/internal/services"
)

// RateLimit throttles per actor. Buckets key on the authenticated user id so
// villages behind one NAT gateway don't share a quota; the client IP is the
// fallback when auth is disabled. A nil limiter disables throttling.
func RateLimit(baseLog *logger.Logger, limiter services.RateLimitService) gin.HandlerFunc {
	log := baseLog.With("middleware", "RateLimit")
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), limitKey(c))
		if err != nil {
			log.Error("rate limiter error", "error", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}

func limitKey(c *gin.Context) string {
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		return "user:" + rd.UserID.String()
	}
	return "ip:" + c.ClientIP()
}
