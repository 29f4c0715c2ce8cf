package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/requestdata"
)

type recordingLimiter struct {
	keys    []string
	allowed bool
}

func (l *recordingLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.keys = append(l.keys, key)
	return l.allowed, 3, nil
}

func (l *recordingLimiter) Window() time.Duration { return time.Minute }

func newLimitedRouter(t *testing.T, limiter *recordingLimiter, userID *uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	r := gin.New()
	if userID != nil {
		r.Use(func(c *gin.Context) {
			rd := &requestdata.RequestData{UserID: *userID}
			c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
			c.Next()
		})
	}
	r.Use(RateLimit(log, limiter))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitKeysOnUserWhenAuthenticated(t *testing.T) {
	limiter := &recordingLimiter{allowed: true}
	userID := uuid.New()
	r := newLimitedRouter(t, limiter, &userID)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "user:"+userID.String() {
		t.Fatalf("keys = %v, want user-scoped bucket", limiter.keys)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := &recordingLimiter{allowed: true}
	r := newLimitedRouter(t, limiter, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if len(limiter.keys) != 1 || !strings.HasPrefix(limiter.keys[0], "ip:") {
		t.Fatalf("keys = %v, want ip-scoped bucket", limiter.keys)
	}
}

func TestRateLimitDenies(t *testing.T) {
	limiter := &recordingLimiter{allowed: false}
	r := newLimitedRouter(t, limiter, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
	}
}
