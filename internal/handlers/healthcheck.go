package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
)

type HealthHandler struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewHealthHandler(baseLog *logger.Logger, db *gorm.DB) *HealthHandler {
	return &HealthHandler{log: baseLog.With("handler", "HealthHandler"), db: db}
}

// Check handles GET /healthcheck.
func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	httpStatus := http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{
		"success":   status == "ok",
		"status":    status,
		"service":   "healthbridge-backend",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
