package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
)

// respondOK adds the success flag to the payload and writes it.
func respondOK(c *gin.Context, status int, payload gin.H) {
	payload["success"] = true
	c.JSON(status, payload)
}

// respondErr maps a typed service error onto the wire envelope. Persistence
// and other untyped failures surface a generic message; their details stay in
// the logs.
func respondErr(c *gin.Context, err error) {
	status := apierr.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	respondRaw(c, status, msg)
}

func respondRaw(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}
