package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/services"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type NotificationHandler struct {
	log      *logger.Logger
	dispatch services.DispatchService
	query    services.NotificationQueryService
}

func NewNotificationHandler(baseLog *logger.Logger, dispatch services.DispatchService, query services.NotificationQueryService) *NotificationHandler {
	return &NotificationHandler{
		log:      baseLog.With("handler", "NotificationHandler"),
		dispatch: dispatch,
		query:    query,
	}
}

// List handles GET /api/worker-notifications/:workerId.
func (h *NotificationHandler) List(c *gin.Context) {
	workerID, err := uuid.Parse(c.Param("workerId"))
	if err != nil {
		// Matches the long-standing client contract: a malformed id on the
		// read path surfaces as a server error, not a 400.
		respondRaw(c, http.StatusInternalServerError, "invalid worker id format")
		return
	}

	var status *types.NotificationStatus
	if raw := c.Query("status"); raw != "" {
		st := types.NotificationStatus(raw)
		status = &st
	}
	var priority *types.Priority
	if raw := c.Query("priority"); raw != "" {
		p := types.Priority(raw)
		priority = &p
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.query.ListForWorker(c.Request.Context(), workerID, status, priority, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"notifications": page.Notifications,
		"pagination": gin.H{
			"total":  page.Total,
			"limit":  page.Limit,
			"offset": page.Offset,
		},
	})
}

type transitionRequest struct {
	WorkerID     string `json:"workerId"`
	ResponseText string `json:"responseText"`
}

// Acknowledge handles PUT /api/worker-notifications/:notificationId/acknowledge.
func (h *NotificationHandler) Acknowledge(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, workerID, notifID uuid.UUID, req transitionRequest) (*types.WorkerNotification, error) {
		var responseText *string
		if strings.TrimSpace(req.ResponseText) != "" {
			responseText = &req.ResponseText
		}
		return h.dispatch.Acknowledge(ctx.Request.Context(), workerID, notifID, responseText)
	})
}

// Respond handles PUT /api/worker-notifications/:notificationId/respond.
func (h *NotificationHandler) Respond(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, workerID, notifID uuid.UUID, req transitionRequest) (*types.WorkerNotification, error) {
		return h.dispatch.Respond(ctx.Request.Context(), workerID, notifID, req.ResponseText)
	})
}

// Complete handles PUT /api/worker-notifications/:notificationId/complete.
func (h *NotificationHandler) Complete(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, workerID, notifID uuid.UUID, _ transitionRequest) (*types.WorkerNotification, error) {
		return h.dispatch.Complete(ctx.Request.Context(), workerID, notifID)
	})
}

// Cancel handles PUT /api/worker-notifications/:notificationId/cancel. It is
// an administrative action, so no workerId body field is required.
func (h *NotificationHandler) Cancel(c *gin.Context) {
	notifID, err := uuid.Parse(c.Param("notificationId"))
	if err != nil {
		respondRaw(c, http.StatusNotFound, "notification not found")
		return
	}
	notif, err := h.dispatch.Cancel(c.Request.Context(), notifID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notification": notif})
}

func (h *NotificationHandler) transition(c *gin.Context, apply func(*gin.Context, uuid.UUID, uuid.UUID, transitionRequest) (*types.WorkerNotification, error)) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondRaw(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.WorkerID) == "" {
		respondRaw(c, http.StatusBadRequest, "workerId is required")
		return
	}
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		respondRaw(c, http.StatusBadRequest, "workerId must be a valid uuid")
		return
	}
	notifID, err := uuid.Parse(c.Param("notificationId"))
	if err != nil {
		respondRaw(c, http.StatusNotFound, "notification not found")
		return
	}

	notif, err := apply(c, workerID, notifID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notification": notif})
}

// Stats handles GET /api/worker-notifications/stats/:workerId.
func (h *NotificationHandler) Stats(c *gin.Context) {
	workerID, err := uuid.Parse(c.Param("workerId"))
	if err != nil {
		respondRaw(c, http.StatusInternalServerError, "invalid worker id format")
		return
	}

	start, ok := parseDateQuery(c, "startDate", false)
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "endDate", true)
	if !ok {
		return
	}

	stats, err := h.query.Stats(c.Request.Context(), workerID, start, end)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"stats": stats})
}

// parseDateQuery accepts RFC 3339 or a plain date. A plain date on the end of
// an inclusive window means the whole day, so it advances to end-of-day.
// Returns ok=false after writing the error response.
func parseDateQuery(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, true
	}
	respondRaw(c, http.StatusBadRequest, name+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
	return nil, false
}
