package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/services"
)

type ConversationHandler struct {
	log     *logger.Logger
	convSvc services.ConversationService
	routing services.RoutingService
}

func NewConversationHandler(baseLog *logger.Logger, convSvc services.ConversationService, routing services.RoutingService) *ConversationHandler {
	return &ConversationHandler{
		log:     baseLog.With("handler", "ConversationHandler"),
		convSvc: convSvc,
		routing: routing,
	}
}

// List handles GET /api/conversations/:userId.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	convs, err := h.convSvc.ListConversations(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"conversations": convs})
}

// Messages handles GET /api/conversations/:userId/:conversationId/messages.
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	convID, ok := pathUUID(c, "conversationId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	msgs, err := h.convSvc.ListMessages(c.Request.Context(), userID, convID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"messages": msgs})
}

// Archive handles PUT /api/conversations/:userId/:conversationId/archive.
func (h *ConversationHandler) Archive(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	convID, ok := pathUUID(c, "conversationId")
	if !ok {
		return
	}
	if err := h.convSvc.Archive(c.Request.Context(), userID, convID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{})
}

// Decisions handles GET /api/routing-decisions/:userId.
func (h *ConversationHandler) Decisions(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	decisions, err := h.routing.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"routingDecisions": decisions})
}

// Decision handles GET /api/routing-decisions/:userId/:decisionId.
func (h *ConversationHandler) Decision(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	decisionID, ok := pathUUID(c, "decisionId")
	if !ok {
		return
	}
	decision, err := h.routing.Get(c.Request.Context(), userID, decisionID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"routingDecision": decision})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondRaw(c, http.StatusBadRequest, name+" must be a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}
