package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/services"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type AnalyzeHandler struct {
	log    *logger.Logger
	triage services.TriageService
}

func NewAnalyzeHandler(baseLog *logger.Logger, triage services.TriageService) *AnalyzeHandler {
	return &AnalyzeHandler{
		log:    baseLog.With("handler", "AnalyzeHandler"),
		triage: triage,
	}
}

type analyzeRequest struct {
	UserID         string                  `json:"userId"`
	Message        string                  `json:"message"`
	ConversationID string                  `json:"conversationId"`
	Language       string                  `json:"language"`
	ContentType    string                  `json:"contentType"`
	VoiceDuration  *int                    `json:"voiceDuration"`
	PatientInfo    services.PatientContext `json:"patientInfo"`
}

// Analyze handles POST /api/analyze.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondRaw(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondRaw(c, http.StatusBadRequest, "userId is required")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondRaw(c, http.StatusBadRequest, "userId must be a valid uuid")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondRaw(c, http.StatusBadRequest, "message is required")
		return
	}

	in := services.AnalyzeInput{
		UserID:        userID,
		Message:       req.Message,
		Language:      req.Language,
		ContentType:   types.ContentType(req.ContentType),
		VoiceDuration: req.VoiceDuration,
		Patient:       req.PatientInfo,
	}
	if strings.TrimSpace(req.ConversationID) != "" {
		convID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			respondRaw(c, http.StatusBadRequest, "conversationId must be a valid uuid")
			return
		}
		in.ConversationID = &convID
	}
	if in.ContentType == "" {
		in.ContentType = types.ContentText
	}

	result, err := h.triage.Analyze(c.Request.Context(), in)
	if err != nil {
		if apierr.Status(err) == http.StatusInternalServerError {
			h.log.Error("analyze failed", "user_id", userID, "error", err)
		}
		respondErr(c, err)
		return
	}

	payload := gin.H{
		"response": result.AssistantMessage.Content,
		"routing": gin.H{
			"severity":      result.Decision.SeverityLevel,
			"severityScore": result.Decision.SeverityScore,
			"facility":      result.Decision.FacilityID,
			"facilityType":  result.Decision.RecommendedFacility,
			"reasoning":     result.Decision.Reasoning,
			"priority":      result.Decision.Priority,
			"timeframe":     result.Decision.Timeframe,
		},
		"conversationId":  result.Conversation.ID,
		"messageId":       result.UserMessage.ID,
		"recommendations": result.Recommendations,
	}
	if len(result.RedFlags) > 0 {
		payload["redFlags"] = result.RedFlags
	}
	if result.Notification != nil {
		payload["notificationId"] = result.Notification.ID
	}
	respondOK(c, http.StatusOK, payload)
}
