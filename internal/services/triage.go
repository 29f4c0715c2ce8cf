package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/clients/llm"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

// AnalyzeInput is one citizen message plus optional patient context.
type AnalyzeInput struct {
	UserID         uuid.UUID
	ConversationID *uuid.UUID
	Message        string
	Language       string
	ContentType    types.ContentType
	VoiceDuration  *int
	Patient        PatientContext
}

// AnalyzeResult is everything one triage turn produced.
type AnalyzeResult struct {
	Conversation     *types.Conversation       `json:"conversation"`
	UserMessage      *types.Message            `json:"userMessage"`
	AssistantMessage *types.Message            `json:"assistantMessage"`
	Decision         *types.RoutingDecision    `json:"routingDecision"`
	Recommendations  []string                  `json:"recommendations"`
	RedFlags         []string                  `json:"redFlags,omitempty"`
	Notification     *types.WorkerNotification `json:"workerNotification,omitempty"`
}

// TriageService runs the full analyze pipeline: ledger append, severity
// classification, routing audit, worker dispatch, and the assistant reply.
type TriageService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error)
}

type triageService struct {
	log        *logger.Logger
	convSvc    ConversationService
	classifier ClassifierService
	routing    RoutingService
	dispatch   DispatchService
	llm        llm.Client
}

func NewTriageService(baseLog *logger.Logger, convSvc ConversationService, classifier ClassifierService, routing RoutingService, dispatch DispatchService, llmClient llm.Client) TriageService {
	return &triageService{
		log:        baseLog.With("service", "TriageService"),
		convSvc:    convSvc,
		classifier: classifier,
		routing:    routing,
		dispatch:   dispatch,
		llm:        llmClient,
	}
}

func (s *triageService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	if in.UserID == uuid.Nil {
		return nil, apierr.Validation("userId is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, apierr.Validation("message is required")
	}

	conv, userMsg, err := s.convSvc.AppendMessage(ctx, AppendMessageInput{
		UserID:         in.UserID,
		ConversationID: in.ConversationID,
		Role:           types.RoleUser,
		Content:        in.Message,
		ContentType:    in.ContentType,
		VoiceDuration:  in.VoiceDuration,
		LanguageHint:   in.Language,
	})
	if err != nil {
		return nil, err
	}

	cls := s.classifier.Classify(ctx, nil, in.Patient, in.Message)

	decision, err := s.routing.Record(ctx, nil, RecordDecisionInput{
		ConversationID: conv.ID,
		MessageID:      userMsg.ID,
		UserID:         in.UserID,
		Classification: cls,
	})
	if err != nil {
		return nil, err
	}

	// Worker dispatch failing must not lose the citizen-facing answer; the
	// decision is already on file for later re-dispatch.
	notif, err := s.dispatch.Dispatch(ctx, decision, in.Patient)
	if err != nil {
		s.log.Error("worker dispatch failed", "routing_decision_id", decision.ID, "error", err)
		notif = nil
	}

	replyText := s.composeReply(ctx, conv.Language, cls)
	conv, assistantMsg, err := s.convSvc.AppendMessage(ctx, AppendMessageInput{
		UserID:         in.UserID,
		ConversationID: &conv.ID,
		Role:           types.RoleAssistant,
		Content:        replyText,
		ContentType:    types.ContentText,
	})
	if err != nil {
		return nil, err
	}

	return &AnalyzeResult{
		Conversation:     conv,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Decision:         decision,
		Recommendations:  cls.Recommendations,
		RedFlags:         cls.RedFlags,
		Notification:     notif,
	}, nil
}

// composeReply asks the LLM for a short reply in the conversation language and
// falls back to a templated one built from the routing outcome.
func (s *triageService) composeReply(ctx context.Context, language string, cls Classification) string {
	if s.llm != nil {
		system := fmt.Sprintf(
			"You are a calm healthcare triage assistant for rural India. Reply in language code %q, under 120 words. "+
				"The assessment is already final: severity %s, go to %s %s. Explain it plainly and list the advice.",
			language, cls.SeverityLevel, cls.RecommendedFacility, cls.Timeframe)
		user := fmt.Sprintf("Symptoms: %s. Advice: %s.",
			strings.Join(cls.Symptoms, ", "), strings.Join(cls.Recommendations, "; "))
		if reply, err := s.llm.GenerateText(ctx, system, user); err == nil && strings.TrimSpace(reply) != "" {
			return reply
		}
	}

	b := strings.Builder{}
	switch cls.SeverityLevel {
	case types.SeverityCritical:
		b.WriteString("This looks like an emergency. Please seek immediate care.")
	case types.SeverityHigh:
		b.WriteString("Your symptoms need prompt attention at the Community Health Centre.")
	case types.SeverityMedium:
		b.WriteString("Please visit the Primary Health Centre within a day.")
	default:
		b.WriteString("Your symptoms look mild. Your ASHA worker can guide you.")
	}
	for _, rec := range cls.Recommendations {
		b.WriteString(" ")
		b.WriteString(rec)
		b.WriteString(".")
	}
	return b.String()
}
