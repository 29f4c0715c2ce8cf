package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

// RecordDecisionInput ties one classification result to the conversation turn
// that produced it.
type RecordDecisionInput struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	UserID         uuid.UUID
	Classification Classification
}

type RoutingService interface {
	// Record validates the classification for internal consistency, resolves a
	// concrete facility, and appends the immutable audit row.
	Record(ctx context.Context, tx *gorm.DB, in RecordDecisionInput) (*types.RoutingDecision, error)
	Get(ctx context.Context, userID, decisionID uuid.UUID) (*types.RoutingDecision, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.RoutingDecision, error)
}

type routingService struct {
	db           *gorm.DB
	log          *logger.Logger
	decisionRepo repos.RoutingDecisionRepo
	facilityRepo repos.FacilityRepo
}

func NewRoutingService(db *gorm.DB, baseLog *logger.Logger, decisionRepo repos.RoutingDecisionRepo, facilityRepo repos.FacilityRepo) RoutingService {
	return &routingService{
		db:           db,
		log:          baseLog.With("service", "RoutingService"),
		decisionRepo: decisionRepo,
		facilityRepo: facilityRepo,
	}
}

func (s *routingService) Record(ctx context.Context, tx *gorm.DB, in RecordDecisionInput) (*types.RoutingDecision, error) {
	cls := in.Classification
	if err := validateClassification(cls); err != nil {
		return nil, err
	}
	if in.ConversationID == uuid.Nil || in.MessageID == uuid.Nil || in.UserID == uuid.Nil {
		return nil, apierr.Validation("conversation, message, and user ids are required")
	}

	symptomsJSON, err := json.Marshal(cls.Symptoms)
	if err != nil {
		return nil, apierr.Validation("symptoms are not serializable")
	}

	var facilityID *uuid.UUID
	facility, err := s.facilityRepo.FindByType(ctx, tx, cls.RecommendedFacility)
	if err != nil {
		return nil, err
	}
	if facility != nil {
		facilityID = &facility.ID
	}

	decision := &types.RoutingDecision{
		ID:                  uuid.New(),
		ConversationID:      in.ConversationID,
		MessageID:           in.MessageID,
		UserID:              in.UserID,
		Symptoms:            symptomsJSON,
		SeverityLevel:       cls.SeverityLevel,
		SeverityScore:       cls.SeverityScore,
		RecommendedFacility: cls.RecommendedFacility,
		FacilityID:          facilityID,
		Reasoning:           cls.Reasoning,
		AIConfidence:        cls.Confidence,
		Priority:            cls.Priority,
		Timeframe:           cls.Timeframe,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.decisionRepo.Create(ctx, tx, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

func (s *routingService) Get(ctx context.Context, userID, decisionID uuid.UUID) (*types.RoutingDecision, error) {
	decision, err := s.decisionRepo.GetByID(ctx, nil, decisionID)
	if err != nil {
		return nil, err
	}
	if decision == nil || decision.UserID != userID {
		return nil, apierr.Ownership("routing decision not found")
	}
	return decision, nil
}

func (s *routingService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.RoutingDecision, error) {
	return s.decisionRepo.ListByUser(ctx, nil, userID, limit)
}

// validateClassification rejects rows whose derived fields disagree with the
// score. The routing table is the single source of truth; a decision that
// contradicts it must never reach the audit log.
func validateClassification(cls Classification) error {
	if cls.SeverityScore < 0 || cls.SeverityScore > 100 {
		return apierr.Validation("severity score must be between 0 and 100")
	}
	level := types.LevelForScore(cls.SeverityScore)
	if cls.SeverityLevel != level {
		return apierr.Validation("severity level does not match score")
	}
	if cls.RecommendedFacility != types.FacilityForScore(cls.SeverityScore) {
		return apierr.Validation("recommended facility does not match score")
	}
	if cls.Priority != types.PriorityForLevel(level) {
		return apierr.Validation("priority does not match severity level")
	}
	if cls.Timeframe != types.TimeframeForLevel(level) {
		return apierr.Validation("timeframe does not match severity level")
	}
	return nil
}
