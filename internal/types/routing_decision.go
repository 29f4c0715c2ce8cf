package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RoutingDecision is the immutable audit record of one severity classification
// and the facility it routed to. Rows are appended, never updated.
type RoutingDecision struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation        *Conversation  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`
	MessageID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"message_id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Symptoms            datatypes.JSON `gorm:"type:jsonb;column:symptoms" json:"symptoms"`
	SeverityLevel       SeverityLevel  `gorm:"column:severity_level;not null" json:"severity_level"`
	SeverityScore       int            `gorm:"column:severity_score;not null" json:"severity_score"`
	RecommendedFacility FacilityType   `gorm:"column:recommended_facility;not null" json:"recommended_facility"`
	FacilityID          *uuid.UUID     `gorm:"type:uuid;column:facility_id" json:"facility_id,omitempty"`
	Reasoning           string         `gorm:"column:reasoning" json:"reasoning"`
	AIConfidence        float64        `gorm:"column:ai_confidence;not null;default:0" json:"ai_confidence"`
	Priority            Priority       `gorm:"column:priority;not null" json:"priority"`
	Timeframe           string         `gorm:"column:timeframe;not null" json:"timeframe"`
	CreatedAt           time.Time      `gorm:"not null;index" json:"created_at"`
}

func (RoutingDecision) TableName() string { return "routing_decision" }
