package types

import (
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
	ConversationDeleted  ConversationStatus = "deleted"
)

func (s ConversationStatus) Valid() bool {
	switch s {
	case ConversationActive, ConversationArchived, ConversationDeleted:
		return true
	}
	return false
}

// Conversation is one citizen triage session. Rows are never physically
// deleted; ConversationDeleted is a status transition.
type Conversation struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	Title         string             `gorm:"column:title" json:"title"`
	Language      string             `gorm:"column:language;not null;default:'en'" json:"language"`
	Status        ConversationStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	MessageCount  int                `gorm:"column:message_count;not null;default:0" json:"message_count"`
	StartedAt     time.Time          `gorm:"column:started_at;not null" json:"started_at"`
	LastMessageAt time.Time          `gorm:"column:last_message_at;not null" json:"last_message_at"`
	CreatedAt     time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"not null" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }
