package types

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

func (r MessageRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVoice ContentType = "voice"
)

func (c ContentType) Valid() bool {
	return c == ContentText || c == ContentVoice
}

// Message is immutable once created. Appending one is the sole trigger for the
// owning conversation's message_count/last_message_at bookkeeping.
type Message struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`
	Role           MessageRole   `gorm:"column:role;not null" json:"role"`
	Content        string        `gorm:"column:content;not null" json:"content"`
	ContentType    ContentType   `gorm:"column:content_type;not null;default:'text'" json:"content_type"`
	VoiceDuration  *int          `gorm:"column:voice_duration" json:"voice_duration,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
