package types

import (
	"time"

	"github.com/google/uuid"
)

// Worker is a registered healthcare worker reachable by the dispatcher. Phone
// is where SMS/voice-call deliveries go.
type Worker struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"column:name;not null" json:"name"`
	WorkerType WorkerType `gorm:"column:worker_type;not null;index" json:"worker_type"`
	Phone      string     `gorm:"column:phone" json:"phone"`
	FacilityID *uuid.UUID `gorm:"type:uuid;column:facility_id;index" json:"facility_id,omitempty"`
	Facility   *Facility  `gorm:"constraint:OnDelete:SET NULL;foreignKey:FacilityID;references:ID" json:"facility,omitempty"`
	Active     bool       `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (Worker) TableName() string { return "worker" }
