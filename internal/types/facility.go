package types

import (
	"time"

	"github.com/google/uuid"
)

// Facility is a physical care point in the referral directory.
type Facility struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string       `gorm:"column:name;not null" json:"name"`
	FacilityType   FacilityType `gorm:"column:facility_type;not null;index" json:"facility_type"`
	District       string       `gorm:"column:district" json:"district"`
	Block          string       `gorm:"column:block" json:"block"`
	Phone          string       `gorm:"column:phone" json:"phone"`
	EmergencyPhone string       `gorm:"column:emergency_phone" json:"emergency_phone"`
	Capacity       int          `gorm:"column:capacity;not null;default:0" json:"capacity"`
	CurrentLoad    int          `gorm:"column:current_load;not null;default:0" json:"current_load"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (Facility) TableName() string { return "facility" }
