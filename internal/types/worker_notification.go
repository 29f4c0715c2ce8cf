package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WorkerType string

const (
	WorkerASHA      WorkerType = "asha"
	WorkerPHCStaff  WorkerType = "phc_staff"
	WorkerCHCStaff  WorkerType = "chc_staff"
	WorkerEmergency WorkerType = "emergency"
)

func (w WorkerType) Valid() bool {
	switch w {
	case WorkerASHA, WorkerPHCStaff, WorkerCHCStaff, WorkerEmergency:
		return true
	}
	return false
}

// WorkerTypeForFacility maps a recommended facility tier onto the class of
// worker that handles its queue.
func WorkerTypeForFacility(f FacilityType) WorkerType {
	switch f {
	case FacilityASHA:
		return WorkerASHA
	case FacilityPHC:
		return WorkerPHCStaff
	case FacilityCHC:
		return WorkerCHCStaff
	default:
		return WorkerEmergency
	}
}

type NotificationType string

const (
	NotificationNewReferral NotificationType = "new_referral"
	NotificationUrgentCase  NotificationType = "urgent_case"
	NotificationFollowUp    NotificationType = "follow_up"
	NotificationEmergency   NotificationType = "emergency"
)

func (n NotificationType) Valid() bool {
	switch n {
	case NotificationNewReferral, NotificationUrgentCase, NotificationFollowUp, NotificationEmergency:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusPending      NotificationStatus = "pending"
	StatusAcknowledged NotificationStatus = "acknowledged"
	StatusResponded    NotificationStatus = "responded"
	StatusCompleted    NotificationStatus = "completed"
	StatusCancelled    NotificationStatus = "cancelled"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAcknowledged, StatusResponded, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s NotificationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition is the single guard for notification status changes. Legal
// moves are pending→acknowledged→responded→completed, plus any non-terminal
// state→cancelled. Everything else, including re-entering the current state,
// is rejected.
func CanTransition(from, to NotificationStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StatusAcknowledged:
		return from == StatusPending
	case StatusResponded:
		return from == StatusAcknowledged
	case StatusCompleted:
		return from == StatusResponded
	case StatusCancelled:
		return true
	}
	return false
}

type DeliveryChannel string

const (
	ChannelApp  DeliveryChannel = "app"
	ChannelSMS  DeliveryChannel = "sms"
	ChannelCall DeliveryChannel = "call"
)

// PatientSummary is the structured snapshot frozen into a notification at
// dispatch time. Later edits to the patient record never touch it.
type PatientSummary struct {
	Name          string   `json:"name,omitempty"`
	Age           int      `json:"age,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Symptoms      []string `json:"symptoms"`
	SeverityLevel string   `json:"severity_level"`
}

// WorkerNotification is an actionable alert addressed to one healthcare
// worker. Status only moves through CanTransition; acknowledged_at is set
// exactly once and never cleared.
type WorkerNotification struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	WorkerID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"worker_id"`
	WorkerType        WorkerType         `gorm:"column:worker_type;not null" json:"worker_type"`
	PatientID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	RoutingDecisionID uuid.UUID          `gorm:"type:uuid;not null;index" json:"routing_decision_id"`
	NotificationType  NotificationType   `gorm:"column:notification_type;not null" json:"notification_type"`
	Priority          Priority           `gorm:"column:priority;not null;index" json:"priority"`
	Title             string             `gorm:"column:title;not null" json:"title"`
	Message           string             `gorm:"column:message;not null" json:"message"`
	PatientSummary    datatypes.JSON     `gorm:"type:jsonb;column:patient_summary" json:"patient_summary"`
	Status            NotificationStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	AcknowledgedAt    *time.Time         `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	ResponseText      *string            `gorm:"column:response_text" json:"response_text,omitempty"`
	SentVia           datatypes.JSON     `gorm:"type:jsonb;column:sent_via" json:"sent_via"`
	DeliveryStatus    datatypes.JSON     `gorm:"type:jsonb;column:delivery_status" json:"delivery_status"`
	CreatedAt         time.Time          `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"not null" json:"updated_at"`
}

func (WorkerNotification) TableName() string { return "worker_notification" }
