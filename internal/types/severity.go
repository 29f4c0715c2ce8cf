package types

// SeverityLevel is the triage band a severity score falls into.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

func (s SeverityLevel) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// FacilityType is a care tier in the rural referral chain.
type FacilityType string

const (
	FacilityASHA      FacilityType = "ASHA"
	FacilityPHC       FacilityType = "PHC"
	FacilityCHC       FacilityType = "CHC"
	FacilityEmergency FacilityType = "EMERGENCY"
)

func (f FacilityType) Valid() bool {
	switch f {
	case FacilityASHA, FacilityPHC, FacilityCHC, FacilityEmergency:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

const (
	TimeframeImmediate     = "immediate"
	TimeframeWithin2Hours  = "within_2_hours"
	TimeframeWithin4Hours  = "within_4_hours"
	TimeframeWithin24Hours = "within_24_hours"
	TimeframeMonitor48h    = "monitor_48_hours"
)

// The severity bands are fixed medical-protocol thresholds. LevelForScore and
// FacilityForScore are the single source of truth; the decision store rejects
// any record whose level/facility pairing disagrees with them.
func LevelForScore(score int) SeverityLevel {
	switch {
	case score <= 40:
		return SeverityLow
	case score <= 60:
		return SeverityMedium
	case score <= 80:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

func FacilityForScore(score int) FacilityType {
	switch LevelForScore(score) {
	case SeverityLow:
		return FacilityASHA
	case SeverityMedium:
		return FacilityPHC
	case SeverityHigh:
		return FacilityCHC
	default:
		return FacilityEmergency
	}
}

// PriorityForLevel maps a severity band onto the dispatch priority carried by
// routing decisions and worker notifications.
func PriorityForLevel(level SeverityLevel) Priority {
	switch level {
	case SeverityLow:
		return PriorityLow
	case SeverityMedium:
		return PriorityMedium
	case SeverityHigh:
		return PriorityHigh
	default:
		return PriorityCritical
	}
}

// TimeframeForLevel mirrors the source triage protocol's care windows.
func TimeframeForLevel(level SeverityLevel) string {
	switch level {
	case SeverityCritical:
		return TimeframeImmediate
	case SeverityHigh:
		return TimeframeWithin2Hours
	case SeverityMedium:
		return TimeframeWithin24Hours
	default:
		return TimeframeMonitor48h
	}
}
