package types

import "testing"

func TestLevelForScoreBands(t *testing.T) {
	cases := []struct {
		score    int
		level    SeverityLevel
		facility FacilityType
	}{
		{0, SeverityLow, FacilityASHA},
		{40, SeverityLow, FacilityASHA},
		{41, SeverityMedium, FacilityPHC},
		{60, SeverityMedium, FacilityPHC},
		{61, SeverityHigh, FacilityCHC},
		{80, SeverityHigh, FacilityCHC},
		{81, SeverityCritical, FacilityEmergency},
		{100, SeverityCritical, FacilityEmergency},
	}
	for _, tc := range cases {
		if got := LevelForScore(tc.score); got != tc.level {
			t.Errorf("LevelForScore(%d)=%s, want %s", tc.score, got, tc.level)
		}
		if got := FacilityForScore(tc.score); got != tc.facility {
			t.Errorf("FacilityForScore(%d)=%s, want %s", tc.score, got, tc.facility)
		}
	}
}

func TestPriorityAndTimeframeForLevel(t *testing.T) {
	cases := []struct {
		level     SeverityLevel
		priority  Priority
		timeframe string
	}{
		{SeverityLow, PriorityLow, TimeframeMonitor48h},
		{SeverityMedium, PriorityMedium, TimeframeWithin24Hours},
		{SeverityHigh, PriorityHigh, TimeframeWithin2Hours},
		{SeverityCritical, PriorityCritical, TimeframeImmediate},
	}
	for _, tc := range cases {
		if got := PriorityForLevel(tc.level); got != tc.priority {
			t.Errorf("PriorityForLevel(%s)=%s, want %s", tc.level, got, tc.priority)
		}
		if got := TimeframeForLevel(tc.level); got != tc.timeframe {
			t.Errorf("TimeframeForLevel(%s)=%s, want %s", tc.level, got, tc.timeframe)
		}
	}
}

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to NotificationStatus }{
		{StatusPending, StatusAcknowledged},
		{StatusAcknowledged, StatusResponded},
		{StatusResponded, StatusCompleted},
		{StatusPending, StatusCancelled},
		{StatusAcknowledged, StatusCancelled},
		{StatusResponded, StatusCancelled},
	}
	for _, tc := range legal {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s)=false, want true", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to NotificationStatus }{
		{StatusAcknowledged, StatusAcknowledged}, // re-acknowledge
		{StatusAcknowledged, StatusPending},      // backward
		{StatusResponded, StatusAcknowledged},
		{StatusPending, StatusResponded}, // skip
		{StatusPending, StatusCompleted},
		{StatusCompleted, StatusCancelled}, // out of terminal
		{StatusCancelled, StatusAcknowledged},
		{StatusCompleted, StatusPending},
	}
	for _, tc := range illegal {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s)=true, want false", tc.from, tc.to)
		}
	}
}
