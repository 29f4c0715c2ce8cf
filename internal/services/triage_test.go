package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

func newTriageFixture(t *testing.T) (TriageService, *dispatchFixture, SeedService) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)

	convRepo := repos.NewConversationRepo(db, log)
	msgRepo := repos.NewMessageRepo(db, log)
	decisionRepo := repos.NewRoutingDecisionRepo(db, log)
	facilityRepo := repos.NewFacilityRepo(db, log)
	workerRepo := repos.NewWorkerRepo(db, log)
	notifRepo := repos.NewWorkerNotificationRepo(db, log)

	ft := &fakeTwilio{}
	f := &dispatchFixture{
		svc:          NewDispatchService(db, log, workerRepo, notifRepo, decisionRepo, ft),
		db:           db,
		twilio:       ft,
		workerRepo:   workerRepo,
		notifRepo:    notifRepo,
		decisionRepo: decisionRepo,
	}

	convSvc := NewConversationService(db, log, convRepo, msgRepo)
	classifier := NewClassifierService(log, nil)
	routing := NewRoutingService(db, log, decisionRepo, facilityRepo)
	triage := NewTriageService(log, convSvc, classifier, routing, f.svc, nil)
	seed := NewSeedService(db, log, facilityRepo, workerRepo)
	return triage, f, seed
}

func TestAnalyzeEmergencyEndToEnd(t *testing.T) {
	triage, f, seed := newTriageFixture(t)
	ctx := context.Background()
	if err := seed.SeedDirectory(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	age := 68
	result, err := triage.Analyze(ctx, AnalyzeInput{
		UserID:  uuid.New(),
		Message: "My father has chest pain and difficulty breathing",
		Patient: PatientContext{Name: "Mohan", Age: &age, Gender: "male"},
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if result.Decision.SeverityLevel != types.SeverityCritical {
		t.Fatalf("level = %s, want critical", result.Decision.SeverityLevel)
	}
	if result.Decision.RecommendedFacility != types.FacilityEmergency {
		t.Fatalf("facility = %s, want EMERGENCY", result.Decision.RecommendedFacility)
	}
	if result.Decision.Timeframe != types.TimeframeImmediate {
		t.Fatalf("timeframe = %s, want immediate", result.Decision.Timeframe)
	}
	if result.Notification == nil {
		t.Fatalf("no notification dispatched")
	}
	if result.Notification.NotificationType != types.NotificationEmergency {
		t.Fatalf("notification type = %s, want emergency", result.Notification.NotificationType)
	}
	if result.Notification.WorkerType != types.WorkerEmergency {
		t.Fatalf("worker type = %s, want emergency", result.Notification.WorkerType)
	}
	if result.AssistantMessage == nil || result.AssistantMessage.Content == "" {
		t.Fatalf("no assistant reply")
	}
	// Critical cases escalate over SMS and voice to the seeded worker.
	if len(f.twilio.smsSent) != 1 || len(f.twilio.calls) != 1 {
		t.Fatalf("sms=%d calls=%d, want 1 each", len(f.twilio.smsSent), len(f.twilio.calls))
	}
	// The turn writes the citizen message and the reply.
	if result.Conversation.MessageCount != 2 {
		t.Fatalf("message_count = %d, want 2", result.Conversation.MessageCount)
	}
}

func TestAnalyzeMildCaseRoutesToASHA(t *testing.T) {
	triage, f, seed := newTriageFixture(t)
	ctx := context.Background()
	if err := seed.SeedDirectory(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	age := 30
	result, err := triage.Analyze(ctx, AnalyzeInput{
		UserID:  uuid.New(),
		Message: "I have a mild fever and headache since yesterday",
		Patient: PatientContext{Age: &age},
	})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if result.Decision.SeverityLevel != types.SeverityLow {
		t.Fatalf("level = %s, want low", result.Decision.SeverityLevel)
	}
	if result.Decision.RecommendedFacility != types.FacilityASHA {
		t.Fatalf("facility = %s, want ASHA", result.Decision.RecommendedFacility)
	}
	if result.Notification == nil {
		t.Fatalf("no notification for ASHA worker")
	}
	if result.Notification.NotificationType != types.NotificationNewReferral {
		t.Fatalf("type = %s, want new_referral", result.Notification.NotificationType)
	}
	if len(f.twilio.smsSent) != 0 {
		t.Fatalf("sms escalation for a low-priority case")
	}
}

func TestAnalyzeFollowUpInExistingThread(t *testing.T) {
	triage, _, seed := newTriageFixture(t)
	ctx := context.Background()
	if err := seed.SeedDirectory(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	userID := uuid.New()

	first, err := triage.Analyze(ctx, AnalyzeInput{
		UserID:  userID,
		Message: "I have a cough",
	})
	if err != nil {
		t.Fatalf("first analyze failed: %v", err)
	}

	second, err := triage.Analyze(ctx, AnalyzeInput{
		UserID:         userID,
		ConversationID: &first.Conversation.ID,
		Message:        "The cough is still there",
	})
	if err != nil {
		t.Fatalf("second analyze failed: %v", err)
	}
	if second.Notification == nil {
		t.Fatalf("no notification on follow-up")
	}
	if second.Notification.NotificationType != types.NotificationFollowUp {
		t.Fatalf("type = %s, want follow_up", second.Notification.NotificationType)
	}
}

func TestAnalyzeRejectsBlankInput(t *testing.T) {
	triage, _, _ := newTriageFixture(t)
	ctx := context.Background()

	if _, err := triage.Analyze(ctx, AnalyzeInput{UserID: uuid.New(), Message: "  "}); err == nil {
		t.Fatalf("blank message accepted")
	}
	if _, err := triage.Analyze(ctx, AnalyzeInput{Message: "hello"}); err == nil {
		t.Fatalf("missing user accepted")
	}
}
