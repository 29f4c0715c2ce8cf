package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/clients/twilio"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type DispatchService interface {
	// Dispatch creates one notification for the routing decision and fans it
	// out over the delivery channels its priority warrants. Returns nil when
	// no worker of the required class is registered.
	Dispatch(ctx context.Context, decision *types.RoutingDecision, pc PatientContext) (*types.WorkerNotification, error)
	Acknowledge(ctx context.Context, workerID, notificationID uuid.UUID, responseText *string) (*types.WorkerNotification, error)
	Respond(ctx context.Context, workerID, notificationID uuid.UUID, responseText string) (*types.WorkerNotification, error)
	Complete(ctx context.Context, workerID, notificationID uuid.UUID) (*types.WorkerNotification, error)
	// Cancel is an administrative override and skips the ownership check.
	Cancel(ctx context.Context, notificationID uuid.UUID) (*types.WorkerNotification, error)
}

type dispatchService struct {
	db             *gorm.DB
	log            *logger.Logger
	workerRepo     repos.WorkerRepo
	notifRepo      repos.WorkerNotificationRepo
	decisionRepo   repos.RoutingDecisionRepo
	sms            twilio.Client
	channelTimeout time.Duration
}

// NewDispatchService accepts a nil twilio client; SMS and voice channels are
// then recorded as skipped rather than attempted.
func NewDispatchService(db *gorm.DB, baseLog *logger.Logger, workerRepo repos.WorkerRepo, notifRepo repos.WorkerNotificationRepo, decisionRepo repos.RoutingDecisionRepo, sms twilio.Client) DispatchService {
	return &dispatchService{
		db:             db,
		log:            baseLog.With("service", "DispatchService"),
		workerRepo:     workerRepo,
		notifRepo:      notifRepo,
		decisionRepo:   decisionRepo,
		sms:            sms,
		channelTimeout: envutil.Duration("DISPATCH_CHANNEL_TIMEOUT", 10*time.Second),
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, decision *types.RoutingDecision, pc PatientContext) (*types.WorkerNotification, error) {
	if decision == nil {
		return nil, apierr.Validation("routing decision is required")
	}

	workerType := types.WorkerTypeForFacility(decision.RecommendedFacility)
	worker, err := s.workerRepo.FindActiveByType(ctx, nil, workerType, decision.FacilityID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		s.log.Warn("no active worker for tier, notification skipped",
			"worker_type", workerType, "routing_decision_id", decision.ID)
		return nil, nil
	}

	notifType, err := s.notificationType(ctx, decision)
	if err != nil {
		return nil, err
	}

	var symptoms []string
	_ = json.Unmarshal(decision.Symptoms, &symptoms)
	summary := types.PatientSummary{
		Name:          pc.Name,
		Gender:        pc.Gender,
		Symptoms:      symptoms,
		SeverityLevel: string(decision.SeverityLevel),
	}
	if pc.Age != nil {
		summary.Age = *pc.Age
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, apierr.Validation("patient summary is not serializable")
	}

	now := time.Now().UTC()
	notif := &types.WorkerNotification{
		ID:                uuid.New(),
		WorkerID:          worker.ID,
		WorkerType:        workerType,
		PatientID:         decision.UserID,
		RoutingDecisionID: decision.ID,
		NotificationType:  notifType,
		Priority:          decision.Priority,
		Title:             notificationTitle(notifType),
		Message:           notificationMessage(decision, summary),
		PatientSummary:    summaryJSON,
		Status:            types.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.notifRepo.Create(ctx, nil, notif); err != nil {
		return nil, err
	}

	sentVia, deliveryStatus := s.deliver(ctx, notif, worker)
	sentViaJSON, _ := json.Marshal(sentVia)
	deliveryJSON, _ := json.Marshal(deliveryStatus)
	if err := s.notifRepo.UpdateDelivery(ctx, nil, notif.ID, sentViaJSON, deliveryJSON); err != nil {
		// The notification row already exists; delivery bookkeeping failing
		// must not undo the dispatch.
		s.log.Error("failed to record delivery status", "notification_id", notif.ID, "error", err)
	}
	notif.SentVia = sentViaJSON
	notif.DeliveryStatus = deliveryJSON
	return notif, nil
}

// deliver fans out over the channels concurrently. The in-app channel is the
// row itself, so it is always marked delivered; SMS and voice run only for
// high and critical priorities, and a channel failing never fails the others.
func (s *dispatchService) deliver(ctx context.Context, notif *types.WorkerNotification, worker *types.Worker) ([]types.DeliveryChannel, map[string]string) {
	channels := []types.DeliveryChannel{types.ChannelApp}
	skipped := map[string]string{}
	escalate := notif.Priority == types.PriorityHigh || notif.Priority == types.PriorityCritical
	if escalate {
		phoneChannels := []types.DeliveryChannel{types.ChannelSMS}
		if notif.Priority == types.PriorityCritical {
			phoneChannels = append(phoneChannels, types.ChannelCall)
		}
		if worker.Phone != "" && s.sms != nil {
			channels = append(channels, phoneChannels...)
		} else {
			// Escalation was warranted but the channel is unavailable; the
			// outcome map says so instead of the channel silently vanishing.
			for _, ch := range phoneChannels {
				skipped[string(ch)] = "skipped"
			}
		}
	}

	results := make([]string, len(channels))
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = s.deliverOne(gctx, ch, notif, worker)
			return nil
		})
	}
	_ = g.Wait()

	status := make(map[string]string, len(channels)+len(skipped))
	for i, ch := range channels {
		status[string(ch)] = results[i]
	}
	for ch, outcome := range skipped {
		status[ch] = outcome
	}
	return channels, status
}

func (s *dispatchService) deliverOne(ctx context.Context, ch types.DeliveryChannel, notif *types.WorkerNotification, worker *types.Worker) string {
	if ch == types.ChannelApp {
		return "delivered"
	}
	chCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()

	var err error
	switch ch {
	case types.ChannelSMS:
		_, err = s.sms.SendSMS(chCtx, worker.Phone, notif.Title+": "+notif.Message)
	case types.ChannelCall:
		_, err = s.sms.PlaceCall(chCtx, worker.Phone, notif.Message)
	}
	if err != nil {
		s.log.Warn("channel delivery failed",
			"channel", ch, "notification_id", notif.ID, "error", err)
		return "failed: " + err.Error()
	}
	return "delivered"
}

func (s *dispatchService) Acknowledge(ctx context.Context, workerID, notificationID uuid.UUID, responseText *string) (*types.WorkerNotification, error) {
	now := time.Now().UTC()
	if responseText != nil && strings.TrimSpace(*responseText) == "" {
		responseText = nil
	}
	return s.transition(ctx, &workerID, notificationID, types.StatusAcknowledged, &now, responseText)
}

func (s *dispatchService) Respond(ctx context.Context, workerID, notificationID uuid.UUID, responseText string) (*types.WorkerNotification, error) {
	if strings.TrimSpace(responseText) == "" {
		return nil, apierr.Validation("response text is required")
	}
	return s.transition(ctx, &workerID, notificationID, types.StatusResponded, nil, &responseText)
}

func (s *dispatchService) Complete(ctx context.Context, workerID, notificationID uuid.UUID) (*types.WorkerNotification, error) {
	return s.transition(ctx, &workerID, notificationID, types.StatusCompleted, nil, nil)
}

func (s *dispatchService) Cancel(ctx context.Context, notificationID uuid.UUID) (*types.WorkerNotification, error) {
	return s.transition(ctx, nil, notificationID, types.StatusCancelled, nil, nil)
}

// transition applies one guarded status change. workerID nil means the caller
// acts administratively and the ownership check is skipped.
func (s *dispatchService) transition(ctx context.Context, workerID *uuid.UUID, notificationID uuid.UUID, to types.NotificationStatus, ackAt *time.Time, responseText *string) (*types.WorkerNotification, error) {
	notif, err := s.notifRepo.GetByID(ctx, nil, notificationID)
	if err != nil {
		return nil, err
	}
	if notif == nil {
		return nil, apierr.NotFound("notification not found")
	}
	if workerID != nil && notif.WorkerID != *workerID {
		return nil, apierr.Ownership("notification does not belong to this worker")
	}
	if !types.CanTransition(notif.Status, to) {
		return nil, apierr.Validation("cannot transition notification from %s to %s", notif.Status, to)
	}

	rows, err := s.notifRepo.TransitionStatus(ctx, nil, notificationID, notif.Status, to, ackAt, responseText)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// A concurrent transition won the race.
		return nil, apierr.Validation("cannot transition notification from %s to %s", notif.Status, to)
	}
	return s.notifRepo.GetByID(ctx, nil, notificationID)
}

// notificationType classifies the alert: emergencies and urgent cases follow
// priority, everything else is a follow-up when the conversation already has
// earlier routing decisions on file.
func (s *dispatchService) notificationType(ctx context.Context, decision *types.RoutingDecision) (types.NotificationType, error) {
	switch decision.Priority {
	case types.PriorityCritical:
		return types.NotificationEmergency, nil
	case types.PriorityHigh:
		return types.NotificationUrgentCase, nil
	}
	count, err := s.decisionRepo.CountByConversation(ctx, nil, decision.ConversationID)
	if err != nil {
		return "", err
	}
	if count > 1 {
		return types.NotificationFollowUp, nil
	}
	return types.NotificationNewReferral, nil
}

func notificationTitle(nt types.NotificationType) string {
	switch nt {
	case types.NotificationEmergency:
		return "EMERGENCY: Immediate attention required"
	case types.NotificationUrgentCase:
		return "Urgent case referral"
	case types.NotificationFollowUp:
		return "Patient follow-up"
	default:
		return "New patient referral"
	}
}

func notificationMessage(decision *types.RoutingDecision, summary types.PatientSummary) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Patient routed to %s (severity %s, score %d).",
		decision.RecommendedFacility, decision.SeverityLevel, decision.SeverityScore)
	if len(summary.Symptoms) > 0 {
		fmt.Fprintf(&b, " Reported symptoms: %s.", strings.Join(summary.Symptoms, ", "))
	}
	fmt.Fprintf(&b, " Recommended timeframe: %s.", decision.Timeframe)
	return b.String()
}
