package services

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/apierr"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// DecisionSummary is the slice of the originating routing decision embedded
// in each listed notification, so the worker UI needs no second fetch.
type DecisionSummary struct {
	Symptoms      []string `json:"symptoms"`
	SeverityLevel string   `json:"severityLevel"`
	SeverityScore int      `json:"severityScore"`
	Reasoning     string   `json:"reasoning"`
}

type NotificationListItem struct {
	*types.WorkerNotification
	RoutingDecision *DecisionSummary `json:"routingDecision,omitempty"`
}

// NotificationPage is one page of a worker's queue plus the unpaged total.
type NotificationPage struct {
	Notifications []*NotificationListItem `json:"notifications"`
	Total         int64                   `json:"total"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
}

// ResponseMetrics summarizes how quickly the queue gets worked. Times are in
// seconds, measured from creation to acknowledgement; pending rows count only
// against the rate.
type ResponseMetrics struct {
	AvgResponseTime float64 `json:"avgResponseTime"`
	MinResponseTime float64 `json:"minResponseTime"`
	MaxResponseTime float64 `json:"maxResponseTime"`
	ResponseRate    float64 `json:"responseRate"`
}

// NotificationStats aggregates a worker's queue over an optional time window.
type NotificationStats struct {
	Total           int64            `json:"total"`
	ByStatus        map[string]int64 `json:"byStatus"`
	ByPriority      map[string]int64 `json:"byPriority"`
	ResponseMetrics ResponseMetrics  `json:"responseMetrics"`
}

type NotificationQueryService interface {
	ListForWorker(ctx context.Context, workerID uuid.UUID, status *types.NotificationStatus, priority *types.Priority, limit, offset int) (*NotificationPage, error)
	Stats(ctx context.Context, workerID uuid.UUID, start, end *time.Time) (*NotificationStats, error)
}

type notificationQueryService struct {
	db           *gorm.DB
	log          *logger.Logger
	notifRepo    repos.WorkerNotificationRepo
	decisionRepo repos.RoutingDecisionRepo
}

func NewNotificationQueryService(db *gorm.DB, baseLog *logger.Logger, notifRepo repos.WorkerNotificationRepo, decisionRepo repos.RoutingDecisionRepo) NotificationQueryService {
	return &notificationQueryService{
		db:           db,
		log:          baseLog.With("service", "NotificationQueryService"),
		notifRepo:    notifRepo,
		decisionRepo: decisionRepo,
	}
}

func (s *notificationQueryService) ListForWorker(ctx context.Context, workerID uuid.UUID, status *types.NotificationStatus, priority *types.Priority, limit, offset int) (*NotificationPage, error) {
	if status != nil && !status.Valid() {
		return nil, apierr.Validation("invalid status filter")
	}
	if priority != nil && !priority.Valid() {
		return nil, apierr.Validation("invalid priority filter")
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter := repos.NotificationFilter{
		Status:   status,
		Priority: priority,
		Limit:    limit,
		Offset:   offset,
	}
	notifs, total, err := s.notifRepo.ListForWorker(ctx, nil, workerID, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.withDecisions(ctx, notifs)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{
		Notifications: items,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

// withDecisions joins each notification with a summary of its routing
// decision in one batch lookup.
func (s *notificationQueryService) withDecisions(ctx context.Context, notifs []*types.WorkerNotification) ([]*NotificationListItem, error) {
	ids := make([]uuid.UUID, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, n.RoutingDecisionID)
	}
	decisions, err := s.decisionRepo.ListByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}

	items := make([]*NotificationListItem, len(notifs))
	for i, n := range notifs {
		item := &NotificationListItem{WorkerNotification: n}
		if d, ok := decisions[n.RoutingDecisionID]; ok {
			var symptoms []string
			_ = json.Unmarshal(d.Symptoms, &symptoms)
			item.RoutingDecision = &DecisionSummary{
				Symptoms:      symptoms,
				SeverityLevel: string(d.SeverityLevel),
				SeverityScore: d.SeverityScore,
				Reasoning:     d.Reasoning,
			}
		}
		items[i] = item
	}
	return items, nil
}

func (s *notificationQueryService) Stats(ctx context.Context, workerID uuid.UUID, start, end *time.Time) (*NotificationStats, error) {
	notifs, err := s.notifRepo.ListForWorkerWindow(ctx, nil, workerID, start, end)
	if err != nil {
		return nil, err
	}

	stats := &NotificationStats{
		ByStatus:   map[string]int64{},
		ByPriority: map[string]int64{},
	}
	var responded int64
	var ackCount int64
	var ackSum, ackMin, ackMax float64
	for _, n := range notifs {
		stats.Total++
		stats.ByStatus[string(n.Status)]++
		stats.ByPriority[string(n.Priority)]++
		switch n.Status {
		case types.StatusAcknowledged, types.StatusResponded, types.StatusCompleted:
			responded++
		}
		if n.AcknowledgedAt != nil {
			secs := n.AcknowledgedAt.Sub(n.CreatedAt).Seconds()
			if ackCount == 0 || secs < ackMin {
				ackMin = secs
			}
			if secs > ackMax {
				ackMax = secs
			}
			ackCount++
			ackSum += secs
		}
	}
	// An empty window reports a zero rate rather than dividing by zero.
	if stats.Total > 0 {
		stats.ResponseMetrics.ResponseRate = round2(float64(responded) / float64(stats.Total) * 100)
	}
	if ackCount > 0 {
		stats.ResponseMetrics.AvgResponseTime = round2(ackSum / float64(ackCount))
		stats.ResponseMetrics.MinResponseTime = round2(ackMin)
		stats.ResponseMetrics.MaxResponseTime = round2(ackMax)
	}
	return stats, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
