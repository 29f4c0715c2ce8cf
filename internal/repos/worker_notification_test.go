package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

func newRepoTestDB(t *testing.T) (*gorm.DB, *logger.Logger) {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	err = db.AutoMigrate(
		&types.Conversation{},
		&types.Message{},
		&types.RoutingDecision{},
		&types.Facility{},
		&types.Worker{},
		&types.WorkerNotification{},
	)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db, log
}

func seedNotification(t *testing.T, repo WorkerNotificationRepo, status types.NotificationStatus) *types.WorkerNotification {
	t.Helper()
	now := time.Now().UTC()
	notif := &types.WorkerNotification{
		ID:                uuid.New(),
		WorkerID:          uuid.New(),
		WorkerType:        types.WorkerPHCStaff,
		PatientID:         uuid.New(),
		RoutingDecisionID: uuid.New(),
		NotificationType:  types.NotificationNewReferral,
		Priority:          types.PriorityMedium,
		Title:             "Referral",
		Message:           "New patient referral",
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := repo.Create(context.Background(), nil, notif); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return notif
}

func TestTransitionStatusConditionalUpdate(t *testing.T) {
	db, log := newRepoTestDB(t)
	repo := NewWorkerNotificationRepo(db, log)
	ctx := context.Background()

	notif := seedNotification(t, repo, types.StatusPending)
	ackAt := time.Now().UTC()

	rows, err := repo.TransitionStatus(ctx, nil, notif.ID, types.StatusPending, types.StatusAcknowledged, &ackAt, nil)
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	// The row is no longer pending, so replaying the same transition matches
	// nothing. This is what makes racing acknowledgements safe.
	rows, err = repo.TransitionStatus(ctx, nil, notif.ID, types.StatusPending, types.StatusAcknowledged, &ackAt, nil)
	if err != nil {
		t.Fatalf("replay errored: %v", err)
	}
	if rows != 0 {
		t.Fatalf("replay rows = %d, want 0", rows)
	}

	got, err := repo.GetByID(ctx, nil, notif.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != types.StatusAcknowledged || got.AcknowledgedAt == nil {
		t.Fatalf("state = %s/%v, want acknowledged with timestamp", got.Status, got.AcknowledgedAt)
	}
}

func TestListForWorkerPaging(t *testing.T) {
	db, log := newRepoTestDB(t)
	repo := NewWorkerNotificationRepo(db, log)
	ctx := context.Background()
	workerID := uuid.New()

	for i := 0; i < 5; i++ {
		now := time.Now().UTC().Add(time.Duration(i) * time.Second)
		notif := &types.WorkerNotification{
			ID: uuid.New(), WorkerID: workerID, WorkerType: types.WorkerASHA,
			PatientID: uuid.New(), RoutingDecisionID: uuid.New(),
			NotificationType: types.NotificationNewReferral, Priority: types.PriorityLow,
			Title: "Referral", Message: "m", Status: types.StatusPending,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := repo.Create(ctx, nil, notif); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	notifs, total, err := repo.ListForWorker(ctx, nil, workerID, NotificationFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(notifs) != 2 {
		t.Fatalf("page len = %d, want 2", len(notifs))
	}
	if !notifs[0].CreatedAt.After(notifs[1].CreatedAt) {
		t.Fatalf("page not ordered newest first")
	}
}

func TestFindActiveByTypePrefersFacility(t *testing.T) {
	db, log := newRepoTestDB(t)
	workerRepo := NewWorkerRepo(db, log)
	ctx := context.Background()
	now := time.Now().UTC()

	facilityID := uuid.New()
	other := &types.Worker{ID: uuid.New(), Name: "Elsewhere", WorkerType: types.WorkerPHCStaff, Active: true, CreatedAt: now, UpdatedAt: now}
	local := &types.Worker{ID: uuid.New(), Name: "Local", WorkerType: types.WorkerPHCStaff, FacilityID: &facilityID, Active: true, CreatedAt: now, UpdatedAt: now}
	inactive := &types.Worker{ID: uuid.New(), Name: "Inactive", WorkerType: types.WorkerCHCStaff, Active: false, CreatedAt: now, UpdatedAt: now}
	for _, w := range []*types.Worker{other, local, inactive} {
		if err := workerRepo.Create(ctx, nil, w); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	got, err := workerRepo.FindActiveByType(ctx, nil, types.WorkerPHCStaff, &facilityID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.ID != local.ID {
		t.Fatalf("got %v, want facility-local worker", got)
	}

	// No facility match falls back to any active worker of the class.
	randomFacility := uuid.New()
	got, err = workerRepo.FindActiveByType(ctx, nil, types.WorkerPHCStaff, &randomFacility)
	if err != nil {
		t.Fatalf("fallback find failed: %v", err)
	}
	if got == nil {
		t.Fatalf("fallback returned nil")
	}

	// Inactive workers are never selected.
	got, err = workerRepo.FindActiveByType(ctx, nil, types.WorkerCHCStaff, nil)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got != nil {
		t.Fatalf("selected inactive worker %v", got)
	}
}
