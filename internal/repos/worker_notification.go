package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

// NotificationFilter narrows ListForWorker. Status and Priority are
// conjunctive when both set. Limit is capped by the service layer.
type NotificationFilter struct {
	Status   *types.NotificationStatus
	Priority *types.Priority
	Limit    int
	Offset   int
}

type WorkerNotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, n *types.WorkerNotification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WorkerNotification, error)
	// TransitionStatus applies the status change only when the row is still in
	// fromStatus, so two racing transitions cannot both win. Returns the number
	// of rows updated.
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatus, toStatus types.NotificationStatus, ackAt *time.Time, responseText *string) (int64, error)
	UpdateDelivery(ctx context.Context, tx *gorm.DB, id uuid.UUID, sentVia, deliveryStatus datatypes.JSON) error
	ListForWorker(ctx context.Context, tx *gorm.DB, workerID uuid.UUID, filter NotificationFilter) ([]*types.WorkerNotification, int64, error)
	ListForWorkerWindow(ctx context.Context, tx *gorm.DB, workerID uuid.UUID, start, end *time.Time) ([]*types.WorkerNotification, error)
}

type workerNotificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkerNotificationRepo(db *gorm.DB, baseLog *logger.Logger) WorkerNotificationRepo {
	return &workerNotificationRepo{db: db, log: baseLog.With("repo", "WorkerNotificationRepo")}
}

func (r *workerNotificationRepo) Create(ctx context.Context, tx *gorm.DB, n *types.WorkerNotification) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(n).Error
}

func (r *workerNotificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WorkerNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n types.WorkerNotification
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *workerNotificationRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatus, toStatus types.NotificationStatus, ackAt *time.Time, responseText *string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now().UTC(),
	}
	if ackAt != nil {
		updates["acknowledged_at"] = *ackAt
	}
	if responseText != nil {
		updates["response_text"] = *responseText
	}
	res := transaction.WithContext(ctx).
		Model(&types.WorkerNotification{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *workerNotificationRepo) UpdateDelivery(ctx context.Context, tx *gorm.DB, id uuid.UUID, sentVia, deliveryStatus datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.WorkerNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent_via":        sentVia,
			"delivery_status": deliveryStatus,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *workerNotificationRepo) ListForWorker(ctx context.Context, tx *gorm.DB, workerID uuid.UUID, filter NotificationFilter) ([]*types.WorkerNotification, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.WorkerNotification{}).
		Where("worker_id = ?", workerID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", *filter.Priority)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.WorkerNotification
	if err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *workerNotificationRepo) ListForWorkerWindow(ctx context.Context, tx *gorm.DB, workerID uuid.UUID, start, end *time.Time) ([]*types.WorkerNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("worker_id = ?", workerID)
	if start != nil {
		q = q.Where("created_at >= ?", *start)
	}
	if end != nil {
		q = q.Where("created_at <= ?", *end)
	}
	var results []*types.WorkerNotification
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
