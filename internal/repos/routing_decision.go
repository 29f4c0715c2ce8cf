package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

// RoutingDecisionRepo is append-only: decisions are historical audit records
// and carry no update or delete path.
type RoutingDecisionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, decision *types.RoutingDecision) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RoutingDecision, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.RoutingDecision, error)
	ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*types.RoutingDecision, error)
	CountByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error)
}

type routingDecisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoutingDecisionRepo(db *gorm.DB, baseLog *logger.Logger) RoutingDecisionRepo {
	return &routingDecisionRepo{db: db, log: baseLog.With("repo", "RoutingDecisionRepo")}
}

func (r *routingDecisionRepo) Create(ctx context.Context, tx *gorm.DB, decision *types.RoutingDecision) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(decision).Error
}

func (r *routingDecisionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RoutingDecision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var decision types.RoutingDecision
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&decision).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *routingDecisionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.RoutingDecision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.RoutingDecision
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *routingDecisionRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*types.RoutingDecision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	byID := make(map[uuid.UUID]*types.RoutingDecision, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	var results []*types.RoutingDecision
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	for _, d := range results {
		byID[d.ID] = d
	}
	return byID, nil
}

func (r *routingDecisionRepo) CountByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.RoutingDecision{}).
		Where("conversation_id = ?", conversationID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
