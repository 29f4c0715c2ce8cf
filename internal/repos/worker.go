package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type WorkerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, worker *types.Worker) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Worker, error)
	// FindActiveByType picks one active worker from the pool for the given
	// class, preferring the given facility when set.
	FindActiveByType(ctx context.Context, tx *gorm.DB, wt types.WorkerType, facilityID *uuid.UUID) (*types.Worker, error)
}

type workerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkerRepo(db *gorm.DB, baseLog *logger.Logger) WorkerRepo {
	return &workerRepo{db: db, log: baseLog.With("repo", "WorkerRepo")}
}

func (r *workerRepo) Create(ctx context.Context, tx *gorm.DB, worker *types.Worker) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(worker).Error
}

func (r *workerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Worker, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var worker types.Worker
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&worker).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepo) FindActiveByType(ctx context.Context, tx *gorm.DB, wt types.WorkerType, facilityID *uuid.UUID) (*types.Worker, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var worker types.Worker
	if facilityID != nil {
		err := transaction.WithContext(ctx).
			Where("worker_type = ? AND active = ? AND facility_id = ?", wt, true, *facilityID).
			Order("created_at ASC").
			First(&worker).Error
		if err == nil {
			return &worker, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}
	err := transaction.WithContext(ctx).
		Where("worker_type = ? AND active = ?", wt, true).
		Order("created_at ASC").
		First(&worker).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &worker, nil
}
