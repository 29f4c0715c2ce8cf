package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type FacilityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, facility *types.Facility) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Facility, error)
	// FindByType returns the least-loaded facility of the given tier, or nil
	// when the directory has none.
	FindByType(ctx context.Context, tx *gorm.DB, ft types.FacilityType) (*types.Facility, error)
}

type facilityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFacilityRepo(db *gorm.DB, baseLog *logger.Logger) FacilityRepo {
	return &facilityRepo{db: db, log: baseLog.With("repo", "FacilityRepo")}
}

func (r *facilityRepo) Create(ctx context.Context, tx *gorm.DB, facility *types.Facility) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(facility).Error
}

func (r *facilityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Facility, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var facility types.Facility
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&facility).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *facilityRepo) FindByType(ctx context.Context, tx *gorm.DB, ft types.FacilityType) (*types.Facility, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var facility types.Facility
	err := transaction.WithContext(ctx).
		Where("facility_type = ?", ft).
		Order("current_load ASC").
		First(&facility).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &facility, nil
}
