package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
	"github.com/healthbridge/healthbridge-backend/internal/repos"
	"github.com/healthbridge/healthbridge-backend/internal/types"
)

type SeedService interface {
	// SeedDirectory loads the sample facility directory and worker registry.
	// It is idempotent: a non-empty directory is left untouched.
	SeedDirectory(ctx context.Context) error
}

type seedService struct {
	db           *gorm.DB
	log          *logger.Logger
	facilityRepo repos.FacilityRepo
	workerRepo   repos.WorkerRepo
}

func NewSeedService(db *gorm.DB, baseLog *logger.Logger, facilityRepo repos.FacilityRepo, workerRepo repos.WorkerRepo) SeedService {
	return &seedService{
		db:           db,
		log:          baseLog.With("service", "SeedService"),
		facilityRepo: facilityRepo,
		workerRepo:   workerRepo,
	}
}

func (s *seedService) SeedDirectory(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&types.Facility{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	facilities := []types.Facility{
		{ID: uuid.New(), Name: "Rampur ASHA Post", FacilityType: types.FacilityASHA, District: "Sitapur", Block: "Rampur", Phone: "+91-9000000001", Capacity: 20, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Rampur Primary Health Centre", FacilityType: types.FacilityPHC, District: "Sitapur", Block: "Rampur", Phone: "+91-9000000002", Capacity: 50, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Sitapur Community Health Centre", FacilityType: types.FacilityCHC, District: "Sitapur", Block: "Sitapur", Phone: "+91-9000000003", EmergencyPhone: "+91-9000000103", Capacity: 120, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Sitapur District Hospital Emergency", FacilityType: types.FacilityEmergency, District: "Sitapur", Block: "Sitapur", Phone: "+91-9000000004", EmergencyPhone: "108", Capacity: 200, CreatedAt: now, UpdatedAt: now},
	}
	workers := []types.Worker{
		{ID: uuid.New(), Name: "Sunita Devi", WorkerType: types.WorkerASHA, Phone: "+91-9100000001", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Dr. Ramesh Kumar", WorkerType: types.WorkerPHCStaff, Phone: "+91-9100000002", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Dr. Priya Sharma", WorkerType: types.WorkerCHCStaff, Phone: "+91-9100000003", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Emergency Desk, District Hospital", WorkerType: types.WorkerEmergency, Phone: "+91-9100000004", Active: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range workers {
		for j := range facilities {
			if types.WorkerTypeForFacility(facilities[j].FacilityType) == workers[i].WorkerType {
				workers[i].FacilityID = &facilities[j].ID
				break
			}
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range facilities {
			if err := s.facilityRepo.Create(ctx, tx, &facilities[i]); err != nil {
				return err
			}
		}
		for i := range workers {
			if err := s.workerRepo.Create(ctx, tx, &workers[i]); err != nil {
				return err
			}
		}
		s.log.Info("seeded referral directory", "facilities", len(facilities), "workers", len(workers))
		return nil
	})
}
