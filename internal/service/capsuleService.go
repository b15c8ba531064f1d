package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/rahul3002/Time-Travel-Booking/internal/database/postgres"
	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

type capsuleService struct {
	repo      repository.CapsuleRepository
	publisher DeliveryPublisher
}

// NewCapsuleService создает новый экземпляр CapsuleService
func NewCapsuleService(repo repository.CapsuleRepository, publisher DeliveryPublisher) CapsuleService {
	return &capsuleService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateCapsule validates the delivery horizon, resolves a scheduling
// conflict by advancing to the next free day, and persists the capsule.
func (s *capsuleService) CreateCapsule(ctx context.Context, req *CreateCapsuleRequest) (*entity.Capsule, error) {
	if req.Message == "" {
		return nil, entity.ErrEmptyMessage
	}
	if req.Priority < entity.MinPriority || req.Priority > entity.MaxPriority {
		return nil, entity.ErrInvalidPriority
	}

	target := req.TargetDeliveryDate.Time

	// Валидация: дата доставки не дальше года от текущего момента
	oneYearFromNow := time.Now().AddDate(1, 0, 0)
	if target.After(oneYearFromNow) {
		return nil, entity.ErrDeliveryDateTooFar
	}

	conflict, err := s.repo.FindConflict(ctx, req.UserID, target)
	if err != nil {
		return nil, fmt.Errorf("failed to check scheduling conflict: %w", err)
	}

	if conflict != nil {
		// The day is taken: push the new capsule forward from the requested
		// day. The reassigned date is intentionally not re-checked against
		// the one-year horizon.
		target, err = s.NextAvailableDate(ctx, req.UserID, target)
		if err != nil {
			return nil, fmt.Errorf("failed to find next available date: %w", err)
		}
		logrus.Infof("Capsule for user %s rescheduled from %s to %s due to conflict",
			req.UserID, req.TargetDeliveryDate.Format("2006-01-02"), target.Format("2006-01-02"))
	}

	capsule := &entity.Capsule{
		UserID:             req.UserID,
		Message:            req.Message,
		FileMetadata:       req.FileMetadata,
		Priority:           req.Priority,
		TargetDeliveryDate: target,
		Status:             entity.CapsuleStatusScheduled,
	}

	if err := s.repo.Create(ctx, capsule); err != nil {
		return nil, fmt.Errorf("failed to create capsule: %w", err)
	}

	logrus.Infof("Capsule created: ID=%s, User=%s, Priority=%d, Delivery=%s",
		capsule.ID, capsule.UserID, capsule.Priority,
		capsule.TargetDeliveryDate.Format("2006-01-02"))

	return capsule, nil
}

// FindConflict returns the scheduled capsule occupying the user's calendar
// day, nil when the day is free.
func (s *capsuleService) FindConflict(ctx context.Context, userID string, day time.Time) (*entity.Capsule, error) {
	return s.repo.FindConflict(ctx, userID, day)
}

// NextAvailableDate probes day by day, starting the day after start, until
// it finds one with no scheduled capsule for the user. Linear and unbounded;
// acceptable for sparse schedules.
func (s *capsuleService) NextAvailableDate(ctx context.Context, userID string, start time.Time) (time.Time, error) {
	current := start.AddDate(0, 0, 1)

	for {
		conflict, err := s.repo.FindConflict(ctx, userID, current)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to probe day %s: %w",
				current.Format("2006-01-02"), err)
		}
		if conflict == nil {
			return current, nil
		}
		current = current.AddDate(0, 0, 1)
	}
}

func (s *capsuleService) GetCapsule(ctx context.Context, id string) (*entity.Capsule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *capsuleService) GetCapsulesByUser(ctx context.Context, userID string) ([]*entity.Capsule, error) {
	capsules, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get capsules for user %s: %w", userID, err)
	}
	return capsules, nil
}

func (s *capsuleService) GetRecentCapsules(ctx context.Context, limit int) ([]*entity.Capsule, error) {
	return s.repo.GetRecent(ctx, limit)
}

func (s *capsuleService) GetCapsulesByStatus(ctx context.Context, status entity.CapsuleStatus) ([]*entity.Capsule, error) {
	return s.repo.GetByStatus(ctx, status)
}
