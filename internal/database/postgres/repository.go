package repository

import (
	"context"
	"time"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

type CapsuleRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, capsule *entity.Capsule) error
	GetByID(ctx context.Context, id string) (*entity.Capsule, error)
	GetByUserID(ctx context.Context, userID string) ([]*entity.Capsule, error)
	Update(ctx context.Context, capsule *entity.Capsule) error

	// Scheduling queries
	FindConflict(ctx context.Context, userID string, day time.Time) (*entity.Capsule, error)
	GetScheduledInWindow(ctx context.Context, from, to time.Time) ([]*entity.Capsule, error)
	GetScheduledBefore(ctx context.Context, before time.Time) ([]*entity.Capsule, error)

	// State transitions
	UpdateTargetDate(ctx context.Context, id string, target time.Time) error
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error
	MarkExpired(ctx context.Context, id string) error

	// Administrative queries
	GetByStatus(ctx context.Context, status entity.CapsuleStatus) ([]*entity.Capsule, error)
	GetRecent(ctx context.Context, limit int) ([]*entity.Capsule, error)
}
