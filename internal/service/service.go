package service

import (
	"context"
	"time"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

// CreateCapsuleRequest carries a new capsule through the HTTP boundary.
// Field-shape validation (required fields, priority bounds, date format)
// happens here via binding tags; the scheduling rules live in the service.
type CreateCapsuleRequest struct {
	UserID             string               `json:"user_id" binding:"required"`
	Message            string               `json:"message" binding:"required"`
	FileMetadata       *entity.FileMetadata `json:"file_metadata,omitempty"`
	Priority           int                  `json:"priority" binding:"required,min=1,max=5"`
	TargetDeliveryDate entity.DeliveryDate  `json:"target_delivery_date" binding:"required"`
}

// BatchService is the daily delivery/reschedule/expire cycle.
type BatchService interface {
	ProcessDailyCapsules(ctx context.Context) error
}

// CapsuleService определяет интерфейс для операций с капсулами
type CapsuleService interface {
	// Основные операции
	CreateCapsule(ctx context.Context, req *CreateCapsuleRequest) (*entity.Capsule, error)
	GetCapsule(ctx context.Context, id string) (*entity.Capsule, error)
	GetCapsulesByUser(ctx context.Context, userID string) ([]*entity.Capsule, error)

	// Операции планирования
	FindConflict(ctx context.Context, userID string, day time.Time) (*entity.Capsule, error)
	NextAvailableDate(ctx context.Context, userID string, start time.Time) (time.Time, error)

	// Административные операции
	GetRecentCapsules(ctx context.Context, limit int) ([]*entity.Capsule, error)
	GetCapsulesByStatus(ctx context.Context, status entity.CapsuleStatus) ([]*entity.Capsule, error)

	BatchService
}

// DeliveryPublisher announces delivered capsules to the notification queue.
type DeliveryPublisher interface {
	PublishDelivered(ctx context.Context, capsule *entity.Capsule, deliveredAt time.Time) error
}
