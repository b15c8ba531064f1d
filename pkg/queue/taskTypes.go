package queue

import (
	"context"
	"time"
)

// Queue is the delivery-notification queue contract.
type Queue interface {
	Publish(ctx context.Context, task *DeliveryTask) error
	Subscribe(ctx context.Context, handler func(*DeliveryTask) error) error
	Close() error
}

// DeliveryTask announces that a capsule was delivered. Consumers forward the
// capsule body to the user; the scheduling state machine never depends on it.
type DeliveryTask struct {
	ID          string    `json:"id"`
	CapsuleID   string    `json:"capsule_id"`
	UserID      string    `json:"user_id"`
	Message     string    `json:"message"`
	Priority    int       `json:"priority"`
	DeliveredAt time.Time `json:"delivered_at"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
}
