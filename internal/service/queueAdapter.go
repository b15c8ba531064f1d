package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
	"github.com/rahul3002/Time-Travel-Booking/pkg/queue"
)

// QueueAdapter адаптирует queue.Queue к DeliveryPublisher интерфейсу
type QueueAdapter struct {
	queue queue.Queue
}

// NewQueueAdapter создает новый адаптер для очереди
func NewQueueAdapter(q queue.Queue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

// PublishDelivered converts a delivered capsule into a queue task.
func (a *QueueAdapter) PublishDelivered(ctx context.Context, capsule *entity.Capsule, deliveredAt time.Time) error {
	if a.queue == nil {
		return nil // Если очередь не инициализирована, игнорируем
	}

	task := &queue.DeliveryTask{
		ID:          uuid.New().String(),
		CapsuleID:   capsule.ID,
		UserID:      capsule.UserID,
		Message:     capsule.Message,
		Priority:    capsule.Priority,
		DeliveredAt: deliveredAt,
	}

	return a.queue.Publish(ctx, task)
}
