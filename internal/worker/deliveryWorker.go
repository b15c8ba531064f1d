package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahul3002/Time-Travel-Booking/pkg/queue"
	"github.com/rahul3002/Time-Travel-Booking/pkg/telegram"
)

// DeliveryWorker consumes delivery tasks and announces opened capsules.
// Without a configured Telegram chat it degrades to logging only.
type DeliveryWorker struct {
	queue  queue.Queue
	bot    *telegram.Bot
	chatID string
}

func NewDeliveryWorker(q queue.Queue, bot *telegram.Bot, chatID string) *DeliveryWorker {
	return &DeliveryWorker{
		queue:  q,
		bot:    bot,
		chatID: chatID,
	}
}

// Start subscribes to the delivery queue; consumption stops when ctx is
// cancelled.
func (w *DeliveryWorker) Start(ctx context.Context) error {
	logrus.Info("Delivery worker started")
	return w.queue.Subscribe(ctx, w.handleTask)
}

func (w *DeliveryWorker) handleTask(task *queue.DeliveryTask) error {
	logrus.Infof("Capsule %s opened for user %s (priority %d)",
		task.CapsuleID, task.UserID, task.Priority)

	if w.bot == nil || w.chatID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	text := fmt.Sprintf("[user %s] %s", task.UserID, task.Message)
	if err := w.bot.AnnounceDelivery(ctx, w.chatID, text, task.DeliveredAt); err != nil {
		return fmt.Errorf("failed to announce capsule %s: %w", task.CapsuleID, err)
	}

	return nil
}
