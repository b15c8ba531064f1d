package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 3
	defaultPopTimeout  = 5 * time.Second
	defaultMainQueue   = "time_capsule:deliveries"
	defaultDLQ         = "time_capsule:deliveries:dlq"
)

// RedisQueue implements Queue on top of a Redis list. Failed tasks are
// re-queued until MaxAttempts is exhausted, then pushed to a dead-letter
// list for manual inspection.
type RedisQueue struct {
	client    *redis.Client
	mainQueue string
	dlq       string
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type RedisQueueConfig struct {
	MainQueue string
	DLQ       string
}

func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig) (*RedisQueue, error) {
	if cfg == nil {
		cfg = &RedisQueueConfig{}
	}
	if cfg.MainQueue == "" {
		cfg.MainQueue = defaultMainQueue
	}
	if cfg.DLQ == "" {
		cfg.DLQ = defaultDLQ
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{
		client:    client,
		mainQueue: cfg.MainQueue,
		dlq:       cfg.DLQ,
	}, nil
}

// Publish pushes a delivery task onto the queue.
func (r *RedisQueue) Publish(ctx context.Context, task *DeliveryTask) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if task.MaxAttempts <= 0 {
		task.MaxAttempts = defaultMaxAttempts
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery task: %w", err)
	}

	if err := r.client.LPush(ctx, r.mainQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to publish delivery task: %w", err)
	}

	logrus.Debugf("Delivery task %s published for capsule %s", task.ID, task.CapsuleID)
	return nil
}

// Subscribe consumes tasks until ctx is cancelled. Handler errors re-queue
// the task; a task out of attempts goes to the DLQ.
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*DeliveryTask) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(1)
	go r.consume(ctx, handler)

	logrus.Info("Delivery queue subscriber started")
	return nil
}

func (r *RedisQueue) consume(ctx context.Context, handler func(*DeliveryTask) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := r.client.BRPop(ctx, defaultPopTimeout, r.mainQueue).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.Errorf("Failed to pop delivery task: %v", err)
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [queue, payload]
		if len(result) < 2 {
			continue
		}

		var task DeliveryTask
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			logrus.Errorf("Failed to unmarshal delivery task, dropping: %v", err)
			continue
		}

		if err := handler(&task); err != nil {
			r.handleFailure(ctx, &task, err)
		}
	}
}

func (r *RedisQueue) handleFailure(ctx context.Context, task *DeliveryTask, cause error) {
	task.Attempts++

	if task.Attempts < task.MaxAttempts {
		logrus.Warnf("Delivery task %s failed (attempt %d/%d), re-queueing: %v",
			task.ID, task.Attempts, task.MaxAttempts, cause)
		if err := r.Publish(ctx, task); err != nil {
			logrus.Errorf("Failed to re-queue delivery task %s: %v", task.ID, err)
		}
		return
	}

	logrus.Errorf("Delivery task %s exhausted %d attempts, moving to DLQ: %v",
		task.ID, task.MaxAttempts, cause)

	entry := struct {
		Task     *DeliveryTask `json:"task"`
		Error    string        `json:"error"`
		FailedAt time.Time     `json:"failed_at"`
	}{task, cause.Error(), time.Now()}

	data, err := json.Marshal(entry)
	if err != nil {
		logrus.Errorf("Failed to marshal DLQ entry for task %s: %v", task.ID, err)
		return
	}
	if err := r.client.LPush(ctx, r.dlq, data).Err(); err != nil {
		logrus.Errorf("Failed to push task %s to DLQ: %v", task.ID, err)
	}
}

func (r *RedisQueue) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.wg.Wait()
		err = r.client.Close()
	})
	return err
}
