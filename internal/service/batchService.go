package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

// ProcessDailyCapsules runs the daily cycle in two passes.
//
// Pass A delivers and reschedules: capsules due today are grouped per user
// in priority order, the head of each group is delivered, and the rest are
// pushed forward one at a time. Pass B expires capsules whose day passed
// more than a year ago without delivery.
//
// A persistence failure on one capsule never aborts the rest of the run.
func (s *capsuleService) ProcessDailyCapsules(ctx context.Context) error {
	now := time.Now()
	dayStart, dayEnd := entity.DayWindow(now)

	delivered, rescheduled, failed, err := s.deliverDueCapsules(ctx, now, dayStart, dayEnd)
	if err != nil {
		return err
	}

	expired, expireFailed, err := s.expireStaleCapsules(ctx, now, dayStart)
	if err != nil {
		return err
	}
	failed += expireFailed

	logrus.Infof("Daily batch finished: %d delivered, %d rescheduled, %d expired, %d failed",
		delivered, rescheduled, expired, failed)

	return nil
}

// deliverDueCapsules is pass A.
func (s *capsuleService) deliverDueCapsules(ctx context.Context, now, dayStart, dayEnd time.Time) (delivered, rescheduled, failed int, err error) {
	due, err := s.repo.GetScheduledInWindow(ctx, dayStart, dayEnd)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch capsules due today: %w", err)
	}

	// Группировка по пользователям с сохранением порядка выборки
	// (priority DESC, created_at ASC).
	userOrder := make([]string, 0)
	groups := make(map[string][]*entity.Capsule)
	for _, capsule := range due {
		if _, ok := groups[capsule.UserID]; !ok {
			userOrder = append(userOrder, capsule.UserID)
		}
		groups[capsule.UserID] = append(groups[capsule.UserID], capsule)
	}

	for _, userID := range userOrder {
		group := groups[userID]

		// The highest-priority capsule of the day wins delivery.
		winner := group[0]
		if err := s.repo.MarkDelivered(ctx, winner.ID, now); err != nil {
			logrus.Errorf("Failed to deliver capsule %s for user %s: %v", winner.ID, userID, err)
			failed++
		} else {
			delivered++
			logrus.Infof("Capsule %s delivered to user %s", winner.ID, userID)
			s.announceDelivery(ctx, winner, now)
		}

		// Losers are rescheduled strictly in group order, persisting each new
		// date before probing for the next capsule, so every later capsule
		// sees the days already claimed by earlier ones.
		for _, capsule := range group[1:] {
			next, err := s.NextAvailableDate(ctx, capsule.UserID, capsule.TargetDeliveryDate)
			if err != nil {
				logrus.Errorf("Failed to find new date for capsule %s: %v", capsule.ID, err)
				failed++
				continue
			}
			if err := s.repo.UpdateTargetDate(ctx, capsule.ID, next); err != nil {
				logrus.Errorf("Failed to reschedule capsule %s: %v", capsule.ID, err)
				failed++
				continue
			}
			rescheduled++
			logrus.Infof("Capsule %s rescheduled to %s", capsule.ID, next.Format("2006-01-02"))
		}
	}

	return delivered, rescheduled, failed, nil
}

// expireStaleCapsules is pass B: capsules left scheduled past their day are
// expired once the one-year grace period elapses, otherwise left untouched.
func (s *capsuleService) expireStaleCapsules(ctx context.Context, now, dayStart time.Time) (expired, failed int, err error) {
	stale, err := s.repo.GetScheduledBefore(ctx, dayStart)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch stale capsules: %w", err)
	}

	for _, capsule := range stale {
		if !entity.IsExpired(capsule, now) {
			continue
		}
		if err := s.repo.MarkExpired(ctx, capsule.ID); err != nil {
			logrus.Errorf("Failed to expire capsule %s: %v", capsule.ID, err)
			failed++
			continue
		}
		expired++
		logrus.Infof("Capsule %s expired (was due %s)",
			capsule.ID, capsule.TargetDeliveryDate.Format("2006-01-02"))
	}

	return expired, failed, nil
}

// announceDelivery publishes a best-effort notification. Failures are logged
// and never affect the capsule state machine.
func (s *capsuleService) announceDelivery(ctx context.Context, capsule *entity.Capsule, deliveredAt time.Time) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDelivered(ctx, capsule, deliveredAt); err != nil {
		logrus.Warnf("Failed to publish delivery notification for capsule %s: %v", capsule.ID, err)
	}
}
