package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

// recordingPublisher captures delivery announcements.
type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *recordingPublisher) PublishDelivered(ctx context.Context, capsule *entity.Capsule, deliveredAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, capsule.ID)
	return nil
}

func statusOf(t *testing.T, repo *fakeCapsuleRepo, id string) *entity.Capsule {
	t.Helper()
	capsule, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return capsule
}

func TestProcessDailyCapsules_DeliversExactlyOnePerUser(t *testing.T) {
	repo := newFakeRepo()
	publisher := &recordingPublisher{}
	svc := NewCapsuleService(repo, publisher)

	now := time.Now()
	winner := seedCapsule(t, repo, "alice", 5, now, now.Add(-3*time.Hour))
	loserA := seedCapsule(t, repo, "alice", 3, now, now.Add(-2*time.Hour))
	loserB := seedCapsule(t, repo, "alice", 3, now, now.Add(-1*time.Hour))
	bobOnly := seedCapsule(t, repo, "bob", 1, now, now.Add(-1*time.Hour))

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	// The highest-priority capsule is delivered with its timestamp set.
	delivered := statusOf(t, repo, winner.ID)
	assert.Equal(t, entity.CapsuleStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.ActualDeliveryDate)

	// A single due capsule is delivered too.
	assert.Equal(t, entity.CapsuleStatusDelivered, statusOf(t, repo, bobOnly.ID).Status)

	// Losers stay scheduled on distinct future days.
	a := statusOf(t, repo, loserA.ID)
	b := statusOf(t, repo, loserB.ID)
	assert.Equal(t, entity.CapsuleStatusScheduled, a.Status)
	assert.Equal(t, entity.CapsuleStatusScheduled, b.Status)
	assert.Nil(t, a.ActualDeliveryDate)
	assert.True(t, a.TargetDeliveryDate.After(now))
	assert.True(t, b.TargetDeliveryDate.After(now))
	assert.False(t, sameDay(a.TargetDeliveryDate, b.TargetDeliveryDate),
		"rescheduled capsules must not collide with each other")

	assert.ElementsMatch(t, []string{winner.ID, bobOnly.ID}, publisher.published)
}

func TestProcessDailyCapsules_SequentialRescheduleClaimsConsecutiveDays(t *testing.T) {
	repo := newFakeRepo()
	svc := NewCapsuleService(repo, nil)

	now := time.Now()
	seedCapsule(t, repo, "alice", 5, now, now.Add(-4*time.Hour))
	first := seedCapsule(t, repo, "alice", 4, now, now.Add(-3*time.Hour))
	second := seedCapsule(t, repo, "alice", 3, now, now.Add(-2*time.Hour))

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	// Each loser is persisted before the next probes, so the second sees the
	// day the first just claimed and moves one further.
	a := statusOf(t, repo, first.ID)
	b := statusOf(t, repo, second.ID)
	assert.True(t, sameDay(now.AddDate(0, 0, 1), a.TargetDeliveryDate))
	assert.True(t, sameDay(now.AddDate(0, 0, 2), b.TargetDeliveryDate))
}

func TestProcessDailyCapsules_RescheduleSkipsOccupiedFutureDay(t *testing.T) {
	repo := newFakeRepo()
	svc := NewCapsuleService(repo, nil)

	now := time.Now()
	seedCapsule(t, repo, "alice", 5, now, now.Add(-3*time.Hour))
	loser := seedCapsule(t, repo, "alice", 3, now, now.Add(-2*time.Hour))
	// Tomorrow is already taken by a future capsule.
	seedCapsule(t, repo, "alice", 2, now.AddDate(0, 0, 1), now.Add(-time.Hour))

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	rescheduled := statusOf(t, repo, loser.ID)
	assert.True(t, sameDay(now.AddDate(0, 0, 2), rescheduled.TargetDeliveryDate))
}

func TestProcessDailyCapsules_TieBreakByCreatedAt(t *testing.T) {
	repo := newFakeRepo()
	svc := NewCapsuleService(repo, nil)

	now := time.Now()
	older := seedCapsule(t, repo, "alice", 4, now, now.Add(-2*time.Hour))
	newer := seedCapsule(t, repo, "alice", 4, now, now.Add(-1*time.Hour))

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	assert.Equal(t, entity.CapsuleStatusDelivered, statusOf(t, repo, older.ID).Status)
	assert.Equal(t, entity.CapsuleStatusScheduled, statusOf(t, repo, newer.ID).Status)
}

func TestProcessDailyCapsules_ExpiresOnlyBeyondGracePeriod(t *testing.T) {
	repo := newFakeRepo()
	svc := NewCapsuleService(repo, nil)

	now := time.Now()
	ancient := seedCapsule(t, repo, "alice", 3, now.AddDate(-1, 0, -2), now.AddDate(-1, 0, -2))
	recent := seedCapsule(t, repo, "alice", 3, now.AddDate(0, 0, -10), now.AddDate(0, 0, -10))

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	assert.Equal(t, entity.CapsuleStatusExpired, statusOf(t, repo, ancient.ID).Status)

	// Missed but inside the grace period: left scheduled, never delivered late.
	missed := statusOf(t, repo, recent.ID)
	assert.Equal(t, entity.CapsuleStatusScheduled, missed.Status)
	assert.Nil(t, missed.ActualDeliveryDate)
	assert.True(t, sameDay(now.AddDate(0, 0, -10), missed.TargetDeliveryDate),
		"stale capsules are not rescheduled by the expiration pass")
}

func TestProcessDailyCapsules_FailureOnOneUserDoesNotAbortOthers(t *testing.T) {
	repo := newFakeRepo()
	svc := NewCapsuleService(repo, nil)

	now := time.Now()
	broken := seedCapsule(t, repo, "alice", 5, now, now.Add(-2*time.Hour))
	aliceLoser := seedCapsule(t, repo, "alice", 3, now, now.Add(-1*time.Hour))
	bobCapsule := seedCapsule(t, repo, "bob", 2, now, now.Add(-1*time.Hour))
	repo.failures[broken.ID] = errors.New("connection reset")

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	// The broken record is skipped; everything around it still progresses.
	assert.Equal(t, entity.CapsuleStatusScheduled, statusOf(t, repo, broken.ID).Status)
	assert.True(t, statusOf(t, repo, aliceLoser.ID).TargetDeliveryDate.After(now))
	assert.Equal(t, entity.CapsuleStatusDelivered, statusOf(t, repo, bobCapsule.ID).Status)
}

func TestProcessDailyCapsules_PublisherFailureLeavesStateIntact(t *testing.T) {
	repo := newFakeRepo()
	publisher := &recordingPublisher{err: errors.New("queue unavailable")}
	svc := NewCapsuleService(repo, publisher)

	now := time.Now()
	capsule := seedCapsule(t, repo, "alice", 3, now, now.Add(-time.Hour))

	require.NoError(t, svc.ProcessDailyCapsules(context.Background()))

	assert.Equal(t, entity.CapsuleStatusDelivered, statusOf(t, repo, capsule.ID).Status)
}

// End to end: creation resolves the day collision, the batch delivers the
// day's occupant.
func TestCreateThenProcess_EndToEnd(t *testing.T) {
	repo := newFakeRepo()
	svc := NewCapsuleService(repo, nil)
	ctx := context.Background()
	today := time.Now()

	capsuleA, err := svc.CreateCapsule(ctx, newRequest("alice", 3, today))
	require.NoError(t, err)

	capsuleB, err := svc.CreateCapsule(ctx, newRequest("alice", 5, today))
	require.NoError(t, err)

	// A keeps the contested day, B was pushed to the first free day after it.
	assert.True(t, sameDay(today, capsuleA.TargetDeliveryDate))
	assert.True(t, sameDay(today.AddDate(0, 0, 1), capsuleB.TargetDeliveryDate))

	require.NoError(t, svc.ProcessDailyCapsules(ctx))

	// Today's occupant is delivered; tomorrow's capsule is untouched.
	assert.Equal(t, entity.CapsuleStatusDelivered, statusOf(t, repo, capsuleA.ID).Status)
	b := statusOf(t, repo, capsuleB.ID)
	assert.Equal(t, entity.CapsuleStatusScheduled, b.Status)
	assert.True(t, sameDay(today.AddDate(0, 0, 1), b.TargetDeliveryDate))
}
