package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

type fakeBatch struct {
	mu          sync.Mutex
	calls       int
	block       chan struct{} // first call waits on this when set
	panic       bool
	firstCtxErr error // ctx.Err() observed by the first call after unblocking
}

func (f *fakeBatch) ProcessDailyCapsules(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.panic {
		panic("batch blew up")
	}
	if n == 1 && f.block != nil {
		<-f.block
		f.mu.Lock()
		f.firstCtxErr = ctx.Err()
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeBatch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestTimeUntilNextMidnight(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 45, 0, time.UTC)

	delay := TimeUntilNextMidnight(now)

	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), now.Add(delay))
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, 24*time.Hour)
}

func TestRunNow_RejectsOverlappingRun(t *testing.T) {
	batch := &fakeBatch{block: make(chan struct{})}
	s := NewScheduler(batch, time.Hour)

	require.NoError(t, s.RunNow())

	// The in-progress flag is taken synchronously, so a second trigger is
	// rejected even before the first run finishes.
	assert.ErrorIs(t, s.RunNow(), entity.ErrBatchRunning)

	close(batch.block)

	assert.Eventually(t, func() bool {
		return s.RunNow() == nil
	}, time.Second, 10*time.Millisecond, "the guard must clear once the run completes")
}

func TestRunNow_PanicReleasesGuard(t *testing.T) {
	batch := &fakeBatch{panic: true}
	s := NewScheduler(batch, time.Hour)

	require.NoError(t, s.RunNow())

	assert.Eventually(t, func() bool {
		return s.RunNow() == nil
	}, time.Second, 10*time.Millisecond, "a panicking run must not wedge the scheduler")
}

func TestRun_FinishesAfterTriggerContextCancel(t *testing.T) {
	batch := &fakeBatch{block: make(chan struct{})}
	s := NewScheduler(batch, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, s.run(ctx))

	// Stopping the scheduler must not abort a run that already started.
	cancel()
	close(batch.block)

	assert.Eventually(t, func() bool {
		return s.RunNow() == nil
	}, time.Second, 10*time.Millisecond, "the run must complete and release the guard")

	batch.mu.Lock()
	defer batch.mu.Unlock()
	assert.NoError(t, batch.firstCtxErr, "the batch context must outlive the trigger's")
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	batch := &fakeBatch{}
	s := NewScheduler(batch, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
	assert.Equal(t, 0, batch.callCount(), "no run should fire before midnight")
}
