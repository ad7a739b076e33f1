package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lottawords/internal/freshness"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNextMatchesRollover(t *testing.T) {
	r := freshness.Default()
	s := New(r, func(context.Context) {})
	assert.True(t, s.Next().IsZero())

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	next := s.Next()
	local := next.In(r.Location)
	assert.Equal(t, 3, local.Hour())
	assert.Equal(t, 5, local.Minute())
	assert.True(t, next.After(time.Now()))
	assert.WithinDuration(t, r.Next(time.Now()), next, time.Second)
}

func TestJobRuns(t *testing.T) {
	var runs atomic.Int32
	s := New(freshness.Default(), func(ctx context.Context) {
		assert.NoError(t, ctx.Err())
		runs.Add(1)
	}, WithSpec("@every 1s"))

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestStartTwice(t *testing.T) {
	s := New(freshness.Default(), func(context.Context) {})
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())
	assert.Error(t, s.Start())
}

func TestInvalidSpec(t *testing.T) {
	s := New(freshness.Default(), func(context.Context) {}, WithSpec("not a spec"))
	assert.Error(t, s.Start())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestStopCancelsSlowJob(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})
	s := New(freshness.Default(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(finished)
	}, WithSpec("@every 1s"))

	require.NoError(t, s.Start())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
	<-finished
}

func TestStopBeforeStart(t *testing.T) {
	s := New(freshness.Default(), func(context.Context) {})
	assert.NoError(t, s.Stop(context.Background()))
}
