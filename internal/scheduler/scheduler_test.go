package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := New("not a cron", func(context.Context) error { return nil }, nil)
	require.Error(t, err)

	_, err = New("@every 1h", nil, nil)
	require.Error(t, err)
}

func TestRunFiresImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s, err := New("@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestTickSkipsWhileRunning(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	s, err := New("@every 1h", func(context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return errors.New("crawl failed")
	}, zap.NewNop())
	require.NoError(t, err)

	ran := make(chan bool, 1)
	go func() { ran <- s.tick(context.Background()) }()
	<-started

	require.False(t, s.tick(context.Background()), "overlapping tick must be skipped")
	close(release)
	require.True(t, <-ran)
	require.Equal(t, int32(1), runs.Load())
}

func TestTickSkipsAfterCancel(t *testing.T) {
	t.Parallel()

	s, err := New("@every 1h", func(context.Context) error {
		t.Error("job must not run after cancel")
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, s.tick(ctx))
}
