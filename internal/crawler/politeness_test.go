package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetVisitTracker(t *testing.T) {
	tracker := newSetVisitTracker()
	require.True(t, tracker.MarkIfNew("https://news.utmn.ru/news/stories/1/"))
	require.False(t, tracker.MarkIfNew("https://news.utmn.ru/news/stories/1/"))
	require.True(t, tracker.MarkIfNew("https://news.utmn.ru/news/stories/2/"))
	require.False(t, tracker.MarkIfNew(""))
}

func TestPauseHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Pause(ctx, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second, "pause should exit immediately when context is done")
}

func TestPauseWaitsForDelay(t *testing.T) {
	start := time.Now()
	require.NoError(t, Pause(context.Background(), 20*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	require.NoError(t, Pause(context.Background(), 0))
}
