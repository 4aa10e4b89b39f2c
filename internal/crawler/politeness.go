package crawler

import (
	"context"
	"time"
)

// visitTracker remembers which URLs a pagination run already produced.
type visitTracker interface {
	MarkIfNew(url string) bool
}

type setVisitTracker struct {
	seen map[string]struct{}
}

func newSetVisitTracker() *setVisitTracker {
	return &setVisitTracker{seen: make(map[string]struct{})}
}

// MarkIfNew stores the URL if it has not been seen before and returns true.
func (t *setVisitTracker) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	if _, ok := t.seen[url]; ok {
		return false
	}
	t.seen[url] = struct{}{}
	return true
}

// Pause blocks for delay or until ctx ends, whichever comes first.
// It reports ctx.Err() when the wait was cut short.
func Pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
