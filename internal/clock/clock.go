// Package clock provides crawler.Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

var (
	_ crawler.Clock = System{}
	_ crawler.Clock = (*Fixed)(nil)
)

// System reports wall-clock time in UTC.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed reports a settable instant. Used for reproducible runs and tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

// Now returns the configured instant.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
