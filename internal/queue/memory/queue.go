// Package memory provides queue implementations for local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/newscrawler/internal/crawler"
	"github.com/JakeFAU/newscrawler/internal/metrics"
)

// ErrClosed is returned by queue operations after Close.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded in-memory queue with context-aware operations.
// Every enqueued item stays pending until a consumer calls Ack, and Join
// blocks until nothing is pending.
type Queue struct {
	ch   chan crawler.QueueItem
	done chan struct{}

	mu      sync.Mutex
	pending int
	idle    chan struct{}
	closed  bool
}

var _ crawler.Queue = (*Queue)(nil)

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		ch:   make(chan crawler.QueueItem, capacity),
		done: make(chan struct{}),
		idle: idle,
	}
}

// Enqueue pushes an item into the queue, blocking while it is full.
func (q *Queue) Enqueue(ctx context.Context, item crawler.QueueItem) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	q.add(1)
	select {
	case <-ctx.Done():
		q.add(-1)
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case <-q.done:
		q.add(-1)
		return ErrClosed
	case q.ch <- item:
		metrics.ObserveQueue("enqueued")
		return nil
	}
}

// Dequeue pops the next item, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (crawler.QueueItem, error) {
	select {
	case <-ctx.Done():
		return crawler.QueueItem{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case <-q.done:
		return crawler.QueueItem{}, ErrClosed
	case item := <-q.ch:
		metrics.ObserveQueue("dequeued")
		return item, nil
	}
}

// Ack marks one dequeued item as fully processed.
func (q *Queue) Ack() {
	q.add(-1)
	metrics.ObserveQueue("acked")
}

// Join blocks until every enqueued item has been acknowledged or ctx ends.
func (q *Queue) Join(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("join canceled: %w", ctx.Err())
	}
}

// Pending reports the number of items enqueued but not yet acknowledged.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Close stops the queue. Blocked callers return ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	close(q.done)
	q.closed = true
}

func (q *Queue) add(delta int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == 0 && delta > 0 {
		q.idle = make(chan struct{})
	}
	q.pending += delta
	switch {
	case q.pending < 0:
		panic("memory queue: Ack called more times than items were enqueued")
	case q.pending == 0:
		close(q.idle)
	}
}
