package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the page body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Session is a Fetcher whose connection resources live for one crawl run.
type Session interface {
	Fetcher
	Open(ctx context.Context) error
	Close()
}

// Parser turns article HTML into an Article or a parse failure.
type Parser interface {
	Parse(html, url string) (Article, error)
}

// Store persists articles and serves filtered reads.
type Store interface {
	Initialize(ctx context.Context) error
	Save(ctx context.Context, article Article) error
	Query(ctx context.Context, q Query) ([]Article, error)
}

// Queue provides enqueue/dequeue semantics with explicit acknowledgement.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
	Ack()
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces crawl run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
