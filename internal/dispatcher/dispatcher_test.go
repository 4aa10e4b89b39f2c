package dispatcher

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/crawler"
	"github.com/JakeFAU/newscrawler/internal/queue/memory"
	"github.com/JakeFAU/newscrawler/internal/worker"
)

type countingParser struct {
	active atomic.Int64
	peak   atomic.Int64
}

func (p *countingParser) Parse(html, url string) (crawler.Article, error) {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		cur := p.peak.Load()
		if n <= cur || p.peak.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return crawler.Article{URL: url, Title: html, Date: "d", Section: "s", Content: html}, nil
}

type countingStore struct {
	mu   sync.Mutex
	urls map[string]int
}

func (s *countingStore) Initialize(context.Context) error { return nil }

func (s *countingStore) Save(_ context.Context, a crawler.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[a.URL]++
	return nil
}

func (s *countingStore) Query(context.Context, crawler.Query) ([]crawler.Article, error) {
	return nil, nil
}

// TestDispatcherRunProcessesQueueInParallel ensures all workers share the queue and stop on cancel.
func TestDispatcherRunProcessesQueueInParallel(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(4)
	parser := &countingParser{}
	store := &countingStore{urls: map[string]int{}}
	workers := make([]*worker.Worker, 0, 3)
	for i := range 3 {
		workers = append(workers, worker.New(i, q, parser, store, nil, zap.NewNop()))
	}
	dispatch := New(workers)
	require.Equal(t, 3, dispatch.Size())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatch.Run(ctx)
		close(done)
	}()

	for i := range 12 {
		require.NoError(t, q.Enqueue(context.Background(), crawler.QueueItem{
			HTML:      "body",
			SourceURL: fmt.Sprintf("https://news.utmn.ru/news/stories/%d/", i),
		}))
	}
	require.NoError(t, q.Join(context.Background()))
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancel")
	}
	require.Len(t, store.urls, 12)
	require.LessOrEqual(t, parser.peak.Load(), int64(3))
	require.Greater(t, parser.peak.Load(), int64(1), "workers should parse concurrently")
}

func TestWorkerCount(t *testing.T) {
	t.Parallel()

	require.Equal(t, 4, WorkerCount(4))
	require.Equal(t, runtime.NumCPU(), WorkerCount(0))
	require.Equal(t, runtime.NumCPU(), WorkerCount(-2))
}
