package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoListingRoot means the base listing page failed and no categories were
// configured, so there is nothing to discover.
var ErrNoListingRoot = errors.New("no reachable listing root")

// Coordinator drives link discovery across listing roots and feeds fetched
// article pages into the queue.
type Coordinator struct {
	cfg        Config
	fetcher    Fetcher
	discoverer *Discoverer
	queue      Queue
	logger     *zap.Logger
}

// NewCoordinator wires a Coordinator around a fetcher and the shared queue.
func NewCoordinator(cfg Config, fetcher Fetcher, queue Queue, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Coordinator{
		cfg:        cfg,
		fetcher:    fetcher,
		discoverer: NewDiscoverer(cfg, logger.Named("discoverer")),
		queue:      queue,
		logger:     logger,
	}
}

// Roots lists the listing pages to explore: the base URL followed by every category.
func (c *Coordinator) Roots() []FetchTask {
	roots := make([]FetchTask, 0, len(c.cfg.Categories)+1)
	roots = append(roots, FetchTask{URL: c.cfg.BaseURL, Kind: KindListing})
	for _, cat := range c.cfg.Categories {
		roots = append(roots, FetchTask{URL: cat.URL, Kind: KindListing})
	}
	return roots
}

// Crawl discovers article links and then fetches every article onto the queue.
// maxLinks <= 0 means no cap. It returns once every article fetch has finished;
// it never closes the queue.
func (c *Coordinator) Crawl(ctx context.Context, maxLinks int) error {
	links, err := c.Discover(ctx, maxLinks)
	if err != nil {
		return err
	}
	return c.Produce(ctx, links)
}

// Discover explores each listing root in turn and returns one article task per
// discovered link. Cross-category duplicates are kept; the store deduplicates on URL.
func (c *Coordinator) Discover(ctx context.Context, maxLinks int) ([]FetchTask, error) {
	var all []FetchTask
	for i, root := range c.Roots() {
		links, err := c.discoverer.CrawlCategory(ctx, c.fetcher, root.URL, maxLinks)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("discover canceled: %w", ctxErr)
			}
			if i == 0 && len(c.cfg.Categories) == 0 {
				return nil, fmt.Errorf("%w: %w", ErrNoListingRoot, err)
			}
			c.logger.Warn("skipping listing root", zap.String("url", root.URL), zap.Error(err))
			continue
		}
		c.logger.Info("listing root explored", zap.String("url", root.URL), zap.Int("links", len(links)))
		for _, link := range links {
			all = append(all, FetchTask{URL: link, Kind: KindArticle})
		}
		if maxLinks > 0 && len(all) >= maxLinks {
			all = all[:maxLinks]
			break
		}
	}
	c.logger.Info("article links collected", zap.Int("links", len(all)))
	return all, nil
}

// Produce fetches every article task concurrently and enqueues each page that loads.
// The fetcher's semaphore bounds how many requests are actually in flight.
// Tasks of any other kind are skipped. Failed fetches are logged and dropped;
// only cancellation is returned.
func (c *Coordinator) Produce(ctx context.Context, tasks []FetchTask) error {
	var (
		g        errgroup.Group
		enqueued atomic.Int64
		failed   atomic.Int64
	)
	for _, task := range tasks {
		if task.Kind != KindArticle {
			c.logger.Warn("skipping non-article task", zap.String("url", task.URL), zap.String("kind", string(task.Kind)))
			continue
		}
		link := task.URL
		g.Go(func() error {
			html, err := c.fetcher.Fetch(ctx, link)
			if err != nil {
				failed.Add(1)
				c.logger.Warn("article fetch failed", zap.String("url", link), zap.Error(err))
				return nil
			}
			if err := c.queue.Enqueue(ctx, QueueItem{HTML: html, SourceURL: link}); err != nil {
				return fmt.Errorf("enqueue %s: %w", link, err)
			}
			enqueued.Add(1)
			c.logger.Debug("article enqueued", zap.String("url", link))
			return nil
		})
	}
	err := g.Wait()
	c.logger.Info("article fetches finished",
		zap.Int("tasks", len(tasks)),
		zap.Int64("enqueued", enqueued.Load()),
		zap.Int64("failed", failed.Load()),
	)
	if err != nil {
		return fmt.Errorf("produce articles: %w", err)
	}
	return nil
}
