// Package worker implements the parse-and-persist loop.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/crawler"
	"github.com/JakeFAU/newscrawler/internal/metrics"
)

// Worker consumes queue items, parses them, and saves the articles.
type Worker struct {
	id     int
	queue  crawler.Queue
	parser crawler.Parser
	store  crawler.Store
	clock  crawler.Clock
	logger *zap.Logger
}

// New constructs a Worker.
func New(
	id int,
	queue crawler.Queue,
	parser crawler.Parser,
	store crawler.Store,
	clock crawler.Clock,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		id:     id,
		queue:  queue,
		parser: parser,
		store:  store,
		clock:  clock,
		logger: logger.With(zap.Int("worker", id)),
	}
}

// Run blocks, consuming queue items until the context finishes.
// An item already dequeued is finished and acknowledged before Run returns.
func (w *Worker) Run(ctx context.Context) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error("queue dequeue failed", zap.Error(err))
			}
			return
		}
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item crawler.QueueItem) {
	defer w.queue.Ack()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("item processing panicked",
				zap.String("url", item.SourceURL),
				zap.Any("panic", r),
			)
		}
	}()

	start := time.Now()
	article, err := w.parser.Parse(item.HTML, item.SourceURL)
	if err != nil {
		metrics.ObserveParse("failed", time.Since(start))
		w.logger.Warn("parse failed", zap.String("url", item.SourceURL), zap.Error(err))
		return
	}
	metrics.ObserveParse("parsed", time.Since(start))

	if err := w.save(ctx, article); err != nil {
		metrics.ObserveSave("error")
		w.logger.Error("save failed", zap.String("url", item.SourceURL), zap.Error(err))
		return
	}
	metrics.ObserveSave("saved")
	w.logger.Debug("article stored",
		zap.String("url", article.URL),
		zap.String("section", article.Section),
	)
}

func (w *Worker) save(ctx context.Context, article crawler.Article) error {
	if w.clock != nil && article.ScrapedAt.IsZero() {
		article.ScrapedAt = w.clock.Now()
	}
	if err := w.store.Save(ctx, article); err != nil {
		return fmt.Errorf("store save: %w", err)
	}
	return nil
}
