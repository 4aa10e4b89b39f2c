package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/clock"
	"github.com/JakeFAU/newscrawler/internal/crawler"
	"github.com/JakeFAU/newscrawler/internal/dispatcher"
	"github.com/JakeFAU/newscrawler/internal/logging"
	"github.com/JakeFAU/newscrawler/internal/metrics"
	"github.com/JakeFAU/newscrawler/internal/queue/memory"
	"github.com/JakeFAU/newscrawler/internal/worker"
)

// PipelineDeps are the collaborators of one crawl pipeline.
type PipelineDeps struct {
	Crawl      crawler.Config
	Session    crawler.Session
	Parser     crawler.Parser
	Store      crawler.Store
	Clock      crawler.Clock
	IDs        crawler.IDGenerator
	Workers    int
	QueueDepth int
	Logger     *zap.Logger
}

// Pipeline runs discovery, fetch, parse and persist for one crawl.
type Pipeline struct {
	deps PipelineDeps
}

// RunReport summarizes a finished crawl.
type RunReport struct {
	RunID      string
	Discovered int
	Pending    int
	Duration   time.Duration
}

// NewPipeline fills defaults for the optional collaborators.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Workers <= 0 {
		deps.Workers = dispatcher.WorkerCount(0)
	}
	if deps.QueueDepth <= 0 {
		deps.QueueDepth = 100
	}
	return &Pipeline{deps: deps}
}

// Run executes one crawl. maxLinks <= 0 means no cap.
//
// Shutdown order: every article fetch completes, the queue drains (every
// item acknowledged), then the workers are cancelled and awaited. A failure
// to discover any listing root aborts before workers start.
func (p *Pipeline) Run(ctx context.Context, maxLinks int) (report RunReport, err error) {
	d := p.deps
	if d.Session == nil || d.Parser == nil || d.Store == nil {
		return RunReport{}, errors.New("pipeline requires a session, a parser and a store")
	}

	if d.IDs != nil {
		id, idErr := d.IDs.NewID()
		if idErr != nil {
			return report, idErr
		}
		report.RunID = id
	}
	logger := logging.ForRun(d.Logger, report.RunID)
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		metrics.ObserveCrawlDuration(report.Duration)
	}()

	if err = d.Session.Open(ctx); err != nil {
		return report, fmt.Errorf("open fetch session: %w", err)
	}
	defer d.Session.Close()

	queue := memory.NewQueue(d.QueueDepth)
	defer queue.Close()
	coordinator := crawler.NewCoordinator(d.Crawl, d.Session, queue, logger.Named("coordinator"))

	logger.Info("crawl started", zap.Int("max_links", maxLinks))
	tasks, err := coordinator.Discover(ctx, maxLinks)
	if err != nil {
		return report, fmt.Errorf("discover links: %w", err)
	}
	report.Discovered = len(tasks)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	workers := make([]*worker.Worker, 0, d.Workers)
	for i := range d.Workers {
		workers = append(workers, worker.New(i, queue, d.Parser, d.Store, d.Clock, logger.Named("worker")))
	}
	pool := dispatcher.New(workers)
	logger.Info("worker pool started", zap.Int("workers", pool.Size()))
	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		pool.Run(workerCtx)
	}()

	produceErr := coordinator.Produce(ctx, tasks)
	joinErr := queue.Join(ctx)
	cancelWorkers()
	<-poolDone

	report.Pending = queue.Pending()
	logger.Info("crawl finished",
		zap.Int("discovered", report.Discovered),
		zap.Int("pending", report.Pending),
		zap.Duration("elapsed", time.Since(start)),
	)
	if joined := errors.Join(produceErr, joinErr); joined != nil {
		return report, fmt.Errorf("crawl run %s: %w", report.RunID, joined)
	}
	return report, nil
}
