// Package collyfetcher implements crawler.Session using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/newscrawler/internal/crawler"
	"github.com/JakeFAU/newscrawler/internal/metrics"
)

// ErrSessionClosed is returned by Fetch when no session is open.
var ErrSessionClosed = errors.New("fetch session is not open")

const (
	defaultConcurrency = 10
	defaultTimeout     = 10 * time.Second
	acceptHeader       = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage     = "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	Concurrency   int
	Timeout       time.Duration
	RequestDelay  time.Duration
	RespectRobots bool
	MaxBodySize   int
}

// Fetcher implements crawler.Session on top of a shared Colly collector.
// Every Fetch waits RequestDelay, then takes one of Concurrency slots.
type Fetcher struct {
	cfg    Config
	sem    *semaphore.Weighted
	logger *zap.Logger

	// wrapTransport decorates the session transport; nil leaves it as is.
	wrapTransport func(http.RoundTripper) http.RoundTripper

	mu            sync.RWMutex
	baseCollector *colly.Collector
	transport     *http.Transport
	sessionCtx    context.Context
	cancel        context.CancelFunc
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. Call Open before fetching.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger: logger,
	}
}

// Open acquires the HTTP session used by every fetch until Close.
// The session is also torn down when ctx ends.
func (f *Fetcher) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baseCollector != nil {
		return errors.New("fetch session already open")
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	transport := newHTTPTransport(f.cfg.Concurrency)

	c := colly.NewCollector(colly.Async(false))
	if f.cfg.UserAgent != "" {
		c.UserAgent = f.cfg.UserAgent
	}
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = !f.cfg.RespectRobots
	if f.cfg.MaxBodySize > 0 {
		c.MaxBodySize = f.cfg.MaxBodySize
	}
	var rt http.RoundTripper = transport
	if f.wrapTransport != nil {
		rt = f.wrapTransport(rt)
	}
	c.WithTransport(rt)
	c.SetRequestTimeout(f.cfg.Timeout)

	f.baseCollector = c
	f.transport = transport
	f.sessionCtx = sessionCtx
	f.cancel = cancel
	f.logger.Debug("fetch session opened", zap.Int("concurrency", f.cfg.Concurrency))
	return nil
}

// Close cancels in-flight requests and releases pooled connections.
// It is safe to call more than once.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.baseCollector == nil {
		return
	}
	f.cancel()
	f.transport.CloseIdleConnections()
	f.baseCollector = nil
	f.transport = nil
	f.logger.Debug("fetch session closed")
}

// Fetch executes a single HTTP GET and returns the body.
// Timeouts, transport errors, and non-2xx statuses are returned as errors.
// The request is cancelled when either ctx or the session ends, and the fetch
// slot stays held until the request has unwound.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := crawler.Pause(ctx, f.cfg.RequestDelay); err != nil {
		return "", fmt.Errorf("request delay interrupted: %w", err)
	}
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire fetch slot: %w", err)
	}
	defer f.sem.Release(1)
	metrics.IncFetchInFlight()
	defer metrics.DecFetchInFlight()

	collector, sessionCtx, err := f.session()
	if err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sessionCtx, cancel)
	defer stop()
	collector.Context = reqCtx

	var (
		body     []byte
		fetchErr error
	)
	f.configureCollectorHooks(collector, &body, &fetchErr)

	start := time.Now()
	f.logger.Debug("fetching page", zap.String("url", url))
	if err := f.runCollector(ctx, sessionCtx, collector, url, &fetchErr); err != nil {
		metrics.ObserveFetch(url, "error", 0)
		return "", err
	}
	metrics.ObserveFetch(url, "success", len(body))
	f.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return string(body), nil
}

func (f *Fetcher) session() (*colly.Collector, context.Context, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.baseCollector == nil {
		return nil, nil, ErrSessionClosed
	}
	return f.baseCollector.Clone(), f.sessionCtx, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *[]byte, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguage)
		r.Headers.Set("DNT", "1")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	hooks.OnResponse(func(r *colly.Response) {
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			*fetchErr = fmt.Errorf("unexpected status %d", r.StatusCode)
			return
		}
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", r.StatusCode, err)
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(
	ctx context.Context,
	sessionCtx context.Context,
	collector *colly.Collector,
	url string,
	fetchErr *error,
) error {
	err := collector.Visit(url)
	switch {
	case sessionCtx.Err() != nil:
		return fmt.Errorf("colly fetch aborted: %w", ErrSessionClosed)
	case ctx.Err() != nil:
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case *fetchErr != nil:
		return fmt.Errorf("colly response failed: %w", *fetchErr)
	case err != nil:
		return fmt.Errorf("colly visit failed: %w", err)
	}
	return nil
}

func newHTTPTransport(concurrency int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   concurrency,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
