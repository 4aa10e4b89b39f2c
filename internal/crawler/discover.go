package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/metrics"
)

// ErrListingUnavailable is returned when the first page of a listing root cannot be fetched.
var ErrListingUnavailable = errors.New("listing page unavailable")

// Listing is what a single listing page yields.
type Listing struct {
	Links   []string
	HasMore bool
}

// Discoverer extracts article links from listing pages and walks pagination.
type Discoverer struct {
	cfg    Config
	logger *zap.Logger
}

// NewDiscoverer builds a Discoverer; empty selector or page-param settings fall back to defaults.
func NewDiscoverer(cfg Config, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{cfg: cfg.withDefaults(), logger: logger}
}

// ParseListing extracts article links in document order and reports whether
// the page offers a "load more" affordance. Links that cannot be resolved are skipped.
func (d *Discoverer) ParseListing(html, pageURL string) (Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Listing{}, fmt.Errorf("parse listing %s: %w", pageURL, err)
	}
	var listing Listing
	doc.Find(d.cfg.Selectors.Link).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		link, err := ResolveLink(pageURL, href)
		if err != nil {
			d.logger.Debug("skipping unresolvable link",
				zap.String("page", pageURL),
				zap.String("href", href),
				zap.Error(err),
			)
			return
		}
		listing.Links = append(listing.Links, link)
	})
	listing.HasMore = doc.Find(d.cfg.Selectors.LoadMore).Length() > 0
	return listing, nil
}

// DiscoverLinks returns the absolute article URLs found on a listing page.
func (d *Discoverer) DiscoverLinks(html, pageURL string) ([]string, error) {
	listing, err := d.ParseListing(html, pageURL)
	if err != nil {
		return nil, err
	}
	return listing.Links, nil
}

// CrawlCategory walks one listing root page by page and returns the unique
// article links it found, in discovery order. Pages are fetched strictly one
// after another. Pagination stops when a page fails to load, yields no new
// links, lacks the load-more button, or maxLinks (when > 0) is reached.
// The returned error wraps ErrListingUnavailable only when page 1 itself failed.
func (d *Discoverer) CrawlCategory(
	ctx context.Context,
	fetcher Fetcher,
	categoryURL string,
	maxLinks int,
) ([]string, error) {
	var (
		links   []string
		tracker visitTracker = newSetVisitTracker()
	)
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return links, fmt.Errorf("category crawl canceled: %w", err)
		}
		pageURL, err := PageURL(categoryURL, d.cfg.PageParam, page)
		if err != nil {
			return links, fmt.Errorf("build page url: %w", err)
		}

		d.logger.Info("fetching listing page", zap.String("url", pageURL), zap.Int("page", page))
		html, err := fetcher.Fetch(ctx, pageURL)
		if err != nil {
			d.logger.Warn("listing page fetch failed", zap.String("url", pageURL), zap.Error(err))
			if page == 1 {
				return nil, fmt.Errorf("%w: %s: %w", ErrListingUnavailable, pageURL, err)
			}
			break
		}

		listing, err := d.ParseListing(html, pageURL)
		if err != nil {
			d.logger.Warn("listing page parse failed", zap.String("url", pageURL), zap.Error(err))
			break
		}

		fresh := 0
		for _, link := range listing.Links {
			if tracker.MarkIfNew(link) {
				links = append(links, link)
				fresh++
			}
		}
		metrics.ObserveLinksDiscovered(categoryURL, fresh)

		if fresh == 0 {
			d.logger.Info("no new article links on listing page", zap.String("url", pageURL))
			break
		}
		if !listing.HasMore || (maxLinks > 0 && len(links) >= maxLinks) {
			break
		}
	}
	return links, nil
}
