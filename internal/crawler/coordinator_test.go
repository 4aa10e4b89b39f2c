package crawler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingQueue collects enqueued items without any consumer.
type recordingQueue struct {
	mu    sync.Mutex
	items []QueueItem
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, item QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, item)
	return nil
}

func (q *recordingQueue) Dequeue(context.Context) (QueueItem, error) {
	return QueueItem{}, errors.New("not implemented")
}

func (q *recordingQueue) Ack() {}

func (q *recordingQueue) urls() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.SourceURL)
	}
	sort.Strings(out)
	return out
}

const scienceURL = "https://news.utmn.ru/news/stories/nauka-i-innovatsii/"

func coordinatorConfig(categories ...Category) Config {
	return Config{BaseURL: storiesURL, Categories: categories}
}

func TestCoordinatorRootsIncludeBaseAndCategories(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(coordinatorConfig(Category{Name: "Наука", URL: scienceURL}), nil, nil, nil)
	require.Equal(t, []FetchTask{
		{URL: storiesURL, Kind: KindListing},
		{URL: scienceURL, Kind: KindListing},
	}, c.Roots())
}

func TestCoordinatorDiscoverKeepsCrossCategoryDuplicates(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.pages[storiesURL] = listingHTML(false, "/news/stories/1/", "/news/stories/2/")
	f.pages[scienceURL] = listingHTML(false, "/news/stories/2/", "/news/stories/3/")
	c := NewCoordinator(coordinatorConfig(Category{Name: "Наука", URL: scienceURL}), f, nil, zap.NewNop())

	links, err := c.Discover(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://news.utmn.ru/news/stories/1/",
		"https://news.utmn.ru/news/stories/2/",
		"https://news.utmn.ru/news/stories/2/",
		"https://news.utmn.ru/news/stories/3/",
	}, taskURLs(links))
	for _, task := range links {
		require.Equal(t, KindArticle, task.Kind)
	}
	require.Equal(t, []string{storiesURL, scienceURL}, f.calls, "roots are explored sequentially in order")
}

func TestCoordinatorDiscoverTruncatesToMaxLinks(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.pages[storiesURL] = listingHTML(false, "/1/", "/2/", "/3/")
	c := NewCoordinator(coordinatorConfig(Category{Name: "Наука", URL: scienceURL}), f, nil, zap.NewNop())

	links, err := c.Discover(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, 1, f.callCount(), "category must not be explored once the cap is reached")
}

func TestCoordinatorBaseFailureWithoutCategoriesIsFatal(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.errs[storiesURL] = errors.New("connection refused")
	q := &recordingQueue{}
	c := NewCoordinator(coordinatorConfig(), f, q, zap.NewNop())

	err := c.Crawl(context.Background(), 0)
	require.ErrorIs(t, err, ErrNoListingRoot)
	require.Empty(t, q.urls())
}

func TestCoordinatorBaseFailureWithCategoriesContinues(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.errs[storiesURL] = errors.New("connection refused")
	f.pages[scienceURL] = listingHTML(false, "/news/stories/7/")
	c := NewCoordinator(coordinatorConfig(Category{Name: "Наука", URL: scienceURL}), f, nil, zap.NewNop())

	links, err := c.Discover(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"https://news.utmn.ru/news/stories/7/"}, taskURLs(links))
}

func TestCoordinatorCrawlEnqueuesFetchedArticlesAndDropsFailures(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.pages[storiesURL] = listingHTML(false, "/news/stories/1/", "/news/stories/2/", "/news/stories/3/")
	f.pages["https://news.utmn.ru/news/stories/1/"] = "<html>one</html>"
	f.pages["https://news.utmn.ru/news/stories/3/"] = "<html>three</html>"
	f.errs["https://news.utmn.ru/news/stories/2/"] = errors.New("timeout")
	q := &recordingQueue{}
	c := NewCoordinator(coordinatorConfig(), f, q, zap.NewNop())

	require.NoError(t, c.Crawl(context.Background(), 0))
	require.Equal(t, []string{
		"https://news.utmn.ru/news/stories/1/",
		"https://news.utmn.ru/news/stories/3/",
	}, q.urls())
	for _, it := range q.items {
		require.NotEmpty(t, it.HTML)
	}
}

func TestCoordinatorProduceReportsEnqueueFailure(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.pages["https://news.utmn.ru/1/"] = "<html>1</html>"
	q := &recordingQueue{err: context.Canceled}
	c := NewCoordinator(coordinatorConfig(), f, q, zap.NewNop())

	err := c.Produce(context.Background(), []FetchTask{{URL: "https://news.utmn.ru/1/", Kind: KindArticle}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCoordinatorProduceSkipsListingTasks(t *testing.T) {
	t.Parallel()

	f := newStubFetcher()
	f.pages["https://news.utmn.ru/1/"] = "<html>1</html>"
	q := &recordingQueue{}
	c := NewCoordinator(coordinatorConfig(), f, q, zap.NewNop())

	err := c.Produce(context.Background(), []FetchTask{
		{URL: storiesURL, Kind: KindListing},
		{URL: "https://news.utmn.ru/1/", Kind: KindArticle},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://news.utmn.ru/1/"}, q.urls())
	require.Equal(t, 1, f.callCount(), "listing tasks are never fetched by Produce")
}

func taskURLs(tasks []FetchTask) []string {
	urls := make([]string, 0, len(tasks))
	for _, task := range tasks {
		urls = append(urls, task.URL)
	}
	return urls
}
