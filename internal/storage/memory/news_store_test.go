package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

func article(url, date, section string) crawler.Article {
	return crawler.Article{URL: url, Title: "T " + url, Date: date, Section: section, Content: "C"}
}

func TestNewsStoreSaveIsIdempotentByURL(t *testing.T) {
	t.Parallel()

	s := NewNewsStore()
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	a := article("https://x/1", "2024-01-01", "Наука")
	require.NoError(t, s.Save(ctx, a))
	a.Title = "changed"
	require.NoError(t, s.Save(ctx, a))
	require.Equal(t, 1, s.Len())

	got, err := s.Query(ctx, crawler.Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "T https://x/1", got[0].Title, "first write wins")

	require.Error(t, s.Save(ctx, crawler.Article{}))
}

func TestNewsStoreSectionFilterIsCaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()

	s := NewNewsStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, article("https://x/1", "2024-01-01", "Наука и инновации")))
	require.NoError(t, s.Save(ctx, article("https://x/2", "2024-01-02", "Технологии")))

	got, err := s.Query(ctx, crawler.Query{Section: "наука"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://x/1", got[0].URL)
}

func TestNewsStoreDateRangeIsInclusiveNewestFirst(t *testing.T) {
	t.Parallel()

	s := NewNewsStore()
	ctx := context.Background()
	for _, d := range []string{"2024-01-05", "2024-01-10", "2024-01-15"} {
		require.NoError(t, s.Save(ctx, article("https://x/"+d, d, "Наука")))
	}

	got, err := s.Query(ctx, crawler.Query{StartDate: "2024-01-05", EndDate: "2024-01-10"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "2024-01-10", got[0].Date)
	require.Equal(t, "2024-01-05", got[1].Date)
}

func TestNewsStorePagination(t *testing.T) {
	t.Parallel()

	s := NewNewsStore()
	ctx := context.Background()
	for i := range 12 {
		require.NoError(t, s.Save(ctx, article(fmt.Sprintf("https://x/%02d", i), fmt.Sprintf("2024-01-%02d", i+1), "Наука")))
	}

	first, err := s.Query(ctx, crawler.Query{})
	require.NoError(t, err)
	require.Len(t, first, crawler.DefaultPageSize)
	require.Equal(t, "2024-01-12", first[0].Date)

	last, err := s.Query(ctx, crawler.Query{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, last, 2)
	require.Equal(t, "2024-01-01", last[1].Date)

	beyond, err := s.Query(ctx, crawler.Query{Offset: 50})
	require.NoError(t, err)
	require.Empty(t, beyond)
}

func TestNewsStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewNewsStore()
	ctx := context.Background()
	want := crawler.Article{
		URL: "https://x/1", Title: "Заголовок", Date: "25 декабря 2023",
		Section: "Наука", Summary: "Лид", Content: "Текст",
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Query(ctx, crawler.Query{})
	require.NoError(t, err)
	require.Equal(t, []crawler.Article{want}, got)
}

func TestNewsStoreConcurrentSaves(t *testing.T) {
	t.Parallel()

	s := NewNewsStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Save(context.Background(), article(fmt.Sprintf("https://x/%d", i%10), "2024-01-01", "Наука"))
		}()
	}
	wg.Wait()
	require.Equal(t, 10, s.Len())
}
