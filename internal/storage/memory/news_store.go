// Package memory provides in-process storage for development and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

// NewsStore provides an in-memory implementation of crawler.Store.
type NewsStore struct {
	mu    sync.RWMutex
	byURL map[string]struct{}
	rows  []crawler.Article
}

var _ crawler.Store = (*NewsStore)(nil)

// NewNewsStore constructs a NewsStore.
func NewNewsStore() *NewsStore {
	return &NewsStore{byURL: make(map[string]struct{})}
}

// Initialize is a no-op; the store is ready on construction.
func (s *NewsStore) Initialize(context.Context) error {
	return nil
}

// Save stores the article unless its URL is already present.
func (s *NewsStore) Save(_ context.Context, article crawler.Article) error {
	if article.URL == "" {
		return errors.New("article url is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byURL[article.URL]; exists {
		return nil
	}
	s.byURL[article.URL] = struct{}{}
	s.rows = append(s.rows, article)
	return nil
}

// Query filters by section and inclusive date range, newest date first.
func (s *NewsStore) Query(_ context.Context, q crawler.Query) ([]crawler.Article, error) {
	q = q.Normalized()

	s.mu.RLock()
	type row struct {
		id      int
		article crawler.Article
	}
	matched := make([]row, 0, len(s.rows))
	for id, a := range s.rows {
		if !q.MatchesSection(a.Section) {
			continue
		}
		if q.StartDate != "" && a.Date < q.StartDate {
			continue
		}
		if q.EndDate != "" && a.Date > q.EndDate {
			continue
		}
		matched = append(matched, row{id: id, article: a})
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].article.Date != matched[j].article.Date {
			return matched[i].article.Date > matched[j].article.Date
		}
		return matched[i].id > matched[j].id
	})

	if q.Offset >= len(matched) {
		return []crawler.Article{}, nil
	}
	end := min(q.Offset+q.Limit, len(matched))
	out := make([]crawler.Article, 0, end-q.Offset)
	for _, r := range matched[q.Offset:end] {
		out = append(out, r.article)
	}
	return out, nil
}

// Len reports the number of stored articles.
func (s *NewsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
