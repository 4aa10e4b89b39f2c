// Package crawler defines core types shared across subsystems.
package crawler

import (
	"strings"
	"time"
)

// TaskKind identifies what a fetched page is expected to contain.
type TaskKind string

// Fetch task kinds.
const (
	KindListing TaskKind = "listing"
	KindArticle TaskKind = "article"
)

// Article is the persisted unit. URL is its identity key.
type Article struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Section   string    `json:"section"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Category is a named listing root crawled alongside the base URL.
type Category struct {
	Name string `json:"name" mapstructure:"name"`
	URL  string `json:"url" mapstructure:"url"`
}

// FetchTask describes a single page the coordinator wants fetched.
type FetchTask struct {
	URL  string
	Kind TaskKind
}

// QueueItem carries fetched article HTML from the coordinator to a parse worker.
type QueueItem struct {
	HTML      string
	SourceURL string
}

// DefaultPageSize is the number of articles returned when a Query sets no limit.
const DefaultPageSize = 5

// Query filters and paginates stored articles. Empty strings disable a filter.
type Query struct {
	Section   string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

// Normalized returns q with a positive Limit and a non-negative Offset.
func (q Query) Normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// MatchesSection reports whether section contains q.Section, ignoring case.
func (q Query) MatchesSection(section string) bool {
	if q.Section == "" {
		return true
	}
	return strings.Contains(strings.ToLower(section), strings.ToLower(q.Section))
}
