package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Default listing and pagination settings for the news site.
const (
	DefaultPageParam      = "PAGEN_1"
	DefaultLinkSelector   = "div.article_title > a"
	DefaultLoadMoreButton = "button#btn_get-news"
)

// Config holds the settings the coordinator and discoverer need for a crawl.
// It is decoupled from Viper so the crawler can be configured in tests directly.
type Config struct {
	BaseURL    string
	Categories []Category
	PageParam  string
	Selectors  ListingSelectors
}

// ListingSelectors locates article anchors and the pagination affordance.
type ListingSelectors struct {
	Link     string `mapstructure:"link"`
	LoadMore string `mapstructure:"load_more"`
}

// DefaultListingSelectors returns the selectors used by the source site.
func DefaultListingSelectors() ListingSelectors {
	return ListingSelectors{
		Link:     DefaultLinkSelector,
		LoadMore: DefaultLoadMoreButton,
	}
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("news_url must be set")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("news_url %q is invalid: %w", c.BaseURL, err)
	}
	for i, cat := range c.Categories {
		if _, err := url.ParseRequestURI(cat.URL); err != nil {
			return fmt.Errorf("categories[%d].url %q is invalid: %w", i, cat.URL, err)
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.PageParam == "" {
		c.PageParam = DefaultPageParam
	}
	if c.Selectors.Link == "" {
		c.Selectors.Link = DefaultLinkSelector
	}
	if c.Selectors.LoadMore == "" {
		c.Selectors.LoadMore = DefaultLoadMoreButton
	}
	return c
}
