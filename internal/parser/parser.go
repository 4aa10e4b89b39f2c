// Package parser extracts articles from news page HTML.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

var (
	// ErrIncomplete reports a page missing one of the required fields.
	ErrIncomplete = errors.New("article is missing required fields")
	// ErrMalformed reports a page that could not be processed at all.
	ErrMalformed = errors.New("malformed article page")
)

// Selectors are the CSS selectors for each article field.
type Selectors struct {
	Title   string `mapstructure:"title"`
	Day     string `mapstructure:"day"`
	Month   string `mapstructure:"month"`
	Section string `mapstructure:"section"`
	Summary string `mapstructure:"summary"`
	Content string `mapstructure:"content"`
}

// DefaultSelectors matches the article layout of news.utmn.ru.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:   ".article-detail__title h1",
		Day:     ".cat-n-views .date .day a",
		Month:   ".cat-n-views .date .month",
		Section: ".cat-n-views .category_title a",
		Summary: ".article-detail__preview",
		Content: ".article-detail_text",
	}
}

// Parser implements crawler.Parser with precompiled selectors.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	title   cascadia.Selector
	day     cascadia.Selector
	month   cascadia.Selector
	section cascadia.Selector
	summary cascadia.Selector
	content cascadia.Selector
}

var _ crawler.Parser = (*Parser)(nil)

// New compiles the selectors. Empty fields fall back to DefaultSelectors.
func New(sel Selectors) (*Parser, error) {
	def := DefaultSelectors()
	p := &Parser{}
	fields := []struct {
		name string
		expr string
		def  string
		dst  *cascadia.Selector
	}{
		{"title", sel.Title, def.Title, &p.title},
		{"day", sel.Day, def.Day, &p.day},
		{"month", sel.Month, def.Month, &p.month},
		{"section", sel.Section, def.Section, &p.section},
		{"summary", sel.Summary, def.Summary, &p.summary},
		{"content", sel.Content, def.Content, &p.content},
	}
	for _, f := range fields {
		expr := strings.TrimSpace(f.expr)
		if expr == "" {
			expr = f.def
		}
		compiled, err := cascadia.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s selector %q: %w", f.name, expr, err)
		}
		*f.dst = compiled
	}
	return p, nil
}

// Parse extracts an Article from html. The returned error wraps
// ErrIncomplete or ErrMalformed; it never panics.
func (p *Parser) Parse(html, url string) (crawler.Article, error) {
	return guard(func() (crawler.Article, error) {
		return p.parse(html, url)
	})
}

func (p *Parser) parse(html, url string) (crawler.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return crawler.Article{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	day := firstText(doc, p.day)
	month := firstText(doc, p.month)
	article := crawler.Article{
		URL:     url,
		Title:   firstText(doc, p.title),
		Date:    strings.TrimSpace(day + " " + month),
		Section: firstText(doc, p.section),
		Summary: firstText(doc, p.summary),
		Content: firstText(doc, p.content),
	}

	var missing []string
	if article.Title == "" {
		missing = append(missing, "title")
	}
	if article.Date == "" {
		missing = append(missing, "date")
	}
	if article.Section == "" {
		missing = append(missing, "section")
	}
	if article.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return crawler.Article{}, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return article, nil
}

func firstText(doc *goquery.Document, sel cascadia.Selector) string {
	return strings.TrimSpace(doc.FindMatcher(sel).First().Text())
}

// guard converts a panic inside fn into ErrMalformed.
func guard(fn func() (crawler.Article, error)) (article crawler.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			article = crawler.Article{}
			err = fmt.Errorf("%w: panic: %v", ErrMalformed, r)
		}
	}()
	return fn()
}
