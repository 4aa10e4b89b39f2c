// Package config loads and validates newscrawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/newscrawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/newscrawler/internal/fetcher/colly"
	"github.com/JakeFAU/newscrawler/internal/parser"
)

// MemoryDSN selects the in-memory store instead of Postgres.
const MemoryDSN = "memory://"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	NewsURL    string             `mapstructure:"news_url"`
	Categories []crawler.Category `mapstructure:"categories"`
	Scraper    ScraperConfig      `mapstructure:"scraper"`
	Selectors  SelectorsConfig    `mapstructure:"selectors"`
	DB         DBConfig           `mapstructure:"db"`
	Server     ServerConfig       `mapstructure:"server"`
	Schedule   ScheduleConfig     `mapstructure:"schedule"`
	Logging    LoggingConfig      `mapstructure:"logging"`
}

// ScraperConfig governs fetching and the parse pool.
type ScraperConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestDelay   time.Duration `mapstructure:"request_delay"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	ParsingWorkers int           `mapstructure:"parsing_workers"`
	QueueDepth     int           `mapstructure:"queue_depth"`
	MaxLinks       int           `mapstructure:"max_links"`
	PageParam      string        `mapstructure:"page_param"`
}

// SelectorsConfig holds listing and article CSS selectors.
type SelectorsConfig struct {
	Listing crawler.ListingSelectors `mapstructure:"listing"`
	Article parser.Selectors         `mapstructure:"article"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// ScheduleConfig controls periodic crawls.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	listing := crawler.DefaultListingSelectors()
	article := parser.DefaultSelectors()

	v.SetDefault("news_url", "https://news.utmn.ru/news/stories/")
	v.SetDefault("categories", []map[string]any{
		{"name": "Наука и инновации", "url": "https://news.utmn.ru/news/stories/nauka-i-innovatsii/"},
	})
	v.SetDefault("scraper.concurrency", 10)
	v.SetDefault("scraper.timeout", 10*time.Second)
	v.SetDefault("scraper.user_agent", "UTMN News Scraper/1.0")
	v.SetDefault("scraper.request_delay", 100*time.Millisecond)
	v.SetDefault("scraper.respect_robots", false)
	v.SetDefault("scraper.parsing_workers", 0)
	v.SetDefault("scraper.queue_depth", 100)
	v.SetDefault("scraper.max_links", 0)
	v.SetDefault("scraper.page_param", crawler.DefaultPageParam)
	v.SetDefault("selectors.listing.link", listing.Link)
	v.SetDefault("selectors.listing.load_more", listing.LoadMore)
	v.SetDefault("selectors.article.title", article.Title)
	v.SetDefault("selectors.article.day", article.Day)
	v.SetDefault("selectors.article.month", article.Month)
	v.SetDefault("selectors.article.section", article.Section)
	v.SetDefault("selectors.article.summary", article.Summary)
	v.SetDefault("selectors.article.content", article.Content)
	v.SetDefault("db.dsn", "postgres://localhost:5432/news?sslmode=disable")
	v.SetDefault("db.table", "news")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("schedule.cron", "@every 6h")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.Concurrency <= 0 {
		return errors.New("scraper.concurrency must be > 0")
	}
	if c.Scraper.Timeout <= 0 {
		return errors.New("scraper.timeout must be > 0")
	}
	if c.Scraper.RequestDelay < 0 {
		return errors.New("scraper.request_delay must be >= 0")
	}
	if c.Scraper.ParsingWorkers < 0 {
		return errors.New("scraper.parsing_workers must be >= 0")
	}
	if c.Scraper.MaxLinks < 0 {
		return errors.New("scraper.max_links must be >= 0")
	}
	if c.Scraper.QueueDepth <= 0 {
		return errors.New("scraper.queue_depth must be > 0")
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.New("server.rate_limit_rps must be >= 0")
	}
	if err := c.Crawler().Validate(); err != nil {
		return fmt.Errorf("crawler config: %w", err)
	}
	return nil
}

// Crawler converts the listing settings into a crawler.Config.
func (c Config) Crawler() crawler.Config {
	return crawler.Config{
		BaseURL:    c.NewsURL,
		Categories: append([]crawler.Category(nil), c.Categories...),
		PageParam:  c.Scraper.PageParam,
		Selectors:  c.Selectors.Listing,
	}
}

// Fetcher converts the scraper settings into a colly fetcher config.
func (c Config) Fetcher() collyfetcher.Config {
	return collyfetcher.Config{
		UserAgent:     c.Scraper.UserAgent,
		Concurrency:   c.Scraper.Concurrency,
		Timeout:       c.Scraper.Timeout,
		RequestDelay:  c.Scraper.RequestDelay,
		RespectRobots: c.Scraper.RespectRobots,
	}
}

// UsesMemoryStore reports whether the DSN selects the in-memory store.
func (c Config) UsesMemoryStore() bool {
	return strings.HasPrefix(c.DB.DSN, MemoryDSN)
}
