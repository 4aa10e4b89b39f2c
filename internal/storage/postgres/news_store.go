// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

const uniqueViolation = "23505"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewsStoreConfig controls the Postgres connection pool used for articles.
type NewsStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryExecCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// NewsStore implements crawler.Store on Postgres.
type NewsStore struct {
	pool   queryExecCloser
	table  string
	logger *zap.Logger
}

var _ crawler.Store = (*NewsStore)(nil)

// NewNewsStore creates a Postgres-backed NewsStore using the provided config.
func NewNewsStore(ctx context.Context, cfg NewsStoreConfig, logger *zap.Logger) (*NewsStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewNewsStoreWithPool(pool, cfg.Table, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewNewsStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewNewsStoreWithPool(pool queryExecCloser, table string, logger *zap.Logger) (*NewsStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if table == "" {
		table = "news"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsStore{pool: pool, table: table, logger: logger}, nil
}

// Close releases the underlying pool resources.
func (s *NewsStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Initialize creates the articles table if it does not exist.
func (s *NewsStore) Initialize(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	url TEXT UNIQUE NOT NULL,
	title TEXT,
	date TEXT,
	section TEXT,
	summary TEXT,
	content TEXT,
	scraped_at TIMESTAMPTZ
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	s.logger.Info("news table ready", zap.String("table", s.table))
	return nil
}

// Save inserts an article. An article whose URL is already stored is skipped.
func (s *NewsStore) Save(ctx context.Context, article crawler.Article) error {
	if article.URL == "" {
		return errors.New("article url is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, title, date, section, summary, content, scraped_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, s.table)

	scrapedAt := article.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, query,
		article.URL,
		article.Title,
		article.Date,
		article.Section,
		article.Summary,
		article.Content,
		scrapedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			s.logger.Debug("article already stored", zap.String("url", article.URL))
			return nil
		}
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// Query returns stored articles newest first by date. Date ranges and
// ordering compare bytes (COLLATE "C"), matching the memory store. Section
// matching is ILIKE, so case folding of non-ASCII text follows the database
// ctype; every row the database matches is returned, so pages are only short
// at the end of the result set.
func (s *NewsStore) Query(ctx context.Context, q crawler.Query) ([]crawler.Article, error) {
	q = q.Normalized()

	var (
		conds []string
		args  []any
	)
	if q.Section != "" {
		args = append(args, "%"+escapeLike(q.Section)+"%")
		conds = append(conds, fmt.Sprintf("section ILIKE $%d", len(args)))
	}
	if q.StartDate != "" {
		args = append(args, q.StartDate)
		conds = append(conds, fmt.Sprintf(`date COLLATE "C" >= $%d`, len(args)))
	}
	if q.EndDate != "" {
		args = append(args, q.EndDate)
		conds = append(conds, fmt.Sprintf(`date COLLATE "C" <= $%d`, len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT url, COALESCE(title, ''), COALESCE(date, ''), COALESCE(section, ''),
	COALESCE(summary, ''), COALESCE(content, ''), scraped_at FROM %s`, s.table)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, q.Limit, q.Offset)
	fmt.Fprintf(&b, ` ORDER BY date COLLATE "C" DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]crawler.Article, 0, q.Limit)
	for rows.Next() {
		var a crawler.Article
		if err := rows.Scan(&a.URL, &a.Title, &a.Date, &a.Section, &a.Summary, &a.Content, &a.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.ScrapedAt = a.ScrapedAt.UTC()
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
