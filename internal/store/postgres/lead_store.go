// Package postgres provides the Postgres-backed durable lead collection.
// The expected table layout lives in schema.sql; in particular inserts rely
// on its unique (full_name, source) index.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwhitlock/leadforge/internal/leads"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// LeadStoreConfig controls the Postgres connection pool used for lead rows.
type LeadStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// LeadStore writes retained leads into Postgres and serves the listing API.
// The table carries a unique (full_name, source) index, which enforces the
// dedup identity across job runs: a previously stored lead is silently
// skipped on re-insert.
type LeadStore struct {
	pool  dbPool
	table string
}

// NewLeadStore creates a Postgres-backed LeadStore using the provided config.
func NewLeadStore(ctx context.Context, cfg LeadStoreConfig) (*LeadStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "scraped_leads"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
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
	return &LeadStore{pool: pool, table: table}, nil
}

// NewLeadStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewLeadStoreWithPool(pool dbPool, table string) (*LeadStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "scraped_leads"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &LeadStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *LeadStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveLeads inserts a batch and returns how many rows were actually stored.
// Conflicts with previously stored leads do not error; they reduce the count.
func (s *LeadStore) SaveLeads(ctx context.Context, batch []leads.Lead) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("lead store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	full_name,
	company_name,
	website,
	source_url,
	email,
	phone,
	linkedin_url,
	twitter_url,
	job_title,
	industry,
	location,
	source,
	search_term,
	scraped_at,
	lead_score,
	enrichment_status
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)
ON CONFLICT (full_name, source) DO NOTHING`, s.table)

	var saved int
	for _, l := range batch {
		tag, err := s.pool.Exec(ctx, query,
			l.FullName,
			l.CompanyName,
			l.Website,
			l.SourceURL,
			l.Email,
			l.Phone,
			l.LinkedInURL,
			l.TwitterURL,
			l.JobTitle,
			l.Industry,
			l.Location,
			l.Source,
			l.SearchTerm,
			l.ScrapedAt,
			l.LeadScore,
			string(l.EnrichmentStatus),
		)
		if err != nil {
			return saved, fmt.Errorf("insert lead: %w", err)
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

// ListLeads returns stored leads matching the query, newest first.
func (s *LeadStore) ListLeads(ctx context.Context, q leads.LeadQuery) ([]leads.Lead, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("lead store is not configured")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var (
		where []string
		args  []any
	)
	if q.Industry != "" {
		args = append(args, "%"+q.Industry+"%")
		where = append(where, fmt.Sprintf("industry ILIKE $%d", len(args)))
	}
	if q.Location != "" {
		args = append(args, "%"+q.Location+"%")
		where = append(where, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, q.Offset)

	query := fmt.Sprintf(`
SELECT
	full_name,
	company_name,
	website,
	source_url,
	email,
	phone,
	linkedin_url,
	twitter_url,
	job_title,
	industry,
	location,
	source,
	search_term,
	scraped_at,
	lead_score,
	enrichment_status
FROM %s%s
ORDER BY scraped_at DESC
LIMIT $%d OFFSET $%d`, s.table, clause, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []leads.Lead
	for rows.Next() {
		var (
			l      leads.Lead
			status string
		)
		if err := rows.Scan(
			&l.FullName,
			&l.CompanyName,
			&l.Website,
			&l.SourceURL,
			&l.Email,
			&l.Phone,
			&l.LinkedInURL,
			&l.TwitterURL,
			&l.JobTitle,
			&l.Industry,
			&l.Location,
			&l.Source,
			&l.SearchTerm,
			&l.ScrapedAt,
			&l.LeadScore,
			&status,
		); err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		l.EnrichmentStatus = leads.EnrichmentStatus(status)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead rows: %w", err)
	}
	return out, nil
}
