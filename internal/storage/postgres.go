// Package storage persists completed reports to postgres. The cache is
// the read path; storage exists so reports survive restarts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/factlens/research_radar/internal/config"
	"github.com/factlens/research_radar/internal/model"
)

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS research_reports (
		id SERIAL PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		article_id BIGINT NOT NULL,
		title TEXT NOT NULL,
		category TEXT,
		payload JSONB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute query %s: %w", query, err)
	}

	return nil
}

// SaveReport upserts the full report under its slug. Forced
// regeneration replaces the previous row.
func (s *Storage) SaveReport(ctx context.Context, report *model.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO research_reports (slug, article_id, title, category, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			article_id = EXCLUDED.article_id,
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			payload = EXCLUDED.payload,
			updated_at = CURRENT_TIMESTAMP`,
		report.Article.Slug, report.Article.ID, report.Article.Title, report.Article.Category, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}

	return nil
}

// LoadReports reads every persisted report, keyed by slug. Used to warm
// the cache at startup. Rows that no longer decode are skipped.
func (s *Storage) LoadReports(ctx context.Context) (map[string]*model.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, payload FROM research_reports`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := make(map[string]*model.Report)
	for rows.Next() {
		var slug string
		var payload []byte
		if err := rows.Scan(&slug, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		var report model.Report
		if err := json.Unmarshal(payload, &report); err != nil {
			continue
		}
		reports[slug] = &report
	}
	return reports, rows.Err()
}
