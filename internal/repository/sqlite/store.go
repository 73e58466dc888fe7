// Package sqlite keeps daily campaign metrics in a local SQLite file so the
// analytics can run offline from CSV exports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// Store is a SQLite-backed metric store. It implements insights.MetricReader.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS ad_metrics (
    campaign_id TEXT NOT NULL,
    date TEXT NOT NULL,
    impressions INTEGER NOT NULL DEFAULT 0,
    clicks INTEGER NOT NULL DEFAULT 0,
    spend REAL NOT NULL DEFAULT 0,
    conversions INTEGER NOT NULL DEFAULT 0,
    revenue REAL NOT NULL DEFAULT 0,
    ctr REAL,
    cpc REAL,
    conversion_rate REAL,
    roi REAL,
    PRIMARY KEY (campaign_id, date)
);
`

// Open opens or creates the store at path. Use ":memory:" for a throwaway
// database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Upsert writes the records in one transaction, replacing any existing
// record for the same campaign and day.
func (s *Store) Upsert(ctx context.Context, series domain.MetricSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ad_metrics (campaign_id, date, impressions, clicks, spend, conversions, revenue,
		                        ctr, cpc, conversion_rate, roi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (campaign_id, date) DO UPDATE SET
		    impressions = excluded.impressions, clicks = excluded.clicks, spend = excluded.spend,
		    conversions = excluded.conversions, revenue = excluded.revenue, ctr = excluded.ctr,
		    cpc = excluded.cpc, conversion_rate = excluded.conversion_rate, roi = excluded.roi`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range series {
		if _, err := stmt.ExecContext(ctx, m.CampaignID, m.Date.Format(DateLayout),
			m.Impressions, m.Clicks, m.Spend, m.Conversions, m.Revenue,
			m.CTR, m.CPC, m.ConversionRate, m.ROI); err != nil {
			return fmt.Errorf("upsert %s %s: %w", m.CampaignID, m.Date.Format(DateLayout), err)
		}
	}
	return tx.Commit()
}

// ImportCSV parses a CSV export and upserts it. It returns the number of
// records written.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	series, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.Upsert(ctx, series); err != nil {
		return 0, err
	}
	return len(series), nil
}

// MetricSeries returns the records of a campaign dated in [from, to],
// ascending by date. Zero bounds are open.
func (s *Store) MetricSeries(ctx context.Context, campaignID string, from, to time.Time) (domain.MetricSeries, error) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !from.IsZero() {
		lo = from.Format(DateLayout)
	}
	if !to.IsZero() {
		hi = to.Format(DateLayout)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT campaign_id, date, impressions, clicks, spend, conversions, revenue,
		       ctr, cpc, conversion_rate, roi
		FROM ad_metrics
		WHERE campaign_id = ? AND date >= ? AND date <= ?
		ORDER BY date`, campaignID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out domain.MetricSeries
	for rows.Next() {
		var (
			m                   domain.MetricRecord
			day                 string
			ctr, cpc, conv, roi sql.NullFloat64
		)
		if err := rows.Scan(&m.CampaignID, &day, &m.Impressions, &m.Clicks, &m.Spend,
			&m.Conversions, &m.Revenue, &ctr, &cpc, &conv, &roi); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		if m.Date, err = time.Parse(DateLayout, day); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		m.CTR, m.CPC, m.ConversionRate, m.ROI = nullable(ctr), nullable(cpc), nullable(conv), nullable(roi)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Campaigns lists the campaign ids that have metrics.
func (s *Store) Campaigns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT campaign_id FROM ad_metrics ORDER BY campaign_id`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
