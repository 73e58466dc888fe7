package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// MetricRepo implements insights.MetricReader over the ad_metrics table.
type MetricRepo struct{ db *sql.DB }

// NewMetricRepo creates a Postgres-backed metric reader.
func NewMetricRepo(db *sql.DB) *MetricRepo { return &MetricRepo{db: db} }

func nullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// MetricSeries returns the daily records of a campaign dated in [from, to].
func (r *MetricRepo) MetricSeries(ctx context.Context, campaignID string, from, to time.Time) (domain.MetricSeries, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id, date, impressions, clicks, spend, conversions, revenue,
		       ctr, cpc, conversion_rate, roi
		FROM ad_metrics
		WHERE campaign_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date
	`, campaignID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out domain.MetricSeries
	for rows.Next() {
		var (
			m                   domain.MetricRecord
			ctr, cpc, conv, roi sql.NullFloat64
		)
		if err := rows.Scan(
			&m.CampaignID, &m.Date, &m.Impressions, &m.Clicks, &m.Spend, &m.Conversions, &m.Revenue,
			&ctr, &cpc, &conv, &roi,
		); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.CTR, m.CPC, m.ConversionRate, m.ROI = nullable(ctr), nullable(cpc), nullable(conv), nullable(roi)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return out, nil
}
