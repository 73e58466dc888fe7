package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// Client reads campaign metrics from the Snowflake warehouse. It implements
// insights.MetricReader for organizations whose metrics are loaded there.
type Client struct {
	config Config
	db     *sql.DB
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$.]*$`)

// NewClient opens a Snowflake connection pool.
func NewClient(cfg Config) (*Client, error) {
	db, err := sql.Open("snowflake", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	c, err := NewClientWithDB(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithDB wraps an existing pool.
func NewClientWithDB(db *sql.DB, cfg Config) (*Client, error) {
	if !identifier.MatchString(cfg.Table()) {
		return nil, fmt.Errorf("invalid metrics table name %q", cfg.Table())
	}
	return &Client{config: cfg, db: db}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// MetricSeries returns the daily records of a campaign dated in [from, to],
// ascending by date.
func (c *Client) MetricSeries(ctx context.Context, campaignID string, from, to time.Time) (domain.MetricSeries, error) {
	query := `
		SELECT CAMPAIGN_ID, METRIC_DATE, IMPRESSIONS, CLICKS, SPEND, CONVERSIONS, REVENUE,
		       CTR, CPC, CONVERSION_RATE, ROI
		FROM ` + c.config.Table() + `
		WHERE CAMPAIGN_ID = ? AND METRIC_DATE BETWEEN ? AND ?
		ORDER BY METRIC_DATE`

	rows, err := c.db.QueryContext(ctx, query, campaignID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query warehouse metrics: %w", err)
	}
	defer rows.Close()

	var result domain.MetricSeries
	for rows.Next() {
		var (
			m                   domain.MetricRecord
			ctr, cpc, conv, roi sql.NullFloat64
		)
		if err := rows.Scan(&m.CampaignID, &m.Date, &m.Impressions, &m.Clicks, &m.Spend,
			&m.Conversions, &m.Revenue, &ctr, &cpc, &conv, &roi); err != nil {
			return nil, fmt.Errorf("scan warehouse row: %w", err)
		}
		m.CTR, m.CPC, m.ConversionRate, m.ROI = ptr(ctr), ptr(cpc), ptr(conv), ptr(roi)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouse rows: %w", err)
	}
	return result, nil
}

// LatestMetricDate returns the most recent day loaded into the warehouse.
// The zero time means the table is empty.
func (c *Client) LatestMetricDate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	err := c.db.QueryRowContext(ctx, `SELECT MAX(METRIC_DATE) FROM `+c.config.Table()).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest metric date: %w", err)
	}
	return latest.Time, nil
}

func ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
