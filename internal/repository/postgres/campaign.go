package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
)

// CampaignRepo implements insights.CampaignReader against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `
	id, organization_id, name, COALESCE(platform,''), COALESCE(objective,''),
	status, budget, daily_budget, COALESCE(bid_strategy,''), created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s scanner) (domain.Campaign, error) {
	var (
		c     domain.Campaign
		daily sql.NullFloat64
	)
	err := s.Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Platform, &c.Objective,
		&c.Status, &c.Budget, &daily, &c.BidStrategy, &c.CreatedAt, &c.UpdatedAt,
	)
	if daily.Valid {
		c.DailyBudget = &daily.Float64
	}
	return c, err
}

func (r *CampaignRepo) GetCampaign(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM ad_campaigns
		WHERE id = $1 AND organization_id = $2 AND status <> 'deleted'
	`, id, orgID)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, insights.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &c, nil
}

func (r *CampaignRepo) ListCampaigns(ctx context.Context, orgID string, f insights.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := ` WHERE organization_id = $1 AND status <> 'deleted'`
	args := []interface{}{orgID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ad_campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := `SELECT ` + campaignColumns + ` FROM ad_campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return out, total, nil
}

func (r *CampaignRepo) CampaignsByStatus(ctx context.Context, orgID string, statuses []domain.CampaignStatus) ([]domain.Campaign, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	out, err := r.query(ctx, `
		SELECT `+campaignColumns+`
		FROM ad_campaigns
		WHERE organization_id = $1 AND status = ANY($2)
		ORDER BY created_at, id
	`, orgID, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("campaigns by status: %w", err)
	}
	return out, nil
}

func (r *CampaignRepo) SimilarCampaigns(ctx context.Context, c domain.Campaign, limit int) ([]domain.Campaign, error) {
	out, err := r.query(ctx, `
		SELECT `+campaignColumns+`
		FROM ad_campaigns
		WHERE organization_id = $1 AND platform = $2 AND objective = $3
		  AND id <> $4 AND status <> 'deleted'
		ORDER BY created_at DESC, id
		LIMIT $5
	`, c.OrganizationID, c.Platform, c.Objective, c.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar campaigns: %w", err)
	}
	return out, nil
}

func (r *CampaignRepo) Organizations(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT organization_id FROM ad_campaigns
		WHERE status <> 'deleted'
		ORDER BY organization_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
