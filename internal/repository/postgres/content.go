package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
)

// ContentRepo implements insights.ContentReader over scheduled_posts,
// content_items, performance_metrics and embeddings.
type ContentRepo struct{ db *sql.DB }

// NewContentRepo creates a Postgres-backed content reader.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

func (r *ContentRepo) PublishedPosts(ctx context.Context, orgID, platform string, since time.Time) ([]domain.PostPerformance, error) {
	q := `
		SELECT sp.id, sp.organization_id, sp.platform, sp.status, sp.scheduled_at,
		       pm.engagement_rate, pm.clicks, pm.impressions
		FROM scheduled_posts sp
		LEFT JOIN LATERAL (
			SELECT AVG(engagement_rate) AS engagement_rate,
			       AVG(clicks) AS clicks,
			       AVG(impressions) AS impressions
			FROM performance_metrics
			WHERE entity_type = 'post' AND entity_id = sp.id
		) pm ON true
		WHERE sp.organization_id = $1 AND sp.status = 'published' AND sp.scheduled_at >= $2`
	args := []interface{}{orgID, since}
	if platform != "" {
		q += " AND sp.platform = $3"
		args = append(args, platform)
	}
	q += " ORDER BY sp.scheduled_at"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var out []domain.PostPerformance
	for rows.Next() {
		var (
			p                 domain.PostPerformance
			eng, clicks, imps sql.NullFloat64
		)
		if err := rows.Scan(&p.PostID, &p.OrganizationID, &p.Platform, &p.Status, &p.ScheduledAt,
			&eng, &clicks, &imps); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.EngagementRate, p.Clicks, p.Impressions = nullable(eng), nullable(clicks), nullable(imps)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ContentRepo) Embedding(ctx context.Context, orgID string, t domain.ReferenceType, id string) (*domain.EmbeddedItem, error) {
	var vec []float64
	err := r.db.QueryRowContext(ctx, `
		SELECT vector FROM embeddings
		WHERE entity_type = $1 AND entity_id = $2 AND organization_id = $3
	`, string(t), id, orgID).Scan(pq.Array(&vec))
	if errors.Is(err, sql.ErrNoRows) || (err == nil && len(vec) == 0) {
		return nil, insights.ErrReferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	return &domain.EmbeddedItem{ID: id, Type: t, Vector: vec}, nil
}

// embeddedItemsQuery aggregates performance per embedded entity. $1 is the
// entity type and $2 the organization.
const embeddedItemsQuery = `
	SELECT e.entity_id, e.vector,
	       COALESCE(ci.title, ''), COALESCE(ci.content_type, ''),
	       COALESCE(AVG(pm.engagement_rate), 0), COALESCE(AVG(pm.impressions), 0),
	       COALESCE(AVG(pm.clicks), 0), COALESCE(SUM(pm.impressions), 0)
	FROM embeddings e
	LEFT JOIN content_items ci ON e.entity_type = 'content' AND ci.id = e.entity_id
	LEFT JOIN performance_metrics pm ON pm.entity_type = e.entity_type AND pm.entity_id = e.entity_id
	WHERE e.entity_type = $1 AND e.organization_id = $2`

const embeddedItemsGroup = `
	GROUP BY e.entity_id, e.vector, ci.title, ci.content_type
	ORDER BY e.entity_id`

func (r *ContentRepo) EmbeddedItems(ctx context.Context, orgID string, t domain.ReferenceType) ([]domain.EmbeddedItem, error) {
	out, err := r.items(ctx, t, embeddedItemsQuery+embeddedItemsGroup, string(t), orgID)
	if err != nil {
		return nil, fmt.Errorf("embedded %s items: %w", t, err)
	}
	return out, nil
}

func (r *ContentRepo) PublishedContent(ctx context.Context, orgID string) ([]domain.EmbeddedItem, error) {
	out, err := r.items(ctx, domain.ReferenceContent,
		embeddedItemsQuery+` AND ci.status = 'published'`+embeddedItemsGroup,
		string(domain.ReferenceContent), orgID)
	if err != nil {
		return nil, fmt.Errorf("published content: %w", err)
	}
	return out, nil
}

func (r *ContentRepo) items(ctx context.Context, t domain.ReferenceType, q string, args ...interface{}) ([]domain.EmbeddedItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EmbeddedItem
	for rows.Next() {
		it := domain.EmbeddedItem{Type: t}
		var total float64
		if err := rows.Scan(&it.ID, pq.Array(&it.Vector), &it.Title, &it.ContentType,
			&it.AvgEngagement, &it.AvgImpressions, &it.AvgClicks, &total); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.TotalImpressions = int64(total)
		out = append(out, it)
	}
	return out, rows.Err()
}
