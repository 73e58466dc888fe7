package insights

import (
	"context"
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// CampaignReader defines read access to campaigns. Every method is scoped to
// one organization; implementations apply tenant isolation.
type CampaignReader interface {
	// GetCampaign returns a single campaign. Returns ErrCampaignNotFound if it
	// doesn't exist in the organization.
	GetCampaign(ctx context.Context, orgID, id string) (*domain.Campaign, error)

	// ListCampaigns returns a page of campaigns, newest first, and the total.
	ListCampaigns(ctx context.Context, orgID string, f ListFilter) ([]domain.Campaign, int, error)

	// CampaignsByStatus returns every campaign in one of the statuses.
	CampaignsByStatus(ctx context.Context, orgID string, statuses []domain.CampaignStatus) ([]domain.Campaign, error)

	// SimilarCampaigns returns up to limit other campaigns sharing the
	// organization, platform and objective of c.
	SimilarCampaigns(ctx context.Context, c domain.Campaign, limit int) ([]domain.Campaign, error)

	// Organizations lists the ids of organizations that own campaigns.
	Organizations(ctx context.Context) ([]string, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// MetricReader loads daily metrics. A failed fetch is returned as an error,
// never as an empty series.
type MetricReader interface {
	// MetricSeries returns the records of a campaign dated in [from, to],
	// ascending by date.
	MetricSeries(ctx context.Context, campaignID string, from, to time.Time) (domain.MetricSeries, error)
}

// ContentReader loads posts and embeddings for content recommendations.
type ContentReader interface {
	// PublishedPosts returns published posts scheduled on or after since.
	// An empty platform means every platform.
	PublishedPosts(ctx context.Context, orgID, platform string, since time.Time) ([]domain.PostPerformance, error)

	// Embedding returns one item with its vector. Returns
	// ErrReferenceNotFound when the item or its embedding is missing.
	Embedding(ctx context.Context, orgID string, t domain.ReferenceType, id string) (*domain.EmbeddedItem, error)

	// EmbeddedItems returns every embedded item of a kind with its
	// aggregated performance.
	EmbeddedItems(ctx context.Context, orgID string, t domain.ReferenceType) ([]domain.EmbeddedItem, error)

	// PublishedContent returns embedded, published content items.
	PublishedContent(ctx context.Context, orgID string) ([]domain.EmbeddedItem, error)
}

// ReportCache stores rendered reports as JSON.
type ReportCache interface {
	// Get decodes a cached value into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Recorder receives operation timings and cache outcomes.
type Recorder interface {
	ObserveOperation(op string, d time.Duration, err error)
	ObserveCache(report string, hit bool)
}
