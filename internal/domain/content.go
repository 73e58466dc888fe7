package domain

import "time"

// ReferenceType selects which kind of item a similarity lookup starts from.
type ReferenceType string

const (
	ReferenceContent  ReferenceType = "content"
	ReferenceCampaign ReferenceType = "campaign"
	ReferenceCreative ReferenceType = "creative"
)

// ParseReferenceType validates a reference type name.
func ParseReferenceType(s string) (ReferenceType, bool) {
	switch t := ReferenceType(s); t {
	case ReferenceContent, ReferenceCampaign, ReferenceCreative:
		return t, true
	}
	return "", false
}

// PostStatusPublished marks a scheduled post that went out.
const PostStatusPublished = "published"

// PostPerformance is a scheduled social post joined with its engagement
// metrics. Metric pointers are nil when no metrics were recorded.
type PostPerformance struct {
	PostID         string    `json:"post_id" db:"post_id"`
	OrganizationID string    `json:"organization_id" db:"org_id"`
	Platform       string    `json:"platform" db:"platform"`
	Status         string    `json:"status" db:"status"`
	ScheduledAt    time.Time `json:"scheduled_at" db:"scheduled_at"`
	EngagementRate *float64  `json:"engagement_rate,omitempty" db:"engagement_rate"`
	Clicks         *float64  `json:"clicks,omitempty" db:"clicks"`
	Impressions    *float64  `json:"impressions,omitempty" db:"impressions"`
}

// EmbeddedItem is a content item, campaign, or creative with its embedding
// vector and aggregated performance.
type EmbeddedItem struct {
	ID               string        `json:"id"`
	Type             ReferenceType `json:"type"`
	Title            string        `json:"title,omitempty"`
	ContentType      string        `json:"content_type,omitempty"`
	Vector           []float64     `json:"-"`
	AvgEngagement    float64       `json:"avg_engagement"`
	AvgImpressions   float64       `json:"avg_impressions"`
	AvgClicks        float64       `json:"avg_clicks"`
	TotalImpressions int64         `json:"total_impressions"`
}
