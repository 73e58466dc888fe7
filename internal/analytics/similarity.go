package analytics

import (
	"cmp"
	"math"
	"slices"

	"github.com/ignite/campaign-intelligence/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Similarity ranking parameters.
const (
	MinSimilarity       = 0.7
	DefaultSimilarLimit = 10
)

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// SimilarItem is a high-performing neighbour of a reference item.
type SimilarItem struct {
	ID               string  `json:"id"`
	SimilarityScore  float64 `json:"similarity_score"`
	AvgEngagement    float64 `json:"avg_engagement"`
	TotalImpressions int64   `json:"total_impressions"`
}

type scored[T any] struct {
	item  T
	sim   float64
	score float64
	id    string
}

func rank[T any](xs []scored[T], limit int) []scored[T] {
	slices.SortFunc(xs, func(a, b scored[T]) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if len(xs) > limit {
		xs = xs[:limit]
	}
	return xs
}

// FindSimilar ranks candidates of the reference's kind that are at least
// 0.7 cosine-similar to it by 0.5*similarity + 0.5*avg engagement. The
// reference itself is never returned.
func FindSimilar(ref domain.EmbeddedItem, candidates []domain.EmbeddedItem, limit int) []SimilarItem {
	var hits []scored[domain.EmbeddedItem]
	for _, c := range candidates {
		if c.ID == ref.ID {
			continue
		}
		sim := CosineSimilarity(ref.Vector, c.Vector)
		if sim < MinSimilarity {
			continue
		}
		hits = append(hits, scored[domain.EmbeddedItem]{c, sim, sim*0.5 + c.AvgEngagement*0.5, c.ID})
	}

	out := []SimilarItem{}
	for _, h := range rank(hits, limit) {
		out = append(out, SimilarItem{
			ID:               h.id,
			SimilarityScore:  round(h.sim, 3),
			AvgEngagement:    round(h.item.AvgEngagement, 3),
			TotalImpressions: h.item.TotalImpressions,
		})
	}
	return out
}

// ContentMetrics are the averaged engagement figures of a content item.
type ContentMetrics struct {
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	EngagementRate float64 `json:"engagement_rate"`
}

// ContentRecommendation is published content suited to a campaign.
type ContentRecommendation struct {
	ContentID        string         `json:"content_id"`
	Title            string         `json:"title"`
	ContentType      string         `json:"content_type"`
	SimilarityScore  float64        `json:"similarity_score"`
	PerformanceScore float64        `json:"performance_score"`
	Metrics          ContentMetrics `json:"metrics"`
}

// ContentPerformanceScore is engagement*100 + log10(1+impressions)*10.
func ContentPerformanceScore(engagement, impressions float64) float64 {
	return engagement*100 + math.Log10(1+max(impressions, 0))*10
}

// RecommendContent ranks published content at least 0.7 cosine-similar to
// the campaign embedding by 0.4*similarity + 0.6*performance/100.
func RecommendContent(campaign domain.EmbeddedItem, content []domain.EmbeddedItem, limit int) []ContentRecommendation {
	var hits []scored[domain.EmbeddedItem]
	for _, c := range content {
		sim := CosineSimilarity(campaign.Vector, c.Vector)
		if sim < MinSimilarity {
			continue
		}
		perf := ContentPerformanceScore(c.AvgEngagement, c.AvgImpressions)
		hits = append(hits, scored[domain.EmbeddedItem]{c, sim, sim*0.4 + perf/100*0.6, c.ID})
	}

	out := []ContentRecommendation{}
	for _, h := range rank(hits, limit) {
		c := h.item
		out = append(out, ContentRecommendation{
			ContentID:        c.ID,
			Title:            c.Title,
			ContentType:      c.ContentType,
			SimilarityScore:  round(h.sim, 3),
			PerformanceScore: round(ContentPerformanceScore(c.AvgEngagement, c.AvgImpressions), 2),
			Metrics: ContentMetrics{
				Impressions:    int64(c.AvgImpressions),
				Clicks:         int64(c.AvgClicks),
				EngagementRate: round(c.AvgEngagement, 3),
			},
		})
	}
	return out
}
