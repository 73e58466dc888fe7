package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/domain"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, analytics.CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.Equal(t, 0.0, analytics.CosineSimilarity([]float64{1, 0}, []float64{0, 1}))
	assert.Equal(t, 0.0, analytics.CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}))
	assert.Equal(t, 0.0, analytics.CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Equal(t, 0.0, analytics.CosineSimilarity(nil, nil))
}

func TestFindSimilar(t *testing.T) {
	ref := domain.EmbeddedItem{ID: "ref", Type: domain.ReferenceContent, Vector: []float64{1, 0}}
	candidates := []domain.EmbeddedItem{
		ref,
		{ID: "twin", Vector: []float64{1, 0}, AvgEngagement: 0.1, TotalImpressions: 500},
		{ID: "close", Vector: []float64{0.9, 0.1}, AvgEngagement: 0.5, TotalImpressions: 900},
		{ID: "far", Vector: []float64{0, 1}, AvgEngagement: 0.9},
	}

	got := analytics.FindSimilar(ref, candidates, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "close", got[0].ID)
	assert.Equal(t, 0.994, got[0].SimilarityScore)
	assert.Equal(t, 0.5, got[0].AvgEngagement)
	assert.Equal(t, int64(900), got[0].TotalImpressions)
	assert.Equal(t, analytics.SimilarItem{ID: "twin", SimilarityScore: 1, AvgEngagement: 0.1, TotalImpressions: 500}, got[1])

	assert.Len(t, analytics.FindSimilar(ref, candidates, 1), 1)
	assert.Empty(t, analytics.FindSimilar(domain.EmbeddedItem{ID: "x"}, candidates, 10))
}

func TestRecommendContent(t *testing.T) {
	campaign := domain.EmbeddedItem{ID: "camp", Type: domain.ReferenceCampaign, Vector: []float64{1, 1}}
	content := []domain.EmbeddedItem{
		{ID: "a", Title: "Spring teaser", ContentType: "video", Vector: []float64{1, 1}, AvgEngagement: 0.05, AvgImpressions: 999, AvgClicks: 12.6},
		{ID: "b", Title: "Quiet post", ContentType: "image", Vector: []float64{1, 0.9}, AvgEngagement: 0.01, AvgImpressions: 9},
		{ID: "c", Title: "Off topic", Vector: []float64{-1, 1}, AvgEngagement: 1},
	}

	got := analytics.RecommendContent(campaign, content, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ContentID)
	assert.Equal(t, 35.0, got[0].PerformanceScore)
	assert.Equal(t, 1.0, got[0].SimilarityScore)
	assert.Equal(t, analytics.ContentMetrics{Impressions: 999, Clicks: 12, EngagementRate: 0.05}, got[0].Metrics)
	assert.Equal(t, "b", got[1].ContentID)
	assert.Equal(t, 11.0, got[1].PerformanceScore)
}
