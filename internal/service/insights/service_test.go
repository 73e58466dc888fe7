package insights_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

const org = "7b0c2a52-8f4e-4a57-9f39-1a6d3f1e2c10"

// memRepo is an in-memory implementation of the insights readers.
type memRepo struct {
	mu        sync.Mutex
	campaigns []domain.Campaign
	series    map[string]domain.MetricSeries
	failFor   string
	posts     []domain.PostPerformance
	items     []domain.EmbeddedItem
	listCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{series: map[string]domain.MetricSeries{}}
}

func (r *memRepo) GetCampaign(_ context.Context, orgID, id string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.campaigns {
		if c.ID == id && c.OrganizationID == orgID {
			cp := c
			return &cp, nil
		}
	}
	return nil, insights.ErrCampaignNotFound
}

func (r *memRepo) ListCampaigns(_ context.Context, orgID string, f insights.ListFilter) ([]domain.Campaign, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Campaign
	for _, c := range r.campaigns {
		if c.OrganizationID == orgID && (f.Status == "" || string(c.Status) == f.Status) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) CampaignsByStatus(_ context.Context, orgID string, statuses []domain.CampaignStatus) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []domain.Campaign
	for _, c := range r.campaigns {
		if c.OrganizationID == orgID && slices.Contains(statuses, c.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) SimilarCampaigns(_ context.Context, ref domain.Campaign, limit int) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Campaign
	for _, c := range r.campaigns {
		if c.ID != ref.ID && c.OrganizationID == ref.OrganizationID &&
			c.Platform == ref.Platform && c.Objective == ref.Objective && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) Organizations(context.Context) ([]string, error) {
	return []string{org}, nil
}

func (r *memRepo) MetricSeries(_ context.Context, id string, from, to time.Time) (domain.MetricSeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.failFor {
		return nil, errors.New("warehouse unavailable")
	}
	var out domain.MetricSeries
	for _, m := range r.series[id] {
		if !m.Date.Before(from) && !m.Date.After(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) PublishedPosts(_ context.Context, orgID, platform string, since time.Time) ([]domain.PostPerformance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PostPerformance
	for _, p := range r.posts {
		if p.OrganizationID == orgID && (platform == "" || p.Platform == platform) && !p.ScheduledAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) Embedding(_ context.Context, _ string, t domain.ReferenceType, id string) (*domain.EmbeddedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Type == t && it.ID == id && len(it.Vector) > 0 {
			cp := it
			return &cp, nil
		}
	}
	return nil, insights.ErrReferenceNotFound
}

func (r *memRepo) EmbeddedItems(_ context.Context, _ string, t domain.ReferenceType) ([]domain.EmbeddedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EmbeddedItem
	for _, it := range r.items {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memRepo) PublishedContent(ctx context.Context, orgID string) ([]domain.EmbeddedItem, error) {
	return r.EmbeddedItems(ctx, orgID, domain.ReferenceContent)
}

// memCache stores JSON like the Redis cache does.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	ops    map[string]int
	hits   int
	misses int
}

func (r *countingRecorder) ObserveOperation(op string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op]++
}

func (r *countingRecorder) ObserveCache(_ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func budget(v float64) *float64 { return &v }

// daily returns one record per day for the given day offsets before now.
func daily(id string, spend, revenue float64, offsets ...int) domain.MetricSeries {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var s domain.MetricSeries
	for i := len(offsets) - 1; i >= 0; i-- {
		s = append(s, domain.MetricRecord{
			CampaignID:  id,
			Date:        midnight.AddDate(0, 0, -offsets[i]),
			Impressions: 1000,
			Clicks:      30,
			Spend:       spend,
			Conversions: 3,
			Revenue:     revenue,
		})
	}
	return s
}

func span(from, to int) []int {
	var out []int
	for d := from; d <= to; d++ {
		out = append(out, d)
	}
	return out
}

// fixture seeds four campaigns: c1 active and c2 paused share platform and
// objective, c3 is completed on another platform and c4 is a draft.
func fixture() *memRepo {
	r := newMemRepo()
	r.campaigns = []domain.Campaign{
		{ID: "c1", OrganizationID: org, Name: "Spring", Platform: "google", Objective: "conversions",
			Status: domain.CampaignActive, Budget: 3000, DailyBudget: budget(100), BidStrategy: "manual_cpc",
			CreatedAt: now.AddDate(0, 0, -120)},
		{ID: "c2", OrganizationID: org, Name: "Summer", Platform: "google", Objective: "conversions",
			Status: domain.CampaignPaused, Budget: 3000, DailyBudget: budget(100), CreatedAt: now.AddDate(0, 0, -90)},
		{ID: "c3", OrganizationID: org, Name: "Autumn", Platform: "meta", Objective: "awareness",
			Status: domain.CampaignCompleted, Budget: 1500, CreatedAt: now.AddDate(0, 0, -200)},
		{ID: "c4", OrganizationID: org, Name: "Draft", Platform: "meta", Objective: "awareness",
			Status: domain.CampaignDraft},
	}
	r.series["c1"] = append(daily("c1", 100, 300, span(40, 49)...), daily("c1", 100, 300, span(0, 29)...)...)
	r.series["c2"] = daily("c2", 100, 150, span(0, 29)...)
	r.series["c3"] = daily("c3", 50, 40, span(0, 29)...)
	r.series["c4"] = daily("c4", 10, 10, span(0, 29)...)
	return r
}

func newService(r *memRepo, c insights.ReportCache, rec insights.Recorder) *insights.Service {
	return insights.NewService(insights.Deps{
		Campaigns: r,
		Metrics:   r,
		Content:   r,
		Cache:     c,
		Recorder:  rec,
		Now:       func() time.Time { return now },
	}, insights.Config{})
}

func TestForecastCampaign(t *testing.T) {
	svc := newService(fixture(), nil, nil)
	ctx := context.Background()

	f, err := svc.ForecastCampaign(ctx, org, "c1", svc.ForecastDays())
	require.NoError(t, err)
	assert.Equal(t, insights.DefaultForecastDays, f.ForecastPeriod)
	assert.Equal(t, 40, f.Trends.DataPoints, "history spans the 90-day lookback")
	assert.Equal(t, 3000.0, f.Predictions.TotalSpend)
	assert.Equal(t, 200.0, f.Predictions.PredictedROI)

	_, err = svc.ForecastCampaign(ctx, org, "missing", 7)
	assert.ErrorIs(t, err, insights.ErrCampaignNotFound)

	_, err = svc.ForecastCampaign(ctx, org, "c1", insights.MaxHorizonDays+1)
	assert.ErrorIs(t, err, insights.ErrInvalidHorizon)
}

func TestForecastCampaignNonPositiveHorizon(t *testing.T) {
	svc := newService(fixture(), nil, nil)

	for _, days := range []int{0, -1} {
		f, err := svc.ForecastCampaign(context.Background(), org, "c1", days)
		require.NoError(t, err, "days=%d", days)
		assert.Equal(t, days, f.ForecastPeriod)
		assert.Equal(t, analytics.Forecast{}, f.Predictions, "days=%d", days)
		assert.Equal(t, 40, f.Trends.DataPoints, "trends still cover the lookback")
	}
}

func TestForecastOrganization(t *testing.T) {
	svc := newService(fixture(), nil, nil)

	f, err := svc.ForecastOrganization(context.Background(), org, 10)
	require.NoError(t, err)
	assert.Equal(t, org, f.OrganizationID)
	assert.Equal(t, 2, f.TotalCampaigns, "only active and paused campaigns are forecast")
	require.Len(t, f.CampaignForecasts, 2)
	assert.Equal(t, "c1", f.CampaignForecasts[0].CampaignID)
	assert.Equal(t, "c2", f.CampaignForecasts[1].CampaignID)
	assert.Equal(t, 2000.0, f.OrganizationPredictions.TotalSpend)
	assert.Equal(t, 4500.0, f.OrganizationPredictions.TotalRevenue)
	assert.Equal(t, 125.0, f.OrganizationPredictions.PredictedROI)
}

func TestForecastOrganizationNonPositiveHorizon(t *testing.T) {
	svc := newService(fixture(), nil, nil)

	f, err := svc.ForecastOrganization(context.Background(), org, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, f.TotalCampaigns)
	assert.Zero(t, f.OrganizationPredictions.TotalSpend)
	assert.Zero(t, f.OrganizationPredictions.TotalRevenue)
	assert.Zero(t, f.OrganizationPredictions.PredictedROI)

	_, err = svc.ForecastOrganization(context.Background(), org, insights.MaxHorizonDays+1)
	assert.ErrorIs(t, err, insights.ErrInvalidHorizon)
}

func TestForecastOrganizationPropagatesFetchFailure(t *testing.T) {
	r := fixture()
	r.failFor = "c2"
	svc := newService(r, nil, nil)

	f, err := svc.ForecastOrganization(context.Background(), org, 10)
	require.Error(t, err)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "warehouse unavailable")
}

func TestForecastOrganizationEmpty(t *testing.T) {
	svc := newService(newMemRepo(), nil, nil)

	f, err := svc.ForecastOrganization(context.Background(), org, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, f.TotalCampaigns)
	assert.NotNil(t, f.CampaignForecasts)
}

func TestAnalyzeCampaign(t *testing.T) {
	svc := newService(fixture(), nil, nil)

	a, err := svc.AnalyzeCampaign(context.Background(), org, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", a.CampaignID)
	assert.Equal(t, now, a.AnalysisDate)
	assert.Equal(t, 700.0, a.PredictedPerformance.Next7Days.PredictedSpend)
	assert.Equal(t, 3000.0, a.PredictedPerformance.Next30Days.PredictedSpend)
	assert.GreaterOrEqual(t, a.PerformanceScore, 0)
	assert.LessOrEqual(t, a.PerformanceScore, 100)
}

func TestDecisionSupport(t *testing.T) {
	svc := newService(fixture(), nil, nil)
	ctx := context.Background()

	res, err := svc.DecisionSupport(ctx, org, "c1", analytics.DecisionRequest{
		Type:           analytics.DecisionBudgetAdjustment,
		ProposedBudget: budget(150),
	})
	require.NoError(t, err)
	assert.Equal(t, analytics.VerdictApprove, res.Recommendation)
	require.NotNil(t, res.ChangePercentage)
	assert.Equal(t, 50.0, *res.ChangePercentage)
	assert.Contains(t, res.Analysis, "Similar campaigns historically performed with 50% ROI")

	_, err = svc.DecisionSupport(ctx, org, "c1", analytics.DecisionRequest{Type: "rename"})
	assert.ErrorIs(t, err, insights.ErrUnknownDecision)

	_, err = svc.DecisionSupport(ctx, org, "nope", analytics.DecisionRequest{Type: analytics.DecisionPauseOrContinue})
	assert.ErrorIs(t, err, insights.ErrCampaignNotFound)
}

func TestLearnOrganizationPatternsUsesCache(t *testing.T) {
	r := fixture()
	cache := &memCache{data: map[string][]byte{}}
	rec := &countingRecorder{ops: map[string]int{}}
	svc := newService(r, cache, rec)
	ctx := context.Background()

	first, err := svc.LearnOrganizationPatterns(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalCampaignsAnalyzed, "drafts are not learned from")

	second, err := svc.LearnOrganizationPatterns(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, first.TotalCampaignsAnalyzed, second.TotalCampaignsAnalyzed)
	assert.Equal(t, 1, r.listCalls, "second report is served from cache")
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 2, rec.ops["learn_patterns"])

	require.NoError(t, svc.InvalidateOrganization(ctx, org))
	_, err = svc.LearnOrganizationPatterns(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, 2, r.listCalls)
}

func TestRefreshPatternsWarmsCache(t *testing.T) {
	r := fixture()
	cache := &memCache{data: map[string][]byte{}}
	svc := newService(r, cache, nil)

	_, err := svc.RefreshPatterns(context.Background(), org)
	require.NoError(t, err)
	assert.Contains(t, cache.data, "insights:patterns:"+org)
}

func TestOptimalPostingTimes(t *testing.T) {
	r := fixture()
	// 2026-10-12 is a Monday.
	monday9 := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r.posts = append(r.posts, domain.PostPerformance{
			PostID: "p" + string(rune('a'+i)), OrganizationID: org, Platform: "linkedin",
			Status: domain.PostStatusPublished, ScheduledAt: monday9.AddDate(0, 0, -7*i),
			EngagementRate: budget(0.05),
		})
	}
	cache := &memCache{data: map[string][]byte{}}
	svc := newService(r, cache, nil)
	ctx := context.Background()

	pt, err := svc.OptimalPostingTimes(ctx, org, "")
	require.NoError(t, err)
	assert.Equal(t, "all", pt.Platform)
	require.Equal(t, 1, pt.Count)
	assert.Equal(t, "Best time to post: Monday at 9:00", pt.Recommendation)
	assert.Contains(t, cache.data, "insights:posting:"+org+":all")

	pt, err = svc.OptimalPostingTimes(ctx, org, "tiktok")
	require.NoError(t, err)
	assert.Equal(t, 0, pt.Count)
	assert.Equal(t, "Not enough data for recommendations", pt.Recommendation)

	require.NoError(t, svc.InvalidateOrganization(ctx, org))
	assert.Empty(t, cache.data)
}

func TestSimilarContent(t *testing.T) {
	r := fixture()
	r.items = []domain.EmbeddedItem{
		{ID: "x1", Type: domain.ReferenceContent, Vector: []float64{1, 0, 0}, AvgEngagement: 0.2},
		{ID: "x2", Type: domain.ReferenceContent, Vector: []float64{0.9, 0.1, 0}, AvgEngagement: 0.4, TotalImpressions: 900},
		{ID: "x3", Type: domain.ReferenceContent, Vector: []float64{0, 1, 0}, AvgEngagement: 0.9},
		{ID: "k1", Type: domain.ReferenceCreative, Vector: []float64{1, 0, 0}},
	}
	svc := newService(r, nil, nil)
	ctx := context.Background()

	res, err := svc.SimilarContent(ctx, org, domain.ReferenceContent, "x1", 5)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "x2", res.Recommendations[0].ID)
	assert.Equal(t, int64(900), res.Recommendations[0].TotalImpressions)

	_, err = svc.SimilarContent(ctx, org, domain.ReferenceCampaign, "x1", 5)
	assert.ErrorIs(t, err, insights.ErrReferenceNotFound)
}

func TestContentForCampaign(t *testing.T) {
	r := fixture()
	r.items = []domain.EmbeddedItem{
		{ID: "c1", Type: domain.ReferenceCampaign, Vector: []float64{1, 1}},
		{ID: "post-a", Type: domain.ReferenceContent, Title: "How we grew", Vector: []float64{1, 0.9}, AvgEngagement: 0.1, AvgImpressions: 99},
		{ID: "post-b", Type: domain.ReferenceContent, Vector: []float64{-1, 0}},
	}
	svc := newService(r, nil, nil)
	ctx := context.Background()

	res, err := svc.ContentForCampaign(ctx, org, "c1", 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "post-a", res.Recommendations[0].ContentID)
	assert.InDelta(t, 30.0, res.Recommendations[0].PerformanceScore, 0.01)

	_, err = svc.ContentForCampaign(ctx, org, "c2", 0)
	assert.ErrorIs(t, err, insights.ErrReferenceNotFound, "campaign without an embedding")

	_, err = svc.ContentForCampaign(ctx, org, "ghost", 0)
	assert.ErrorIs(t, err, insights.ErrCampaignNotFound)
}
