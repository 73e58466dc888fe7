package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
)

const (
	// MaxHorizonDays bounds the forecast horizon accepted from callers.
	MaxHorizonDays = 365

	// DefaultForecastDays is the horizon used when a caller names none.
	DefaultForecastDays = 30
)

// Config tunes the windows and fan-out of the service.
type Config struct {
	LookbackDays  int
	WindowDays    int
	ForecastDays  int
	StableEpsilon float64
	MaxParallel   int
	PatternsTTL   time.Duration
	PostingTTL    time.Duration
}

func (c Config) withDefaults() Config {
	if c.LookbackDays <= 0 {
		c.LookbackDays = 90
	}
	if c.WindowDays <= 0 {
		c.WindowDays = analytics.AveragesWindowDays
	}
	if c.ForecastDays <= 0 {
		c.ForecastDays = DefaultForecastDays
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 8
	}
	if c.PatternsTTL <= 0 {
		c.PatternsTTL = time.Hour
	}
	if c.PostingTTL <= 0 {
		c.PostingTTL = 2 * time.Hour
	}
	return c
}

// Deps are the collaborators of the service. Campaigns and Metrics are
// required; a nil Cache disables caching and a nil Recorder drops
// measurements.
type Deps struct {
	Campaigns CampaignReader
	Metrics   MetricReader
	Content   ContentReader
	Cache     ReportCache
	Recorder  Recorder
	Now       func() time.Time
}

// Service runs the analytics core over repository data. All public methods
// are safe for concurrent use if the underlying readers are.
type Service struct {
	campaigns CampaignReader
	metrics   MetricReader
	content   ContentReader
	cache     ReportCache
	rec       Recorder
	now       func() time.Time
	cfg       Config
	analyzer  analytics.TrendAnalyzer
}

// NewService creates an insights service.
func NewService(d Deps, cfg Config) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		campaigns: d.Campaigns,
		metrics:   d.Metrics,
		content:   d.Content,
		cache:     d.Cache,
		rec:       d.Recorder,
		now:       d.Now,
		cfg:       cfg,
		analyzer:  analytics.TrendAnalyzer{StableEpsilon: cfg.StableEpsilon},
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	return s
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, time.Duration, error) {}
func (nopRecorder) ObserveCache(string, bool)                     {}

// observe times an operation. Use as: defer s.observe("op", time.Now(), &err).
func (s *Service) observe(op string, start time.Time, err *error) {
	d := time.Since(start)
	s.rec.ObserveOperation(op, d, *err)
	if *err != nil && !isClientError(*err) {
		logger.Error("insights operation failed", "op", op, "error", (*err).Error(), "duration_ms", d.Milliseconds())
		return
	}
	logger.Debug("insights operation", "op", op, "duration_ms", d.Milliseconds())
}

func isClientError(err error) bool {
	return errors.Is(err, ErrCampaignNotFound) || errors.Is(err, ErrInvalidHorizon) ||
		errors.Is(err, ErrUnknownDecision) || errors.Is(err, ErrReferenceNotFound)
}

// ListCampaigns returns a page of the organization's campaigns.
func (s *Service) ListCampaigns(ctx context.Context, orgID string, f ListFilter) ([]domain.Campaign, int, error) {
	return s.campaigns.ListCampaigns(ctx, orgID, f)
}

// Organizations lists the organizations that own at least one campaign.
func (s *Service) Organizations(ctx context.Context) ([]string, error) {
	return s.campaigns.Organizations(ctx)
}

// ForecastDays is the configured horizon for callers that name none.
func (s *Service) ForecastDays() int {
	return s.cfg.ForecastDays
}

// checkHorizon rejects horizons beyond MaxHorizonDays. Non-positive horizons
// pass through and project to an all-zero forecast.
func checkHorizon(days int) error {
	if days > MaxHorizonDays {
		return ErrInvalidHorizon
	}
	return nil
}

// window returns the series of a campaign for the last n days.
func (s *Service) window(ctx context.Context, campaignID string, n int) (domain.MetricSeries, error) {
	to := s.now()
	series, err := s.metrics.MetricSeries(ctx, campaignID, to.AddDate(0, 0, -n), to)
	if err != nil {
		return nil, fmt.Errorf("load metrics for %s: %w", campaignID, err)
	}
	return series, nil
}

// ForecastCampaign projects one campaign over the next days, using the
// configured lookback as history.
func (s *Service) ForecastCampaign(ctx context.Context, orgID, campaignID string, days int) (_ *analytics.CampaignForecast, err error) {
	defer s.observe("forecast_campaign", time.Now(), &err)

	if err = checkHorizon(days); err != nil {
		return nil, err
	}
	c, err := s.campaigns.GetCampaign(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	f, err := s.forecast(ctx, *c, days)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Service) forecast(ctx context.Context, c domain.Campaign, days int) (analytics.CampaignForecast, error) {
	history, err := s.window(ctx, c.ID, s.cfg.LookbackDays)
	if err != nil {
		return analytics.CampaignForecast{}, err
	}
	return s.analyzer.ForecastCampaign(c, history, days), nil
}

// ForecastOrganization forecasts every active or paused campaign and sums the
// results. Campaign forecasts run concurrently, bounded by MaxParallel, and
// keep the repository's campaign order. Any failed fetch fails the whole
// forecast.
func (s *Service) ForecastOrganization(ctx context.Context, orgID string, days int) (_ *analytics.OrganizationForecast, err error) {
	defer s.observe("forecast_organization", time.Now(), &err)

	if err = checkHorizon(days); err != nil {
		return nil, err
	}
	cs, err := s.campaigns.CampaignsByStatus(ctx, orgID, domain.ForecastableStatuses)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	forecasts := make([]analytics.CampaignForecast, len(cs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)
	for i := range cs {
		g.Go(func() error {
			f, err := s.forecast(gctx, cs[i], days)
			if err != nil {
				return err
			}
			forecasts[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := analytics.AggregateForecasts(orgID, days, forecasts)
	logger.Info("organization forecast", "org_id", orgID, "campaigns", len(cs), "days", days)
	return &out, nil
}

// AnalyzeCampaign scores a campaign over the configured window and its last
// seven days.
func (s *Service) AnalyzeCampaign(ctx context.Context, orgID, campaignID string) (_ *analytics.CampaignAnalysis, err error) {
	defer s.observe("analyze_campaign", time.Now(), &err)

	c, err := s.campaigns.GetCampaign(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	last30, err := s.window(ctx, c.ID, s.cfg.WindowDays)
	if err != nil {
		return nil, err
	}
	now := s.now()
	last7 := last30.Since(now.AddDate(0, 0, -7))

	a := analytics.AnalyzeCampaign(*c, last30, last7, now)
	return &a, nil
}

// averages computes window averages for each campaign concurrently. The
// result is index-aligned with cs.
func (s *Service) averages(ctx context.Context, cs []domain.Campaign) ([]analytics.CampaignAverages, error) {
	out := make([]analytics.CampaignAverages, len(cs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)
	for i := range cs {
		g.Go(func() error {
			series, err := s.window(gctx, cs[i].ID, s.cfg.WindowDays)
			if err != nil {
				return err
			}
			out[i] = analytics.ComputeCampaignAverages(series, cs[i].DailyBudgetOrZero())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecisionSupport evaluates a proposed change to a campaign against its
// recent averages and up to ten similar campaigns of the organization.
func (s *Service) DecisionSupport(ctx context.Context, orgID, campaignID string, req analytics.DecisionRequest) (_ *analytics.DecisionResult, err error) {
	defer s.observe("decision_support", time.Now(), &err)

	if !req.Type.Valid() {
		return nil, ErrUnknownDecision
	}
	c, err := s.campaigns.GetCampaign(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	similar, err := s.campaigns.SimilarCampaigns(ctx, *c, analytics.MaxSimilarCampaigns)
	if err != nil {
		return nil, fmt.Errorf("similar campaigns: %w", err)
	}

	all, err := s.averages(ctx, append([]domain.Campaign{*c}, similar...))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(similar))
	for i, sc := range similar {
		ids[i] = sc.ID
	}
	history := analytics.BuildHistoricalContext(ids, all[1:])

	res := analytics.SupportDecision(*c, all[0], history, req, s.now())
	logger.Info("decision support", "org_id", orgID, "campaign_id", campaignID,
		"type", string(req.Type), "recommendation", string(res.Recommendation))
	return &res, nil
}

func patternsKey(orgID string) string { return "insights:patterns:" + orgID }

func postingPrefix(orgID string) string { return "insights:posting:" + orgID + ":" }

func postingKey(orgID, platform string) string {
	if platform == "" {
		platform = "all"
	}
	return postingPrefix(orgID) + platform
}

// cached returns the value under key, or computes, stores and returns it.
// Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *Service, report, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if s.cache != nil {
		var v T
		hit, err := s.cache.Get(ctx, key, &v)
		if err != nil {
			logger.Warn("report cache read failed", "key", key, "error", err.Error())
		}
		s.rec.ObserveCache(report, hit)
		if hit {
			return v, nil
		}
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, ttl); err != nil {
			logger.Warn("report cache write failed", "key", key, "error", err.Error())
		}
	}
	return v, nil
}

// LearnOrganizationPatterns learns from the organization's active, paused
// and completed campaigns. Reports are served from cache when present.
func (s *Service) LearnOrganizationPatterns(ctx context.Context, orgID string) (_ *analytics.PatternReport, err error) {
	defer s.observe("learn_patterns", time.Now(), &err)

	r, err := cached(ctx, s, "patterns", patternsKey(orgID), s.cfg.PatternsTTL, func() (analytics.PatternReport, error) {
		return s.learn(ctx, orgID)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RefreshPatterns recomputes the pattern report, bypassing the cache read,
// and stores the fresh report.
func (s *Service) RefreshPatterns(ctx context.Context, orgID string) (_ *analytics.PatternReport, err error) {
	defer s.observe("refresh_patterns", time.Now(), &err)

	r, err := s.learn(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, patternsKey(orgID), r, s.cfg.PatternsTTL); err != nil {
			logger.Warn("report cache write failed", "org_id", orgID, "error", err.Error())
		}
	}
	return &r, nil
}

func (s *Service) learn(ctx context.Context, orgID string) (analytics.PatternReport, error) {
	cs, err := s.campaigns.CampaignsByStatus(ctx, orgID, domain.LearnableStatuses)
	if err != nil {
		return analytics.PatternReport{}, fmt.Errorf("list campaigns: %w", err)
	}
	avgs, err := s.averages(ctx, cs)
	if err != nil {
		return analytics.PatternReport{}, err
	}
	perf := make([]analytics.CampaignPerformance, len(cs))
	for i := range cs {
		perf[i] = analytics.CampaignPerformance{Campaign: cs[i], Metrics: avgs[i]}
	}
	logger.Info("learning organization patterns", "org_id", orgID, "campaigns", len(cs))
	return analytics.LearnPatterns(orgID, perf), nil
}

// InvalidateOrganization drops every cached report of the organization.
func (s *Service) InvalidateOrganization(ctx context.Context, orgID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, patternsKey(orgID)); err != nil {
		return fmt.Errorf("invalidate patterns: %w", err)
	}
	if err := s.cache.DeletePrefix(ctx, postingPrefix(orgID)); err != nil {
		return fmt.Errorf("invalidate posting times: %w", err)
	}
	return nil
}

// OptimalPostingTimes ranks weekday and hour slots by the engagement of the
// organization's published posts over the last 90 days.
func (s *Service) OptimalPostingTimes(ctx context.Context, orgID, platform string) (_ *analytics.PostingTimes, err error) {
	defer s.observe("posting_times", time.Now(), &err)

	pt, err := cached(ctx, s, "posting", postingKey(orgID, platform), s.cfg.PostingTTL, func() (analytics.PostingTimes, error) {
		since := s.now().AddDate(0, 0, -analytics.PostingLookbackDays)
		posts, err := s.content.PublishedPosts(ctx, orgID, platform, since)
		if err != nil {
			return analytics.PostingTimes{}, fmt.Errorf("load posts: %w", err)
		}
		return analytics.OptimalPostingTimes(posts, platform, since), nil
	})
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

// SimilarResult lists items similar to a reference item.
type SimilarResult struct {
	ReferenceType   domain.ReferenceType    `json:"reference_type"`
	ReferenceID     string                  `json:"reference_id"`
	Recommendations []analytics.SimilarItem `json:"recommendations"`
	Count           int                     `json:"count"`
}

// SimilarContent finds items of the same kind whose embeddings are close to
// the reference item.
func (s *Service) SimilarContent(ctx context.Context, orgID string, t domain.ReferenceType, id string, limit int) (_ *SimilarResult, err error) {
	defer s.observe("similar_content", time.Now(), &err)

	ref, err := s.content.Embedding(ctx, orgID, t, id)
	if err != nil {
		return nil, err
	}
	candidates, err := s.content.EmbeddedItems(ctx, orgID, t)
	if err != nil {
		return nil, fmt.Errorf("load %s embeddings: %w", t, err)
	}
	items := analytics.FindSimilar(*ref, candidates, limit)
	return &SimilarResult{ReferenceType: t, ReferenceID: id, Recommendations: items, Count: len(items)}, nil
}

// ContentResult lists published content suited to a campaign.
type ContentResult struct {
	CampaignID      string                            `json:"campaign_id"`
	Recommendations []analytics.ContentRecommendation `json:"recommendations"`
	Count           int                               `json:"count"`
}

// ContentForCampaign recommends published content whose embeddings match the
// campaign's.
func (s *Service) ContentForCampaign(ctx context.Context, orgID, campaignID string, limit int) (_ *ContentResult, err error) {
	defer s.observe("content_for_campaign", time.Now(), &err)

	if _, err := s.campaigns.GetCampaign(ctx, orgID, campaignID); err != nil {
		return nil, err
	}
	ref, err := s.content.Embedding(ctx, orgID, domain.ReferenceCampaign, campaignID)
	if err != nil {
		return nil, err
	}
	content, err := s.content.PublishedContent(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	recs := analytics.RecommendContent(*ref, content, limit)
	return &ContentResult{CampaignID: campaignID, Recommendations: recs, Count: len(recs)}, nil
}
