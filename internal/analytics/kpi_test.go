package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/domain"
)

var analysisTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestAnalyzeCampaign_NoHistory(t *testing.T) {
	c := domain.Campaign{ID: "c1", Name: "Launch"}
	got := analytics.AnalyzeCampaign(c, nil, nil, analysisTime)

	assert.Equal(t, 50, got.PerformanceScore)
	assert.Equal(t, analytics.KPIPoor, got.KPIs.CTR.Status)
	assert.Equal(t, analytics.KPIPoor, got.KPIs.CPC.Status)
	assert.Equal(t, 0.0, got.KPIs.CPC.Value)
	assert.Equal(t, analytics.KPIPoor, got.KPIs.ROI.Status)

	var types []string
	for _, r := range got.Recommendations {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{"creative", "targeting", "budget"}, types)

	assert.Equal(t, 0.0, got.BudgetOptimization.BudgetUsedPct)
	assert.Equal(t, analytics.BudgetUnderutilized, got.BudgetOptimization.BudgetStatus)
	assert.Equal(t, "Maximize Clicks (build initial data)", got.BidOptimization.OptimizationGoal)
	assert.Equal(t, "-10% (Low ROI, reduce spend)", got.BidOptimization.RecommendedBidAdjustment)
	assert.Equal(t, int64(0), got.PredictedPerformance.Next30Days.PredictedConversions)
}

func TestAnalyzeCampaign_StrongCampaign(t *testing.T) {
	c := domain.Campaign{ID: "c1", Name: "Evergreen", Budget: 10000}
	last30 := flatSeries(30, 1000, 30, 30, 2, 150)
	last7 := last30[23:]

	got := analytics.AnalyzeCampaign(c, last30, last7, analysisTime)

	assert.Equal(t, 100, got.PerformanceScore)
	assert.Equal(t, analytics.KPI{Value: 3, Status: analytics.KPIGood, Benchmark: 3}, got.KPIs.CTR)
	assert.Equal(t, analytics.KPI{Value: 1, Status: analytics.KPIExcellent, Benchmark: 1.5}, got.KPIs.CPC)
	assert.Equal(t, analytics.KPI{Value: 400, Status: analytics.KPIExcellent, Benchmark: 250}, got.KPIs.ROI)
	assert.Equal(t, 6.67, got.KPIs.ConversionRate.Value)

	require.Len(t, got.Recommendations, 2)
	assert.Equal(t, "Only 9% of budget spent", got.Recommendations[0].Reason)
	assert.Equal(t, "Excellent performance (score: 100/100)", got.Recommendations[1].Reason)

	b := got.BudgetOptimization
	assert.Equal(t, 900.0, b.Spent)
	assert.Equal(t, 9100.0, b.Remaining)
	assert.Equal(t, 9.0, b.BudgetUsedPct)
	assert.Equal(t, 15.0, b.CostPerConversion)
	assert.Equal(t, 12000.0, b.RecommendedBudget)

	assert.Equal(t, "+20% (High ROI, increase bids to scale)", got.BidOptimization.RecommendedBidAdjustment)
	assert.Equal(t, "Target ROAS (optimize for revenue)", got.BidOptimization.OptimizationGoal)
	assert.Equal(t, "automated", got.BidOptimization.BidStrategy)

	assert.Equal(t, int64(30000), got.AudienceInsights.Reach)
	assert.Equal(t, 3.0, got.AudienceInsights.EngagementRate)

	p := got.PredictedPerformance
	assert.Equal(t, analytics.PeriodPrediction{PredictedSpend: 210, PredictedConversions: 14, PredictedROI: 400, Confidence: analytics.Medium}, p.Next7Days)
	assert.Equal(t, analytics.PeriodPrediction{PredictedSpend: 900, PredictedConversions: 60, PredictedROI: 400, Confidence: analytics.Low}, p.Next30Days)
	assert.Equal(t, analysisTime, got.AnalysisDate)
}

func TestAnalyzeCampaign_DailyBudget(t *testing.T) {
	tests := []struct {
		name string
		c    domain.Campaign
		want float64
	}{
		{"configured", domain.Campaign{Budget: 3000, DailyBudget: f64(60)}, 60},
		{"spread over 30 days", domain.Campaign{Budget: 1000}, 33.33},
		{"no budget", domain.Campaign{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analytics.AnalyzeCampaign(tt.c, nil, nil, analysisTime)
			assert.Equal(t, tt.want, got.BudgetOptimization.DailyBudget)
		})
	}
}

func TestAnalyzeBudget_Status(t *testing.T) {
	tests := []struct {
		spend float64
		roi   float64
		want  analytics.BudgetStatus
		rec   float64
	}{
		{950, 300, analytics.BudgetCritical, 1200},
		{800, 200, analytics.BudgetWarning, 1000},
		{500, 100, analytics.BudgetHealthy, 800},
		{100, -20, analytics.BudgetUnderutilized, 1000},
	}
	for _, tt := range tests {
		got := analytics.AnalyzeBudget(analytics.WindowSummary{Days: 30, TotalSpend: tt.spend, AvgROI: tt.roi}, 1000)
		assert.Equal(t, tt.want, got.BudgetStatus)
		assert.Equal(t, tt.rec, got.RecommendedBudget)
	}
}

func TestAnalyzeBids_HighCPC(t *testing.T) {
	got := analytics.AnalyzeBids(analytics.WindowSummary{Days: 30, AvgCPC: 3, AvgROI: 200, TotalConversions: 25})
	assert.Equal(t, "-15% (High CPC, decrease bids)", got.RecommendedBidAdjustment)
	assert.Equal(t, "Target CPA (optimize for conversions)", got.OptimizationGoal)

	got = analytics.AnalyzeBids(analytics.WindowSummary{Days: 30, AvgCPC: 1, AvgROI: 200})
	assert.Equal(t, "0% (Maintain current bids)", got.RecommendedBidAdjustment)
}

func TestComputeCampaignAverages(t *testing.T) {
	got := analytics.ComputeCampaignAverages(flatSeries(30, 1000, 20, 10, 1, 25), 20)
	assert.Equal(t, analytics.CampaignAverages{
		AvgCTR:            2,
		AvgCPC:            0.5,
		AvgConversionRate: 5,
		AvgROI:            150,
		BudgetUtilization: 50,
		TotalConversions:  30,
	}, got)

	assert.Equal(t, analytics.CampaignAverages{}, analytics.ComputeCampaignAverages(nil, 20))
	assert.Equal(t, 0.0, analytics.ComputeCampaignAverages(flatSeries(3, 10, 1, 5, 0, 0), 0).BudgetUtilization)
}
