package analytics

import (
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// KPIStatus grades a KPI against its bands.
type KPIStatus string

const (
	KPIExcellent KPIStatus = "excellent"
	KPIGood      KPIStatus = "good"
	KPIFair      KPIStatus = "fair"
	KPIPoor      KPIStatus = "poor"
)

// KPI is a graded indicator with its industry benchmark.
type KPI struct {
	Value     float64   `json:"value"`
	Status    KPIStatus `json:"status"`
	Benchmark float64   `json:"benchmark"`
}

// KPIs are the four graded indicators of a campaign analysis.
type KPIs struct {
	CTR            KPI `json:"ctr"`
	CPC            KPI `json:"cpc"`
	ROI            KPI `json:"roi"`
	ConversionRate KPI `json:"conversion_rate"`
}

// kpiStatus grades v. When inverse is set lower is better and the bands are
// read as upper bounds.
func kpiStatus(v, poor, good, excellent float64, inverse bool) KPIStatus {
	if inverse {
		switch {
		case v <= excellent:
			return KPIExcellent
		case v <= good:
			return KPIGood
		case v <= poor:
			return KPIFair
		}
		return KPIPoor
	}
	switch {
	case v >= excellent:
		return KPIExcellent
	case v >= good:
		return KPIGood
	case v >= poor:
		return KPIFair
	}
	return KPIPoor
}

// noCPC grades a window without rows; it sits above every CPC band.
const noCPC = 999

// AnalyzeKPIs grades the 30-day window.
func AnalyzeKPIs(w WindowSummary) KPIs {
	cpc := w.AvgCPC
	if w.Empty() {
		cpc = noCPC
	}
	conv := w.ConversionRate()
	return KPIs{
		CTR:            KPI{Value: round(w.AvgCTR, 2), Status: kpiStatus(w.AvgCTR, 2, 3, 5, false), Benchmark: 3},
		CPC:            KPI{Value: round(w.AvgCPC, 2), Status: kpiStatus(cpc, 2, 1.5, 1, true), Benchmark: 1.5},
		ROI:            KPI{Value: round(w.AvgROI, 2), Status: kpiStatus(w.AvgROI, 150, 250, 400, false), Benchmark: 250},
		ConversionRate: KPI{Value: conv, Status: kpiStatus(conv, 1, 2, 3, false), Benchmark: 2},
	}
}

// BudgetStatus describes how much of a budget is consumed.
type BudgetStatus string

const (
	BudgetCritical      BudgetStatus = "critical"
	BudgetWarning       BudgetStatus = "warning"
	BudgetHealthy       BudgetStatus = "healthy"
	BudgetUnderutilized BudgetStatus = "underutilized"
)

func budgetStatus(usedPct float64) BudgetStatus {
	switch {
	case usedPct >= 90:
		return BudgetCritical
	case usedPct >= 75:
		return BudgetWarning
	case usedPct >= 50:
		return BudgetHealthy
	}
	return BudgetUnderutilized
}

// BudgetAnalysis compares 30-day spend against the campaign budget.
type BudgetAnalysis struct {
	TotalBudget       float64      `json:"total_budget"`
	DailyBudget       float64      `json:"daily_budget"`
	Spent             float64      `json:"spent"`
	Remaining         float64      `json:"remaining"`
	BudgetUsedPct     float64      `json:"budget_used_pct"`
	CostPerConversion float64      `json:"cost_per_conversion"`
	RecommendedBudget float64      `json:"recommended_budget"`
	BudgetStatus      BudgetStatus `json:"budget_status"`
}

// AnalyzeBudget reports spend against budget. A zero budget is treated as no
// budget and reads as 0% used.
func AnalyzeBudget(w WindowSummary, budget float64) BudgetAnalysis {
	used := percent(w.TotalSpend, budget)
	recommended := budget
	switch {
	case w.AvgROI > 250:
		recommended = budget * 1.2
	case w.AvgROI > 0 && w.AvgROI < 150:
		recommended = budget * 0.8
	}
	return BudgetAnalysis{
		TotalBudget:       budget,
		Spent:             round(w.TotalSpend, 2),
		Remaining:         round(budget-w.TotalSpend, 2),
		BudgetUsedPct:     round(used, 2),
		CostPerConversion: round(ratio(w.TotalSpend, float64(w.TotalConversions)), 2),
		RecommendedBudget: round(recommended, 2),
		BudgetStatus:      budgetStatus(used),
	}
}

// BidAnalysis suggests a bid adjustment and optimization goal.
type BidAnalysis struct {
	CurrentCPC               float64 `json:"current_cpc"`
	RecommendedBidAdjustment string  `json:"recommended_bid_adjustment"`
	BidStrategy              string  `json:"bid_strategy"`
	OptimizationGoal         string  `json:"optimization_goal"`
}

// AnalyzeBids reads the 30-day window for bid guidance.
func AnalyzeBids(w WindowSummary) BidAnalysis {
	var adjust string
	switch {
	case w.AvgROI > 300:
		adjust = "+20% (High ROI, increase bids to scale)"
	case w.AvgCPC > 2.5:
		adjust = "-15% (High CPC, decrease bids)"
	case w.AvgROI < 150:
		adjust = "-10% (Low ROI, reduce spend)"
	default:
		adjust = "0% (Maintain current bids)"
	}

	var goal string
	switch {
	case w.TotalConversions < 10:
		goal = "Maximize Clicks (build initial data)"
	case w.TotalConversions >= 50:
		goal = "Target ROAS (optimize for revenue)"
	default:
		goal = "Target CPA (optimize for conversions)"
	}

	return BidAnalysis{
		CurrentCPC:               round(w.AvgCPC, 2),
		RecommendedBidAdjustment: adjust,
		BidStrategy:              "automated",
		OptimizationGoal:         goal,
	}
}

// AudienceInsights summarizes reach and engagement.
type AudienceInsights struct {
	Reach           int64    `json:"reach"`
	EngagementRate  float64  `json:"engagement_rate"`
	Recommendations []string `json:"recommendations"`
}

// AnalyzeAudience reports 30-day reach and click engagement.
func AnalyzeAudience(w WindowSummary) AudienceInsights {
	return AudienceInsights{
		Reach:          w.TotalImpressions,
		EngagementRate: round(float64(w.TotalClicks)/max(float64(w.TotalImpressions), 1)*100, 2),
		Recommendations: []string{
			"Expand lookalike audiences",
			"Test age/gender segments",
			"Refine interest targeting",
		},
	}
}

// PeriodPrediction is a naive run-rate projection.
type PeriodPrediction struct {
	PredictedSpend       float64 `json:"predicted_spend"`
	PredictedConversions int64   `json:"predicted_conversions"`
	PredictedROI         float64 `json:"predicted_roi"`
	Confidence           Level   `json:"confidence"`
}

// PredictedPerformance holds the 7- and 30-day run-rate projections.
type PredictedPerformance struct {
	Next7Days  PeriodPrediction `json:"next_7_days"`
	Next30Days PeriodPrediction `json:"next_30_days"`
}

// PredictPerformance extends last week's daily run rate and carries the
// 30-day ROI forward.
func PredictPerformance(last30, last7 WindowSummary) PredictedPerformance {
	spend := last7.TotalSpend / 7
	conv := float64(last7.TotalConversions) / 7
	roi := round(last30.AvgROI, 2)
	return PredictedPerformance{
		Next7Days: PeriodPrediction{
			PredictedSpend:       round(spend*7, 2),
			PredictedConversions: roundInt(conv * 7),
			PredictedROI:         roi,
			Confidence:           Medium,
		},
		Next30Days: PeriodPrediction{
			PredictedSpend:       round(spend*30, 2),
			PredictedConversions: roundInt(conv * 30),
			PredictedROI:         roi,
			Confidence:           Low,
		},
	}
}

// CampaignAnalysis is the full optimization report of one campaign.
type CampaignAnalysis struct {
	CampaignID           string               `json:"campaign_id"`
	CampaignName         string               `json:"campaign_name"`
	AnalysisDate         time.Time            `json:"analysis_date"`
	PerformanceScore     int                  `json:"performance_score"`
	KPIs                 KPIs                 `json:"kpis"`
	Recommendations      []Recommendation     `json:"recommendations"`
	BudgetOptimization   BudgetAnalysis       `json:"budget_optimization"`
	BidOptimization      BidAnalysis          `json:"bid_optimization"`
	AudienceInsights     AudienceInsights     `json:"audience_insights"`
	PredictedPerformance PredictedPerformance `json:"predicted_performance"`
}

// AnalyzeCampaign builds the optimization report from the last 30 and last 7
// days of records. now only stamps the report.
func AnalyzeCampaign(c domain.Campaign, last30, last7 domain.MetricSeries, now time.Time) CampaignAnalysis {
	w30 := SummarizeWindow(last30)
	w7 := SummarizeWindow(last7)
	in := ScoreInputsFrom(w30, c.Budget)
	score := PerformanceScore(in)
	budget := AnalyzeBudget(w30, c.Budget)
	budget.DailyBudget = round(c.DailyBudgetOrSpread(), 2)

	return CampaignAnalysis{
		CampaignID:           c.ID,
		CampaignName:         c.Name,
		AnalysisDate:         now,
		PerformanceScore:     score,
		KPIs:                 AnalyzeKPIs(w30),
		Recommendations:      Recommend(in, score),
		BudgetOptimization:   budget,
		BidOptimization:      AnalyzeBids(w30),
		AudienceInsights:     AnalyzeAudience(w30),
		PredictedPerformance: PredictPerformance(w30, w7),
	}
}
