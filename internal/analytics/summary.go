package analytics

import "github.com/ignite/campaign-intelligence/internal/domain"

// WindowSummary aggregates a window of daily records. Averages are taken over
// the per-row ratios, so a day with few impressions weighs as much as a busy
// one.
type WindowSummary struct {
	Days             int     `json:"days"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalSpend       float64 `json:"total_spend"`
	TotalConversions int64   `json:"total_conversions"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgCTR           float64 `json:"avg_ctr"`
	AvgCPC           float64 `json:"avg_cpc"`
	AvgROI           float64 `json:"avg_roi"`
}

// Empty reports whether the window held no records.
func (w WindowSummary) Empty() bool { return w.Days == 0 }

// ConversionRate is conversions over clicks for the window, in percent,
// rounded to 2 decimals.
func (w WindowSummary) ConversionRate() float64 {
	return round(percent(float64(w.TotalConversions), float64(w.TotalClicks)), 2)
}

// SummarizeWindow totals the records and averages their per-row ratios.
func SummarizeWindow(records domain.MetricSeries) WindowSummary {
	w := WindowSummary{Days: len(records)}
	if w.Days == 0 {
		return w
	}
	var ctr, cpc, roi float64
	for _, r := range records {
		w.TotalImpressions += r.Impressions
		w.TotalClicks += r.Clicks
		w.TotalSpend += r.Spend
		w.TotalConversions += r.Conversions
		w.TotalRevenue += r.Revenue
		ctr += RowCTR(r)
		cpc += RowCPC(r)
		roi += RowROI(r)
	}
	n := float64(w.Days)
	w.AvgCTR = ctr / n
	w.AvgCPC = cpc / n
	w.AvgROI = roi / n
	return w
}

// CampaignAverages is the per-campaign aggregate that decision support and
// pattern learning work from.
type CampaignAverages struct {
	AvgCTR            float64 `json:"avg_ctr"`
	AvgCPC            float64 `json:"avg_cpc"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	AvgROI            float64 `json:"avg_roi"`
	BudgetUtilization float64 `json:"budget_utilization"`
	TotalConversions  int64   `json:"total_conversions"`
}

// AveragesWindowDays is the number of days CampaignAverages spreads spend
// over when computing budget utilization.
const AveragesWindowDays = 30

// ComputeCampaignAverages derives CampaignAverages from a 30-day window.
// ROI here is computed from totals, unlike WindowSummary.AvgROI. A campaign
// without a daily budget has zero utilization.
func ComputeCampaignAverages(records domain.MetricSeries, dailyBudget float64) CampaignAverages {
	var a CampaignAverages
	if len(records) == 0 {
		return a
	}
	var ctr, cpc, conv, spend, revenue float64
	for _, r := range records {
		ctr += RowCTR(r)
		cpc += RowCPC(r)
		conv += RowConversionRate(r)
		spend += r.Spend
		revenue += r.Revenue
		a.TotalConversions += r.Conversions
	}
	n := float64(len(records))
	a.AvgCTR = round(ctr/n, 2)
	a.AvgCPC = round(cpc/n, 2)
	a.AvgConversionRate = round(conv/n, 2)
	a.AvgROI = round(percent(revenue-spend, spend), 2)
	if dailyBudget > 0 {
		a.BudgetUtilization = round(spend/AveragesWindowDays/dailyBudget*100, 2)
	}
	return a
}
