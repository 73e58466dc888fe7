package analytics

import "github.com/ignite/campaign-intelligence/internal/domain"

// DailyAverages are the projected per-day values a forecast is built from.
type DailyAverages struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Forecast projects totals and ratios over a horizon of days.
type Forecast struct {
	TotalImpressions        int64         `json:"total_impressions"`
	TotalClicks             int64         `json:"total_clicks"`
	TotalSpend              float64       `json:"total_spend"`
	TotalConversions        int64         `json:"total_conversions"`
	TotalRevenue            float64       `json:"total_revenue"`
	PredictedCTR            float64       `json:"predicted_ctr"`
	PredictedCPC            float64       `json:"predicted_cpc"`
	PredictedConversionRate float64       `json:"predicted_conversion_rate"`
	PredictedROI            float64       `json:"predicted_roi"`
	DailyAverages           DailyAverages `json:"daily_averages"`
}

// Project extrapolates each count metric as its 7-day moving average scaled
// by (1 + slope/100), then multiplies by the horizon. An empty report or a
// non-positive horizon yields the zero Forecast.
func Project(report TrendReport, days int) Forecast {
	if report.DataPoints == 0 || days <= 0 {
		return Forecast{}
	}

	daily := func(m Metric) float64 {
		return report.MovingAverages[m].SevenDay * (1 + report.For(m).Slope/100)
	}
	impressions := daily(MetricImpressions)
	clicks := daily(MetricClicks)
	spend := daily(MetricSpend)
	conversions := daily(MetricConversions)
	revenue := daily(MetricRevenue)

	h := float64(days)
	totalImpressions := impressions * h
	totalClicks := clicks * h
	totalSpend := spend * h
	totalConversions := conversions * h
	totalRevenue := revenue * h

	return Forecast{
		TotalImpressions:        roundInt(totalImpressions),
		TotalClicks:             roundInt(totalClicks),
		TotalSpend:              round(totalSpend, 2),
		TotalConversions:        roundInt(totalConversions),
		TotalRevenue:            round(totalRevenue, 2),
		PredictedCTR:            round(percent(totalClicks, totalImpressions), 2),
		PredictedCPC:            round(ratio(totalSpend, totalClicks), 2),
		PredictedConversionRate: round(percent(totalConversions, totalClicks), 2),
		PredictedROI:            round(percent(totalRevenue-totalSpend, totalSpend), 2),
		DailyAverages: DailyAverages{
			Impressions: roundInt(impressions),
			Clicks:      roundInt(clicks),
			Spend:       round(spend, 2),
			Conversions: round(conversions, 1),
			Revenue:     round(revenue, 2),
		},
	}
}

// ForecastSeries analyzes the series and projects it over days.
func ForecastSeries(series domain.MetricSeries, days int) Forecast {
	return Project(AnalyzeTrends(series), days)
}
