package analytics

import "fmt"

// OrganizationPredictions are forecast totals summed across campaigns.
type OrganizationPredictions struct {
	TotalSpend              float64 `json:"total_spend"`
	TotalConversions        int64   `json:"total_conversions"`
	TotalRevenue            float64 `json:"total_revenue"`
	TotalImpressions        int64   `json:"total_impressions"`
	TotalClicks             int64   `json:"total_clicks"`
	PredictedROI            float64 `json:"predicted_roi"`
	PredictedCTR            float64 `json:"predicted_ctr"`
	PredictedConversionRate float64 `json:"predicted_conversion_rate"`
}

// OrganizationRecommendation is a portfolio-level suggestion.
type OrganizationRecommendation struct {
	Type       string   `json:"type"`
	Priority   Priority `json:"priority"`
	Message    string   `json:"message"`
	Details    string   `json:"details,omitempty"`
	CurrentROI *float64 `json:"current_roi,omitempty"`
	TargetROI  float64  `json:"target_roi,omitempty"`
	Action     string   `json:"action,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
}

// OrganizationForecast combines the forecasts of an organization's running
// campaigns.
type OrganizationForecast struct {
	OrganizationID          string                       `json:"org_id"`
	ForecastPeriod          int                          `json:"forecast_period"`
	TotalCampaigns          int                          `json:"total_campaigns"`
	OrganizationPredictions OrganizationPredictions      `json:"organization_predictions"`
	CampaignForecasts       []CampaignForecast           `json:"campaign_forecasts"`
	Recommendations         []OrganizationRecommendation `json:"recommendations"`
}

// diversifiedPortfolio is the campaign count below which an organization is
// told to diversify.
const diversifiedPortfolio = 3

// AggregateForecasts sums per-campaign forecasts into an organization report.
func AggregateForecasts(orgID string, days int, forecasts []CampaignForecast) OrganizationForecast {
	var p OrganizationPredictions
	for _, f := range forecasts {
		p.TotalSpend += f.Predictions.TotalSpend
		p.TotalConversions += f.Predictions.TotalConversions
		p.TotalRevenue += f.Predictions.TotalRevenue
		p.TotalImpressions += f.Predictions.TotalImpressions
		p.TotalClicks += f.Predictions.TotalClicks
	}
	p.PredictedROI = round(percent(p.TotalRevenue-p.TotalSpend, p.TotalSpend), 2)
	p.PredictedCTR = round(percent(float64(p.TotalClicks), float64(p.TotalImpressions)), 2)
	p.PredictedConversionRate = round(percent(float64(p.TotalConversions), float64(p.TotalClicks)), 2)
	p.TotalSpend = round(p.TotalSpend, 2)
	p.TotalRevenue = round(p.TotalRevenue, 2)

	if forecasts == nil {
		forecasts = []CampaignForecast{}
	}
	return OrganizationForecast{
		OrganizationID:          orgID,
		ForecastPeriod:          days,
		TotalCampaigns:          len(forecasts),
		OrganizationPredictions: p,
		CampaignForecasts:       forecasts,
		Recommendations:         organizationAdvice(p, len(forecasts)),
	}
}

func organizationAdvice(p OrganizationPredictions, campaigns int) []OrganizationRecommendation {
	var recs []OrganizationRecommendation
	if campaigns < diversifiedPortfolio {
		recs = append(recs, OrganizationRecommendation{
			Type:     "diversification",
			Priority: Medium,
			Message:  "Consider diversifying campaign portfolio",
			Details:  fmt.Sprintf("Only %d active campaigns. Recommend testing new channels or audiences.", campaigns),
		})
	}
	if p.PredictedROI < 50 {
		roi := p.PredictedROI
		recs = append(recs, OrganizationRecommendation{
			Type:       "roi_optimization",
			Priority:   High,
			Message:    "Organization ROI below target",
			CurrentROI: &roi,
			TargetROI:  100,
			Action:     "Review underperforming campaigns and reallocate budget to top performers",
		})
	}
	return append(recs, OrganizationRecommendation{
		Type:     "budget_reallocation",
		Priority: Medium,
		Message:  "Optimize budget allocation across campaigns",
		Strategy: "Allocate more budget to campaigns with highest predicted ROI",
	})
}
