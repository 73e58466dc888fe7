package analytics

import "github.com/ignite/campaign-intelligence/internal/domain"

// AllocationStrategy splits spend between proven keywords, experiments and
// remarketing, in percent.
type AllocationStrategy struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Allocation  map[string]int `json:"allocation"`
}

func allocation(top, testing, remarketing int) map[string]int {
	return map[string]int{
		"top_performing_keywords": top,
		"testing_new_keywords":    testing,
		"remarketing":             remarketing,
	}
}

// RecommendAllocation picks a strategy from the ctr and conversions trends.
func RecommendAllocation(t TrendReport) AllocationStrategy {
	ctr, conv := t.CTR.Direction, t.Conversions.Direction
	switch {
	case ctr == Increasing && conv == Increasing:
		return AllocationStrategy{
			Name:        "Aggressive Growth",
			Description: "Both CTR and conversions are increasing",
			Allocation:  allocation(60, 25, 15),
		}
	case ctr == Decreasing || conv == Decreasing:
		return AllocationStrategy{
			Name:        "Conservative Optimization",
			Description: "Performance declining - focus on proven performers",
			Allocation:  allocation(75, 10, 15),
		}
	}
	return AllocationStrategy{
		Name:        "Balanced Growth",
		Description: "Stable performance - balanced approach",
		Allocation:  allocation(50, 30, 20),
	}
}

// BudgetRecommendation is a daily-budget change suggested by the trends. The
// final entry of a plan is always an allocation_strategy with only Strategy
// set.
type BudgetRecommendation struct {
	Type                   string              `json:"type"`
	Priority               Priority            `json:"priority,omitempty"`
	CurrentDailyBudget     *float64            `json:"current_daily_budget,omitempty"`
	RecommendedDailyBudget *float64            `json:"recommended_daily_budget,omitempty"`
	IncreasePercentage     int                 `json:"increase_percentage,omitempty"`
	DecreasePercentage     int                 `json:"decrease_percentage,omitempty"`
	Reason                 string              `json:"reason,omitempty"`
	ExpectedImpact         string              `json:"expected_impact,omitempty"`
	Alternative            string              `json:"alternative,omitempty"`
	Monitoring             string              `json:"monitoring,omitempty"`
	Strategy               *AllocationStrategy `json:"strategy,omitempty"`
}

func budgetChange(kind string, p Priority, current, factor float64) BudgetRecommendation {
	recommended := round(current*factor, 2)
	return BudgetRecommendation{
		Type:                   kind,
		Priority:               p,
		CurrentDailyBudget:     &current,
		RecommendedDailyBudget: &recommended,
	}
}

// RecommendBudget turns a trend report into daily-budget suggestions.
func RecommendBudget(c domain.Campaign, t TrendReport) []BudgetRecommendation {
	current := c.DailyBudgetOrZero()
	var recs []BudgetRecommendation

	if t.Revenue.Direction == Increasing && t.Revenue.Strength == Strong {
		r := budgetChange("increase_budget", High, current, 1.2)
		r.IncreasePercentage = 20
		r.Reason = "Strong positive revenue trend detected"
		r.ExpectedImpact = "Projected to increase conversions by 15-25%"
		recs = append(recs, r)
	}

	if t.Conversions.Direction == Decreasing {
		r := budgetChange("reduce_budget", Medium, current, 0.8)
		r.DecreasePercentage = 20
		r.Reason = "Declining conversion trend detected"
		r.Alternative = "Consider campaign optimization before reducing budget"
		recs = append(recs, r)
	}

	if t.Revenue.Direction == Stable && t.Spend.Direction == Stable {
		r := budgetChange("maintain_budget", Low, current, 1.05)
		r.IncreasePercentage = 5
		r.Reason = "Stable performance - small test increase recommended"
		r.Monitoring = "Monitor closely for 7-14 days"
		recs = append(recs, r)
	}

	strategy := RecommendAllocation(t)
	return append(recs, BudgetRecommendation{Type: "allocation_strategy", Strategy: &strategy})
}

// Risk is a trend-derived threat to campaign performance.
type Risk struct {
	Type        string `json:"type"`
	Severity    Level  `json:"severity"`
	Description string `json:"description"`
	Mitigation  string `json:"mitigation"`
}

// insufficientDataPoints is the series length under which forecasts are
// flagged as thin.
const insufficientDataPoints = 14

// AssessRisks lists the risks visible in the trends.
func AssessRisks(t TrendReport) []Risk {
	risks := []Risk{}

	if t.CTR.Direction == Decreasing {
		sev := Medium
		if t.CTR.Strength == Strong {
			sev = High
		}
		risks = append(risks, Risk{
			Type:        "declining_ctr",
			Severity:    sev,
			Description: "Click-through rate is declining",
			Mitigation:  "Refresh ad creative, test new headlines and images",
		})
	}

	if t.Spend.Direction == Increasing && t.Clicks.Direction != Increasing {
		risks = append(risks, Risk{
			Type:        "rising_costs",
			Severity:    Medium,
			Description: "Cost per click is increasing without proportional click growth",
			Mitigation:  "Review bid strategy, optimize targeting, pause underperforming keywords",
		})
	}

	if t.Conversions.Direction == Decreasing {
		risks = append(risks, Risk{
			Type:        "conversion_decline",
			Severity:    High,
			Description: "Conversion rate is declining",
			Mitigation:  "Review landing pages, check tracking, analyze user journey",
		})
	}

	if t.DataPoints < insufficientDataPoints {
		risks = append(risks, Risk{
			Type:        "insufficient_data",
			Severity:    Low,
			Description: "Limited historical data may affect prediction accuracy",
			Mitigation:  "Continue monitoring, predictions will improve with more data",
		})
	}

	return risks
}

// CampaignForecast is the predictive report of one campaign.
type CampaignForecast struct {
	CampaignID            string                 `json:"campaign_id"`
	ForecastPeriod        int                    `json:"forecast_period"`
	Predictions           Forecast               `json:"predictions"`
	ConfidenceLevel       ConfidenceResult       `json:"confidence_level"`
	Trends                TrendReport            `json:"trends"`
	BudgetRecommendations []BudgetRecommendation `json:"budget_recommendations"`
	RiskAssessment        []Risk                 `json:"risk_assessment"`
}

// ForecastCampaign runs the trend, confidence, forecast, budget and risk
// analyses over a campaign's history.
func (a TrendAnalyzer) ForecastCampaign(c domain.Campaign, history domain.MetricSeries, days int) CampaignForecast {
	trends := a.Report(history)
	return CampaignForecast{
		CampaignID:            c.ID,
		ForecastPeriod:        days,
		Predictions:           Project(trends, days),
		ConfidenceLevel:       EstimateConfidence(history),
		Trends:                trends,
		BudgetRecommendations: RecommendBudget(c, trends),
		RiskAssessment:        AssessRisks(trends),
	}
}
