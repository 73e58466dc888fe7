package analytics

import "fmt"

// Priority ranks how urgently a recommendation should be acted on.
type Priority = Level

// Recommendation is one rule-based optimization hint.
type Recommendation struct {
	Type        string   `json:"type"`
	Priority    Priority `json:"priority"`
	Action      string   `json:"action"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions"`
}

// Recommend evaluates the optimization rules in a fixed order and returns
// every recommendation that fires. The order is creative, bidding,
// targeting, budget, scaling.
func Recommend(in ScoreInputs, score int) []Recommendation {
	recs := []Recommendation{}

	if in.AvgCTR < 2 {
		recs = append(recs, Recommendation{
			Type:     "creative",
			Priority: High,
			Action:   "Improve ad creative",
			Reason:   "CTR below benchmark (< 2.0%)",
			Suggestions: []string{
				"Test different ad headlines",
				"Use more engaging images/videos",
				"Add strong call-to-action",
				"Test different ad formats",
			},
		})
	}

	if in.AvgCPC > 2 {
		recs = append(recs, Recommendation{
			Type:     "bidding",
			Priority: High,
			Action:   "Optimize bidding strategy",
			Reason:   "CPC above benchmark (> $2.00)",
			Suggestions: []string{
				"Switch to automated bidding",
				"Refine audience targeting",
				"Exclude low-performing placements",
				"Test lower bid amounts",
			},
		})
	}

	if in.ConversionRate() < 1 {
		recs = append(recs, Recommendation{
			Type:     "targeting",
			Priority: High,
			Action:   "Improve targeting",
			Reason:   "Low conversion rate (< 1.0%)",
			Suggestions: []string{
				"Refine audience demographics",
				"Use lookalike audiences",
				"Exclude irrelevant interests",
				"Test different audience segments",
			},
		})
	}

	if used := in.BudgetUsed(); used < 0.5 {
		recs = append(recs, Recommendation{
			Type:     "budget",
			Priority: Medium,
			Action:   "Increase budget utilization",
			Reason:   fmt.Sprintf("Only %d%% of budget spent", roundInt(used*100)),
			Suggestions: []string{
				"Increase daily budget limits",
				"Expand audience size",
				"Add more ad placements",
				"Test additional ad formats",
			},
		})
	}

	if score >= 80 {
		recs = append(recs, Recommendation{
			Type:     "scaling",
			Priority: Medium,
			Action:   "Scale successful campaign",
			Reason:   fmt.Sprintf("Excellent performance (score: %d/100)", score),
			Suggestions: []string{
				"Increase budget by 20-30%",
				"Expand to similar audiences",
				"Test additional placements",
				"Create similar campaigns",
			},
		})
	}

	return recs
}
