package analytics

// ScoreInputs are the 30-day aggregates a performance score is built from.
type ScoreInputs struct {
	AvgCTR           float64 `json:"avg_ctr"`
	AvgCPC           float64 `json:"avg_cpc"`
	AvgROI           float64 `json:"avg_roi"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	TotalSpend       float64 `json:"total_spend"`
	Budget           float64 `json:"budget"`
}

// ScoreInputsFrom adapts a window summary and a campaign budget.
func ScoreInputsFrom(w WindowSummary, budget float64) ScoreInputs {
	return ScoreInputs{
		AvgCTR:           w.AvgCTR,
		AvgCPC:           w.AvgCPC,
		AvgROI:           w.AvgROI,
		TotalClicks:      w.TotalClicks,
		TotalConversions: w.TotalConversions,
		TotalSpend:       w.TotalSpend,
		Budget:           budget,
	}
}

// ConversionRate is total conversions over total clicks, in percent.
func (in ScoreInputs) ConversionRate() float64 {
	return round(percent(float64(in.TotalConversions), float64(in.TotalClicks)), 2)
}

// BudgetUsed is spend as a fraction of budget, with the budget floored at 1.
func (in ScoreInputs) BudgetUsed() float64 {
	return in.TotalSpend / max(in.Budget, 1)
}

// Efficiency is conversions per 100 units of spend, with spend floored at 1.
func (in ScoreInputs) Efficiency() float64 {
	return float64(in.TotalConversions) / max(in.TotalSpend, 1) * 100
}

// band returns the bonus of the first threshold v reaches. thresholds are in
// descending order and pair with bonuses 25, 20, 15, 10.
func band(v float64, thresholds [4]float64) int {
	bonuses := [4]int{25, 20, 15, 10}
	for i, t := range thresholds {
		if v >= t {
			return bonuses[i]
		}
	}
	return 0
}

// PerformanceScore is a 0-100 composite: 50 plus up to 25 each for CTR, ROI,
// conversion volume and budget efficiency.
func PerformanceScore(in ScoreInputs) int {
	score := 50
	score += band(in.AvgCTR, [4]float64{5, 3, 2, 1})
	score += band(in.AvgROI, [4]float64{400, 300, 200, 100})
	score += band(float64(in.TotalConversions), [4]float64{100, 50, 20, 5})
	score += band(in.Efficiency(), [4]float64{5, 3, 1, 0.5})
	return min(100, max(0, score))
}
