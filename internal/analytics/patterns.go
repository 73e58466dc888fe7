package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// CampaignPerformance pairs a campaign with its 30-day averages. It is the
// unit pattern learning works on.
type CampaignPerformance struct {
	Campaign domain.Campaign  `json:"campaign"`
	Metrics  CampaignAverages `json:"metrics"`
}

// Rating grades an average ROI.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// RateROI grades an average ROI: 100 and up is excellent, 50 good, 0 fair.
func RateROI(roi float64) Rating {
	switch {
	case roi >= 100:
		return RatingExcellent
	case roi >= 50:
		return RatingGood
	case roi >= 0:
		return RatingFair
	}
	return RatingPoor
}

// PlatformPattern is the aggregate performance of one platform.
type PlatformPattern struct {
	Campaigns         int     `json:"campaigns"`
	AvgROI            float64 `json:"avg_roi"`
	AvgCTR            float64 `json:"avg_ctr"`
	PerformanceRating Rating  `json:"performance_rating"`
}

// GroupPattern is the aggregate ROI of an objective or budget band.
type GroupPattern struct {
	Campaigns int     `json:"campaigns"`
	AvgROI    float64 `json:"avg_roi"`
}

// TemporalPatterns is a placeholder until per-day history is retained.
type TemporalPatterns struct {
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// PerformancePatterns groups campaign results by dimension.
type PerformancePatterns struct {
	Message              string                     `json:"message,omitempty"`
	PlatformPerformance  map[string]PlatformPattern `json:"platform_performance"`
	ObjectivePerformance map[string]GroupPattern    `json:"objective_performance"`
	BudgetPerformance    map[string]GroupPattern    `json:"budget_performance"`
	TemporalPatterns     TemporalPatterns           `json:"temporal_patterns"`
}

type accumulator struct {
	count    int
	roi, ctr float64
}

func (a *accumulator) add(m CampaignAverages) {
	a.count++
	a.roi += m.AvgROI
	a.ctr += m.AvgCTR
}

func (a accumulator) avgROI() float64 { return ratio(a.roi, float64(a.count)) }
func (a accumulator) avgCTR() float64 { return ratio(a.ctr, float64(a.count)) }

// budgetBand places a daily budget in the low, medium or high band.
func budgetBand(daily float64) string {
	switch {
	case daily < 0:
		return ""
	case daily < 50:
		return "low"
	case daily < 200:
		return "medium"
	}
	return "high"
}

// IdentifyPerformancePatterns aggregates ROI and CTR by platform, objective
// and daily-budget band. Bands without campaigns are omitted.
func IdentifyPerformancePatterns(cs []CampaignPerformance) PerformancePatterns {
	platforms := map[string]*accumulator{}
	objectives := map[string]*accumulator{}
	bands := map[string]*accumulator{}
	get := func(m map[string]*accumulator, k string) *accumulator {
		if m[k] == nil {
			m[k] = &accumulator{}
		}
		return m[k]
	}
	for _, c := range cs {
		get(platforms, c.Campaign.PlatformOrUnknown()).add(c.Metrics)
		get(objectives, c.Campaign.ObjectiveOrUnknown()).add(c.Metrics)
		if band := budgetBand(c.Campaign.DailyBudgetOrZero()); band != "" {
			get(bands, band).add(c.Metrics)
		}
	}

	p := PerformancePatterns{
		PlatformPerformance:  make(map[string]PlatformPattern, len(platforms)),
		ObjectivePerformance: make(map[string]GroupPattern, len(objectives)),
		BudgetPerformance:    make(map[string]GroupPattern, len(bands)),
		TemporalPatterns: TemporalPatterns{
			Message:        "Temporal pattern analysis requires time-series data",
			Recommendation: "Collect more historical data for seasonal analysis",
		},
	}
	if len(cs) == 0 {
		p.Message = "Insufficient data for performance pattern analysis"
	}
	for k, a := range platforms {
		p.PlatformPerformance[k] = PlatformPattern{
			Campaigns:         a.count,
			AvgROI:            round(a.avgROI(), 2),
			AvgCTR:            round(a.avgCTR(), 2),
			PerformanceRating: RateROI(a.avgROI()),
		}
	}
	for k, a := range objectives {
		p.ObjectivePerformance[k] = GroupPattern{Campaigns: a.count, AvgROI: round(a.avgROI(), 2)}
	}
	for k, a := range bands {
		p.BudgetPerformance[k] = GroupPattern{Campaigns: a.count, AvgROI: round(a.avgROI(), 2)}
	}
	return p
}

// NameCount is a ranked frequency entry.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// rankByCount orders the counts by count descending, then name.
func rankByCount(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, NameCount{Name: k, Count: v})
	}
	slices.SortFunc(out, func(a, b NameCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// BudgetRange is a recommended daily-budget band.
type BudgetRange struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Optimal        float64 `json:"optimal"`
	Recommendation string  `json:"recommendation"`
}

// Benchmarks are the mean ratios of the top performers.
type Benchmarks struct {
	TargetCTR            float64 `json:"target_ctr"`
	TargetConversionRate float64 `json:"target_conversion_rate"`
	TargetROI            float64 `json:"target_roi"`
}

// BestPractices distills the top fifth of profitable campaigns.
type BestPractices struct {
	Message               string       `json:"message,omitempty"`
	TopPerformers         int          `json:"top_performers,omitempty"`
	BudgetRange           *BudgetRange `json:"budget_range,omitempty"`
	PreferredPlatforms    []NameCount  `json:"preferred_platforms,omitempty"`
	PreferredObjectives   []NameCount  `json:"preferred_objectives,omitempty"`
	PerformanceBenchmarks *Benchmarks  `json:"performance_benchmarks,omitempty"`
	KeyRecommendations    []string     `json:"key_recommendations,omitempty"`
}

// topShare is the fraction of profitable campaigns treated as top performers.
const topShare = 0.2

// TopPerformers returns the top ceil(20%) of campaigns with positive ROI,
// at least one, ordered by ROI descending and campaign id ascending.
func TopPerformers(cs []CampaignPerformance) []CampaignPerformance {
	var profitable []CampaignPerformance
	for _, c := range cs {
		if c.Metrics.AvgROI > 0 {
			profitable = append(profitable, c)
		}
	}
	if len(profitable) == 0 {
		return nil
	}
	slices.SortStableFunc(profitable, func(a, b CampaignPerformance) int {
		if c := cmp.Compare(b.Metrics.AvgROI, a.Metrics.AvgROI); c != 0 {
			return c
		}
		return cmp.Compare(a.Campaign.ID, b.Campaign.ID)
	})
	n := max(1, int(math.Ceil(float64(len(profitable))*topShare)))
	return profitable[:n]
}

// ExtractBestPractices summarizes the budgets, platforms, objectives and
// ratios of the top performers.
func ExtractBestPractices(cs []CampaignPerformance) BestPractices {
	top := TopPerformers(cs)
	if len(top) == 0 {
		return BestPractices{Message: "Insufficient data for best practices analysis"}
	}

	var budget, ctr, conv, roi float64
	platforms := map[string]int{}
	objectives := map[string]int{}
	for _, c := range top {
		budget += c.Campaign.DailyBudgetOrZero()
		platforms[c.Campaign.PlatformOrUnknown()]++
		objectives[c.Campaign.ObjectiveOrUnknown()]++
		ctr += c.Metrics.AvgCTR
		conv += c.Metrics.AvgConversionRate
		roi += c.Metrics.AvgROI
	}
	n := float64(len(top))
	mean := budget / n

	return BestPractices{
		TopPerformers: len(top),
		BudgetRange: &BudgetRange{
			Min:            round(mean*0.8, 2),
			Max:            round(mean*1.2, 2),
			Optimal:        round(mean, 2),
			Recommendation: "Based on top performing campaigns",
		},
		PreferredPlatforms:  rankByCount(platforms),
		PreferredObjectives: rankByCount(objectives),
		PerformanceBenchmarks: &Benchmarks{
			TargetCTR:            round(ctr/n, 2),
			TargetConversionRate: round(conv/n, 2),
			TargetROI:            round(roi/n, 2),
		},
		KeyRecommendations: []string{
			"Replicate successful campaign structures",
			"Maintain consistent budget allocation based on top performers",
			"Apply proven creative strategies from high-ROI campaigns",
			"Focus on platforms and objectives showing best results",
		},
	}
}

// Importance bands how common a factor is among a group.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

func importance(pct float64) Importance {
	switch {
	case pct >= 75:
		return ImportanceCritical
	case pct >= 50:
		return ImportanceHigh
	case pct >= 25:
		return ImportanceMedium
	}
	return ImportanceLow
}

// Factor reports how often a trait occurs, in percent of the group.
type Factor struct {
	Occurrence float64    `json:"occurrence"`
	Importance Importance `json:"importance"`
}

func factor(hits, total int) Factor {
	pct := percent(float64(hits), float64(total))
	return Factor{Occurrence: round(pct, 1), Importance: importance(pct)}
}

// SuccessFactors describes the traits shared by campaigns with ROI of 100%
// or more.
type SuccessFactors struct {
	Message    string            `json:"message,omitempty"`
	Count      int               `json:"count,omitempty"`
	Percentage float64           `json:"percentage,omitempty"`
	KeyFactors map[string]Factor `json:"key_factors,omitempty"`
}

// successROI is the ROI at which a campaign counts as successful.
const successROI = 100

// AnalyzeSuccessFactors measures four traits across successful campaigns.
func AnalyzeSuccessFactors(cs []CampaignPerformance) SuccessFactors {
	var discipline, consistent, targeting, creative, n int
	for _, c := range cs {
		m := c.Metrics
		if m.AvgROI < successROI {
			continue
		}
		n++
		if m.BudgetUtilization > 70 && m.BudgetUtilization < 95 {
			discipline++
		}
		if m.AvgCTR >= 2 {
			consistent++
		}
		if m.AvgCTR >= 3 {
			targeting++
		}
		if m.AvgConversionRate >= 3 {
			creative++
		}
	}
	if n == 0 {
		return SuccessFactors{Message: "No campaigns with ROI >= 100% found"}
	}
	return SuccessFactors{
		Count:      n,
		Percentage: round(percent(float64(n), float64(len(cs))), 1),
		KeyFactors: map[string]Factor{
			"budget_discipline":      factor(discipline, n),
			"consistent_performance": factor(consistent, n),
			"good_targeting":         factor(targeting, n),
			"creative_quality":       factor(creative, n),
		},
	}
}

// Failure reasons in declaration order; ranking ties keep this order.
var failureReasons = []string{"poor_targeting", "weak_creative", "high_cpc", "budget_issues"}

var mitigations = map[string]string{
	"poor_targeting": "Refine audience parameters, use lookalike audiences from converters",
	"weak_creative":  "A/B test new ad creative, improve messaging and visuals",
	"high_cpc":       "Optimize bid strategy, improve quality score, refine targeting",
	"budget_issues":  "Adjust daily budget to optimal range based on campaign objectives",
}

// ReasonCount is a failure reason with the number of campaigns showing it.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// FailurePatterns describes why underperforming campaigns fail.
type FailurePatterns struct {
	Message              string            `json:"message,omitempty"`
	Count                int               `json:"count,omitempty"`
	Percentage           float64           `json:"percentage,omitempty"`
	CommonReasons        []ReasonCount     `json:"common_reasons,omitempty"`
	MitigationStrategies map[string]string `json:"mitigation_strategies,omitempty"`
}

// Failed reports whether a campaign loses money or converts under 1%.
func (m CampaignAverages) Failed() bool {
	return m.AvgROI < 0 || m.AvgConversionRate < 1
}

// IdentifyFailurePatterns counts failure reasons over failed campaigns.
func IdentifyFailurePatterns(cs []CampaignPerformance) FailurePatterns {
	counts := map[string]int{}
	n := 0
	for _, c := range cs {
		m := c.Metrics
		if !m.Failed() {
			continue
		}
		n++
		if m.AvgCTR < 1 {
			counts["poor_targeting"]++
		}
		if m.AvgCTR >= 1 && m.AvgConversionRate < 1 {
			counts["weak_creative"]++
		}
		if m.AvgCPC > 2 {
			counts["high_cpc"]++
		}
		if m.BudgetUtilization < 30 || m.BudgetUtilization > 100 {
			counts["budget_issues"]++
		}
	}
	if n == 0 {
		return FailurePatterns{Message: "No underperforming campaigns found"}
	}

	reasons := make([]ReasonCount, len(failureReasons))
	strategies := map[string]string{}
	for i, r := range failureReasons {
		reasons[i] = ReasonCount{Reason: r, Count: counts[r]}
		if counts[r] > 0 {
			strategies[r] = mitigations[r]
		}
	}
	slices.SortStableFunc(reasons, func(a, b ReasonCount) int { return cmp.Compare(b.Count, a.Count) })

	return FailurePatterns{
		Count:                n,
		Percentage:           round(percent(float64(n), float64(len(cs))), 1),
		CommonReasons:        reasons,
		MitigationStrategies: strategies,
	}
}

// LearningRecommendation is a portfolio-wide suggestion.
type LearningRecommendation struct {
	Type           string   `json:"type"`
	Priority       Priority `json:"priority"`
	Recommendation string   `json:"recommendation"`
	Reason         string   `json:"reason"`
	Confidence     Level    `json:"confidence,omitempty"`
	ExpectedImpact string   `json:"expected_impact,omitempty"`
	ActionItems    []string `json:"action_items,omitempty"`
}

func sampleConfidence(n int) Level {
	switch {
	case n >= 10:
		return High
	case n >= 5:
		return Medium
	}
	return Low
}

// minPlatformSample is how many campaigns a platform needs before it can be
// recommended.
const minPlatformSample = 2

// LearningRecommendations derives portfolio suggestions from the campaign
// set. An empty set yields none.
func LearningRecommendations(cs []CampaignPerformance) []LearningRecommendation {
	recs := []LearningRecommendation{}
	if len(cs) == 0 {
		return recs
	}

	var order []string
	platforms := map[string]*accumulator{}
	var all accumulator
	for _, c := range cs {
		k := c.Campaign.PlatformOrUnknown()
		if platforms[k] == nil {
			platforms[k] = &accumulator{}
			order = append(order, k)
		}
		platforms[k].add(c.Metrics)
		all.add(c.Metrics)
	}

	best, bestROI := "", math.Inf(-1)
	for _, k := range order {
		a := platforms[k]
		if a.count >= minPlatformSample && a.avgROI() > bestROI {
			best, bestROI = k, a.avgROI()
		}
	}
	if best != "" {
		recs = append(recs, LearningRecommendation{
			Type:           "platform_focus",
			Priority:       High,
			Recommendation: "Focus more budget on " + best,
			Reason:         fmt.Sprintf("Highest average ROI: %s%%", formatNumber(round(bestROI, 2))),
			Confidence:     sampleConfidence(platforms[best].count),
		})
	}

	if roi := all.avgROI(); roi > 50 {
		recs = append(recs, LearningRecommendation{
			Type:           "scale_budget",
			Priority:       High,
			Recommendation: "Consider increasing overall marketing budget",
			Reason:         fmt.Sprintf("Strong positive ROI across campaigns (%s%%)", formatNumber(round(roi, 2))),
			ExpectedImpact: "Potential to scale revenue proportionally",
		})
	}

	if ctr := all.avgCTR(); ctr < 2 {
		recs = append(recs, LearningRecommendation{
			Type:           "improve_targeting",
			Priority:       High,
			Recommendation: "Refine audience targeting",
			Reason:         fmt.Sprintf("Below-average CTR (%s%%)", formatNumber(round(ctr, 2))),
			ActionItems: []string{
				"Analyze top performing audience segments",
				"Narrow targeting parameters",
				"Test new audience combinations",
			},
		})
	}
	return recs
}

// ROIDistribution buckets campaigns by ROI.
type ROIDistribution struct {
	Negative int `json:"negative"`
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
}

// Opportunity flags a campaign with room to grow.
type Opportunity struct {
	CampaignID string `json:"campaign_id"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

// PortfolioRisk flags a campaign that needs attention.
type PortfolioRisk struct {
	CampaignID string     `json:"campaign_id"`
	Type       string     `json:"type"`
	Severity   Importance `json:"severity"`
	Message    string     `json:"message"`
}

// Insight is one automated observation about the portfolio. Data holds a
// ROIDistribution, []Opportunity or []PortfolioRisk depending on Category.
type Insight struct {
	Category       string   `json:"category"`
	Insight        string   `json:"insight"`
	Data           any      `json:"data"`
	Interpretation string   `json:"interpretation,omitempty"`
	Actionable     bool     `json:"actionable,omitempty"`
	Priority       Priority `json:"priority,omitempty"`
}

// Insights is the automated-insight section of a pattern report.
type Insights struct {
	Message string    `json:"message,omitempty"`
	Items   []Insight `json:"items,omitempty"`
}

func interpretDistribution(d ROIDistribution, total int) string {
	high := percent(float64(d.High), float64(total))
	negative := percent(float64(d.Negative), float64(total))
	switch {
	case high >= 30:
		return fmt.Sprintf("Strong portfolio with %s%% high-performing campaigns", formatNumber(round(high, 1)))
	case negative >= 30:
		return fmt.Sprintf("Portfolio needs optimization - %s%% campaigns with negative ROI", formatNumber(round(negative, 1)))
	}
	return "Mixed portfolio with opportunities for improvement"
}

// GenerateInsights buckets ROI and flags opportunities and risks per
// campaign.
func GenerateInsights(cs []CampaignPerformance) Insights {
	if len(cs) == 0 {
		return Insights{Message: "No campaigns to analyze"}
	}

	var dist ROIDistribution
	var opps []Opportunity
	var risks []PortfolioRisk
	for _, c := range cs {
		m, id := c.Metrics, c.Campaign.ID
		switch {
		case m.AvgROI < 0:
			dist.Negative++
		case m.AvgROI < 50:
			dist.Low++
		case m.AvgROI < 100:
			dist.Medium++
		default:
			dist.High++
		}

		if m.AvgCTR >= 3 && m.AvgConversionRate < 2 {
			opps = append(opps, Opportunity{id, "landing_page_optimization", "High traffic but low conversions - optimize landing page"})
		}
		if m.AvgROI >= 100 && m.BudgetUtilization < 80 {
			opps = append(opps, Opportunity{id, "scale_budget", "Excellent ROI with room to increase budget"})
		}
		if m.AvgROI < -20 {
			risks = append(risks, PortfolioRisk{id, "high_loss", ImportanceCritical, "Campaign losing money - immediate action needed"})
		}
		if m.BudgetUtilization > 110 {
			risks = append(risks, PortfolioRisk{id, "budget_overrun", ImportanceHigh, "Campaign exceeding budget - review spend controls"})
		}
	}

	items := []Insight{{
		Category:       "performance_distribution",
		Insight:        "Campaign ROI Distribution",
		Data:           dist,
		Interpretation: interpretDistribution(dist, len(cs)),
	}}
	if len(opps) > 0 {
		items = append(items, Insight{
			Category:   "opportunities",
			Insight:    "Growth Opportunities Identified",
			Data:       opps,
			Actionable: true,
		})
	}
	if len(risks) > 0 {
		items = append(items, Insight{
			Category: "risks",
			Insight:  "Risk Alerts",
			Data:     risks,
			Priority: High,
		})
	}
	return Insights{Items: items}
}

// PatternReport is everything learned about an organization's campaigns.
type PatternReport struct {
	OrganizationID         string                   `json:"org_id"`
	TotalCampaignsAnalyzed int                      `json:"total_campaigns_analyzed"`
	PerformancePatterns    PerformancePatterns      `json:"performance_patterns"`
	BestPractices          BestPractices            `json:"best_practices"`
	SuccessFactors         SuccessFactors           `json:"success_factors"`
	FailurePatterns        FailurePatterns          `json:"failure_patterns"`
	Recommendations        []LearningRecommendation `json:"recommendations"`
	Insights               Insights                 `json:"insights"`
}

// LearnPatterns runs every pattern analysis over the same campaign set.
// The result depends only on its inputs.
func LearnPatterns(orgID string, cs []CampaignPerformance) PatternReport {
	return PatternReport{
		OrganizationID:         orgID,
		TotalCampaignsAnalyzed: len(cs),
		PerformancePatterns:    IdentifyPerformancePatterns(cs),
		BestPractices:          ExtractBestPractices(cs),
		SuccessFactors:         AnalyzeSuccessFactors(cs),
		FailurePatterns:        IdentifyFailurePatterns(cs),
		Recommendations:        LearningRecommendations(cs),
		Insights:               GenerateInsights(cs),
	}
}
