package analytics

import (
	"fmt"
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// DecisionType names a campaign decision the engine can advise on.
type DecisionType string

const (
	DecisionBudgetAdjustment    DecisionType = "budget_adjustment"
	DecisionPauseOrContinue     DecisionType = "pause_or_continue"
	DecisionCreativeRefresh     DecisionType = "creative_refresh"
	DecisionTargetingAdjustment DecisionType = "targeting_adjustment"
	DecisionBidStrategy         DecisionType = "bid_strategy"
)

// Valid reports whether t is a supported decision type.
func (t DecisionType) Valid() bool {
	switch t {
	case DecisionBudgetAdjustment, DecisionPauseOrContinue, DecisionCreativeRefresh,
		DecisionTargetingAdjustment, DecisionBidStrategy:
		return true
	}
	return false
}

// Verdict is the discrete outcome of a decision. The vocabulary depends on
// the decision type.
type Verdict string

const (
	VerdictApprove                  Verdict = "APPROVE"
	VerdictApproveWithMonitoring    Verdict = "APPROVE_WITH_MONITORING"
	VerdictReject                   Verdict = "REJECT"
	VerdictConsider                 Verdict = "CONSIDER"
	VerdictContinue                 Verdict = "CONTINUE"
	VerdictContinueWithOptimization Verdict = "CONTINUE_WITH_OPTIMIZATION"
	VerdictPause                    Verdict = "PAUSE"
	VerdictRefreshCreative          Verdict = "REFRESH_CREATIVE"
	VerdictConsiderRefresh          Verdict = "CONSIDER_REFRESH"
	VerdictNoRefreshNeeded          Verdict = "NO_REFRESH_NEEDED"
	VerdictAdjustTargeting          Verdict = "ADJUST_TARGETING"
	VerdictMaintainTargeting        Verdict = "MAINTAIN_TARGETING"
)

// Bid strategies the engine recommends.
const (
	StrategyTargetCost      = "target_cost"
	StrategyManualCPC       = "manual_cpc"
	StrategyMaintainCurrent = "maintain_current"
)

// DecisionRequest carries the decision type and the caller's proposal.
type DecisionRequest struct {
	Type             DecisionType `json:"type"`
	ProposedBudget   *float64     `json:"proposed_budget,omitempty"`
	ProposedStrategy string       `json:"proposed_strategy,omitempty"`
}

// HistoricalContext summarizes up to ten sibling campaigns sharing the
// organization, platform and objective.
type HistoricalContext struct {
	SimilarCampaignsCount int      `json:"similar_campaigns_count"`
	SimilarCampaigns      []string `json:"similar_campaigns"`
	AvgSimilarROI         float64  `json:"avg_similar_roi"`
}

// MaxSimilarCampaigns bounds the sibling set of a HistoricalContext.
const MaxSimilarCampaigns = 10

// BuildHistoricalContext averages the ROI of the sibling campaigns.
func BuildHistoricalContext(ids []string, averages []CampaignAverages) HistoricalContext {
	h := HistoricalContext{SimilarCampaigns: append([]string{}, ids...)}
	var total float64
	for _, a := range averages {
		total += a.AvgROI
		h.SimilarCampaignsCount++
	}
	h.AvgSimilarROI = ratio(total, float64(h.SimilarCampaignsCount))
	return h
}

// BidAdvice is the strategy recommended for a bid_strategy decision.
type BidAdvice struct {
	RecommendedStrategy string  `json:"recommended_strategy"`
	Reason              string  `json:"reason"`
	Approval            Verdict `json:"approval"`
}

// DecisionResult is the engine's answer. Only the fields relevant to the
// decision type are set.
type DecisionResult struct {
	Decision       DecisionType `json:"decision,omitempty"`
	Recommendation Verdict      `json:"recommendation,omitempty"`
	Confidence     Level        `json:"confidence,omitempty"`
	Priority       Priority     `json:"priority,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Urgency        string       `json:"urgency,omitempty"`

	Analysis         []string `json:"analysis,omitempty"`
	Indicators       []string `json:"indicators,omitempty"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`

	CurrentBudget    *float64 `json:"current_budget,omitempty"`
	ProposedBudget   *float64 `json:"proposed_budget,omitempty"`
	ChangePercentage *float64 `json:"change_percentage,omitempty"`

	CurrentPerformance *CampaignAverages `json:"current_performance,omitempty"`
	PerformanceScore   *int              `json:"performance_score,omitempty"`

	CurrentCTR       *float64   `json:"current_ctr,omitempty"`
	CurrentCPC       *float64   `json:"current_cpc,omitempty"`
	CurrentStrategy  string     `json:"current_strategy,omitempty"`
	ProposedStrategy string     `json:"proposed_strategy,omitempty"`
	BidAdvice        *BidAdvice `json:"bid_recommendation,omitempty"`

	Error string `json:"error,omitempty"`
}

// SupportDecision advises on one decision for a campaign given its 30-day
// averages. History only adds context to the rationale. now is used for the
// campaign's age.
func SupportDecision(c domain.Campaign, m CampaignAverages, history HistoricalContext, req DecisionRequest, now time.Time) DecisionResult {
	switch req.Type {
	case DecisionBudgetAdjustment:
		return budgetDecision(c, m, history, req)
	case DecisionPauseOrContinue:
		return pauseDecision(m)
	case DecisionCreativeRefresh:
		return creativeDecision(c, m, now)
	case DecisionTargetingAdjustment:
		return targetingDecision(m)
	case DecisionBidStrategy:
		return bidDecision(c, m, req)
	}
	return DecisionResult{Error: "Unknown decision type"}
}

func budgetDecision(c domain.Campaign, m CampaignAverages, history HistoricalContext, req DecisionRequest) DecisionResult {
	current := c.DailyBudgetOrZero()
	proposed := current
	if req.ProposedBudget != nil {
		proposed = *req.ProposedBudget
	}
	change := round(percent(proposed-current, current), 2)

	d := DecisionResult{
		Decision:         DecisionBudgetAdjustment,
		CurrentBudget:    &current,
		ProposedBudget:   &proposed,
		ChangePercentage: &change,
	}
	switch {
	case m.AvgROI >= 100:
		d.Recommendation, d.Confidence = VerdictApprove, High
		d.Analysis = append(d.Analysis, "Campaign showing strong ROI - good candidate for budget increase")
	case m.AvgROI >= 50:
		d.Recommendation, d.Confidence = VerdictApproveWithMonitoring, Medium
		d.Analysis = append(d.Analysis, "Positive ROI - increase budget but monitor closely")
	default:
		d.Recommendation, d.Confidence = VerdictReject, High
		d.Analysis = append(d.Analysis, "Poor ROI - optimize campaign before increasing budget")
	}
	if len(history.SimilarCampaigns) > 0 {
		d.Analysis = append(d.Analysis, fmt.Sprintf(
			"Similar campaigns historically performed with %s%% ROI", formatNumber(round(history.AvgSimilarROI, 2))))
	}
	return d
}

// PauseScore rates a campaign for the pause_or_continue decision.
func PauseScore(m CampaignAverages) int {
	score := 0
	switch {
	case m.AvgROI >= 50:
		score += 3
	case m.AvgROI >= 0:
		score++
	default:
		score -= 2
	}
	switch {
	case m.AvgCTR >= 2:
		score += 2
	case m.AvgCTR >= 1:
		score++
	default:
		score--
	}
	switch {
	case m.AvgConversionRate >= 2:
		score += 2
	case m.AvgConversionRate >= 1:
		score++
	}
	return score
}

func pauseDecision(m CampaignAverages) DecisionResult {
	score := PauseScore(m)
	d := DecisionResult{
		Decision:           DecisionPauseOrContinue,
		CurrentPerformance: &m,
		PerformanceScore:   &score,
	}
	switch {
	case score >= 5:
		d.Recommendation, d.Confidence = VerdictContinue, High
		d.Reason = "Campaign performing well across key metrics"
	case score >= 2:
		d.Recommendation, d.Confidence = VerdictContinueWithOptimization, Medium
		d.Reason = "Moderate performance - optimize while running"
	default:
		d.Recommendation, d.Confidence = VerdictPause, High
		d.Reason = "Poor performance - pause and optimize before restarting"
	}
	return d
}

// creativeAgeDays is the age after which a creative is considered stale.
const creativeAgeDays = 60

func creativeDecision(c domain.Campaign, m CampaignAverages, now time.Time) DecisionResult {
	d := DecisionResult{Decision: DecisionCreativeRefresh, Indicators: []string{}}
	score := 0
	if m.AvgCTR < 1.5 {
		d.Indicators = append(d.Indicators, "Low CTR indicates creative may not be engaging")
		score += 3
	}
	if m.AvgCTR >= 1.5 && m.AvgConversionRate < 2 {
		d.Indicators = append(d.Indicators, "Clicks present but low conversions - creative may set wrong expectations")
		score += 2
	}
	if age := c.AgeDays(now); age > creativeAgeDays {
		d.Indicators = append(d.Indicators, fmt.Sprintf("Campaign running for %d days - creative refresh recommended", age))
		score += 2
	}

	switch {
	case score >= 4:
		d.Recommendation, d.Priority = VerdictRefreshCreative, High
		d.Urgency = "Immediate action recommended"
	case score >= 2:
		d.Recommendation, d.Priority = VerdictConsiderRefresh, Medium
		d.Urgency = "Plan refresh within 2 weeks"
	default:
		d.Recommendation, d.Priority = VerdictNoRefreshNeeded, Low
		d.Urgency = "Current creative performing adequately"
	}
	return d
}

func targetingDecision(m CampaignAverages) DecisionResult {
	ctr := m.AvgCTR
	d := DecisionResult{Decision: DecisionTargetingAdjustment, CurrentCTR: &ctr}
	if ctr < 2 {
		d.Recommendation = VerdictAdjustTargeting
		d.SuggestedActions = []string{
			"Narrow audience to more relevant segments",
			"Test different demographic parameters",
			"Analyze top performing segments and double down",
		}
		return d
	}
	d.Recommendation = VerdictMaintainTargeting
	d.SuggestedActions = []string{
		"Current targeting performing well",
		"Consider slight expansion to scale",
	}
	return d
}

// RecommendBidStrategy compares the strategy the metrics call for with the
// proposed one.
func RecommendBidStrategy(m CampaignAverages, proposed string) BidAdvice {
	switch {
	case m.AvgConversionRate >= 3:
		a := BidAdvice{StrategyTargetCost, "High conversion rate - optimize for conversions", VerdictConsider}
		if proposed == StrategyTargetCost {
			a.Approval = VerdictApprove
		}
		return a
	case m.AvgCTR < 1.5:
		a := BidAdvice{StrategyManualCPC, "Low CTR - manual control needed to optimize", VerdictReject}
		if proposed == StrategyManualCPC {
			a.Approval = VerdictApprove
		}
		return a
	}
	return BidAdvice{StrategyMaintainCurrent, "Current performance is stable", VerdictApprove}
}

func bidDecision(c domain.Campaign, m CampaignAverages, req DecisionRequest) DecisionResult {
	current := c.BidStrategy
	if current == "" {
		current = "unknown"
	}
	proposed := req.ProposedStrategy
	if proposed == "" {
		proposed = current
	}
	cpc := m.AvgCPC
	advice := RecommendBidStrategy(m, proposed)
	return DecisionResult{
		Decision:         DecisionBidStrategy,
		Recommendation:   advice.Approval,
		CurrentStrategy:  current,
		ProposedStrategy: proposed,
		CurrentCPC:       &cpc,
		BidAdvice:        &advice,
	}
}
