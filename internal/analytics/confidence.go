package analytics

import (
	"github.com/ignite/campaign-intelligence/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Level is a three-step qualitative rating used for confidence and priority.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// ConfidenceResult describes how far a forecast over a series can be trusted.
type ConfidenceResult struct {
	Percentage     int    `json:"percentage"`
	Level          Level  `json:"level"`
	DataPoints     int    `json:"data_points"`
	Recommendation string `json:"recommendation"`
}

// EstimateConfidence rates a series by its length and by the volatility of
// its spend column.
func EstimateConfidence(series domain.MetricSeries) ConfidenceResult {
	n := len(series)
	confidence := baseConfidence(n)

	if n > 0 {
		cv := SpendVariation(series)
		switch {
		case cv > 50:
			confidence *= 0.8
		case cv > 30:
			confidence *= 0.9
		}
	}

	return ConfidenceResult{
		Percentage:     int(roundInt(confidence)),
		Level:          confidenceLevel(confidence),
		DataPoints:     n,
		Recommendation: confidenceAdvice(confidence),
	}
}

func baseConfidence(n int) float64 {
	switch {
	case n >= 90:
		return 95
	case n >= 60:
		return 85
	case n >= 30:
		return 75
	case n >= 14:
		return 65
	case n >= 7:
		return 50
	}
	return 30
}

// SpendVariation is the coefficient of variation of daily spend in percent,
// using the sample standard deviation. A zero mean reads as 100.
func SpendVariation(series domain.MetricSeries) float64 {
	if len(series) == 0 {
		return 0
	}
	spend := MetricSpend.values(series)
	mean := stat.Mean(spend, nil)
	if mean == 0 {
		return 100
	}
	var sd float64
	if len(spend) >= 2 {
		sd = stat.StdDev(spend, nil)
	}
	return sd / mean * 100
}

func confidenceLevel(c float64) Level {
	switch {
	case c >= 80:
		return High
	case c >= 60:
		return Medium
	}
	return Low
}

func confidenceAdvice(c float64) string {
	switch {
	case c >= 80:
		return "High confidence - predictions are reliable for decision making"
	case c >= 60:
		return "Medium confidence - use predictions as guidance, monitor closely"
	}
	return "Low confidence - gather more data before making major decisions"
}
