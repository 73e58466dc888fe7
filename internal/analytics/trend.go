package analytics

import (
	"math"

	"github.com/ignite/campaign-intelligence/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Metric names a per-day measurement that trends and averages run over.
type Metric string

const (
	MetricImpressions    Metric = "impressions"
	MetricClicks         Metric = "clicks"
	MetricSpend          Metric = "spend"
	MetricConversions    Metric = "conversions"
	MetricRevenue        Metric = "revenue"
	MetricCTR            Metric = "ctr"
	MetricCPC            Metric = "cpc"
	MetricConversionRate Metric = "conversion_rate"
)

// trendMetrics are the metrics a TrendReport carries a regression for.
var trendMetrics = []Metric{
	MetricImpressions, MetricClicks, MetricSpend, MetricConversions,
	MetricRevenue, MetricCTR, MetricConversionRate,
}

// averagedMetrics are the metrics a TrendReport carries moving averages for.
var averagedMetrics = []Metric{
	MetricImpressions, MetricClicks, MetricSpend, MetricConversions,
	MetricRevenue, MetricCTR,
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricImpressions, MetricClicks, MetricSpend, MetricConversions,
		MetricRevenue, MetricCTR, MetricCPC, MetricConversionRate:
		return true
	}
	return false
}

func (m Metric) value(r domain.MetricRecord) float64 {
	switch m {
	case MetricImpressions:
		return float64(r.Impressions)
	case MetricClicks:
		return float64(r.Clicks)
	case MetricSpend:
		return r.Spend
	case MetricConversions:
		return float64(r.Conversions)
	case MetricRevenue:
		return r.Revenue
	case MetricCTR:
		return RowCTR(r)
	case MetricCPC:
		return RowCPC(r)
	case MetricConversionRate:
		return RowConversionRate(r)
	}
	return 0
}

func (m Metric) values(series domain.MetricSeries) []float64 {
	out := make([]float64, len(series))
	for i, r := range series {
		out[i] = m.value(r)
	}
	return out
}

// Direction classifies the sign of a regression slope.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Strength classifies the magnitude of a trend relative to its mean.
type Strength string

const (
	Weak     Strength = "weak"
	Moderate Strength = "moderate"
	Strong   Strength = "strong"
)

// TrendResult is the regression summary of one metric.
type TrendResult struct {
	Slope            float64   `json:"slope"`
	Direction        Direction `json:"direction"`
	Strength         Strength  `json:"strength"`
	PercentageChange float64   `json:"percentage_change"`
	AverageValue     float64   `json:"average_value"`
	Error            string    `json:"error,omitempty"`
}

// flatTrend is returned for series too short to regress.
var flatTrend = TrendResult{Direction: Stable, Strength: Weak}

// MovingAverage holds the 7- and 30-record simple moving averages.
type MovingAverage struct {
	SevenDay  float64 `json:"7_day"`
	ThirtyDay float64 `json:"30_day"`
}

// TrendReport bundles the per-metric trends and moving averages of a series.
type TrendReport struct {
	Impressions    TrendResult              `json:"impressions"`
	Clicks         TrendResult              `json:"clicks"`
	Spend          TrendResult              `json:"spend"`
	Conversions    TrendResult              `json:"conversions"`
	Revenue        TrendResult              `json:"revenue"`
	CTR            TrendResult              `json:"ctr"`
	ConversionRate TrendResult              `json:"conversion_rate"`
	DataPoints     int                      `json:"data_points"`
	MovingAverages map[Metric]MovingAverage `json:"moving_averages"`
}

// For returns the trend of m, or a flat trend for metrics the report does
// not carry.
func (r TrendReport) For(m Metric) TrendResult {
	switch m {
	case MetricImpressions:
		return r.Impressions
	case MetricClicks:
		return r.Clicks
	case MetricSpend:
		return r.Spend
	case MetricConversions:
		return r.Conversions
	case MetricRevenue:
		return r.Revenue
	case MetricCTR:
		return r.CTR
	case MetricConversionRate:
		return r.ConversionRate
	}
	return flatTrend
}

func (r *TrendReport) set(m Metric, t TrendResult) {
	switch m {
	case MetricImpressions:
		r.Impressions = t
	case MetricClicks:
		r.Clicks = t
	case MetricSpend:
		r.Spend = t
	case MetricConversions:
		r.Conversions = t
	case MetricRevenue:
		r.Revenue = t
	case MetricCTR:
		r.CTR = t
	case MetricConversionRate:
		r.ConversionRate = t
	}
}

// TrendAnalyzer computes trends over metric series.
//
// A slope is "stable" only when it is exactly zero. Setting StableEpsilon
// widens that to |slope| < StableEpsilon.
type TrendAnalyzer struct {
	StableEpsilon float64
}

// Trend regresses metric m against the 0-based record index.
func (a TrendAnalyzer) Trend(series domain.MetricSeries, m Metric) TrendResult {
	if !m.Valid() {
		t := flatTrend
		t.Error = "Unknown metric"
		return t
	}
	n := len(series)
	if n < 2 {
		return flatTrend
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := m.values(series)

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		slope = 0
	}
	avg := stat.Mean(ys, nil)
	change := percent(slope, avg)

	return TrendResult{
		Slope:            round(slope, 4),
		Direction:        a.direction(slope),
		Strength:         strength(change),
		PercentageChange: round(change, 2),
		AverageValue:     round(avg, 2),
	}
}

func (a TrendAnalyzer) direction(slope float64) Direction {
	if a.StableEpsilon > 0 && math.Abs(slope) < a.StableEpsilon {
		return Stable
	}
	switch {
	case slope > 0:
		return Increasing
	case slope < 0:
		return Decreasing
	}
	return Stable
}

func strength(change float64) Strength {
	abs := math.Abs(change)
	switch {
	case abs > 10:
		return Strong
	case abs > 5:
		return Moderate
	}
	return Weak
}

// Report computes every trend and moving average for the series.
func (a TrendAnalyzer) Report(series domain.MetricSeries) TrendReport {
	r := TrendReport{
		DataPoints:     len(series),
		MovingAverages: make(map[Metric]MovingAverage, len(averagedMetrics)),
	}
	for _, m := range trendMetrics {
		r.set(m, a.Trend(series, m))
	}
	for _, m := range averagedMetrics {
		r.MovingAverages[m] = MovingAverage{
			SevenDay:  SMA(series, m, 7),
			ThirtyDay: SMA(series, m, 30),
		}
	}
	return r
}

// AnalyzeTrends runs the default analyzer over the series.
func AnalyzeTrends(series domain.MetricSeries) TrendReport {
	return TrendAnalyzer{}.Report(series)
}

// SMA is the mean of the most recent min(period, len(series)) values of m,
// rounded to 2 decimals.
func SMA(series domain.MetricSeries, m Metric, period int) float64 {
	if period > len(series) {
		period = len(series)
	}
	if period <= 0 {
		return 0
	}
	return round(stat.Mean(m.values(series[len(series)-period:]), nil), 2)
}
