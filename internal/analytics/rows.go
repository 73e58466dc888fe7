package analytics

import "github.com/ignite/campaign-intelligence/internal/domain"

// RowCTR returns the stored click-through rate or clicks/impressions*100.
func RowCTR(r domain.MetricRecord) float64 {
	if r.CTR != nil {
		return *r.CTR
	}
	return round(percent(float64(r.Clicks), float64(r.Impressions)), 2)
}

// RowCPC returns the stored cost per click or spend/clicks.
func RowCPC(r domain.MetricRecord) float64 {
	if r.CPC != nil {
		return *r.CPC
	}
	return round(ratio(r.Spend, float64(r.Clicks)), 2)
}

// RowConversionRate returns the stored conversion rate or
// conversions/clicks*100.
func RowConversionRate(r domain.MetricRecord) float64 {
	if r.ConversionRate != nil {
		return *r.ConversionRate
	}
	return round(percent(float64(r.Conversions), float64(r.Clicks)), 2)
}

// RowROI returns the stored ROI or (revenue-spend)/spend*100.
func RowROI(r domain.MetricRecord) float64 {
	if r.ROI != nil {
		return *r.ROI
	}
	return round(percent(r.Revenue-r.Spend, r.Spend), 2)
}
