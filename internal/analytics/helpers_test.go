package analytics_test

import (
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

var day0 = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

// flatSeries returns n identical daily records.
func flatSeries(n int, imps, clicks int64, spend float64, conv int64, revenue float64) domain.MetricSeries {
	s := make(domain.MetricSeries, n)
	for i := range s {
		s[i] = domain.MetricRecord{
			CampaignID:  "c1",
			Date:        day0.AddDate(0, 0, i),
			Impressions: imps,
			Clicks:      clicks,
			Spend:       spend,
			Conversions: conv,
			Revenue:     revenue,
		}
	}
	return s
}

// seriesOf builds a series whose impressions follow vals.
func seriesOf(vals ...int64) domain.MetricSeries {
	s := make(domain.MetricSeries, len(vals))
	for i, v := range vals {
		s[i] = domain.MetricRecord{CampaignID: "c1", Date: day0.AddDate(0, 0, i), Impressions: v}
	}
	return s
}
