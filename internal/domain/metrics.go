package domain

import "time"

// MetricRecord is one calendar day of measurements for a campaign. The
// ratio fields are optional; when nil the analytics core derives them from
// the raw counts.
type MetricRecord struct {
	CampaignID     string    `json:"campaign_id" db:"campaign_id"`
	Date           time.Time `json:"date" db:"date"`
	Impressions    int64     `json:"impressions" db:"impressions"`
	Clicks         int64     `json:"clicks" db:"clicks"`
	Spend          float64   `json:"spend" db:"spend"`
	Conversions    int64     `json:"conversions" db:"conversions"`
	Revenue        float64   `json:"revenue" db:"revenue"`
	CTR            *float64  `json:"ctr,omitempty" db:"ctr"`
	CPC            *float64  `json:"cpc,omitempty" db:"cpc"`
	ConversionRate *float64  `json:"conversion_rate,omitempty" db:"conversion_rate"`
	ROI            *float64  `json:"roi,omitempty" db:"roi"`
}

// MetricSeries is a date-ordered run of records for a single campaign.
// Gaps are allowed; missing days are absent, not zero.
type MetricSeries []MetricRecord

// Sorted reports whether the records are in ascending date order.
func (s MetricSeries) Sorted() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Date.Before(s[i-1].Date) {
			return false
		}
	}
	return true
}

// Since returns the suffix of the series dated on or after t.
func (s MetricSeries) Since(t time.Time) MetricSeries {
	for i, r := range s {
		if !r.Date.Before(t) {
			return s[i:]
		}
	}
	return nil
}
