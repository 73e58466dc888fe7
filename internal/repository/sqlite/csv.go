package sqlite

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/campaign-intelligence/internal/domain"
)

// DateLayout is the calendar-day format used in CSV files and the store.
const DateLayout = "2006-01-02"

var requiredColumns = []string{"campaign_id", "date", "impressions", "clicks", "spend", "conversions", "revenue"}

// ParseCSV reads metric records from a CSV file with a header row. The
// columns ctr, cpc, conversion_rate and roi are optional; empty cells leave
// the field unset.
func ParseCSV(r io.Reader) (domain.MetricSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out domain.MetricSeries
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		m, err := parseRow(rec, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	return out, nil
}

type rowReader struct {
	rec []string
	col map[string]int
	err error
}

func (r *rowReader) cell(name string) string {
	i, ok := r.col[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r *rowReader) int(name string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(r.cell(name), 10, 64)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func (r *rowReader) float(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(r.cell(name), 64)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func (r *rowReader) optional(name string) *float64 {
	if r.err != nil || r.cell(name) == "" {
		return nil
	}
	v := r.float(name)
	return &v
}

func parseRow(rec []string, col map[string]int) (domain.MetricRecord, error) {
	r := &rowReader{rec: rec, col: col}
	date, err := time.Parse(DateLayout, r.cell("date"))
	if err != nil {
		return domain.MetricRecord{}, fmt.Errorf("date: %w", err)
	}
	m := domain.MetricRecord{
		CampaignID:     r.cell("campaign_id"),
		Date:           date,
		Impressions:    r.int("impressions"),
		Clicks:         r.int("clicks"),
		Spend:          r.float("spend"),
		Conversions:    r.int("conversions"),
		Revenue:        r.float("revenue"),
		CTR:            r.optional("ctr"),
		CPC:            r.optional("cpc"),
		ConversionRate: r.optional("conversion_rate"),
		ROI:            r.optional("roi"),
	}
	if m.CampaignID == "" {
		return m, errors.New("campaign_id is empty")
	}
	return m, r.err
}
