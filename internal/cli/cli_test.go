package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCSV writes 30 days for c1 with impressions rising 1000 to 2000 and
// flat 2% CTR, $50 spend and revenue three times spend, plus one c2 row.
func writeCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("campaign_id,date,impressions,clicks,spend,conversions,revenue\n")
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := range 30 {
		imps := 1000 + i*1000/29
		fmt.Fprintf(&b, "c1,%s,%d,%d,50,%d,150\n", start.AddDate(0, 0, i).Format("2006-01-02"), imps, imps/50, imps/5000)
	}
	b.WriteString("c2,2026-09-01,10,1,1,0,0\n")

	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportThenTrends(t *testing.T) {
	csvPath := writeCSV(t)
	db := filepath.Join(t.TempDir(), "insights.db")

	out, err := run(t, "import", csvPath, "--db", db)
	require.NoError(t, err)
	var imported map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 31.0, imported["imported"])

	out, err = run(t, "campaigns", "--db", db)
	require.NoError(t, err)
	assert.JSONEq(t, `["c1","c2"]`, out)

	out, err = run(t, "trends", "c1", "--db", db)
	require.NoError(t, err)
	var trends struct {
		DataPoints  int `json:"data_points"`
		Impressions struct {
			Direction string `json:"direction"`
		} `json:"impressions"`
		Spend struct {
			Direction string `json:"direction"`
		} `json:"spend"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &trends))
	assert.Equal(t, 30, trends.DataPoints)
	assert.Equal(t, "increasing", trends.Impressions.Direction)
	assert.Equal(t, "stable", trends.Spend.Direction)
}

func TestForecastFromCSV(t *testing.T) {
	csvPath := writeCSV(t)

	out, err := run(t, "forecast", "c1", "--csv", csvPath, "--days", "30")
	require.NoError(t, err)
	var res struct {
		Days     int `json:"days"`
		Forecast struct {
			PredictedROI float64 `json:"predicted_roi"`
			TotalSpend   float64 `json:"total_spend"`
		} `json:"forecast"`
		Confidence struct {
			DataPoints int `json:"data_points"`
		} `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 30, res.Days)
	assert.InDelta(t, 200, res.Forecast.PredictedROI, 0.01)
	assert.InDelta(t, 1500, res.Forecast.TotalSpend, 0.01)
	assert.Equal(t, 30, res.Confidence.DataPoints)
}

func TestConfidenceFromCSV(t *testing.T) {
	out, err := run(t, "confidence", "c2", "--csv", writeCSV(t))
	require.NoError(t, err)
	var res struct {
		DataPoints int    `json:"data_points"`
		Level      string `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.DataPoints)
	assert.Equal(t, "low", res.Level)
}

func TestForecastRejectsHorizon(t *testing.T) {
	_, err := run(t, "forecast", "c1", "--csv", writeCSV(t), "--days", "400")
	assert.ErrorContains(t, err, "days must be at most 365")
}

func TestForecastZeroHorizon(t *testing.T) {
	out, err := run(t, "forecast", "c1", "--csv", writeCSV(t), "--days", "0")
	require.NoError(t, err)
	var res struct {
		Forecast struct {
			TotalSpend   float64 `json:"total_spend"`
			PredictedROI float64 `json:"predicted_roi"`
		} `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Zero(t, res.Forecast.TotalSpend)
	assert.Zero(t, res.Forecast.PredictedROI)
}

func TestUnknownCampaign(t *testing.T) {
	_, err := run(t, "trends", "nope", "--csv", writeCSV(t))
	assert.ErrorIs(t, err, errNoMetrics)
}
