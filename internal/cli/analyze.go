package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/repository/sqlite"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
)

// errNoMetrics is returned when the campaign has no rows in the source.
var errNoMetrics = errors.New("no metrics for campaign")

// loadSeries reads one campaign's series, from --csv when set, else --db.
func loadSeries(ctx context.Context, opts *options, campaignID string) (domain.MetricSeries, error) {
	var all domain.MetricSeries
	if opts.csvPath != "" {
		f, err := os.Open(opts.csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := sqlite.ParseCSV(f)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.CampaignID == campaignID {
				all = append(all, r)
			}
		}
		slices.SortStableFunc(all, func(a, b domain.MetricRecord) int { return a.Date.Compare(b.Date) })
	} else {
		s, err := sqlite.Open(opts.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		if all, err = s.MetricSeries(ctx, campaignID, time.Time{}, time.Time{}); err != nil {
			return nil, err
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w %q", errNoMetrics, campaignID)
	}
	return all, nil
}

func newTrendsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trends <campaign>",
		Short: "Trend direction, strength and moving averages per metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := loadSeries(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analytics.AnalyzeTrends(series))
		},
	}
}

func newConfidenceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "confidence <campaign>",
		Short: "How far the series can be trusted for forecasting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := loadSeries(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analytics.EstimateConfidence(series))
		},
	}
}

func newForecastCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "forecast <campaign>",
		Short: "Project the campaign's metrics over the next N days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days > insights.MaxHorizonDays {
				return fmt.Errorf("%w: days must be at most %d", insights.ErrInvalidHorizon, insights.MaxHorizonDays)
			}
			series, err := loadSeries(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"campaign_id": args[0],
				"days":        days,
				"forecast":    analytics.ForecastSeries(series, days),
				"confidence":  analytics.EstimateConfidence(series),
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", insights.DefaultForecastDays, "forecast horizon in days")
	return cmd
}
