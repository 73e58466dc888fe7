package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/campaign-intelligence/internal/analytics"
	"github.com/ignite/campaign-intelligence/internal/pkg/distlock"
	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
	"github.com/ignite/campaign-intelligence/internal/report"
	"github.com/ignite/campaign-intelligence/internal/storage"
)

// Job names, also used as lock keys and metric labels.
const (
	JobPatterns = "patterns"
	JobDigest   = "digest"
)

// InsightsService is the part of the insights service the jobs drive.
type InsightsService interface {
	Organizations(ctx context.Context) ([]string, error)
	RefreshPatterns(ctx context.Context, orgID string) (*analytics.PatternReport, error)
	LearnOrganizationPatterns(ctx context.Context, orgID string) (*analytics.PatternReport, error)
	ForecastOrganization(ctx context.Context, orgID string, days int) (*analytics.OrganizationForecast, error)
	ForecastDays() int
}

// ReportArchive persists generated reports.
type ReportArchive interface {
	Save(ctx context.Context, orgID string, kind storage.Kind, at time.Time, report any) (storage.Entry, error)
}

// DigestSender renders and delivers one organization digest.
type DigestSender interface {
	Send(ctx context.Context, d report.Digest) error
}

// JobRecorder counts job runs.
type JobRecorder interface {
	JobRun(job string, err error)
}

// LockFactory returns a fresh lock for a job name.
type LockFactory func(job string) distlock.DistLock

// JobsConfig wires the insight jobs. Archive and Digest are optional.
type JobsConfig struct {
	Service  InsightsService
	Archive  ReportArchive
	Digest   DigestSender
	Locks    LockFactory
	Recorder JobRecorder
	// Timeout bounds one job run; it should not exceed the lock TTL.
	Timeout time.Duration
	Now     func() time.Time
}

// InsightJobs runs the nightly pattern refresh and the weekly digest.
type InsightJobs struct {
	cfg JobsConfig
}

// NewInsightJobs fills in the clock and timeout defaults.
func NewInsightJobs(cfg JobsConfig) *InsightJobs {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &InsightJobs{cfg: cfg}
}

// Run executes the named job under its distributed lock. It returns
// without error when another worker holds the lock.
func (j *InsightJobs) Run(ctx context.Context, job string) error {
	var fn func(context.Context) error
	switch job {
	case JobPatterns:
		fn = j.refreshPatterns
	case JobDigest:
		fn = j.sendDigests
	default:
		return fmt.Errorf("unknown job %q", job)
	}

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	start := j.cfg.Now()
	ran, err := distlock.Run(ctx, j.cfg.Locks("insights:job:"+job), fn)
	if !ran && err == nil {
		logger.Info("job skipped, lock held elsewhere", "job", job)
		return nil
	}
	if j.cfg.Recorder != nil {
		j.cfg.Recorder.JobRun(job, err)
	}
	if err != nil {
		logger.Error("job failed", "job", job, "error", err, "duration_ms", j.cfg.Now().Sub(start).Milliseconds())
		return err
	}
	logger.Info("job finished", "job", job, "duration_ms", j.cfg.Now().Sub(start).Milliseconds())
	return nil
}

// forEachOrg calls fn for every organization. A failing organization does
// not stop the others; failures are joined into the returned error.
func (j *InsightJobs) forEachOrg(ctx context.Context, job string, fn func(context.Context, string) error) error {
	orgs, err := j.cfg.Service.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}
	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := fn(ctx, org); err != nil {
			logger.Warn("job failed for organization", "job", job, "org_id", org, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", org, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d organizations failed: %w", len(errs), len(orgs), errors.Join(errs...))
	}
	return nil
}

// refreshPatterns recomputes every organization's pattern report, which
// also rewrites its cache entry, and archives it with a fresh forecast.
func (j *InsightJobs) refreshPatterns(ctx context.Context) error {
	return j.forEachOrg(ctx, JobPatterns, func(ctx context.Context, org string) error {
		patterns, err := j.cfg.Service.RefreshPatterns(ctx, org)
		if err != nil {
			return err
		}
		if j.cfg.Archive == nil {
			return nil
		}
		at := j.cfg.Now()
		if _, err := j.cfg.Archive.Save(ctx, org, storage.KindPatterns, at, patterns); err != nil {
			return err
		}
		forecast, err := j.cfg.Service.ForecastOrganization(ctx, org, j.cfg.Service.ForecastDays())
		if err != nil {
			return err
		}
		_, err = j.cfg.Archive.Save(ctx, org, storage.KindForecast, at, forecast)
		return err
	})
}

func (j *InsightJobs) sendDigests(ctx context.Context) error {
	if j.cfg.Digest == nil {
		return nil
	}
	return j.forEachOrg(ctx, JobDigest, func(ctx context.Context, org string) error {
		patterns, err := j.cfg.Service.LearnOrganizationPatterns(ctx, org)
		if err != nil {
			return err
		}
		forecast, err := j.cfg.Service.ForecastOrganization(ctx, org, j.cfg.Service.ForecastDays())
		if err != nil {
			return err
		}
		return j.cfg.Digest.Send(ctx, report.Digest{
			OrganizationID: org,
			GeneratedAt:    j.cfg.Now(),
			Patterns:       *patterns,
			Forecast:       forecast,
		})
	})
}
