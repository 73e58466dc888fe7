package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
)

// Scheduler fires the insight jobs on their cron schedules (UTC).
type Scheduler struct {
	cron *cron.Cron
	jobs *InsightJobs
	ctx  context.Context
	stop context.CancelFunc
}

// NewScheduler registers the pattern and digest jobs. An empty spec leaves
// that job unscheduled.
func NewScheduler(jobs *InsightJobs, patternsSpec, digestSpec string) (*Scheduler, error) {
	ctx, stop := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		jobs: jobs,
		ctx:  ctx,
		stop: stop,
	}
	for job, spec := range map[string]string{JobPatterns: patternsSpec, JobDigest: digestSpec} {
		if spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(spec, func() { _ = s.jobs.Run(s.ctx, job) }); err != nil {
			stop()
			return nil, fmt.Errorf("schedule %s job %q: %w", job, spec, err)
		}
	}
	return s, nil
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		logger.Info("job scheduled", "next_run", e.Next.Format(time.RFC3339))
	}
}

// Stop cancels running jobs and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("scheduler stop timed out")
	}
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
