package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/campaign-intelligence/internal/app"
	"github.com/ignite/campaign-intelligence/internal/config"
	"github.com/ignite/campaign-intelligence/internal/pkg/distlock"
	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
	"github.com/ignite/campaign-intelligence/internal/report"
	"github.com/ignite/campaign-intelligence/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
	runOnce := flag.String("run", "", "run one job (patterns or digest) and exit")
	flag.Parse()

	log.Println("Starting campaign insights worker...")

	cfg, err := config.LoadFromEnv(*cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", *cfgPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	jobsCfg := worker.JobsConfig{
		Service:  a.Service,
		Archive:  a.Archive,
		Recorder: a.Metrics,
		Timeout:  cfg.Worker.LockTTL(),
		Locks: func(key string) distlock.DistLock {
			return distlock.NewLock(a.Redis, a.DB, key, cfg.Worker.LockTTL())
		},
	}
	if cfg.Report.Enabled {
		renderer, err := report.LoadRenderer(cfg.Report.TemplatePath)
		if err != nil {
			logger.Error("failed to load digest template", "error", err)
			os.Exit(1)
		}
		mailer, err := report.NewSESMailer(ctx, cfg.Report)
		if err != nil {
			logger.Error("failed to create SES mailer", "error", err)
			os.Exit(1)
		}
		jobsCfg.Digest = report.NewDigester(renderer, mailer, cfg.Report.Recipients)
		logger.Info("weekly digest enabled", "recipients", len(cfg.Report.Recipients))
	}
	jobs := worker.NewInsightJobs(jobsCfg)

	if *runOnce != "" {
		if err := jobs.Run(ctx, *runOnce); err != nil {
			logger.Error("job failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("job complete", "job", *runOnce)
		return
	}

	digestSpec := cfg.Worker.DigestCron
	if !cfg.Report.Enabled {
		digestSpec = ""
	}
	sched, err := worker.NewScheduler(jobs, cfg.Worker.PatternsCron, digestSpec)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("worker running", "jobs", sched.Entries())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
	logger.Info("worker stopped")
}
