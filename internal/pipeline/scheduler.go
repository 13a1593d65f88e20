package pipeline

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/reaganking/cbb-preds/internal/logger"
)

// Scheduler runs the daily cycle on a cron schedule and tracks consecutive
// failures so the notifier sends one error on the first failure and one
// recovery when a run succeeds again.
type Scheduler struct {
	pipeline *Pipeline
	cron     *cron.Cron
	spec     string

	consecutiveFailures int
}

// NewScheduler builds a scheduler from a standard five-field cron spec.
func NewScheduler(p *Pipeline, spec string) *Scheduler {
	return &Scheduler{
		pipeline: p,
		cron:     cron.New(),
		spec:     spec,
	}
}

// Start registers the daily job and starts the cron loop. It returns
// immediately; the loop stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		logger.Debug("Starting scheduled daily run")
		s.handleRunResult(s.pipeline.RunDaily(ctx, time.Now().UTC()))
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Scheduler started (spec: %q)", s.spec)

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		logger.Info("Scheduler stopped")
	}()
	return nil
}

// RunOnce executes one daily cycle immediately, with the same failure
// accounting as scheduled runs.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	err := s.pipeline.RunDaily(ctx, time.Now().UTC())
	s.handleRunResult(err)
	return err
}

func (s *Scheduler) handleRunResult(err error) {
	if err != nil {
		s.consecutiveFailures++
		logger.Error("Daily run failed: %v", err)
		if s.consecutiveFailures == 1 && s.pipeline.notifier != nil {
			if sendErr := s.pipeline.notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification: %v", sendErr)
			}
		}
		return
	}

	if s.consecutiveFailures > 0 && s.pipeline.notifier != nil {
		if sendErr := s.pipeline.notifier.SendRecovery(s.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification: %v", sendErr)
		}
	}
	s.consecutiveFailures = 0
}
