package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/newsforge/newsforge/internal/metrics"
)

// Scheduler triggers pipeline runs on a fixed interval. Overlap policy is
// skip: a tick that lands while a run is still in flight is dropped, not
// queued, so two runs never race on the same URLs.
type Scheduler struct {
	pipeline *Pipeline
	feeds    []string
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewScheduler(p *Pipeline, feeds []string, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pipeline: p,
		feeds:    feeds,
		interval: interval,
		logger:   logger,
		metrics:  metrics.Global,
	}
}

// Start blocks, running one cycle immediately and then once per interval,
// until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "feeds", len(s.feeds), "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.pipeline.Run(ctx, s.feeds)
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("previous run still in flight, skipping tick")
		s.metrics.RecordSkippedTick()
		return
	}
	if err != nil {
		s.logger.Error("pipeline run failed", "error", err)
		s.metrics.SetError(err.Error())
	}
}
