package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/pkg/jobs"
)

// OverdueScanner periodically flags pending queries older than the SLA
// threshold. The scan is opportunistic and idempotent: each query is flagged
// at most once regardless of how many scans observe it.
type OverdueScanner struct {
	repo      queryRepository
	notifier  notificationEmitter
	queue     *jobs.Queue
	threshold time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewOverdueScanner constructs the scanner with its backing job queue.
func NewOverdueScanner(repo queryRepository, notifier notificationEmitter, threshold, interval time.Duration, logger *zap.Logger) *OverdueScanner {
	if threshold <= 0 {
		threshold = 72 * time.Hour
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &OverdueScanner{
		repo:      repo,
		notifier:  notifier,
		threshold: threshold,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
	s.queue = jobs.NewQueue("overdue-scan", func(ctx context.Context, _ jobs.Job) error {
		_, err := s.Scan(ctx)
		return err
	}, jobs.QueueConfig{Workers: 1, Logger: logger})
	return s
}

// Start begins periodic scanning until the context is cancelled.
func (s *OverdueScanner) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.queue.EnqueueEvery(s.interval, "overdue-scan")
}

// Stop halts the scan loop and waits for in-flight scans.
func (s *OverdueScanner) Stop() {
	s.queue.Stop()
}

// Scan runs one pass and returns the number of fresh overdue notifications.
func (s *OverdueScanner) Scan(ctx context.Context) (int, error) {
	queries, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	emitted := 0
	for _, event := range OverdueEvents(queries, s.now(), s.threshold) {
		if s.notifier.EmitOnce(ctx, event) {
			emitted++
		}
	}

	if emitted > 0 {
		s.logger.Info("overdue queries flagged", zap.Int("count", emitted))
	}
	return emitted, nil
}
