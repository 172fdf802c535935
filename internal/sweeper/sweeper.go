package sweeper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
)

const maxBackoff = time.Hour

type ObjectDeleter interface {
	Delete(ctx context.Context, locator string) error
}

type Config struct {
	Repo        domain.CleanupIntentRepository
	Storage     ObjectDeleter
	Interval    time.Duration
	BatchSize   int
	WorkerCount int
	MaxAttempts int
	// Backoff is the delay after the first failed attempt. It doubles per attempt up to an hour.
	Backoff     time.Duration
	CallTimeout time.Duration
	Metrics     *metrics.MetricsManager
	Logger      *logger.Logger
}

// Stats summarises one sweep.
type Stats struct {
	Resolved int
	Failed   int
}

// Sweeper retries object deletions recorded as cleanup intents.
type Sweeper struct {
	repo        domain.CleanupIntentRepository
	storage     ObjectDeleter
	interval    time.Duration
	batchSize   int
	maxAttempts int
	backoff     time.Duration
	callTimeout time.Duration
	metrics     *metrics.MetricsManager
	logger      *logger.Logger

	workerPool *workerpool.WorkerPool
	now        func() time.Time
}

func New(cfg Config) (*Sweeper, error) {
	if cfg.Repo == nil || cfg.Storage == nil {
		return nil, errors.New("sweeper: repo and storage are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Sweeper{
		repo:        cfg.Repo,
		storage:     cfg.Storage,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		callTimeout: cfg.CallTimeout,
		metrics:     cfg.Metrics,
		logger:      log.Named("media_sweeper"),
		workerPool:  workerpool.New(cfg.WorkerCount),
		now:         time.Now,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("Media sweeper started", zap.Duration("interval", s.interval), zap.Int("batch_size", s.batchSize))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			s.logger.Info("Media sweeper stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce processes one batch of due intents and waits for it to finish.
func (s *Sweeper) SweepOnce(ctx context.Context) (Stats, error) {
	findCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	intents, err := s.repo.FindDue(findCtx, s.now().UTC(), s.maxAttempts, s.batchSize)
	cancel()
	if err != nil {
		return Stats{}, err
	}
	if len(intents) == 0 {
		return Stats{}, nil
	}

	var resolved, failed atomic.Int64
	var wg sync.WaitGroup
	for _, ci := range intents {
		wg.Add(1)
		s.workerPool.Submit(func() {
			defer wg.Done()
			if s.process(ctx, ci) {
				resolved.Add(1)
			} else {
				failed.Add(1)
			}
		})
	}
	wg.Wait()

	stats := Stats{Resolved: int(resolved.Load()), Failed: int(failed.Load())}
	s.metrics.CleanupIntent("resolved", stats.Resolved)
	s.metrics.CleanupIntent("failed", stats.Failed)
	s.logger.Info("Sweep finished", zap.Int("due", len(intents)), zap.Int("resolved", stats.Resolved), zap.Int("failed", stats.Failed))
	return stats, nil
}

func (s *Sweeper) process(ctx context.Context, ci *domain.CleanupIntent) bool {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	err := s.storage.Delete(callCtx, ci.Locator)
	s.metrics.MediaOperation("delete", err)
	if err == nil {
		if err := s.repo.Resolve(callCtx, ci.ID); err != nil {
			s.logger.Error("Object deleted but intent not resolved", zap.String("intent_id", ci.ID), zap.Error(err))
			return false
		}
		return true
	}

	next := s.now().UTC().Add(s.backoffFor(ci.Attempts + 1))
	s.logger.Warn("Cleanup attempt failed",
		zap.String("intent_id", ci.ID),
		zap.String("locator", ci.Locator),
		zap.Int("attempt", ci.Attempts+1),
		zap.Time("next_attempt_at", next),
		zap.Error(err))
	if ci.Attempts+1 >= s.maxAttempts {
		s.logger.Error("Cleanup intent exhausted its attempts", zap.String("intent_id", ci.ID), zap.String("locator", ci.Locator))
	}
	if markErr := s.repo.MarkFailed(callCtx, ci.ID, err.Error(), next); markErr != nil {
		s.logger.Error("Failed to mark cleanup intent", zap.String("intent_id", ci.ID), zap.Error(markErr))
	}
	return false
}

func (s *Sweeper) backoffFor(attempt int) time.Duration {
	d := s.backoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Close waits for queued deletions to finish.
func (s *Sweeper) Close() {
	s.workerPool.StopWait()
}
