package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/queue"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
)

// TriageWorker consumes queued triage jobs with a bounded goroutine pool.
// Retry and timeout settings come from the live TriageConfig, read per job.
type TriageWorker struct {
	queue      queue.Queue
	runner     queue.Runner
	configRepo repository.TriageConfigRepository
	metrics    *observability.Metrics
	logger     *zap.Logger

	concurrency  int
	initialDelay time.Duration
}

// NewTriageWorker constructs the worker pool.
func NewTriageWorker(q queue.Queue, runner queue.Runner, configRepo repository.TriageConfigRepository, metrics *observability.Metrics, logger *zap.Logger, cfg config.QueueConfig) *TriageWorker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &TriageWorker{
		queue:        q,
		runner:       runner,
		configRepo:   configRepo,
		metrics:      metrics,
		logger:       logger,
		concurrency:  concurrency,
		initialDelay: cfg.InitialDelay(),
	}
}

// Start launches the consumers and blocks until ctx is cancelled and every
// in-flight job has finished.
func (w *TriageWorker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	w.logger.Info("triage worker started", zap.Int("concurrency", w.concurrency))
	wg.Wait()
	w.logger.Info("triage worker stopped")
}

func (w *TriageWorker) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			sleepCtx(ctx, time.Second)
			continue
		}

		if depth, err := w.queue.Len(ctx); err == nil {
			w.metrics.SetQueueDepth(depth)
		}

		// settle delay: the write that triggered the job must be
		// visible before the run reads the ticket back
		sleepCtx(ctx, w.initialDelay)

		w.process(ctx, job)
	}
}

// process runs one job with the configured timeout, retrying with
// exponential backoff up to the configured attempt budget. Exhausted jobs
// are logged as permanently failed, never silently dropped.
func (w *TriageWorker) process(ctx context.Context, job queue.Job) {
	cfg, err := w.configRepo.GetOrCreateDefault(ctx)
	if err != nil {
		// the job still gets its attempts: fall back to the default
		// retry budget rather than dropping it
		w.logger.Warn("load triage config, using defaults",
			zap.Error(err), zap.String("ticket_id", job.TicketID))
		cfg = domain.DefaultTriageConfig()
	}

	backoff := cfg.RetryBackoff()
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			w.metrics.RecordQueueRetry()
			sleepCtx(ctx, backoff<<(attempt-1))
		}
		if ctx.Err() != nil {
			return
		}

		lastErr = w.runOnce(ctx, job, cfg.Timeout())
		if lastErr == nil {
			return
		}
		w.logger.Warn("triage attempt failed",
			zap.String("ticket_id", job.TicketID),
			zap.String("trace_id", job.TraceID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	w.logger.Error("triage job permanently failed",
		zap.String("ticket_id", job.TicketID),
		zap.String("trace_id", job.TraceID),
		zap.Int("attempts", cfg.MaxRetries+1),
		zap.Error(lastErr),
	)
}

func (w *TriageWorker) runOnce(ctx context.Context, job queue.Job, timeout time.Duration) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return w.runner.Run(runCtx, job.TicketID, job.TraceID)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
