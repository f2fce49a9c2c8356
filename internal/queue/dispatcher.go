package queue

import (
	"context"

	"go.uber.org/zap"
)

// Runner executes one triage run. The orchestrator satisfies this through
// a small adapter in main.
type Runner interface {
	Run(ctx context.Context, ticketID, traceID string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, ticketID, traceID string) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, ticketID, traceID string) error {
	return f(ctx, ticketID, traceID)
}

// Dispatcher is the boundary between ticket creation and the pipeline.
// Both implementations produce identical observable behavior; the queued
// one only changes when the work happens.
type Dispatcher interface {
	Dispatch(ctx context.Context, ticketID, traceID string) error
}

type inlineDispatcher struct {
	runner Runner
}

// NewInlineDispatcher runs triage synchronously in the caller's path.
// Errors propagate directly; there is no retry layer.
func NewInlineDispatcher(runner Runner) Dispatcher {
	return &inlineDispatcher{runner: runner}
}

func (d *inlineDispatcher) Dispatch(ctx context.Context, ticketID, traceID string) error {
	return d.runner.Run(ctx, ticketID, traceID)
}

type queuedDispatcher struct {
	queue  Queue
	logger *zap.Logger
}

// NewQueuedDispatcher enqueues triage jobs for the worker pool.
func NewQueuedDispatcher(queue Queue, logger *zap.Logger) Dispatcher {
	return &queuedDispatcher{queue: queue, logger: logger}
}

func (d *queuedDispatcher) Dispatch(ctx context.Context, ticketID, traceID string) error {
	if err := d.queue.Enqueue(ctx, Job{TicketID: ticketID, TraceID: traceID}); err != nil {
		return err
	}
	d.logger.Debug("triage job enqueued",
		zap.String("ticket_id", ticketID),
		zap.String("trace_id", traceID),
	)
	return nil
}
