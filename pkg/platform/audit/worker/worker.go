// Package worker relays audit outbox entries to the event stream.
package worker

import (
	"context"
	"log/slog"
	"time"

	audit "habitat/pkg/platform/audit"
)

// Producer publishes outbox entries to the event stream. It must return only
// after the broker acknowledged every entry.
type Producer interface {
	Publish(ctx context.Context, entries []audit.OutboxEntry) error
}

// Worker polls the outbox and relays unpublished entries. Delivery is
// at-least-once: an entry is marked published only after the producer acked it.
type Worker struct {
	source    audit.OutboxSource
	producer  Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		w.batchSize = n
	}
}

func NewWorker(source audit.OutboxSource, producer Producer, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		producer:  producer,
		logger:    logger,
		interval:  2 * time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were relayed.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.source.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := w.producer.Publish(ctx, entries); err != nil {
		return 0, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := w.source.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	w.logger.DebugContext(ctx, "audit outbox relayed", "count", len(entries))
	return len(entries), nil
}
