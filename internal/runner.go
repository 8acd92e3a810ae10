package internal

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner runs watchers one after another.
type Runner struct {
	watchers []*Watcher
	l        *zap.Logger
}

// NewRunner returns a runner for watchers.
func NewRunner(watchers []*Watcher, l *zap.Logger) *Runner {
	return &Runner{watchers: watchers, l: l}
}

// RunOnce runs every watcher in order and returns how many failed. A failing
// watcher does not stop the others.
func (r *Runner) RunOnce(ctx context.Context) int {
	failed := 0
	for _, w := range r.watchers {
		if ctx.Err() != nil {
			return failed
		}
		if _, err := w.Run(ctx); err != nil {
			failed++
		}
	}

	if failed > 0 {
		r.l.Warn("some watchers failed", zap.Int("failed", failed), zap.Int("total", len(r.watchers)))
	}

	return failed
}

// Run runs all watchers immediately and then on every interval tick until ctx
// is done. A non-positive interval runs once.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	r.RunOnce(ctx)
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.l.Info("Starting watch loop", zap.Int("watchers", len(r.watchers)), zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			r.l.Info("Context done, stopping watch loop.")
			return ctx.Err()
		case <-ticker.C:
			r.l.Debug("Watch tick")
			r.RunOnce(ctx)
		}
	}
}
