package gameserver

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PeriodicTask runs fn every interval until its context is cancelled. A
// failing run is logged and the schedule continues. When Final is set, fn
// runs once more on shutdown.
type PeriodicTask struct {
	Name     string
	Interval time.Duration
	Final    bool
	Fn       func(ctx context.Context) error
	Logger   *zap.Logger
}

// Start implements server.Service.
//
// Precondition: Interval > 0 and Fn non-nil.
func (p *PeriodicTask) Start(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("task", p.Name))
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if p.Final {
				p.run(context.WithoutCancel(ctx), logger)
			}
			return nil
		case <-ticker.C:
			p.run(ctx, logger)
		}
	}
}

// Stop is a no-op; the task stops when its context is cancelled.
func (p *PeriodicTask) Stop() {}

func (p *PeriodicTask) run(ctx context.Context, logger *zap.Logger) {
	start := time.Now()
	if err := p.Fn(ctx); err != nil {
		logger.Warn("periodic task failed", zap.Error(err))
		return
	}
	logger.Debug("periodic task ran", zap.Duration("elapsed", time.Since(start)))
}
