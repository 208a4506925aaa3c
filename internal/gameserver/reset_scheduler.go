// Package gameserver drives the world's clock-based work: zone resets on a
// fixed tick and periodic background tasks such as snapshots.
package gameserver

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

// ResetSource resets the zones that are due at a given instant.
type ResetSource interface {
	ResetDue(now time.Time) []world.ResetSummary
}

// ResetScheduler checks every zone once per interval and resets those whose
// schedule has come due. Listeners registered with OnReset receive the
// summaries of each tick that reset at least one zone.
//
// Invariant: ticks never overlap; a tick that outlasts the interval delays
// the next one.
type ResetScheduler struct {
	source   ResetSource
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	listeners map[string]func([]world.ResetSummary)
}

// NewResetScheduler returns a scheduler that polls source every interval.
//
// Precondition: interval must be > 0 and source non-nil.
func NewResetScheduler(source ResetSource, interval time.Duration, logger *zap.Logger) *ResetScheduler {
	if interval <= 0 {
		panic("gameserver.NewResetScheduler: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetScheduler{
		source:    source,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[string]func([]world.ResetSummary)),
	}
}

// SetClock replaces the wall clock used to stamp ticks.
func (r *ResetScheduler) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// OnReset registers fn under name. Replaces any existing listener.
func (r *ResetScheduler) OnReset(name string, fn func([]world.ResetSummary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[name] = fn
}

// Unregister removes the listener registered under name.
func (r *ResetScheduler) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, name)
}

// Tick runs one scheduling pass and returns the summaries of the zones it
// reset.
func (r *ResetScheduler) Tick() []world.ResetSummary {
	sums := r.source.ResetDue(r.now())
	if len(sums) == 0 {
		return nil
	}
	for _, s := range sums {
		r.logger.Info("zone reset",
			zap.Uint64("zone", uint64(s.ZoneID)),
			zap.String("reset_run", s.RunID.String()),
			zap.Int("mobiles", s.MobilesSpawned),
			zap.Int("objects", s.ObjectsSpawned),
			zap.Int("failed", s.Failed),
			zap.Bool("halted", s.Halted),
		)
	}

	r.mu.Lock()
	names := slices.Sorted(maps.Keys(r.listeners))
	callbacks := make([]func([]world.ResetSummary), 0, len(names))
	for _, n := range names {
		callbacks = append(callbacks, r.listeners[n])
	}
	r.mu.Unlock()
	for _, fn := range callbacks {
		fn(sums)
	}
	return sums
}

// Start runs an immediate pass, so boot-time resets happen at once, then
// ticks every interval until ctx is cancelled.
//
// Postcondition: returns nil after ctx is cancelled.
func (r *ResetScheduler) Start(ctx context.Context) error {
	r.logger.Info("reset scheduler started", zap.Duration("interval", r.interval))
	r.Tick()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reset scheduler stopped")
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Stop is a no-op; the scheduler stops when its context is cancelled.
func (r *ResetScheduler) Stop() {}
