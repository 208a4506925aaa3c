package gameserver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/mudworld/internal/gameserver"
)

func TestPeriodicTask_RunsAndRunsFinal(t *testing.T) {
	var (
		mu   sync.Mutex
		runs int
	)
	core, logs := observer.New(zap.DebugLevel)
	task := &gameserver.PeriodicTask{
		Name:     "snapshot",
		Interval: 10 * time.Millisecond,
		Final:    true,
		Logger:   zap.New(core),
		Fn: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			runs++
			if runs == 1 {
				return errors.New("disk full")
			}
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Start(ctx) }()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, logs.FilterMessage("periodic task failed").Len())
	mu.Lock()
	final := runs
	mu.Unlock()
	assert.GreaterOrEqual(t, final, 3, "the final run happens after cancellation")
}

// TestPeriodicTask_FinalRunOutlivesCancel checks that the final run gets a
// live context even though the task's context is already cancelled.
func TestPeriodicTask_FinalRunOutlivesCancel(t *testing.T) {
	var finalCtxErr error
	task := &gameserver.PeriodicTask{
		Name:     "final",
		Interval: time.Hour,
		Final:    true,
		Fn: func(ctx context.Context) error {
			finalCtxErr = ctx.Err()
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, task.Start(ctx))
	assert.NoError(t, finalCtxErr)
}

func TestPeriodicTask_FailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	task := &gameserver.PeriodicTask{
		Name:     "broken",
		Interval: time.Hour,
		Final:    true,
		Fn:       func(context.Context) error { return errors.New("disk full") },
		Logger:   zap.New(core),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, task.Start(ctx))

	failed := logs.FilterMessage("periodic task failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "broken", failed[0].ContextMap()["task"])
	assert.Equal(t, "disk full", failed[0].ContextMap()["error"])
}
