package gameserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/config"
	"github.com/cory-johannsen/mudworld/internal/game/dice"
	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/observability"
	"github.com/cory-johannsen/mudworld/internal/scripting"
	"github.com/cory-johannsen/mudworld/internal/server"
	"github.com/cory-johannsen/mudworld/internal/storage/snapshot"
)

// WorldSaver persists a whole store, e.g. postgres.WorldRepository.
type WorldSaver interface {
	SaveStore(ctx context.Context, s *world.Store) error
}

// WorldServer owns a loaded world and the services that keep it running:
// the reset scheduler, snapshotting and optional database persistence.
type WorldServer struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *world.Store
	scheduler *ResetScheduler
	scripts   *scripting.Manager
	saver     WorldSaver
}

// NewWorldServer loads the world described by cfg. The store comes from
// restore when it is non-empty, otherwise from the zone files; scripts are
// loaded when cfg.Scripting.Dir is set.
//
// Precondition: cfg must have passed Validate.
// Postcondition: Returns a server whose store is fully loaded, or an error.
func NewWorldServer(cfg config.Config, logger *zap.Logger, restore string) (*WorldServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws := &WorldServer{cfg: cfg, logger: logger}

	loadStart := time.Now()
	if restore != "" {
		s, st, err := snapshot.Read(restore, logger.Named("world"))
		if err != nil {
			return nil, fmt.Errorf("restoring snapshot: %w", err)
		}
		ws.store = s
		logger.Info("world restored from snapshot",
			zap.String("path", restore),
			zap.Int("zones", st.Zones),
			zap.Int("rooms", st.Rooms),
			zap.Duration("elapsed", time.Since(loadStart)),
		)
	} else {
		loader := world.NewLoader(logger.Named("loader"))
		if cfg.World.ValidateSchema {
			if err := loader.UseSchema(cfg.World.SchemaPath); err != nil {
				return nil, fmt.Errorf("loading zone schema: %w", err)
			}
		}
		ws.store = world.NewStore(logger.Named("world"))
		rep, err := loader.LoadDir(ws.store, cfg.World.DataDir, cfg.World.ZoneGlob)
		if err != nil {
			return nil, fmt.Errorf("loading zones: %w", err)
		}
		logger.Info("world loaded from zone files",
			zap.String("dir", cfg.World.DataDir),
			zap.Int("files", rep.Files),
			zap.Int("skipped", rep.Skipped),
			zap.Duration("elapsed", time.Since(loadStart)),
		)
	}

	if err := ws.store.ValidateExits(); err != nil {
		logger.Warn("world has dangling exits", zap.Error(err))
	}

	if cfg.Scripting.Dir != "" {
		roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger.Named("dice"))
		ws.scripts = scripting.NewManager(roller, logger.Named("scripting"), cfg.Scripting.InstructionLimit)
		if _, err := ws.scripts.LoadDir(cfg.Scripting.Dir); err != nil {
			ws.scripts.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		ws.store.SetTriggerRunner(ws.scripts)
	}

	ws.scheduler = NewResetScheduler(ws.store, cfg.World.ResetTick, logger.Named("reset"))
	ws.scheduler.OnReset("audit", func(sums []world.ResetSummary) {
		for _, sum := range sums {
			if sum.Failed == 0 {
				continue
			}
			observability.ZoneLogger(logger, uint64(sum.ZoneID)).Warn("zone reset had failures",
				zap.Int("failed", sum.Failed),
				zap.String("reset_run", sum.RunID.String()),
			)
		}
	})
	return ws, nil
}

// Store returns the loaded world.
func (ws *WorldServer) Store() *world.Store { return ws.store }

// Scheduler returns the reset scheduler.
func (ws *WorldServer) Scheduler() *ResetScheduler { return ws.scheduler }

// SetSaver enables periodic database persistence through saver.
func (ws *WorldServer) SetSaver(saver WorldSaver) { ws.saver = saver }

// Snapshot writes the world to the configured snapshot path.
//
// Postcondition: Returns an error when no snapshot path is configured.
func (ws *WorldServer) Snapshot(context.Context) error {
	if ws.cfg.World.SnapshotPath == "" {
		return errors.New("no snapshot path configured")
	}
	st, err := snapshot.Write(ws.cfg.World.SnapshotPath, ws.store)
	if err != nil {
		return err
	}
	ws.logger.Info("snapshot written",
		zap.String("path", ws.cfg.World.SnapshotPath),
		zap.Int("zones", st.Zones),
		zap.Int64("bytes", st.Bytes),
	)
	return nil
}

// Register adds the server's services to l: resets always, snapshots when
// a snapshot path is configured and persistence when a saver is set. Both
// of the latter also run once on shutdown.
func (ws *WorldServer) Register(l *server.Lifecycle) {
	l.Add("resets", ws.scheduler)
	if ws.cfg.World.SnapshotPath != "" {
		l.Add("snapshots", &PeriodicTask{
			Name:     "snapshot",
			Interval: ws.cfg.World.SnapshotInterval,
			Final:    true,
			Fn:       ws.Snapshot,
			Logger:   ws.logger,
		})
	}
	if ws.saver != nil {
		interval := ws.cfg.World.SnapshotInterval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		l.Add("persistence", &PeriodicTask{
			Name:     "persist",
			Interval: interval,
			Final:    true,
			Fn: func(ctx context.Context) error {
				return ws.saver.SaveStore(ctx, ws.store)
			},
			Logger: ws.logger,
		})
	}
}

// Close releases the script VMs.
func (ws *WorldServer) Close() {
	if ws.scripts != nil {
		ws.scripts.Close()
	}
}

// SnapshotExists reports whether the configured snapshot file is present.
func (ws *WorldServer) SnapshotExists() bool {
	if ws.cfg.World.SnapshotPath == "" {
		return false
	}
	_, err := os.Stat(ws.cfg.World.SnapshotPath)
	return err == nil
}
