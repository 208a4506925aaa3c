// Package main runs the world server: it loads the zones, resets them on
// schedule and keeps snapshots and the database copy current.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/config"
	"github.com/cory-johannsen/mudworld/internal/gameserver"
	"github.com/cory-johannsen/mudworld/internal/observability"
	"github.com/cory-johannsen/mudworld/internal/server"
	"github.com/cory-johannsen/mudworld/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and MUD_ environment variables")
	restore := flag.Bool("restore", false, "boot from world.snapshot_path when the snapshot exists")
	flag.Parse()

	ctx := context.Background()

	var (
		cfg config.Config
		err error
	)
	if *configPath == "" {
		cfg, err = config.LoadFromViper(config.NewViper())
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "worldserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting world server",
		zap.String("data_dir", cfg.World.DataDir),
		zap.Duration("reset_tick", cfg.World.ResetTick),
	)

	snapshotPath := ""
	if *restore && cfg.World.SnapshotPath != "" {
		if _, err := os.Stat(cfg.World.SnapshotPath); err == nil {
			snapshotPath = cfg.World.SnapshotPath
		} else {
			logger.Warn("no snapshot to restore; loading zone files", zap.String("path", cfg.World.SnapshotPath))
		}
	}
	ws, err := gameserver.NewWorldServer(cfg, logger, snapshotPath)
	if err != nil {
		logger.Fatal("loading world", zap.Error(err))
	}
	defer ws.Close()

	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database, logger.Named("postgres"))
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Health(ctx, 5*time.Second); err != nil {
			logger.Fatal("database health check", zap.Error(err))
		}
		repo := postgres.NewWorldRepository(pool.DB(), logger.Named("postgres"))
		if err := repo.SaveStore(ctx, ws.Store()); err != nil {
			logger.Fatal("saving world to database", zap.Error(err))
		}
		ws.SetSaver(repo)
	}

	lifecycle := server.NewLifecycle(logger)
	ws.Register(lifecycle)

	logger.Info("world server ready",
		zap.Int("zones", ws.Store().ZoneCount()),
		zap.Int("rooms", ws.Store().RoomCount()),
		zap.Duration("startup", time.Since(start)),
	)
	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("world server stopped with error", zap.Error(err))
	}
}
