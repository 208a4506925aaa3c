// Package main converts legacy zone command files or GoMud assets into
// zone JSON files the world server loads.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/config"
	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/importer"
	"github.com/cory-johannsen/mudworld/internal/importer/gomud"
	"github.com/cory-johannsen/mudworld/internal/observability"
)

func main() {
	format := flag.String("format", "", "source format: legacy or gomud")
	sourceDir := flag.String("source", "", "path to source asset directory")
	outputDir := flag.String("output", "", "path to output zone directory")
	firstZone := flag.Uint64("first-zone", 100, "gomud: number of the first generated zone")
	startRoom := flag.String("start-room", "", "gomud: display name of the room placed first in every zone")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if *format == "" || *sourceDir == "" || *outputDir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-zones -format <legacy|gomud> -source <dir> -output <dir> [-first-zone <n>] [-start-room <name>]")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"}, "import-zones")
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var src importer.Source
	switch *format {
	case "legacy":
		src = importer.NewLegacySource(logger)
	case "gomud":
		src = gomud.NewSource(world.EntityID(*firstZone), *startRoom, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (supported: legacy, gomud)\n", *format)
		os.Exit(1)
	}

	start := time.Now()
	rep, err := importer.New(src, logger).Run(*sourceDir, *outputDir)
	if err != nil {
		logger.Error("import failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Printf("imported %d zones, %d rooms, %d commands in %s\n",
		rep.Zones, rep.Rooms, rep.Commands, time.Since(start).Round(time.Millisecond))
}
