// Package importer converts zone content from other formats into the world
// loader's JSON zone files.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

// Report summarizes one import run.
type Report struct {
	Zones    int
	Rooms    int
	Commands int
	Files    []string
}

// Importer orchestrates content import from a Source to an output directory.
type Importer struct {
	source Source
	logger *zap.Logger
}

// New constructs an Importer backed by the given Source.
//
// Precondition: source must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{source: source, logger: logger}
}

// Run loads zones from sourceDir, validates each, and writes them as JSON
// zone files to outputDir. Each output file is named <zone number>.json.
//
// Precondition: sourceDir must satisfy the source's layout requirements;
// outputDir must exist or be creatable.
// Postcondition: one zone file per zone is written to outputDir, or an error
// is returned.
func (imp *Importer) Run(sourceDir, outputDir string) (Report, error) {
	overall := time.Now()

	zones, err := imp.source.Load(sourceDir)
	if err != nil {
		return Report{}, fmt.Errorf("loading source: %w", err)
	}
	imp.logger.Info("source loaded", zap.Int("zones", len(zones)), zap.Duration("took", time.Since(overall)))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return Report{}, fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}

	var rep Report
	for _, zd := range zones {
		id := zd.Zone.ID()
		data, err := Encode(zd)
		if err != nil {
			return rep, fmt.Errorf("serialising zone %s: %w", id, err)
		}

		// Validate output is loadable before writing.
		loaded, err := world.NewLoader(nil).Load(world.NewStore(nil), data)
		if err != nil {
			return rep, fmt.Errorf("zone %s failed validation: %w", id, err)
		}
		if loaded.Skipped > 0 {
			return rep, fmt.Errorf("zone %s failed validation: %d record(s) rejected", id, loaded.Skipped)
		}

		outPath := world.ZoneFilePath(outputDir, int(id))
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return rep, fmt.Errorf("writing zone %s to %s: %w", id, outPath, err)
		}

		rep.Zones++
		rep.Rooms += len(zd.Rooms)
		rep.Commands += len(zd.Zone.Commands())
		rep.Files = append(rep.Files, filepath.Base(outPath))
		imp.logger.Info("zone written",
			zap.String("path", outPath),
			zap.Int("rooms", len(zd.Rooms)),
			zap.Int("commands", len(zd.Zone.Commands())),
		)
	}

	imp.logger.Info("import complete", zap.Int("zones", rep.Zones), zap.Duration("took", time.Since(overall)))
	return rep, nil
}

// Encode renders zd in the wrapped zone file layout
// {"zone": {...}, "rooms": {"rooms": [...]}}, pretty printed.
func Encode(zd *ZoneData) ([]byte, error) {
	zone, err := zd.Zone.MarshalJSON()
	if err != nil {
		return nil, err
	}
	doc, err := sjson.SetRawBytes([]byte(`{}`), "zone", zone)
	if err != nil {
		return nil, err
	}
	doc, err = sjson.SetRawBytes(doc, "rooms.rooms", []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for _, r := range zd.Rooms {
		room, err := r.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, "rooms.rooms.-1", room); err != nil {
			return nil, err
		}
	}
	return pretty.Pretty(doc), nil
}
