package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

var _ Source = (*LegacySource)(nil)

// LegacySource implements Source for directories of legacy command files
// named <zone number>.zon. A leading "* name" comment line names the zone;
// otherwise it is called "Zone <n>". Every line, comments included, becomes
// one command of the zone's reset program.
type LegacySource struct {
	logger *zap.Logger
}

// NewLegacySource constructs a LegacySource.
func NewLegacySource(logger *zap.Logger) *LegacySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegacySource{logger: logger}
}

// Load parses every *.zon file in sourceDir in file name order. Files whose
// name carries no zone number are skipped with a warning.
//
// Postcondition: returns at least one ZoneData or a non-nil error.
func (s *LegacySource) Load(sourceDir string) ([]*ZoneData, error) {
	paths, err := filepath.Glob(filepath.Join(sourceDir, "*.zon"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", sourceDir, err)
	}
	sort.Strings(paths)

	var results []*ZoneData
	for _, path := range paths {
		n, ok := world.ExtractZoneNumber(path)
		if !ok {
			s.logger.Warn("skipping file without a zone number", zap.String("path", path))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading zone file %s: %w", path, err)
		}
		z, err := ParseLegacyZone(world.EntityID(n), string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing zone file %s: %w", path, err)
		}
		results = append(results, &ZoneData{Zone: z})
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", sourceDir)
	}
	return results, nil
}

// ParseLegacyZone builds zone id from legacy command text.
//
// Postcondition: returns a valid Zone or the first parse error.
func ParseLegacyZone(id world.EntityID, text string) (*world.Zone, error) {
	cmds, err := world.ParseCommands(text)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Zone %d", uint64(id))
	if len(cmds) > 0 && cmds[0].Type == world.CmdComment && strings.TrimSpace(cmds[0].Comment) != "" {
		name = strings.TrimSpace(cmds[0].Comment)
		cmds = cmds[1:]
	}
	z, err := world.NewZone(id, name, world.DefaultResetMinutes)
	if err != nil {
		return nil, err
	}
	for _, c := range cmds {
		z.AddCommand(c)
	}
	if err := z.Validate(); err != nil {
		return nil, err
	}
	return z, nil
}
