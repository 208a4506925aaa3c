package gomud

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/importer"
)

var _ importer.Source = (*GomudSource)(nil)

// GomudSource implements importer.Source for the gomud asset layout:
//
//	sourceDir/
//	  zones/   <- one YAML file per zone
//	  areas/   <- one YAML file per area (optional)
//	  rooms/   <- one YAML file per room
//
// Zones are numbered from FirstZone in zone file name order.
type GomudSource struct {
	FirstZone world.EntityID
	StartRoom string
	logger    *zap.Logger
}

// NewSource constructs a GomudSource numbering zones from firstZone.
// startRoom, when non-empty, names the room given each zone's first number.
func NewSource(firstZone world.EntityID, startRoom string, logger *zap.Logger) *GomudSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GomudSource{FirstZone: firstZone, StartRoom: startRoom, logger: logger}
}

// Load reads the gomud asset tree rooted at sourceDir and returns one ZoneData
// per zone file. Warnings for missing rooms and unresolvable exit targets are
// logged.
//
// Precondition: sourceDir must contain zones/ and rooms/ subdirs.
// Postcondition: returns at least one ZoneData or a non-nil error.
func (s *GomudSource) Load(sourceDir string) ([]*importer.ZoneData, error) {
	zonesDir := filepath.Join(sourceDir, "zones")
	areasDir := filepath.Join(sourceDir, "areas")
	roomsDir := filepath.Join(sourceDir, "rooms")

	for _, dir := range []string{zonesDir, roomsDir} {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("required subdirectory %q not accessible in source: %w", filepath.Base(dir), err)
		}
	}

	allRooms, err := loadRooms(roomsDir)
	if err != nil {
		return nil, err
	}

	roomArea := map[string]string{}
	if _, err := os.Stat(areasDir); err == nil {
		if roomArea, err = loadRoomAreaMap(areasDir); err != nil {
			return nil, err
		}
	}

	zoneFiles, err := yamlFiles(zonesDir)
	if err != nil {
		return nil, err
	}

	var results []*importer.ZoneData
	for i, path := range zoneFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading zone file %s: %w", path, err)
		}
		zone, err := ParseZone(data)
		if err != nil {
			return nil, fmt.Errorf("parsing zone file %s: %w", path, err)
		}
		zd, warnings, err := ConvertZone(zone, s.FirstZone+world.EntityID(i), allRooms, roomArea, s.StartRoom)
		if err != nil {
			return nil, fmt.Errorf("converting zone file %s: %w", path, err)
		}
		for _, w := range warnings {
			s.logger.Warn(w, zap.String("file", path))
		}
		results = append(results, zd)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", zonesDir)
	}
	return results, nil
}

func loadRooms(dir string) (map[string]*GomudRoom, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	rooms := make(map[string]*GomudRoom, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading room file %s: %w", path, err)
		}
		room, err := ParseRoom(data)
		if err != nil {
			return nil, fmt.Errorf("parsing room file %s: %w", path, err)
		}
		rooms[strings.TrimSpace(room.Name)] = room
	}
	return rooms, nil
}

func loadRoomAreaMap(dir string) (map[string]string, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	roomArea := make(map[string]string)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading area file %s: %w", path, err)
		}
		area, err := ParseArea(data)
		if err != nil {
			return nil, fmt.Errorf("parsing area file %s: %w", path, err)
		}
		for _, name := range area.Rooms {
			roomArea[strings.TrimSpace(name)] = area.Name
		}
	}
	return roomArea, nil
}

// yamlFiles lists the *.yaml and *.yml files of dir in name order.
func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
