package gomud

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/importer"
)

// RoomsPerZone is the size of each zone's room number block: zone n owns
// rooms n*RoomsPerZone through n*RoomsPerZone+RoomsPerZone-1.
const RoomsPerZone = 100

// ConvertZone transforms a parsed GomudZone and its supporting data into a
// numbered world zone with rooms.
//
// Room numbers follow the zone's listing order with startRoom, when named
// and listed, moved to the front so it takes the zone's first number.
// A room's area, when known, becomes a room keyword.
//
// Precondition: zone must be non-nil; number must be valid; rooms is the
// full map of known room display names to GomudRoom; roomArea maps room
// display names to area display names (may be nil).
//
// Postcondition: returns a non-nil ZoneData and a (possibly empty) slice of
// warning strings for recoverable issues (missing rooms, unknown exit
// targets, bad directions, too many rooms), or an error when the zone
// itself cannot be built.
func ConvertZone(
	zone *GomudZone,
	number world.EntityID,
	rooms map[string]*GomudRoom,
	roomArea map[string]string,
	startRoom string,
) (*importer.ZoneData, []string, error) {
	var warnings []string

	z, err := world.NewZone(number, strings.TrimSpace(zone.Name), world.DefaultResetMinutes)
	if err != nil {
		return nil, nil, fmt.Errorf("zone %q: %w", zone.Name, err)
	}
	z.SetGround(strings.TrimSpace(zone.Description))

	names := make([]string, 0, len(zone.Rooms))
	for _, n := range zone.Rooms {
		n = strings.TrimSpace(n)
		if _, ok := rooms[n]; !ok {
			warnings = append(warnings, fmt.Sprintf("zone %q: room %q has no definition file; skipping", zone.Name, n))
			continue
		}
		if slices.Contains(names, n) {
			continue
		}
		names = append(names, n)
	}
	if startRoom = strings.TrimSpace(startRoom); startRoom != "" {
		switch i := slices.Index(names, startRoom); {
		case i < 0:
			warnings = append(warnings, fmt.Sprintf("zone %q: start room %q is not listed; using %q",
				zone.Name, startRoom, firstOr(names, "")))
		case i > 0:
			names = slices.Insert(slices.Delete(names, i, i+1), 0, startRoom)
		}
	}
	if len(names) > RoomsPerZone {
		warnings = append(warnings, fmt.Sprintf("zone %q: %d rooms exceed the block of %d; dropping the rest",
			zone.Name, len(names), RoomsPerZone))
		names = names[:RoomsPerZone]
	}

	base := number * RoomsPerZone
	nameToID := make(map[string]world.EntityID, len(names))
	for i, n := range names {
		nameToID[n] = base + world.EntityID(i)
	}

	zd := &importer.ZoneData{Zone: z}
	for _, name := range names {
		src := rooms[name]
		room, err := world.NewRoom(nameToID[name], name, world.SectorInside)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("room %q: %v; skipping", name, err))
			continue
		}
		room.SetZoneID(number)
		room.SetGround(strings.TrimSpace(src.Description))
		if area, ok := roomArea[name]; ok {
			room.AddKeyword(importer.Keyword(area))
		}

		for _, key := range slices.Sorted(maps.Keys(src.Exits)) {
			exit := src.Exits[key]
			dirName := exit.Direction
			if dirName == "" {
				dirName = key
			}
			dir, ok := world.ParseDirection(dirName)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("room %q: unknown exit direction %q; dropping exit", name, dirName))
				continue
			}
			target := strings.TrimSpace(exit.Target)
			to, known := nameToID[target]
			if !known {
				warnings = append(warnings, fmt.Sprintf(
					"room %q: exit target %q has no room definition; dropping exit",
					name, target,
				))
				continue
			}
			if err := room.SetExit(dir, convertExit(exit, to)); err != nil {
				warnings = append(warnings, fmt.Sprintf("room %q: %v; dropping exit", name, err))
			}
		}
		z.AddRoom(room.ID())
		zd.Rooms = append(zd.Rooms, room)
	}

	if len(zd.Rooms) > 0 {
		z.SetFirstRoom(zd.Rooms[0].ID())
		z.SetLastRoom(zd.Rooms[len(zd.Rooms)-1].ID())
	}
	return zd, warnings, nil
}

// convertExit maps a GoMud lock to a closed, locked, keyless door whose
// pick difficulty is the lock's, and a secret exit to a hidden one.
func convertExit(exit GomudExit, to world.EntityID) *world.ExitInfo {
	var e *world.ExitInfo
	if exit.Lock != nil {
		e = world.NewDoor(to, "door", world.InvalidID)
		e.IsClosed = true
		e.IsLocked = true
		e.Difficulty = exit.Lock.Difficulty
	} else {
		e = world.NewExit(to)
	}
	e.IsHidden = exit.Secret
	return e
}

func firstOr(names []string, def string) string {
	if len(names) == 0 {
		return def
	}
	return names[0]
}
