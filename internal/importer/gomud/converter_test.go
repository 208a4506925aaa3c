package gomud_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	igomud "github.com/cory-johannsen/mudworld/internal/importer/gomud"
)

func twoRooms() map[string]*igomud.GomudRoom {
	return map[string]*igomud.GomudRoom{
		"Room A": {
			Name:        "Room A",
			Description: "The first room.",
			Exits: map[string]igomud.GomudExit{
				"North": {Direction: "North", Target: "Room B"},
			},
		},
		"Room B": {
			Name:        "Room B",
			Description: "The second room.",
			Exits: map[string]igomud.GomudExit{
				"South": {Direction: "South", Target: "Room A"},
			},
		},
	}
}

func TestConvertZone_Basic(t *testing.T) {
	zone := &igomud.GomudZone{
		Name:        "Test Zone",
		Description: "A zone.",
		Rooms:       []string{"Room A", "Room B"},
	}
	roomArea := map[string]string{"Room A": "Area One"}

	zd, warnings, err := igomud.ConvertZone(zone, 12, twoRooms(), roomArea, "")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, world.EntityID(12), zd.Zone.ID())
	assert.Equal(t, "Test Zone", zd.Zone.Name())
	assert.Equal(t, "A zone.", zd.Zone.Ground())
	assert.Equal(t, []world.EntityID{1200, 1201}, zd.Zone.Rooms())
	require.Len(t, zd.Rooms, 2)

	roomA := zd.Rooms[0]
	assert.Equal(t, world.EntityID(1200), roomA.ID())
	assert.Equal(t, world.EntityID(12), roomA.ZoneID())
	assert.True(t, roomA.MatchesKeyword("area-one"))
	north, ok := roomA.Exit(world.North)
	require.True(t, ok)
	assert.Equal(t, world.EntityID(1201), north.ToRoom)
	assert.False(t, north.HasDoor)

	assert.False(t, zd.Rooms[1].MatchesKeyword("area-one"))
}

func TestConvertZone_StartRoomOverride(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A", "Room B"}}
	zd, warnings, err := igomud.ConvertZone(zone, 1, twoRooms(), nil, "Room B")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Room B", zd.Rooms[0].Name())
	assert.Equal(t, world.EntityID(100), zd.Zone.FirstRoom())
	south, ok := zd.Rooms[0].Exit(world.South)
	require.True(t, ok)
	assert.Equal(t, world.EntityID(101), south.ToRoom)
}

func TestConvertZone_StartRoomOverride_NotInList_Warns(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A"}}
	_, warnings, err := igomud.ConvertZone(zone, 1, twoRooms(), nil, "Room Z")
	require.NoError(t, err)
	assert.Len(t, mentioning(warnings, "Room Z"), 1)
	assert.Len(t, mentioning(warnings, "Room B"), 1, "Room A's exit leaves the zone")
	assert.Len(t, warnings, 2)
}

func TestConvertZone_UnknownExitTarget_WarnAndDrop(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A"}}
	rooms := map[string]*igomud.GomudRoom{
		"Room A": {
			Name: "Room A",
			Exits: map[string]igomud.GomudExit{
				"North": {Direction: "North", Target: "Nonexistent Room"},
			},
		},
	}
	zd, warnings, err := igomud.ConvertZone(zone, 1, rooms, nil, "")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Nonexistent Room")
	assert.Empty(t, zd.Rooms[0].Exits())
}

func TestConvertZone_UnknownDirection_WarnAndDrop(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A", "Room B"}}
	rooms := twoRooms()
	rooms["Room A"].Exits = map[string]igomud.GomudExit{
		"Sideways": {Direction: "Sideways", Target: "Room B"},
		"ne":       {Target: "Room B"},
	}
	zd, warnings, err := igomud.ConvertZone(zone, 1, rooms, nil, "")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Sideways")
	_, ok := zd.Rooms[0].Exit(world.Northeast)
	assert.True(t, ok, "the map key stands in for a missing direction")
}

func TestConvertZone_MissingRoom_WarnAndSkip(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A", "Missing Room", "Room A"}}
	zd, warnings, err := igomud.ConvertZone(zone, 1, twoRooms(), nil, "")
	require.NoError(t, err)
	assert.Len(t, mentioning(warnings, "Missing Room"), 1)
	assert.Len(t, mentioning(warnings, "Room B"), 1, "Room A's exit leaves the zone")
	assert.Len(t, warnings, 2)
	assert.Len(t, zd.Rooms, 1, "duplicates collapse")
}

func TestConvertZone_EmptyNameFails(t *testing.T) {
	_, _, err := igomud.ConvertZone(&igomud.GomudZone{Name: "  "}, 1, nil, nil, "")
	assert.ErrorIs(t, err, world.ErrInvalidArgument)
}

// TestConvertZone_Deterministic ensures output is stable across multiple calls.
func TestConvertZone_Deterministic(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A", "Room B"}}
	first, _, err := igomud.ConvertZone(zone, 3, twoRooms(), nil, "")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, _, err := igomud.ConvertZone(zone, 3, twoRooms(), nil, "")
		require.NoError(t, err)
		assert.Equal(t, first.Zone.Rooms(), got.Zone.Rooms(), fmt.Sprintf("iteration %d", i))
	}
}

// TestConvertZone_RoomsStayInBlock is a property-based test verifying every
// room number lies inside the zone's block and never exceeds the input list.
func TestConvertZone_RoomsStayInBlock(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,19}`), 0, 8).Draw(rt, "names")
		number := world.EntityID(rapid.IntRange(0, 1000).Draw(rt, "zone"))
		zone := &igomud.GomudZone{Name: "Zone", Rooms: names}
		rooms := make(map[string]*igomud.GomudRoom)
		for i, n := range names {
			if i%2 == 0 {
				rooms[n] = &igomud.GomudRoom{Name: n, Description: "d"}
			}
		}
		zd, _, err := igomud.ConvertZone(zone, number, rooms, nil, "")
		require.NoError(rt, err)
		assert.LessOrEqual(rt, len(zd.Rooms), len(names))
		for _, r := range zd.Rooms {
			assert.GreaterOrEqual(rt, r.ID(), number*igomud.RoomsPerZone)
			assert.Less(rt, r.ID(), (number+1)*igomud.RoomsPerZone)
		}
	})
}

func TestConvertZone_LockedAndSecretExits(t *testing.T) {
	zone := &igomud.GomudZone{Name: "Test Zone", Rooms: []string{"Room A", "Room B"}}
	rooms := twoRooms()
	rooms["Room A"].Exits = map[string]igomud.GomudExit{
		"North": {Direction: "North", Target: "Room B", Secret: true, Lock: &igomud.GomudLock{Difficulty: 12}},
	}
	zd, warnings, err := igomud.ConvertZone(zone, 2, rooms, nil, "")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	north, ok := zd.Rooms[0].Exit(world.North)
	require.True(t, ok)
	assert.True(t, north.HasDoor)
	assert.True(t, north.IsHidden)
	assert.Equal(t, world.DoorLocked, north.State())
	assert.False(t, north.RequiresKey())
	assert.ErrorIs(t, north.Pick(11), world.ErrPickFailed)
	require.NoError(t, north.Pick(12))
	assert.Equal(t, world.DoorClosed, north.State())
}

// mentioning returns the warnings that contain s.
func mentioning(warnings []string, s string) []string {
	var out []string
	for _, w := range warnings {
		if strings.Contains(w, s) {
			out = append(out, w)
		}
	}
	return out
}
