package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// keyRing is a KeyHolder carrying a fixed set of key ids.
type keyRing []EntityID

func (k keyRing) HasKey(key EntityID) bool {
	for _, id := range k {
		if id == key {
			return true
		}
	}
	return false
}

func newTestRoom(t testing.TB, id EntityID, name string) *Room {
	t.Helper()
	r, err := NewRoom(id, name, SectorInside)
	require.NoError(t, err)
	return r
}

func TestDirection_Opposite(t *testing.T) {
	pairs := [][2]Direction{
		{North, South},
		{East, West},
		{Northeast, Southwest},
		{Northwest, Southeast},
		{Up, Down},
		{In, Out},
	}
	for _, pair := range pairs {
		assert.Equal(t, pair[1], pair[0].Opposite())
		assert.Equal(t, pair[0], pair[1].Opposite())
	}
	assert.Equal(t, DirectionNone, Portal.Opposite())
}

func TestPropertyOppositeIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.SampledFrom(AllDirections).Draw(t, "dir")
		if d == Portal {
			return
		}
		assert.Equal(t, d, d.Opposite().Opposite(), "opposite should be an involution for %s", d)
	})
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"North": North, "north": North, "NE": Northeast, "sw": Southwest, " up ": Up, "portal": Portal,
	} {
		got, ok := ParseDirection(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDirection("sideways")
	assert.False(t, ok)
}

func TestSector_Properties(t *testing.T) {
	s, ok := ParseSectorType("water_swim")
	require.True(t, ok)
	assert.True(t, s.IsWater())
	assert.True(t, s.RequiresSwimming())
	assert.False(t, SectorWaterNoswim.RequiresSwimming())
	assert.Equal(t, SectorUndefined, SectorFromNumber(99))
}

func TestNewRoom_RejectsBadInput(t *testing.T) {
	_, err := NewRoom(InvalidID, "x", SectorCity)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRoom(1, "", SectorCity)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRoom(1, "x", SectorUndefined)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRoom_Exits(t *testing.T) {
	r := newTestRoom(t, 100, "Hall")
	require.NoError(t, r.SetExit(South, NewExit(102)))
	require.NoError(t, r.SetExit(North, NewExit(101)))
	require.NoError(t, r.SetExit(Up, NewExit(InvalidID)))
	hidden := NewDoor(103, "panel", InvalidID)
	hidden.IsHidden = true
	require.NoError(t, r.SetExit(East, hidden))

	assert.Equal(t, []Direction{North, East, South, Up}, r.Exits())
	assert.Equal(t, []Direction{North, East, South}, r.AvailableExits(), "stubs are not available")
	assert.Equal(t, []Direction{North, South}, r.VisibleExits())

	assert.ErrorIs(t, r.SetExit(DirectionNone, NewExit(1)), ErrInvalidArgument)
	assert.ErrorIs(t, r.SetExit(West, nil), ErrInvalidArgument)
}

func TestRoom_SetExit_LockedDoorIsStoredClosed(t *testing.T) {
	r := newTestRoom(t, 100, "Hall")
	d := NewDoor(101, "gate", InvalidID)
	d.IsLocked = true
	require.NoError(t, r.SetExit(North, d))
	assert.Equal(t, DoorLocked, d.State())
	assert.True(t, d.IsClosed)
	assert.NoError(t, r.Validate())
}

// TestRoom_DoorLockCycle closes and locks a keyed door, then fails to
// unlock it without the key.
func TestRoom_DoorLockCycle(t *testing.T) {
	r := newTestRoom(t, 100, "Hall")
	require.NoError(t, r.SetExit(North, NewDoor(101, "door", 150)))
	key := keyRing{150}

	require.NoError(t, r.CloseDoor(North))
	require.NoError(t, r.LockDoor(North, key))
	exit, _ := r.Exit(North)
	assert.True(t, exit.IsClosed)
	assert.True(t, exit.IsLocked)

	err := r.UnlockDoor(North, keyRing{})
	assert.ErrorIs(t, err, ErrWrongKey)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.True(t, exit.IsLocked)
	assert.False(t, exit.IsPassable())

	require.NoError(t, r.UnlockDoor(North, key))
	require.NoError(t, r.OpenDoor(North))
	assert.True(t, exit.IsPassable())
}

func TestExitInfo_Transitions(t *testing.T) {
	e := NewDoor(1, "door", InvalidID)
	assert.ErrorIs(t, e.Open(), ErrDoorAlreadyOpen)
	assert.ErrorIs(t, e.Lock(nil), ErrDoorNotClosed)
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Close(), ErrDoorAlreadyClosed)
	require.NoError(t, e.Lock(nil), "keyless doors lock without a key")
	assert.ErrorIs(t, e.Lock(nil), ErrDoorAlreadyLocked)
	assert.ErrorIs(t, e.Open(), ErrDoorLocked)

	plain := NewExit(1)
	assert.ErrorIs(t, plain.Open(), ErrNoDoor)
	assert.ErrorIs(t, plain.Lock(nil), ErrNoKeyhole)
	assert.Equal(t, "", plain.DoorStateDescription())
	assert.Equal(t, "closed locked door", e.DoorStateDescription())
}

func TestExitInfo_Pick(t *testing.T) {
	e := NewDoor(1, "door", 9)
	e.Difficulty = 50
	e.SetState(DoorLocked)

	assert.ErrorIs(t, e.Pick(10), ErrPickFailed)
	require.NoError(t, e.Pick(50))
	assert.Equal(t, DoorClosed, e.State())

	e.SetState(DoorLocked)
	e.IsPickproof = true
	assert.ErrorIs(t, e.Pick(100), ErrPickproof)
}

// TestPropertyLockedImpliesClosed drives a door through random operations
// and checks that it is never locked while open.
func TestPropertyLockedImpliesClosed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := NewDoor(1, "door", 7)
		ops := rapid.SliceOf(rapid.IntRange(int(OpOpen), int(OpPick))).Draw(t, "ops")
		for _, op := range ops {
			_ = e.apply(DoorOp(op), keyRing{7}, 100)
			assert.False(t, e.IsLocked && !e.IsClosed, "door locked while open")
		}
	})
}

func TestSyncOppositeDoor(t *testing.T) {
	a := newTestRoom(t, 100, "A")
	b := newTestRoom(t, 101, "B")
	require.NoError(t, a.SetExit(North, NewDoor(101, "door", 5)))
	require.NoError(t, b.SetExit(South, NewDoor(100, "door", 5)))

	near, _ := a.Exit(North)
	near.SetState(DoorLocked)
	assert.True(t, SyncOppositeDoor(a, North, b))
	far, _ := b.Exit(South)
	assert.Equal(t, DoorLocked, far.State())

	far.KeyID = 6
	near.SetState(DoorOpen)
	assert.False(t, SyncOppositeDoor(a, North, b), "doors with different keys are not paired")
	assert.Equal(t, DoorLocked, far.State())
}

func TestSyncOppositeDoor_FarDoorLeadsElsewhere(t *testing.T) {
	a := newTestRoom(t, 100, "A")
	b := newTestRoom(t, 101, "B")
	require.NoError(t, a.SetExit(North, NewDoor(101, "door", InvalidID)))
	require.NoError(t, b.SetExit(South, NewDoor(102, "door", InvalidID)))

	near, _ := a.Exit(North)
	near.SetState(DoorClosed)
	assert.False(t, SyncOppositeDoor(a, North, b))
	far, _ := b.Exit(South)
	assert.Equal(t, DoorOpen, far.State())
}

func TestRoom_Lighting(t *testing.T) {
	r := newTestRoom(t, 100, "Cellar")
	r.SetLightLevel(-5)
	assert.True(t, r.IsDark())

	torch, err := NewObject(1, "torch", ObjectLight)
	require.NoError(t, err)
	torch.SetLightInfo(LightInfo{Duration: -1, Brightness: 10, Lit: true})
	r.Contents().AddObject(torch)
	assert.False(t, r.IsDark())

	r.SetFlag(RoomDark, true)
	assert.True(t, r.IsDark())
	r.SetFlag(RoomAlwaysLit, true)
	assert.Positive(t, r.EffectiveLight())
}

func TestRoom_NegativeLightOverridesSector(t *testing.T) {
	r, err := NewRoom(100, "Shadowed alley", SectorDesert)
	require.NoError(t, err)
	assert.False(t, r.IsDark())

	r.SetLightLevel(-1)
	assert.True(t, r.IsDark(), "desert sunlight does not reach a room with negative light")
	assert.Equal(t, 0, r.EffectiveLight())

	r.SetLightLevel(1)
	assert.Equal(t, 1+SectorDesert.LightLevel(), r.EffectiveLight())
}

func TestRoom_CanAccommodate(t *testing.T) {
	r := newTestRoom(t, 100, "Closet")
	r.SetFlag(RoomOnePerson, true)
	proto, err := NewMobile(3000, "rat")
	require.NoError(t, err)

	assert.True(t, r.CanAccommodate(proto.Spawn()))
	r.SetFlag(RoomNoMob, true)
	assert.False(t, r.CanAccommodate(proto.Spawn()))
	assert.False(t, r.CanAccommodate(nil))
}

func TestRoomContents_AddRemove(t *testing.T) {
	r := newTestRoom(t, 100, "Hall")
	o := newTestItem(t, 5, 1)
	r.Contents().AddObject(o)
	r.Contents().AddObject(nil)
	assert.Len(t, r.Contents().Objects(), 1)
	found, ok := r.Contents().FindObject(5)
	require.True(t, ok)
	assert.Same(t, o, found)
	assert.True(t, r.Contents().RemoveObject(5))
	assert.False(t, r.Contents().RemoveObject(5))
}

func TestRoomFromJSON_LegacyExits(t *testing.T) {
	data := []byte(`{
		"id": "3001",
		"name": "The Temple",
		"description": "A quiet temple.",
		"sector": "1",
		"flags": "Peaceful, Indoors",
		"exits": {
			"north": {"destination": "3002", "door": {"state": ["CLOSED", "LOCKED"]}, "key": "3099"},
			"down": {"description": "Darkness.", "to_room": -1},
			"sideways": {"to_room": 1}
		}
	}`)
	r, err := RoomFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, SectorCity, r.Sector())
	assert.True(t, r.HasFlag(RoomPeaceful))
	assert.True(t, r.HasFlag(RoomIndoors))

	n, ok := r.Exit(North)
	require.True(t, ok)
	assert.Equal(t, EntityID(3002), n.ToRoom)
	assert.Equal(t, DoorLocked, n.State())
	assert.Equal(t, EntityID(3099), n.KeyID)

	d, ok := r.Exit(Down)
	require.True(t, ok)
	assert.False(t, d.ToRoom.IsValid())
	assert.Len(t, r.Exits(), 2, "unknown directions are skipped")
}

func TestRoom_JSONRoundTrip(t *testing.T) {
	r := newTestRoom(t, 3001, "The Temple")
	r.SetGround("A quiet temple.")
	r.SetZoneID(30)
	r.SetFlag(RoomPeaceful, true)
	door := NewDoor(3002, "gate", 3099)
	door.IsHidden = true
	door.Difficulty = 20
	door.SetState(DoorClosed)
	require.NoError(t, r.SetExit(North, door))
	require.NoError(t, r.SetExit(Down, NewExit(3003)))

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	back, err := RoomFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, r.ID(), back.ID())
	assert.Equal(t, "A quiet temple.", back.Ground())
	assert.Equal(t, EntityID(30), back.ZoneID())
	assert.True(t, back.HasFlag(RoomPeaceful))
	n, ok := back.Exit(North)
	require.True(t, ok)
	assert.Equal(t, *door, *n)
	assert.Equal(t, r.Exits(), back.Exits())
}
