package world

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newClockedZone(t testing.TB, mode ResetMode, minutes int) (*Zone, *time.Time) {
	t.Helper()
	z, err := NewZone(30, "Midgaard", minutes)
	require.NoError(t, err)
	z.SetResetMode(mode)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	z.SetClock(func() time.Time { return now })
	return z, &now
}

func TestNewZone_Defaults(t *testing.T) {
	z, err := NewZone(30, "Midgaard", DefaultResetMinutes)
	require.NoError(t, err)
	assert.Equal(t, ResetEmpty, z.ResetMode())
	assert.Equal(t, 0, z.MinLevel())
	assert.Equal(t, 100, z.MaxLevel())
	assert.False(t, z.FirstRoom().IsValid())
	assert.NoError(t, z.Validate())

	_, err = NewZone(InvalidID, "x", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewZone(1, "", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewZone(1, "x", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestZone_LevelRange(t *testing.T) {
	z, err := NewZone(30, "Midgaard", 5)
	require.NoError(t, err)
	z.SetMinLevel(10)
	z.SetMaxLevel(5)
	assert.Equal(t, 10, z.MaxLevel(), "max is clamped to min")
	assert.True(t, z.AllowsLevel(10))
	assert.False(t, z.AllowsLevel(9))
}

func TestZone_Flags(t *testing.T) {
	z, err := NewZone(30, "Midgaard", 5)
	require.NoError(t, err)
	assert.True(t, z.AllowsCombat())
	assert.True(t, z.AllowsMortals())

	for _, name := range []string{"noattack", "NO_MORTALS", "ChaosOk", "Underground"} {
		f, ok := ParseZoneFlag(name)
		require.True(t, ok, name)
		z.SetFlag(f, true)
	}
	assert.False(t, z.AllowsCombat())
	assert.False(t, z.AllowsMortals())
	assert.True(t, z.IsPKZone())
	assert.True(t, z.IsUnderground())
	assert.Len(t, z.Flags(), 4)

	z.SetFlag(ZoneNoAttack, false)
	assert.True(t, z.AllowsCombat())
}

func TestZone_CommandListEditing(t *testing.T) {
	z, err := NewZone(30, "Midgaard", 5)
	require.NoError(t, err)
	z.AddCommand(NewCommand(CmdLoadMobile))
	z.AddCommand(NewCommand(CmdLoadObject))
	require.NoError(t, z.InsertCommand(1, NewCommand(CmdComment)))
	require.NoError(t, z.InsertCommand(3, NewCommand(CmdHalt)))
	assert.ErrorIs(t, z.InsertCommand(9, NewCommand(CmdHalt)), ErrInvalidArgument)

	types := func() []ZoneCommandType {
		var out []ZoneCommandType
		for _, c := range z.Commands() {
			out = append(out, c.Type)
		}
		return out
	}
	assert.Equal(t, []ZoneCommandType{CmdLoadMobile, CmdComment, CmdLoadObject, CmdHalt}, types())

	require.NoError(t, z.RemoveCommand(0))
	assert.ErrorIs(t, z.RemoveCommand(3), ErrInvalidArgument)
	assert.Equal(t, []ZoneCommandType{CmdComment, CmdLoadObject, CmdHalt}, types())

	cmds := z.Commands()
	cmds[0].Type = CmdForce
	assert.Equal(t, CmdComment, z.Commands()[0].Type, "Commands returns a copy")

	z.ClearCommands()
	assert.Empty(t, z.Commands())
}

func TestZone_NeedsReset(t *testing.T) {
	t.Run("never and manual", func(t *testing.T) {
		for _, mode := range []ResetMode{ResetNever, ResetManual} {
			z, now := newClockedZone(t, mode, 1)
			assert.False(t, z.NeedsReset(now.Add(time.Hour)), mode.String())
		}
	})
	t.Run("on reboot", func(t *testing.T) {
		z, now := newClockedZone(t, ResetOnReboot, 1)
		assert.True(t, z.NeedsReset(*now))
		z.ForceReset()
		assert.False(t, z.NeedsReset(now.Add(time.Hour)))
	})
	t.Run("always", func(t *testing.T) {
		z, now := newClockedZone(t, ResetAlways, 10)
		z.SetPlayerCount(3)
		assert.False(t, z.NeedsReset(now.Add(9*time.Minute)))
		assert.True(t, z.NeedsReset(now.Add(10*time.Minute)))
	})
	t.Run("empty", func(t *testing.T) {
		z, now := newClockedZone(t, ResetEmpty, 10)
		later := now.Add(15 * time.Minute)
		assert.True(t, z.NeedsReset(later))
		z.SetPlayerCount(1)
		assert.False(t, z.NeedsReset(later))
	})
}

func TestZone_ForceReset_UpdatesStats(t *testing.T) {
	z, now := newClockedZone(t, ResetEmpty, 10)
	var cleaned []EntityID
	z.SetCallbacks(ZoneCallbacks{CleanupZoneMobiles: func(id EntityID) { cleaned = append(cleaned, id) }})

	*now = now.Add(20 * time.Minute)
	sum := z.ForceReset()
	assert.NotEqual(t, sum.RunID.String(), "")
	assert.Equal(t, []EntityID{30}, cleaned)
	st := z.Stats()
	assert.Equal(t, 1, st.ResetCount)
	assert.Equal(t, *now, st.LastReset)
	assert.Equal(t, 20*time.Minute, st.Uptime(*now))
	assert.Equal(t, time.Duration(0), st.TimeSinceReset(*now))
}

func TestZone_Validate_Aggregates(t *testing.T) {
	z, err := NewZone(30, "Midgaard", 5)
	require.NoError(t, err)
	z.resetMinutes = -1
	z.minLevel = -2
	z.maxLevel = -5
	err = z.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "reset minutes cannot be negative")
	assert.Contains(t, err.Error(), "min level cannot be negative")
	assert.Contains(t, err.Error(), "below min level")
}

func TestZone_JSONRoundTrip(t *testing.T) {
	z, err := NewZone(30, "Midgaard", 15)
	require.NoError(t, err)
	z.SetResetMode(ResetAlways)
	z.SetMinLevel(2)
	z.SetMaxLevel(40)
	z.SetBuilders("Alice, Bob")
	z.SetFirstRoom(3000)
	z.SetLastRoom(3099)
	z.SetFlag(ZoneRecallOk, true)
	z.AddRoom(3001)
	z.AddRoom(3000)

	load := NewCommand(CmdLoadObject)
	load.EntityID = 3010
	load.RoomID = 3001
	load.MaxCount = 3
	load.Comment = "bread"
	load.Contents = []ObjectContent{{ObjectID: 3011, Quantity: 2, Contents: []ObjectContent{{ObjectID: 3012, Quantity: 1}}}}
	force := NewCommand(CmdForce)
	force.IfFlag = 1
	force.EntityID = 3001
	force.Command = "say hello"
	door := NewCommand(CmdLockDoor)
	door.EntityID = EntityID(North)
	door.RoomID = 3001
	door.ResetGroup = -1
	z.AddCommand(load)
	z.AddCommand(force)
	z.AddCommand(door)

	data, err := z.MarshalJSON()
	require.NoError(t, err)
	back, err := ZoneFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, z.ID(), back.ID())
	assert.Equal(t, "Midgaard", back.Name())
	assert.Equal(t, 15, back.ResetMinutes())
	assert.Equal(t, ResetAlways, back.ResetMode())
	assert.Equal(t, 2, back.MinLevel())
	assert.Equal(t, 40, back.MaxLevel())
	assert.Equal(t, "Alice, Bob", back.Builders())
	assert.Equal(t, EntityID(3000), back.FirstRoom())
	assert.Equal(t, EntityID(3099), back.LastRoom())
	assert.True(t, back.HasFlag(ZoneRecallOk))
	assert.Equal(t, []EntityID{3000, 3001}, back.Rooms())
	assert.Equal(t, z.Commands(), back.Commands())
}

func TestZoneCommand_JSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmd := NewCommand(ZoneCommandType(rapid.IntRange(0, int(CmdHalt)).Draw(t, "type")))
		cmd.IfFlag = rapid.IntRange(-1, 1).Draw(t, "if_flag")
		cmd.EntityID = EntityID(rapid.Uint64Range(0, 1<<20).Draw(t, "entity"))
		cmd.MaxCount = rapid.IntRange(-1, 100).Draw(t, "max")
		cmd.ResetGroup = rapid.IntRange(-5, 5).Draw(t, "group")
		cmd.Comment = rapid.StringMatching(`[a-z ]{0,10}`).Draw(t, "comment")

		data, err := cmd.MarshalJSON()
		require.NoError(t, err)
		back, err := ZoneCommandFromJSON(data)
		require.NoError(t, err)
		assert.Equal(t, cmd, back)
	})
}

func TestZoneFromJSON_NestedResets(t *testing.T) {
	data := []byte(`{
		"zone": {
			"id": 30,
			"name": "Northern Midgaard",
			"lifespan": 20,
			"top": 3099,
			"flags": ["NOMORTALS", "summon_ok"],
			"resets": {
				"mob": [{
					"id": 3001, "room": 3005, "max": 2,
					"carrying": [{"id": 3010, "contains": [{"id": 3012, "quantity": 2}, {"id": 3012}]}],
					"equipped": [{"id": 3020, "location": "Wield"}, {"id": 3021, "location": 6, "contains": [{"id": 3012}]}]
				}],
				"object": [{
					"id": 3030, "room": 3005,
					"create_objects": [{"id": 3012}],
					"contains": [{"id": 3012, "quantity": 2}]
				}],
				"remove": [{"id": 3040, "room": 3006}],
				"door": [{"room": 3005, "direction": "east", "state": "locked"}, {"room": 3006, "state": ["closed"]}]
			}
		},
		"rooms": {"rooms": [{"id": 3005, "name": "Square"}, 3006]}
	}`)
	z, err := ZoneFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 20, z.ResetMinutes())
	assert.Equal(t, EntityID(3099), z.LastRoom())
	assert.False(t, z.AllowsMortals())
	assert.True(t, z.AllowsSummon())
	assert.Equal(t, []EntityID{3005, 3006}, z.Rooms())

	cmds := z.Commands()
	require.Len(t, cmds, 8)

	assert.Equal(t, CmdLoadMobile, cmds[0].Type)
	assert.Equal(t, EntityID(3001), cmds[0].EntityID)
	assert.Equal(t, EntityID(3005), cmds[0].RoomID)
	assert.Equal(t, 2, cmds[0].MaxCount)
	assert.Equal(t, -1, cmds[0].ResetGroup)

	assert.Equal(t, CmdGiveObject, cmds[1].Type)
	assert.Equal(t, -1, cmds[1].ResetGroup)
	assert.Equal(t, EntityID(3001), cmds[1].ContainerID)
	require.Len(t, cmds[1].Contents, 1)
	assert.Equal(t, 3, cmds[1].Contents[0].Quantity, "duplicate contents are consolidated")

	assert.Equal(t, CmdEquipObject, cmds[2].Type)
	assert.Equal(t, int(SlotWield), cmds[2].MaxCount)
	assert.Equal(t, 6, cmds[3].MaxCount)
	assert.Empty(t, cmds[2].Contents)
	require.Len(t, cmds[3].Contents, 1, "an equipped container keeps its contents")
	assert.Equal(t, EntityID(3012), cmds[3].Contents[0].ObjectID)

	assert.Equal(t, CmdLoadObject, cmds[4].Type)
	require.Len(t, cmds[4].Contents, 1)
	assert.Equal(t, 3, cmds[4].Contents[0].Quantity)

	assert.Equal(t, CmdRemoveObject, cmds[5].Type)
	assert.Equal(t, EntityID(3006), cmds[5].RoomID)

	assert.Equal(t, CmdLockDoor, cmds[6].Type)
	assert.Equal(t, EntityID(East), cmds[6].EntityID)
	assert.Equal(t, CmdCloseDoor, cmds[7].Type)
	assert.Equal(t, EntityID(North), cmds[7].EntityID, "direction defaults to north")
}

func TestZoneFromJSON_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"malformed":        `{"id": 1,`,
		"not an object":    `[1,2]`,
		"missing id":       `{"name": "x"}`,
		"bad command type": `{"id": 1, "name": "x", "commands": [{"command_type": "Dance"}]}`,
		"bad content":      `{"id": 1, "name": "x", "commands": [{"command_type": "Load_Object", "contents": [{"quantity": 2}]}]}`,
		"bad level":        `{"id": 1, "name": "x", "min_level": "high"}`,
	} {
		_, err := ZoneFromJSON([]byte(doc))
		assert.ErrorIs(t, err, ErrParse, name)
	}
}

func TestZoneFile_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := ZoneFilePath(dir, 30)
	assert.Equal(t, filepath.Join(dir, "30.json"), path)

	z, err := NewZone(30, "Midgaard", 15)
	require.NoError(t, err)
	cmd := NewCommand(CmdLoadMobile)
	cmd.EntityID = 3001
	cmd.RoomID = 3005
	z.AddCommand(cmd)
	require.NoError(t, z.SaveToFile(path))
	require.NoError(t, ValidateZoneFile(path))

	loaded, err := ZoneFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, z.Commands(), loaded.Commands())

	z.SetBuilders("Carol")
	z.ClearCommands()
	z.AddRoom(3005)
	require.NoError(t, z.SaveToFile(path))

	loaded.AddRoom(3050)
	require.NoError(t, loaded.ReloadFromFile(path))
	assert.Equal(t, "Carol", loaded.Builders())
	assert.Empty(t, loaded.Commands())
	assert.Equal(t, []EntityID{3050}, loaded.Rooms(), "membership is runtime state and survives a reload")

	other, err := NewZone(31, "Elsewhere", 15)
	require.NoError(t, err)
	assert.ErrorIs(t, other.ReloadFromFile(path), ErrInvalidArgument)
}

func TestZoneFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := ZoneFromFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	bad := filepath.Join(dir, "31.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"zone": {"id": 31}}`), 0o644))
	assert.ErrorIs(t, ValidateZoneFile(bad), ErrParse)

	z, err := NewZone(30, "Midgaard", 15)
	require.NoError(t, err)
	assert.ErrorIs(t, z.SaveToFile(filepath.Join(dir, "no", "such", "dir.json")), ErrFileAccess)
}

func TestExtractZoneNumber(t *testing.T) {
	for in, want := range map[string]int{
		"lib/world/zon/30.zon": 30,
		"zones/186.json":       186,
		"zones/7.yaml":         7,
	} {
		n, ok := ExtractZoneNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, n, in)
	}
	_, ok := ExtractZoneNumber("zones/readme.md")
	assert.False(t, ok)
}
