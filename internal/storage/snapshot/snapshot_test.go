package snapshot_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/storage/snapshot"
)

func buildStore(t *testing.T) *world.Store {
	t.Helper()
	s := world.NewStore(zaptest.NewLogger(t))
	z, err := world.NewZone(30, "Northern Midgaard", 15)
	require.NoError(t, err)
	load := world.NewCommand(world.CmdLoadMobile)
	load.EntityID = 3060
	load.RoomID = 3001
	load.MaxCount = 2
	give := world.NewCommand(world.CmdGiveObject)
	give.IfFlag = 1
	give.EntityID = 3010
	give.ContainerID = 3060
	z.AddCommand(load)
	z.AddCommand(give)
	require.NoError(t, s.AddZone(z))

	temple, err := world.NewRoom(3001, "The Temple", world.SectorInside)
	require.NoError(t, err)
	temple.SetZoneID(30)
	require.NoError(t, temple.SetExit(world.North, world.NewDoor(3002, "gate", world.InvalidID)))
	square, err := world.NewRoom(3002, "The Square", world.SectorCity)
	require.NoError(t, err)
	square.SetZoneID(30)
	require.NoError(t, square.SetExit(world.South, world.NewDoor(3001, "gate", world.InvalidID)))
	require.NoError(t, s.AddRoom(temple))
	require.NoError(t, s.AddRoom(square))

	bread, err := world.NewObject(3010, "bread", world.ObjectFood)
	require.NoError(t, err)
	require.NoError(t, s.AddObjectPrototype(bread))
	guard, err := world.NewMobile(3060, "cityguard")
	require.NoError(t, err)
	require.NoError(t, s.AddMobilePrototype(guard))
	return s
}

func TestWriteRead_RoundTrip(t *testing.T) {
	src := buildStore(t)
	path := filepath.Join(t.TempDir(), "world.snap")

	st, err := snapshot.Write(path, src)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Zones)
	assert.Equal(t, 2, st.Rooms)
	assert.Equal(t, 1, st.Objects)
	assert.Equal(t, 1, st.Mobiles)
	assert.Positive(t, st.Bytes)

	got, rst, err := snapshot.Read(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, st, rst)
	require.NoError(t, got.ValidateExits())

	z, ok := got.Zone(30)
	require.True(t, ok)
	orig, _ := src.Zone(30)
	assert.Equal(t, orig.Commands(), z.Commands())
	assert.Equal(t, []world.EntityID{3001, 3002}, z.Rooms())
	assert.Equal(t, 15, z.ResetMinutes())

	to, err := got.Navigate(3001, world.North)
	require.NoError(t, err)
	assert.Equal(t, "The Square", to.Name())

	sum, err := got.ResetZone(30)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Failed, "prototypes survive the round trip")
	assert.Equal(t, 1, sum.MobilesSpawned)
	assert.Equal(t, 1, sum.ObjectsSpawned)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := snapshot.Read(filepath.Join(dir, "missing.snap"), nil)
	assert.ErrorIs(t, err, world.ErrFileNotFound)

	garbage := filepath.Join(dir, "garbage.snap")
	require.NoError(t, os.WriteFile(garbage, []byte("not zstd at all"), 0o644))
	_, _, err = snapshot.Read(garbage, nil)
	assert.ErrorIs(t, err, world.ErrParse)
}

func compress(t *testing.T, raw string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return &buf
}

func TestDecode_RejectsBadImages(t *testing.T) {
	_, _, err := snapshot.Decode(compress(t, `{"version": 99}`), nil)
	require.ErrorIs(t, err, world.ErrParse)
	assert.Contains(t, err.Error(), "unsupported version 99")

	_, _, err = snapshot.Decode(compress(t, `{"version": 1, "rooms": [`), nil)
	assert.ErrorIs(t, err, world.ErrParse)

	_, _, err = snapshot.Decode(compress(t, `{"version": 1, "rooms": [{"name": "no id"}]}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rooms[0]")
}

func TestEncodeDecode_EmptyStore(t *testing.T) {
	var buf bytes.Buffer
	st, err := snapshot.Encode(&buf, world.NewStore(nil))
	require.NoError(t, err)
	assert.Zero(t, st.Zones)

	s, _, err := snapshot.Decode(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, s.ZoneCount())
}
