package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const midgaardZone = `{
	"zone": {"id": 30, "name": "Northern Midgaard", "lifespan": 15},
	"rooms": {"rooms": [
		{"id": 3001, "name": "The Temple", "sector": "1", "exits": {"north": {"to_room": 3002}}},
		{"id": 3002, "name": "The Square", "exits": {"south": {"to_room": 3001}}},
		{"name": "a room with no number"}
	]},
	"objects": [
		{"id": 3010, "name": "bread", "short": "a loaf of bread", "object_type": "food"},
		{"name": "nameless"}
	],
	"mobs": [
		{"id": 3060, "name": "cityguard", "level": 10},
		{"id": "guard", "name": "impostor"}
	]
}`

const sewerZone = `
id: 31
name: Sewers
lifespan: 5
rooms:
  - id: 3100
    name: Drain
    sector: inside
objects:
  - id: 3110
    name: rat tail
    object_type: food
`

func writeZoneFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

// TestLoader_LoadDir loads a JSON zone, a YAML zone and a corrupt file; bad
// records and the corrupt file are skipped with warnings.
func TestLoader_LoadDir(t *testing.T) {
	dir := writeZoneFiles(t, map[string]string{
		"30.json":    midgaardZone,
		"31.yaml":    sewerZone,
		"notes.json": `{"zone": `,
	})
	core, logs := observer.New(zap.DebugLevel)
	s := NewStore(zaptest.NewLogger(t))

	rep, err := NewLoader(zap.New(core)).LoadDir(s, dir, "*")
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Files: 2, Zones: 2, Rooms: 3, Objects: 2, Mobiles: 1, Skipped: 4}, rep)

	assert.Equal(t, 2, s.ZoneCount())
	assert.Equal(t, 3, s.RoomCount())
	require.NoError(t, s.ValidateExits())

	temple, ok := s.Room(3001)
	require.True(t, ok)
	assert.Equal(t, SectorCity, temple.Sector())
	assert.Equal(t, EntityID(30), temple.ZoneID())
	to, err := s.Navigate(3001, North)
	require.NoError(t, err)
	assert.Equal(t, EntityID(3002), to.ID())

	drain, ok := s.Room(3100)
	require.True(t, ok)
	assert.Equal(t, EntityID(31), drain.ZoneID())

	zone, ok := s.Zone(30)
	require.True(t, ok)
	assert.Equal(t, 15, zone.ResetMinutes())
	assert.Equal(t, []EntityID{3001, 3002}, zone.Rooms())

	for _, msg := range []string{"skipping room", "skipping object", "skipping mobile", "skipping zone file"} {
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage(msg).Len(), msg)
	}
	done := logs.FilterMessage("world loaded").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 4, done[0].ContextMap()["skipped"])
}

func TestLoader_LoadDir_DefaultPatternIsJSON(t *testing.T) {
	dir := writeZoneFiles(t, map[string]string{
		"30.json": midgaardZone,
		"31.yaml": sewerZone,
	})
	s, rep, err := LoadZonesFromDir(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Files)
	assert.Equal(t, 1, s.ZoneCount())
}

func TestLoader_LoadDir_NothingLoaded(t *testing.T) {
	_, _, err := LoadZonesFromDir(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrFileNotFound)

	dir := writeZoneFiles(t, map[string]string{"1.json": `[]`})
	_, rep, err := LoadZonesFromDir(dir, nil)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, 1, rep.Skipped)
}

func TestLoader_DuplicateZoneIsSkipped(t *testing.T) {
	dir := writeZoneFiles(t, map[string]string{
		"30.json": midgaardZone,
		"99.json": `{"id": 30, "name": "Again"}`,
	})
	s, rep, err := LoadZonesFromDir(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Files)
	assert.Equal(t, 4, rep.Skipped, "three bad records plus the duplicate file")
	z, ok := s.Zone(30)
	require.True(t, ok)
	assert.Equal(t, "Northern Midgaard", z.Name())
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader(nil)
	s := NewStore(nil)
	_, err := l.LoadFile(s, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	dir := writeZoneFiles(t, map[string]string{"5.yml": "id: [unclosed"})
	_, err = l.LoadFile(s, filepath.Join(dir, "5.yml"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoader_Schema(t *testing.T) {
	l := NewLoader(zaptest.NewLogger(t))
	require.NoError(t, l.UseSchema(""))
	s := NewStore(nil)

	_, err := l.Load(s, []byte(`{"name": "no number"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "schema validation failed")

	_, err = l.Load(s, []byte(`{"zone": {"id": 40, "name": "x", "min_level": [1]}}`))
	assert.ErrorIs(t, err, ErrParse)

	rep, err := l.Load(s, []byte(midgaardZone))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Zones)

	assert.ErrorIs(t, l.UseSchema(filepath.Join(t.TempDir(), "nope.json")), ErrParse)
}

func TestJSONCompatible_NumericKeys(t *testing.T) {
	out, err := jsonCompatible(map[any]any{1: "one", "two": []any{map[any]any{3: true}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "one", "two": []any{map[string]any{"3": true}}}, out)

	_, err = jsonCompatible(map[any]any{1.5: "x"})
	assert.Error(t, err)
}
