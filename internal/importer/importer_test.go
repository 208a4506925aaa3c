package importer_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/importer"
	igomud "github.com/cory-johannsen/mudworld/internal/importer/gomud"
)

const midgaardZon = `* Northern Midgaard
M 0 3060 3001 0 2 ; cityguard
G 1 3010 0 3060 5
* the gate is shut at night
D 0 0 3001 0 1
W 0 0 0 0 30
`

func writeFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
}

func TestParseLegacyZone(t *testing.T) {
	z, err := importer.ParseLegacyZone(30, midgaardZon)
	require.NoError(t, err)
	assert.Equal(t, "Northern Midgaard", z.Name())
	assert.Equal(t, world.DefaultResetMinutes, z.ResetMinutes())

	cmds := z.Commands()
	require.Len(t, cmds, 5, "the naming comment is consumed")
	assert.Equal(t, world.CmdLoadMobile, cmds[0].Type)
	assert.Equal(t, "cityguard", cmds[0].Comment)
	assert.Equal(t, world.CmdComment, cmds[2].Type)
	assert.Equal(t, world.CmdOpenDoor, cmds[3].Type)
	assert.Equal(t, world.EntityID(world.North), cmds[3].EntityID)
	assert.Equal(t, world.CmdWait, cmds[4].Type)

	z, err = importer.ParseLegacyZone(7, "O 0 1 2 0 1\n")
	require.NoError(t, err)
	assert.Equal(t, "Zone 7", z.Name())

	_, err = importer.ParseLegacyZone(7, "Q 1 2 3\n")
	assert.ErrorIs(t, err, world.ErrParse)
}

func TestImporter_Run_Legacy(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"30.zon":    midgaardZon,
		"31.zon":    "O 0 3110 3100 0 1\n",
		"notes.zon": "* no number here\n",
		"30.txt":    "ignored",
	})
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	outDir := filepath.Join(t.TempDir(), "out")
	rep, err := importer.New(importer.NewLegacySource(logger), logger).Run(src, outDir)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Zones)
	assert.Equal(t, 6, rep.Commands)
	assert.Equal(t, []string{"30.json", "31.json"}, rep.Files)
	assert.Equal(t, 1, logs.FilterMessage("skipping file without a zone number").Len())

	data, err := os.ReadFile(filepath.Join(outDir, "30.json"))
	require.NoError(t, err)
	assert.Equal(t, "Northern Midgaard", gjson.GetBytes(data, "zone.name").String())

	z, err := world.ZoneFromFile(filepath.Join(outDir, "30.json"))
	require.NoError(t, err)
	assert.Len(t, z.Commands(), 5)

	s, lrep, err := world.LoadZonesFromDir(outDir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, lrep.Zones)
	assert.Equal(t, 2, s.ZoneCount())
}

func TestImporter_Run_Gomud(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"zones/z.yaml": `
name: My Zone
description: A zone.
rooms:
  - Room One
  - Room Two
`,
		"rooms/room_one.yaml": `
name: Room One
description: First.
exits:
  North:
    direction: North
    target: Room Two
`,
		"rooms/room_two.yaml": `
name: Room Two
description: Second.
exits:
  South:
    direction: South
    target: Room One
`,
	})

	outDir := t.TempDir()
	rep, err := importer.New(igomud.NewSource(40, "", nil), zaptest.NewLogger(t)).Run(src, outDir)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Zones)
	assert.Equal(t, 2, rep.Rooms)
	assert.Equal(t, []string{"40.json"}, rep.Files)

	s, _, err := world.LoadZonesFromDir(outDir, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.ValidateExits())
	to, err := s.Navigate(4000, world.North)
	require.NoError(t, err)
	assert.Equal(t, "Room Two", to.Name())
}

func TestImporter_Run_InvalidSourceDir(t *testing.T) {
	_, err := importer.New(igomud.NewSource(1, "", nil), nil).Run("/nonexistent/dir", t.TempDir())
	require.Error(t, err)

	_, err = importer.New(importer.NewLegacySource(nil), nil).Run(t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no zone files")
}

func TestImporter_Run_BadLegacyLine(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"5.zon": "M 0 1 2 0 1\nX broken\n"})
	_, err := importer.New(importer.NewLegacySource(nil), nil).Run(src, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5.zon")
	assert.ErrorIs(t, err, world.ErrParse)
}

// TestImporter_Run_NZonesProducesNFiles is a property-based test verifying that
// Run with N legacy zone files in the source produces exactly N output files.
func TestImporter_Run_NZonesProducesNFiles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "numZones")

		src := t.TempDir()
		for i := 0; i < n; i++ {
			body := fmt.Sprintf("* Zone number %d\nO 0 %d %d 0 1\n", i, i*100+10, i*100+1)
			if err := os.WriteFile(filepath.Join(src, fmt.Sprintf("%d.zon", i)), []byte(body), 0644); err != nil {
				rt.Fatal(err)
			}
		}

		outDir := t.TempDir()
		rep, err := importer.New(importer.NewLegacySource(nil), nil).Run(src, outDir)
		if err != nil {
			rt.Fatal(err)
		}
		entries, err := os.ReadDir(outDir)
		if err != nil {
			rt.Fatal(err)
		}
		assert.Equal(rt, n, len(entries),
			"Run with %d zone file(s) must produce exactly %d output file(s)", n, n)
		assert.Equal(rt, n, rep.Zones)
	})
}
