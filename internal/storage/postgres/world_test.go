package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudworld/internal/game/world"
	"github.com/cory-johannsen/mudworld/internal/storage/postgres"
	"github.com/cory-johannsen/mudworld/internal/testutil"
)

func setupWorldRepo(t *testing.T) *postgres.WorldRepository {
	t.Helper()
	return postgres.NewWorldRepository(testutil.NewPool(t), zaptest.NewLogger(t))
}

func makeTestStore(t *testing.T) *world.Store {
	t.Helper()
	s := world.NewStore(zaptest.NewLogger(t))
	z, err := world.NewZone(30, "Northern Midgaard", 15)
	require.NoError(t, err)
	load := world.NewCommand(world.CmdLoadObject)
	load.EntityID = 3010
	load.RoomID = 3001
	z.AddCommand(load)
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

func TestWorldRepository_ZoneRoundTrip(t *testing.T) {
	repo := setupWorldRepo(t)
	ctx := context.Background()
	z, err := world.NewZone(12, "Sewers", 5)
	require.NoError(t, err)
	z.AddCommand(world.NewCommand(world.CmdHalt))
	require.NoError(t, repo.SaveZone(ctx, z))

	got, err := repo.LoadZone(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "Sewers", got.Name())
	assert.Equal(t, z.Commands(), got.Commands())

	z.SetName("Deep Sewers")
	require.NoError(t, repo.SaveZone(ctx, z), "saving again updates the row")
	got, err = repo.LoadZone(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "Deep Sewers", got.Name())

	_, err = repo.LoadZone(ctx, 404)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestWorldRepository_RecordsRoundTrip(t *testing.T) {
	repo := setupWorldRepo(t)
	ctx := context.Background()
	s := makeTestStore(t)

	temple, _ := s.Room(3001)
	require.NoError(t, repo.SaveRoom(ctx, temple))
	room, err := repo.LoadRoom(ctx, 3001)
	require.NoError(t, err)
	assert.Equal(t, "The Temple", room.Name())
	assert.Equal(t, world.EntityID(30), room.ZoneID())
	exit, ok := room.Exit(world.North)
	require.True(t, ok)
	assert.Equal(t, world.EntityID(3002), exit.ToRoom)

	bread, _ := s.ObjectPrototype(3010)
	require.NoError(t, repo.SaveObject(ctx, bread))
	obj, err := repo.LoadObject(ctx, 3010)
	require.NoError(t, err)
	assert.Equal(t, world.ObjectFood, obj.Type())

	guard, _ := s.MobilePrototype(3060)
	require.NoError(t, repo.SaveMobile(ctx, guard))
	mob, err := repo.LoadMobile(ctx, 3060)
	require.NoError(t, err)
	assert.Equal(t, "cityguard", mob.Name())

	_, err = repo.LoadRoom(ctx, 1)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
	_, err = repo.LoadObject(ctx, 1)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
	_, err = repo.LoadMobile(ctx, 1)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestWorldRepository_SaveAndLoadStore(t *testing.T) {
	repo := setupWorldRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveStore(ctx, makeTestStore(t)))

	ids, err := repo.ListZoneIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []world.EntityID{30}, ids)

	restored := world.NewStore(zaptest.NewLogger(t))
	require.NoError(t, repo.LoadStore(ctx, restored))
	assert.Equal(t, 1, restored.ZoneCount())
	assert.Equal(t, 2, restored.RoomCount())
	require.NoError(t, restored.ValidateExits())

	sum, err := restored.ResetZone(30)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ObjectsSpawned)
}

func TestPropertyWorldRepository_ZoneNamesSurvive(t *testing.T) {
	repo := setupWorldRepo(t)
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		id := world.EntityID(rapid.Uint64Range(1, 1<<40).Draw(rt, "id"))
		name := rapid.StringMatching(`[A-Za-z][A-Za-z ']{0,30}`).Draw(rt, "name")
		z, err := world.NewZone(id, name, 10)
		require.NoError(rt, err)
		require.NoError(rt, repo.SaveZone(ctx, z))
		got, err := repo.LoadZone(ctx, id)
		require.NoError(rt, err)
		assert.Equal(rt, z.Name(), got.Name())
	})
}
