package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/world"
)

// ErrNotFound is returned when a world record lookup yields no results.
var ErrNotFound = errors.New("world record not found")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// table names one JSONB record table.
type table string

const (
	tableZones   table = "zones"
	tableRooms   table = "rooms"
	tableObjects table = "object_prototypes"
	tableMobiles table = "mobile_prototypes"
)

// WorldRepository persists zones, rooms and prototypes as their JSON
// encodings in JSONB columns.
type WorldRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewWorldRepository creates a WorldRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewWorldRepository(db *pgxpool.Pool, logger *zap.Logger) *WorldRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorldRepository{db: db, logger: logger}
}

// SaveZone upserts a zone with its reset program.
//
// Postcondition: The stored row reflects z.
func (r *WorldRepository) SaveZone(ctx context.Context, z *world.Zone) error {
	return saveZone(ctx, r.db, z)
}

// LoadZone loads a zone by id.
//
// Postcondition: Returns ErrNotFound when no zone has id.
func (r *WorldRepository) LoadZone(ctx context.Context, id world.EntityID) (*world.Zone, error) {
	data, err := load(ctx, r.db, tableZones, id)
	if err != nil {
		return nil, err
	}
	return world.ZoneFromJSON(data)
}

// ListZoneIDs returns every stored zone id in ascending order.
func (r *WorldRepository) ListZoneIDs(ctx context.Context) ([]world.EntityID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM zones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (world.EntityID, error) {
		var id int64
		err := row.Scan(&id)
		return world.EntityID(id), err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning zone ids: %w", err)
	}
	return ids, nil
}

// SaveRoom upserts a room.
func (r *WorldRepository) SaveRoom(ctx context.Context, room *world.Room) error {
	return saveRoom(ctx, r.db, room)
}

// LoadRoom loads a room by id.
//
// Postcondition: Returns ErrNotFound when no room has id.
func (r *WorldRepository) LoadRoom(ctx context.Context, id world.EntityID) (*world.Room, error) {
	data, err := load(ctx, r.db, tableRooms, id)
	if err != nil {
		return nil, err
	}
	return world.RoomFromJSON(data)
}

// SaveObject upserts an object prototype.
func (r *WorldRepository) SaveObject(ctx context.Context, o *world.Object) error {
	return saveRecord(ctx, r.db, tableObjects, o.ID(), o.Name(), o)
}

// LoadObject loads an object prototype by id.
//
// Postcondition: Returns ErrNotFound when no object has id.
func (r *WorldRepository) LoadObject(ctx context.Context, id world.EntityID) (*world.Object, error) {
	data, err := load(ctx, r.db, tableObjects, id)
	if err != nil {
		return nil, err
	}
	return world.ObjectFromJSON(data)
}

// SaveMobile upserts a mobile prototype.
func (r *WorldRepository) SaveMobile(ctx context.Context, m *world.Mobile) error {
	return saveRecord(ctx, r.db, tableMobiles, m.ID(), m.Name(), m)
}

// LoadMobile loads a mobile prototype by id.
//
// Postcondition: Returns ErrNotFound when no mobile has id.
func (r *WorldRepository) LoadMobile(ctx context.Context, id world.EntityID) (*world.Mobile, error) {
	data, err := load(ctx, r.db, tableMobiles, id)
	if err != nil {
		return nil, err
	}
	return world.MobileFromJSON(data)
}

// SaveStore writes every zone, room and prototype of s in one transaction.
//
// Postcondition: Either every record is stored or none is.
func (r *WorldRepository) SaveStore(ctx context.Context, s *world.Store) error {
	zones, rooms := s.Zones(), s.Rooms()
	objects, mobiles := s.ObjectPrototypes(), s.MobilePrototypes()
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, z := range zones {
			if err := saveZone(ctx, tx, z); err != nil {
				return err
			}
		}
		for _, room := range rooms {
			if err := saveRoom(ctx, tx, room); err != nil {
				return err
			}
		}
		for _, o := range objects {
			if err := saveRecord(ctx, tx, tableObjects, o.ID(), o.Name(), o); err != nil {
				return err
			}
		}
		for _, m := range mobiles {
			if err := saveRecord(ctx, tx, tableMobiles, m.ID(), m.Name(), m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving world: %w", err)
	}
	r.logger.Info("world saved",
		zap.Int("zones", len(zones)),
		zap.Int("rooms", len(rooms)),
		zap.Int("objects", len(objects)),
		zap.Int("mobiles", len(mobiles)),
	)
	return nil
}

// LoadStore reads every stored record into s. Zones are added before rooms
// so rooms join them.
//
// Postcondition: Returns the first decoding or insertion error.
func (r *WorldRepository) LoadStore(ctx context.Context, s *world.Store) error {
	steps := []struct {
		t   table
		add func([]byte) error
	}{
		{tableZones, func(b []byte) error {
			z, err := world.ZoneFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddZone(z)
		}},
		{tableRooms, func(b []byte) error {
			room, err := world.RoomFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddRoom(room)
		}},
		{tableObjects, func(b []byte) error {
			o, err := world.ObjectFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddObjectPrototype(o)
		}},
		{tableMobiles, func(b []byte) error {
			m, err := world.MobileFromJSON(b)
			if err != nil {
				return err
			}
			return s.AddMobilePrototype(m)
		}},
	}
	for _, step := range steps {
		rows, err := r.db.Query(ctx, `SELECT data FROM `+string(step.t)+` ORDER BY id`)
		if err != nil {
			return fmt.Errorf("reading %s: %w", step.t, err)
		}
		docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
		if err != nil {
			return fmt.Errorf("scanning %s: %w", step.t, err)
		}
		for _, doc := range docs {
			if err := step.add(doc); err != nil {
				return fmt.Errorf("restoring %s: %w", step.t, err)
			}
		}
	}
	return nil
}

func saveZone(ctx context.Context, q querier, z *world.Zone) error {
	return saveRecord(ctx, q, tableZones, z.ID(), z.Name(), z)
}

func saveRoom(ctx context.Context, q querier, room *world.Room) error {
	data, err := room.MarshalJSON()
	if err != nil {
		return err
	}
	var zone *int64
	if id := room.ZoneID(); id.IsValid() {
		v := int64(id)
		zone = &v
	}
	_, err = q.Exec(ctx,
		`INSERT INTO rooms (id, zone_id, name, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET zone_id = EXCLUDED.zone_id, name = EXCLUDED.name, data = EXCLUDED.data, updated_at = NOW()`,
		int64(room.ID()), zone, room.Name(), data,
	)
	if err != nil {
		return fmt.Errorf("saving room %s: %w", room.ID(), err)
	}
	return nil
}

func saveRecord(ctx context.Context, q querier, t table, id world.EntityID, name string, v interface{ MarshalJSON() ([]byte, error) }) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx,
		`INSERT INTO `+string(t)+` (id, name, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = NOW()`,
		int64(id), name, data,
	)
	if err != nil {
		return fmt.Errorf("saving %s %s: %w", t, id, err)
	}
	return nil
}

func load(ctx context.Context, q querier, t table, id world.EntityID) ([]byte, error) {
	var data []byte
	err := q.QueryRow(ctx, `SELECT data FROM `+string(t)+` WHERE id = $1`, int64(id)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", t, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %s: %w", t, id, err)
	}
	return data, nil
}
