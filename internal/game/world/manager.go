package world

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriggerRunner executes Trigger reset commands.
type TriggerRunner interface {
	RunTrigger(t Trigger) error
}

// Trigger is one Trigger command being executed by a reset.
type Trigger struct {
	Zone  EntityID
	ID    EntityID
	Room  EntityID
	World TriggerWorld
}

// TriggerWorld is the world as seen from inside a reset. Its methods are
// only valid for the duration of the RunTrigger call that received it.
type TriggerWorld interface {
	Room(id EntityID) (*Room, bool)
	ApplyDoor(room EntityID, dir Direction, op DoorOp) error
	SpawnObject(proto, room EntityID) bool
}

// resetView implements TriggerWorld over a store whose lock is already held.
type resetView struct{ s *Store }

func (v resetView) Room(id EntityID) (*Room, bool) {
	r, ok := v.s.rooms[id]
	return r, ok
}

func (v resetView) ApplyDoor(room EntityID, dir Direction, op DoorOp) error {
	return v.s.applyDoorLocked(room, dir, op, masterKey{}, 100)
}

// masterKey fits every lock; resets act with the builder's authority.
type masterKey struct{}

func (masterKey) HasKey(EntityID) bool { return true }

func (v resetView) SpawnObject(proto, room EntityID) bool {
	return v.s.spawnObject(proto, room) != nil
}

// Store owns the world: rooms, zones, object and mobile prototypes, and the
// mobiles spawned by resets. It is the explicit context zones reach the
// world through; several independent stores may coexist.
type Store struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	rooms    map[EntityID]*Room
	zones    map[EntityID]*Zone
	objects  map[EntityID]*Object
	mobiles  map[EntityID]*Mobile
	live     map[uuid.UUID]*Mobile
	triggers TriggerRunner
}

// NewStore creates an empty world. A nil logger is replaced with a no-op.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:  logger,
		rooms:   make(map[EntityID]*Room),
		zones:   make(map[EntityID]*Zone),
		objects: make(map[EntityID]*Object),
		mobiles: make(map[EntityID]*Mobile),
		live:    make(map[uuid.UUID]*Mobile),
	}
}

// SetTriggerRunner installs the executor for Trigger commands.
func (s *Store) SetTriggerRunner(r TriggerRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = r
}

// AddRoom registers a room.
//
// Postcondition: returns ErrInvalidArgument on a nil room or duplicate id.
func (s *Store) AddRoom(r *Room) error {
	if r == nil {
		return invalidArgument("Store.AddRoom", "room cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.rooms[r.ID()]; dup {
		return invalidArgument("Store.AddRoom", "duplicate room id %s", r.ID())
	}
	s.rooms[r.ID()] = r
	if z, ok := s.zones[r.ZoneID()]; ok {
		z.AddRoom(r.ID())
	}
	return nil
}

// Room returns the room with id.
func (s *Store) Room(id EntityID) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Rooms returns every room ordered by id.
func (s *Store) Rooms() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.rooms, func(r *Room) EntityID { return r.ID() })
}

// RoomCount returns the number of rooms.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// AddZone registers a zone and wires its reset callbacks to this store.
//
// Postcondition: returns ErrInvalidArgument on a nil zone or duplicate id.
func (s *Store) AddZone(z *Zone) error {
	if z == nil {
		return invalidArgument("Store.AddZone", "zone cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.zones[z.ID()]; dup {
		return invalidArgument("Store.AddZone", "duplicate zone id %s", z.ID())
	}
	s.zones[z.ID()] = z
	z.SetLogger(s.logger.Named("zone"))
	z.SetCallbacks(s.callbacks(z.ID()))
	return nil
}

// Zone returns the zone with id.
func (s *Store) Zone(id EntityID) (*Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[id]
	return z, ok
}

// Zones returns every zone ordered by id.
func (s *Store) Zones() []*Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.zones, func(z *Zone) EntityID { return z.ID() })
}

// ZoneCount returns the number of zones.
func (s *Store) ZoneCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.zones)
}

// AddObjectPrototype registers an object prototype.
func (s *Store) AddObjectPrototype(o *Object) error {
	if o == nil {
		return invalidArgument("Store.AddObjectPrototype", "object cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.objects[o.ID()]; dup {
		return invalidArgument("Store.AddObjectPrototype", "duplicate object id %s", o.ID())
	}
	s.objects[o.ID()] = o
	return nil
}

// ObjectPrototype returns the object prototype with id.
func (s *Store) ObjectPrototype(id EntityID) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	return o, ok
}

// ObjectPrototypes returns every object prototype ordered by id.
func (s *Store) ObjectPrototypes() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.objects, func(o *Object) EntityID { return o.ID() })
}

// AddMobilePrototype registers a mobile prototype.
func (s *Store) AddMobilePrototype(m *Mobile) error {
	if m == nil {
		return invalidArgument("Store.AddMobilePrototype", "mobile cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.mobiles[m.ID()]; dup {
		return invalidArgument("Store.AddMobilePrototype", "duplicate mobile id %s", m.ID())
	}
	s.mobiles[m.ID()] = m
	return nil
}

// MobilePrototype returns the mobile prototype with id.
func (s *Store) MobilePrototype(id EntityID) (*Mobile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mobiles[id]
	return m, ok
}

// MobilePrototypes returns every mobile prototype ordered by id.
func (s *Store) MobilePrototypes() []*Mobile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.mobiles, func(m *Mobile) EntityID { return m.ID() })
}

// LiveMobiles returns the spawned mobiles of zone, ordered by prototype id.
func (s *Store) LiveMobiles(zone EntityID) []*Mobile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Mobile
	for _, m := range s.live {
		if m.ZoneID() == zone {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *Mobile) int {
		if c := compareIDs(a.ID(), b.ID()); c != 0 {
			return c
		}
		return strings.Compare(a.InstanceID().String(), b.InstanceID().String())
	})
	return out
}

// ValidateExits checks that every exit with a destination leads to a known
// room. Description-only stubs are allowed.
//
// Postcondition: returns nil or an ErrInvalidState listing every dangling exit.
func (s *Store) ValidateExits() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var errs []string
	for _, r := range sortedByID(s.rooms, func(r *Room) EntityID { return r.ID() }) {
		for _, d := range r.Exits() {
			e, _ := r.Exit(d)
			if !e.ToRoom.IsValid() {
				continue
			}
			if _, ok := s.rooms[e.ToRoom]; !ok {
				errs = append(errs, fmt.Sprintf("room %s: exit %s targets unknown room %s", r.ID(), d, e.ToRoom))
			}
		}
	}
	if len(errs) > 0 {
		return invalidState("Store.ValidateExits", "%s", strings.Join(errs, "; "))
	}
	return nil
}

// Navigate resolves movement from a room in a direction.
//
// Postcondition: Returns the destination room, or an error if the exit
// doesn't exist, is a stub, is closed, or the target room is missing.
func (s *Store) Navigate(from EntityID, dir Direction) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[from]
	if !ok {
		return nil, invalidArgument("Store.Navigate", "room %s not found", from)
	}
	exit, ok := room.Exit(dir)
	if !ok || !exit.ToRoom.IsValid() {
		return nil, invalidState("Store.Navigate", "no exit %s from %s", dir, from)
	}
	if !exit.IsPassable() {
		return nil, invalidState("Store.Navigate", "the way %s is closed", dir)
	}
	target, ok := s.rooms[exit.ToRoom]
	if !ok {
		return nil, invalidState("Store.Navigate", "exit %s from %s targets unknown room %s", dir, from, exit.ToRoom)
	}
	return target, nil
}

// OpenDoor opens the door in dir of room and mirrors the far side.
func (s *Store) OpenDoor(room EntityID, dir Direction) error {
	return s.applyDoor(room, dir, OpOpen, nil, 0)
}

// CloseDoor closes the door in dir of room and mirrors the far side.
func (s *Store) CloseDoor(room EntityID, dir Direction) error {
	return s.applyDoor(room, dir, OpClose, nil, 0)
}

// LockDoor locks the door in dir of room with a key carried by holder.
func (s *Store) LockDoor(room EntityID, dir Direction, holder KeyHolder) error {
	return s.applyDoor(room, dir, OpLock, holder, 0)
}

// UnlockDoor unlocks the door in dir of room with a key carried by holder.
func (s *Store) UnlockDoor(room EntityID, dir Direction, holder KeyHolder) error {
	return s.applyDoor(room, dir, OpUnlock, holder, 0)
}

// PickDoor picks the lock of the door in dir of room.
func (s *Store) PickDoor(room EntityID, dir Direction, skill int) error {
	return s.applyDoor(room, dir, OpPick, nil, skill)
}

// applyDoor runs op on one side of a door; on success the opposite exit of
// the destination room takes the same state when it shares the key.
func (s *Store) applyDoor(roomID EntityID, dir Direction, op DoorOp, holder KeyHolder, skill int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyDoorLocked(roomID, dir, op, holder, skill)
}

func (s *Store) applyDoorLocked(roomID EntityID, dir Direction, op DoorOp, holder KeyHolder, skill int) error {
	room, ok := s.rooms[roomID]
	if !ok {
		return invalidArgument("Store."+op.String()+"Door", "room %s not found", roomID)
	}
	if err := room.ApplyDoor(dir, op, holder, skill); err != nil {
		return err
	}
	exit, _ := room.Exit(dir)
	if to, ok := s.rooms[exit.ToRoom]; ok && SyncOppositeDoor(room, dir, to) {
		s.logger.Debug("door mirrored",
			zap.Uint64("room", uint64(roomID)), zap.Stringer("direction", dir),
			zap.Uint64("far_room", uint64(to.ID())), zap.Stringer("state", exit.State()))
	}
	return nil
}

// ResetZone force-resets one zone.
func (s *Store) ResetZone(id EntityID) (ResetSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[id]
	if !ok {
		return ResetSummary{}, invalidArgument("Store.ResetZone", "zone %s not found", id)
	}
	return z.ForceReset(), nil
}

// ResetAll force-resets every zone whose mode is not Never; used at boot.
func (s *Store) ResetAll() []ResetSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ResetSummary
	for _, z := range sortedByID(s.zones, func(z *Zone) EntityID { return z.ID() }) {
		if z.ResetMode() == ResetNever {
			continue
		}
		out = append(out, z.ForceReset())
	}
	return out
}

// ResetDue force-resets every zone that needs a reset at now.
func (s *Store) ResetDue(now time.Time) []ResetSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ResetSummary
	for _, z := range sortedByID(s.zones, func(z *Zone) EntityID { return z.ID() }) {
		if z.NeedsReset(now) {
			out = append(out, z.ForceReset())
		}
	}
	return out
}

// callbacks binds a zone's reset program to this store. The callbacks run
// with the store lock held by ResetZone, ResetAll or ResetDue.
func (s *Store) callbacks(zone EntityID) ZoneCallbacks {
	return ZoneCallbacks{
		SpawnMobile: func(proto, room EntityID) *Mobile {
			return s.spawnMobile(zone, proto, room)
		},
		SpawnObject: s.spawnObject,
		GetRoom: func(id EntityID) *Room {
			return s.rooms[id]
		},
		RemoveObject: func(proto, room EntityID) bool {
			r, ok := s.rooms[room]
			return ok && r.Contents().RemoveObject(proto)
		},
		CleanupZoneMobiles: s.cleanupZoneMobiles,
		RunTrigger: func(zone, trigger, room EntityID) error {
			if s.triggers == nil {
				return errNoTrigger
			}
			return s.triggers.RunTrigger(Trigger{Zone: zone, ID: trigger, Room: room, World: resetView{s}})
		},
		Teleport: func(mobile, room EntityID) bool {
			return s.teleport(zone, mobile, room)
		},
	}
}

func (s *Store) spawnMobile(zone, proto, roomID EntityID) *Mobile {
	p, ok := s.mobiles[proto]
	if !ok {
		return nil
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	m := p.Spawn()
	m.zoneID = zone
	m.roomID = roomID
	room.Contents().AddActor(m)
	s.live[m.InstanceID()] = m
	return m
}

func (s *Store) spawnObject(proto, roomID EntityID) *Object {
	p, ok := s.objects[proto]
	if !ok {
		return nil
	}
	if !roomID.IsValid() {
		return p.Clone(p.ID())
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	obj := p.Clone(p.ID())
	room.Contents().AddObject(obj)
	return obj
}

func (s *Store) cleanupZoneMobiles(zone EntityID) {
	removed := 0
	for id, m := range s.live {
		if m.ZoneID() != zone {
			continue
		}
		if r, ok := s.rooms[m.RoomID()]; ok {
			r.Contents().RemoveActorRef(m)
		}
		delete(s.live, id)
		removed++
	}
	if removed > 0 {
		s.logger.Debug("cleaned up zone mobiles", zap.Uint64("zone", uint64(zone)), zap.Int("count", removed))
	}
}

// teleport moves one live instance of proto spawned by zone to room.
func (s *Store) teleport(zone, proto, roomID EntityID) bool {
	dest, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	for _, m := range s.live {
		if m.ZoneID() != zone || m.ID() != proto {
			continue
		}
		if r, ok := s.rooms[m.RoomID()]; ok {
			r.Contents().RemoveActorRef(m)
		}
		m.roomID = roomID
		dest.Contents().AddActor(m)
		return true
	}
	return false
}

func compareIDs(a, b EntityID) int { return cmp.Compare(a, b) }

func sortedByID[T any](m map[EntityID]T, id func(T) EntityID) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return compareIDs(id(a), id(b)) })
	return out
}
