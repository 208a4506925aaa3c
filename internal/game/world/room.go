package world

import (
	"slices"
	"strings"
)

// Room occupancy limits.
const (
	tunnelOccupants  = 1
	privateOccupants = 2
	atriumOccupants  = 10
	defaultOccupants = 100
	alwaysLitLevel   = 10
)

// RoomContents holds what is physically present in a room. Objects and
// actors are shared handles; removing them here does not destroy them.
type RoomContents struct {
	objects []*Object
	actors  []Actor
}

// Objects returns the objects in the room.
func (c *RoomContents) Objects() []*Object { return slices.Clone(c.objects) }

// Actors returns the actors in the room.
func (c *RoomContents) Actors() []Actor { return slices.Clone(c.actors) }

// AddObject places obj in the room; nil is ignored.
func (c *RoomContents) AddObject(obj *Object) {
	if obj != nil {
		c.objects = append(c.objects, obj)
	}
}

// RemoveObject removes the first object with id.
func (c *RoomContents) RemoveObject(id EntityID) bool {
	i := slices.IndexFunc(c.objects, func(o *Object) bool { return o.ID() == id })
	if i < 0 {
		return false
	}
	c.objects = slices.Delete(c.objects, i, i+1)
	return true
}

// RemoveObjectRef removes obj by identity.
func (c *RoomContents) RemoveObjectRef(obj *Object) bool {
	i := slices.Index(c.objects, obj)
	if i < 0 {
		return false
	}
	c.objects = slices.Delete(c.objects, i, i+1)
	return true
}

// AddActor places a in the room; nil is ignored.
func (c *RoomContents) AddActor(a Actor) {
	if a != nil {
		c.actors = append(c.actors, a)
	}
}

// RemoveActor removes the first actor with id.
func (c *RoomContents) RemoveActor(id EntityID) bool {
	i := slices.IndexFunc(c.actors, func(a Actor) bool { return a.ID() == id })
	if i < 0 {
		return false
	}
	c.actors = slices.Delete(c.actors, i, i+1)
	return true
}

// RemoveActorRef removes a by identity.
func (c *RoomContents) RemoveActorRef(a Actor) bool {
	i := slices.Index(c.actors, a)
	if i < 0 {
		return false
	}
	c.actors = slices.Delete(c.actors, i, i+1)
	return true
}

// FindObject returns the first object with id.
func (c *RoomContents) FindObject(id EntityID) (*Object, bool) {
	for _, o := range c.objects {
		if o.ID() == id {
			return o, true
		}
	}
	return nil, false
}

// FindActor returns the first actor with id.
func (c *RoomContents) FindActor(id EntityID) (Actor, bool) {
	for _, a := range c.actors {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// FindObjectsByKeyword returns every object matching keyword.
func (c *RoomContents) FindObjectsByKeyword(keyword string) []*Object {
	var out []*Object
	for _, o := range c.objects {
		if o.MatchesKeyword(keyword) {
			out = append(out, o)
		}
	}
	return out
}

// FindActorsByKeyword returns every actor matching keyword.
func (c *RoomContents) FindActorsByKeyword(keyword string) []Actor {
	var out []Actor
	for _, a := range c.actors {
		if a.MatchesKeyword(keyword) {
			out = append(out, a)
		}
	}
	return out
}

// Clear empties the room.
func (c *RoomContents) Clear() {
	c.objects = nil
	c.actors = nil
}

// Room is a location in the world.
type Room struct {
	Entity

	sector     SectorType
	lightLevel int
	zoneID     EntityID
	flags      uint64
	exits      map[Direction]*ExitInfo
	contents   RoomContents
}

// NewRoom creates a room whose light level starts at the sector's natural
// light.
//
// Precondition: id must be valid, name non-empty and sector defined.
// Postcondition: Returns an ErrInvalidArgument error otherwise.
func NewRoom(id EntityID, name string, sector SectorType) (*Room, error) {
	if !id.IsValid() {
		return nil, invalidArgument("NewRoom", "invalid room id")
	}
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("NewRoom", "room name cannot be empty")
	}
	if sector == SectorUndefined {
		return nil, invalidArgument("NewRoom", "room sector cannot be undefined")
	}
	return &Room{
		Entity:     NewEntity(id, name),
		sector:     sector,
		lightLevel: sector.LightLevel(),
		zoneID:     InvalidID,
		exits:      make(map[Direction]*ExitInfo),
	}, nil
}

// Sector returns the terrain.
func (r *Room) Sector() SectorType { return r.sector }

// SetSector changes the terrain.
func (r *Room) SetSector(s SectorType) { r.sector = s }

// LightLevel returns the base light level; negative forces darkness.
func (r *Room) LightLevel() int { return r.lightLevel }

// SetLightLevel sets the base light level.
func (r *Room) SetLightLevel(l int) { r.lightLevel = l }

// ZoneID returns the owning zone's id.
func (r *Room) ZoneID() EntityID { return r.zoneID }

// SetZoneID sets the owning zone's id.
func (r *Room) SetZoneID(id EntityID) { r.zoneID = id }

// HasFlag reports whether f is set.
func (r *Room) HasFlag(f RoomFlag) bool { return r.flags&(1<<f) != 0 }

// SetFlag sets or clears f.
func (r *Room) SetFlag(f RoomFlag, on bool) {
	if on {
		r.flags |= 1 << f
	} else {
		r.flags &^= 1 << f
	}
}

// Flags returns the set flags in ascending order.
func (r *Room) Flags() []RoomFlag {
	var out []RoomFlag
	for f := RoomFlag(0); int(f) < len(roomFlagNames); f++ {
		if r.HasFlag(f) {
			out = append(out, f)
		}
	}
	return out
}

// Contents returns the room contents for mutation.
func (r *Room) Contents() *RoomContents { return &r.contents }

// Exit returns the exit in dir.
func (r *Room) Exit(dir Direction) (*ExitInfo, bool) {
	e, ok := r.exits[dir]
	return e, ok
}

// HasExit reports whether an exit exists in dir.
func (r *Room) HasExit(dir Direction) bool {
	_, ok := r.exits[dir]
	return ok
}

// SetExit installs exit in dir. An exit whose ToRoom is InvalidID is a
// description-only stub.
//
// Precondition: dir is a real direction and exit is non-nil.
// Postcondition: a locked door is stored closed.
func (r *Room) SetExit(dir Direction, exit *ExitInfo) error {
	if !dir.IsValid() {
		return invalidArgument("Room.SetExit", "invalid direction")
	}
	if exit == nil {
		return invalidArgument("Room.SetExit", "exit cannot be nil")
	}
	if exit.IsLocked {
		exit.IsClosed = true
	}
	r.exits[dir] = exit
	return nil
}

// RemoveExit deletes the exit in dir.
func (r *Room) RemoveExit(dir Direction) { delete(r.exits, dir) }

// Exits returns the exit directions in numeric order.
func (r *Room) Exits() []Direction {
	dirs := make([]Direction, 0, len(r.exits))
	for d := range r.exits {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

// AvailableExits returns directions whose exit leads somewhere.
func (r *Room) AvailableExits() []Direction {
	var out []Direction
	for _, d := range r.Exits() {
		if r.exits[d].ToRoom.IsValid() {
			out = append(out, d)
		}
	}
	return out
}

// VisibleExits returns available exits that are not hidden doors.
func (r *Room) VisibleExits() []Direction {
	var out []Direction
	for _, d := range r.AvailableExits() {
		if e := r.exits[d]; !(e.HasDoor && e.IsHidden) {
			out = append(out, d)
		}
	}
	return out
}

// ApplyDoor runs op on the door in dir.
func (r *Room) ApplyDoor(dir Direction, op DoorOp, holder KeyHolder, skill int) error {
	e, ok := r.exits[dir]
	if !ok {
		if op == OpLock || op == OpUnlock || op == OpPick {
			return ErrNoKeyhole
		}
		return ErrNoDoor
	}
	return e.apply(op, holder, skill)
}

// OpenDoor opens the door in dir.
func (r *Room) OpenDoor(dir Direction) error { return r.ApplyDoor(dir, OpOpen, nil, 0) }

// CloseDoor closes the door in dir.
func (r *Room) CloseDoor(dir Direction) error { return r.ApplyDoor(dir, OpClose, nil, 0) }

// LockDoor locks the door in dir with a key carried by holder.
func (r *Room) LockDoor(dir Direction, holder KeyHolder) error {
	return r.ApplyDoor(dir, OpLock, holder, 0)
}

// UnlockDoor unlocks the door in dir with a key carried by holder.
func (r *Room) UnlockDoor(dir Direction, holder KeyHolder) error {
	return r.ApplyDoor(dir, OpUnlock, holder, 0)
}

// IsDark reports whether nothing can be seen without special vision.
func (r *Room) IsDark() bool {
	return r.HasFlag(RoomDark) || r.EffectiveLight() <= 0
}

// IsNaturallyLit reports whether the sector lights the room.
func (r *Room) IsNaturallyLit() bool {
	return r.sector.LightLevel() > 0 && !r.HasFlag(RoomDark)
}

// EffectiveLight combines base light, sector light and lit light sources
// lying in the room or carried by actors. A negative base light cancels the
// sector's light; only light sources can brighten such a room.
func (r *Room) EffectiveLight() int {
	if r.HasFlag(RoomAlwaysLit) {
		return alwaysLitLevel
	}
	if r.HasFlag(RoomDark) {
		return 0
	}
	total := r.lightLevel
	if l := r.sector.LightLevel(); l > 0 && r.lightLevel >= 0 {
		total += l
	}
	total += litBrightness(r.contents.objects)
	for _, a := range r.contents.actors {
		total += litBrightness(a.Items())
	}
	return max(0, total)
}

func litBrightness(objs []*Object) int {
	sum := 0
	for _, o := range objs {
		if o != nil && o.IsLightSource() && o.light.Lit {
			sum += o.light.Brightness
		}
	}
	return sum
}

// MaxOccupants returns how many actors fit in the room.
func (r *Room) MaxOccupants() int {
	switch {
	case r.HasFlag(RoomTunnel):
		return tunnelOccupants
	case r.HasFlag(RoomPrivate):
		return privateOccupants
	case r.HasFlag(RoomAtrium):
		return atriumOccupants
	}
	return defaultOccupants
}

// IsFull reports whether no further actor fits.
func (r *Room) IsFull() bool { return len(r.contents.actors) >= r.MaxOccupants() }

// CanAccommodate reports whether a may enter: there must be room, and
// mobiles are kept out of god rooms and no-mob rooms.
func (r *Room) CanAccommodate(a Actor) bool {
	if a == nil || r.IsFull() {
		return false
	}
	if !a.IsPlayer() && (r.HasFlag(RoomGodroom) || r.HasFlag(RoomNoMob)) {
		return false
	}
	return true
}

// Validate checks the room invariants.
func (r *Room) Validate() error {
	if err := r.Entity.Validate(); err != nil {
		return err
	}
	var errs []string
	if r.sector == SectorUndefined {
		errs = append(errs, "room sector cannot be undefined")
	}
	for _, d := range r.Exits() {
		e := r.exits[d]
		if !d.IsValid() {
			errs = append(errs, "room has an exit with invalid direction")
		}
		if e.HasDoor && !e.ToRoom.IsValid() {
			errs = append(errs, "door "+d.String()+" has no destination")
		}
		if e.HasDoor && e.IsLocked && !e.IsClosed {
			errs = append(errs, "exit "+d.String()+" is locked but open")
		}
	}
	if len(errs) > 0 {
		return invalidState("Room.Validate", "%s", strings.Join(errs, "; "))
	}
	return nil
}
