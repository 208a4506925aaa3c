package world

import (
	"slices"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Actor is a character standing in a room. Players are supplied by the
// session layer; mobiles are spawned by zone resets.
type Actor interface {
	KeyHolder
	ID() EntityID
	MatchesKeyword(keyword string) bool
	IsPlayer() bool
	// Items returns everything the actor carries or wears.
	Items() []*Object
}

// Mobile is a non-player character instance spawned from a prototype.
type Mobile struct {
	Entity

	instance  uuid.UUID
	level     int
	zoneID    EntityID
	roomID    EntityID
	inventory []*Object
	equipment map[EquipSlot]*Object
}

// NewMobile creates a mobile prototype.
//
// Precondition: id must be valid and name non-empty.
func NewMobile(id EntityID, name string) (*Mobile, error) {
	if !id.IsValid() {
		return nil, invalidArgument("NewMobile", "invalid mobile id")
	}
	if name == "" {
		return nil, invalidArgument("NewMobile", "mobile name cannot be empty")
	}
	return &Mobile{
		Entity:    NewEntity(id, name),
		level:     1,
		zoneID:    InvalidID,
		roomID:    InvalidID,
		equipment: make(map[EquipSlot]*Object),
	}, nil
}

// MobileFromJSON decodes a mobile prototype. Only the entity fields and
// level are part of the world model.
func MobileFromJSON(data []byte) (*Mobile, error) {
	doc, err := parseDocument("MobileFromJSON", data)
	if err != nil {
		return nil, err
	}
	return mobileFromResult(doc)
}

func mobileFromResult(r gjson.Result) (*Mobile, error) {
	const op = "MobileFromJSON"
	e, err := entityFromJSON(op, r)
	if err != nil {
		return nil, err
	}
	m, err := NewMobile(e.ID(), e.Name())
	if err != nil {
		return nil, err
	}
	m.Entity = e
	if v := r.Get("level"); v.Exists() {
		n, err := readInt(op, "level", v)
		if err != nil {
			return nil, err
		}
		m.level = max(1, n)
	}
	return m, nil
}

// MarshalJSON encodes the mobile prototype fields.
func (m *Mobile) MarshalJSON() ([]byte, error) {
	d := newDoc()
	m.Entity.writeJSON(d, "Mobile")
	d.set("level", m.level)
	return d.bytes("Mobile.MarshalJSON")
}

// Spawn returns a fresh instance of prototype m with its own instance id.
func (m *Mobile) Spawn() *Mobile {
	return &Mobile{
		Entity:    NewEntityWithKeywords(m.ID(), m.Name(), m.keywords, m.ground, m.short),
		instance:  uuid.New(),
		level:     m.level,
		zoneID:    m.zoneID,
		roomID:    InvalidID,
		equipment: make(map[EquipSlot]*Object),
	}
}

// InstanceID distinguishes spawned copies of the same prototype. It is the
// zero UUID on prototypes.
func (m *Mobile) InstanceID() uuid.UUID { return m.instance }

// Level returns the mobile's level.
func (m *Mobile) Level() int { return m.level }

// ZoneID returns the zone whose reset spawned the mobile.
func (m *Mobile) ZoneID() EntityID { return m.zoneID }

// RoomID returns the room the mobile stands in.
func (m *Mobile) RoomID() EntityID { return m.roomID }

// IsPlayer is false for mobiles.
func (m *Mobile) IsPlayer() bool { return false }

// Inventory returns carried, unworn items.
func (m *Mobile) Inventory() []*Object { return slices.Clone(m.inventory) }

// Give adds obj to the inventory.
func (m *Mobile) Give(obj *Object) {
	if obj != nil {
		m.inventory = append(m.inventory, obj)
	}
}

// Equip wears obj in slot.
//
// Postcondition: returns ErrInvalidState if slot is occupied.
func (m *Mobile) Equip(obj *Object, slot EquipSlot) error {
	if obj == nil {
		return invalidArgument("Mobile.Equip", "cannot equip nil object")
	}
	if _, taken := m.equipment[slot]; taken {
		return invalidState("Mobile.Equip", "slot %s is already occupied", slot)
	}
	m.equipment[slot] = obj
	return nil
}

// Equipped returns the object worn in slot.
func (m *Mobile) Equipped(slot EquipSlot) (*Object, bool) {
	o, ok := m.equipment[slot]
	return o, ok
}

// Items returns inventory followed by equipment.
func (m *Mobile) Items() []*Object {
	out := slices.Clone(m.inventory)
	for _, slot := range sortedSlots(m.equipment) {
		out = append(out, m.equipment[slot])
	}
	return out
}

// HasKey reports whether the mobile carries or wears key.
func (m *Mobile) HasKey(key EntityID) bool {
	return HasKey(m.Items(), key)
}

// HasKey reports whether items, or the contents of containers among them,
// include an object with id key.
func HasKey(items []*Object, key EntityID) bool {
	for _, it := range items {
		if it.ID() == key {
			return true
		}
		if c, ok := it.AsContainer(); ok && HasKey(c.Contents(), key) {
			return true
		}
	}
	return false
}

func sortedSlots(m map[EquipSlot]*Object) []EquipSlot {
	slots := make([]EquipSlot, 0, len(m))
	for s := range m {
		slots = append(slots, s)
	}
	slices.Sort(slots)
	return slots
}
