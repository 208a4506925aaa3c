package world

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ExitFromJSON decodes an exit. destination/to_room and key/key_id accept
// numbers or strings with "-1" meaning none. Door state comes either from
// flat is_* fields or from a nested door object whose state is a string or
// list containing "CLOSED" or "LOCKED".
func ExitFromJSON(data []byte) (*ExitInfo, error) {
	doc, err := parseDocument("ExitFromJSON", data)
	if err != nil {
		return nil, err
	}
	return exitFromResult(doc)
}

func exitFromResult(r gjson.Result) (*ExitInfo, error) {
	const op = "ExitFromJSON"
	if !r.IsObject() {
		return nil, parseError(op, "expected JSON object")
	}
	e := NewExit(InvalidID)
	if v, ok := firstOf(r, "destination", "to_room"); ok {
		id, err := readID(op, "to_room", v)
		if err != nil {
			return nil, err
		}
		e.ToRoom = id
	}
	if v, ok := firstOf(r, "key", "key_id"); ok {
		id, err := readID(op, "key_id", v)
		if err != nil {
			return nil, err
		}
		e.KeyID = id
	}
	for field, dst := range map[string]*string{"description": &e.Description, "keyword": &e.Keyword} {
		if v := r.Get(field); v.Exists() {
			s, err := readString(op, field, v)
			if err != nil {
				return nil, err
			}
			*dst = s
		}
	}
	if err := readDoorFlags(op, r, e); err != nil {
		return nil, err
	}
	if v := r.Get("difficulty"); v.Exists() {
		n, err := readInt(op, "difficulty", v)
		if err != nil {
			return nil, err
		}
		e.Difficulty = n
	}

	if door := r.Get("door"); door.IsObject() {
		e.HasDoor = true
		states, err := readStrings(op, "door.state", door.Get("state"), ",")
		if err != nil {
			return nil, err
		}
		for _, s := range states {
			switch strings.ToUpper(strings.TrimSpace(s)) {
			case "CLOSED":
				e.IsClosed = true
			case "LOCKED":
				e.IsClosed = true
				e.IsLocked = true
			case "PICKPROOF":
				e.IsPickproof = true
			case "HIDDEN":
				e.IsHidden = true
			}
		}
		if err := readDoorFlags(op, door, e); err != nil {
			return nil, err
		}
		if v := door.Get("difficulty"); v.Exists() {
			n, err := readInt(op, "door.difficulty", v)
			if err != nil {
				return nil, err
			}
			e.Difficulty = n
		}
	}
	if e.IsLocked {
		e.IsClosed = true
	}
	return e, nil
}

func readDoorFlags(op string, r gjson.Result, e *ExitInfo) error {
	for field, dst := range map[string]*bool{
		"has_door":     &e.HasDoor,
		"is_closed":    &e.IsClosed,
		"is_locked":    &e.IsLocked,
		"is_hidden":    &e.IsHidden,
		"is_pickproof": &e.IsPickproof,
	} {
		if v := r.Get(field); v.Exists() {
			b, err := readBool(op, field, v)
			if err != nil {
				return err
			}
			*dst = *dst || b
		}
	}
	return nil
}

// MarshalJSON encodes the exit in the current flat format.
func (e *ExitInfo) MarshalJSON() ([]byte, error) {
	d := newDoc()
	e.writeJSON(d, "")
	return d.bytes("ExitInfo.MarshalJSON")
}

func (e *ExitInfo) writeJSON(d *jsonDoc, prefix string) {
	if e.ToRoom.IsValid() {
		d.set(prefix+"to_room", uint64(e.ToRoom))
	} else {
		d.set(prefix+"to_room", -1)
	}
	if e.Description != "" {
		d.set(prefix+"description", e.Description)
	}
	if e.Keyword != "" {
		d.set(prefix+"keyword", e.Keyword)
	}
	if !e.HasDoor {
		return
	}
	d.set(prefix+"has_door", true)
	d.set(prefix+"is_closed", e.IsClosed)
	d.set(prefix+"is_locked", e.IsLocked)
	d.set(prefix+"is_hidden", e.IsHidden)
	d.set(prefix+"is_pickproof", e.IsPickproof)
	if e.KeyID.IsValid() {
		d.set(prefix+"key_id", uint64(e.KeyID))
	}
	if e.Difficulty > 0 {
		d.set(prefix+"difficulty", e.Difficulty)
	}
}

// RoomFromJSON decodes a room. Exits that fail to decode are skipped so one
// bad exit does not lose the room.
func RoomFromJSON(data []byte) (*Room, error) {
	doc, err := parseDocument("RoomFromJSON", data)
	if err != nil {
		return nil, err
	}
	return roomFromResult(doc)
}

func roomFromResult(r gjson.Result) (*Room, error) {
	const op = "RoomFromJSON"
	base, err := entityFromJSON(op, r)
	if err != nil {
		return nil, err
	}

	sector := SectorInside
	if v := r.Get("sector_type"); v.Exists() {
		if s, ok := ParseSectorType(v.String()); ok {
			sector = s
		}
	} else if v := r.Get("sector"); v.Exists() {
		switch v.Type {
		case gjson.String:
			if s, ok := ParseSectorType(v.Str); ok {
				sector = s
			} else if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
				sector = SectorFromNumber(n)
			}
		case gjson.Number:
			sector = SectorFromNumber(int(v.Int()))
		default:
			return nil, parseError(op, "field \"sector\": expected number or string, got %s", v.Type)
		}
	}

	room, err := NewRoom(base.ID(), base.Name(), sector)
	if err != nil {
		return nil, newError(ErrParse, op, "room "+base.ID().String(), err)
	}
	room.Entity = base

	if v := r.Get("light_level"); v.Exists() {
		n, err := readInt(op, "light_level", v)
		if err != nil {
			return nil, err
		}
		room.lightLevel = n
	}
	if v := r.Get("zone_id"); v.Exists() {
		id, err := readID(op, "zone_id", v)
		if err != nil {
			return nil, err
		}
		room.zoneID = id
	}
	names, err := readStrings(op, "flags", r.Get("flags"), ",")
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if f, ok := ParseRoomFlag(n); ok {
			room.SetFlag(f, true)
		}
	}

	if exits := r.Get("exits"); exits.IsObject() {
		exits.ForEach(func(key, value gjson.Result) bool {
			dir, ok := ParseDirection(key.String())
			if !ok {
				return true
			}
			exit, err := exitFromResult(value)
			if err != nil {
				return true
			}
			_ = room.SetExit(dir, exit)
			return true
		})
	}

	if err := room.Validate(); err != nil {
		return nil, err
	}
	return room, nil
}

// MarshalJSON encodes the room in the current format.
func (r *Room) MarshalJSON() ([]byte, error) {
	d := newDoc()
	r.writeJSON(d)
	return d.bytes("Room.MarshalJSON")
}

func (r *Room) writeJSON(d *jsonDoc) {
	r.Entity.writeJSON(d, "Room")
	d.set("sector_type", r.sector.String())
	d.set("light_level", r.lightLevel)
	if r.zoneID.IsValid() {
		d.set("zone_id", uint64(r.zoneID))
	}
	if flags := r.Flags(); len(flags) > 0 {
		names := make([]string, len(flags))
		for i, f := range flags {
			names[i] = f.String()
		}
		d.set("flags", names)
	}
	if len(r.exits) > 0 {
		d.setRaw("exits", []byte("{}"))
		for _, dir := range r.Exits() {
			r.exits[dir].writeJSON(d, "exits."+dir.String()+".")
		}
	}
}
