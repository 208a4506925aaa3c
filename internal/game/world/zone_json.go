package world

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ZoneFromJSON decodes a zone. Both the flat layout written by MarshalJSON
// and the legacy {"zone": {...}, "rooms": {"rooms": [...]}} nesting are
// accepted. Commands come from a flat "commands" array or from a nested
// "resets" (or "commands") object with mob/object/remove/door sections,
// which is lowered into the flat command list.
func ZoneFromJSON(data []byte) (*Zone, error) {
	doc, err := parseDocument("ZoneFromJSON", data)
	if err != nil {
		return nil, err
	}
	return zoneFromResult(doc)
}

func zoneFromResult(root gjson.Result) (*Zone, error) {
	const op = "ZoneFromJSON"
	if !root.IsObject() {
		return nil, parseError(op, "expected JSON object")
	}
	zd, nested := root, false
	if inner := root.Get("zone"); inner.IsObject() {
		zd, nested = inner, true
	}
	base, err := entityFromJSON(op, zd)
	if err != nil {
		return nil, err
	}

	resetMinutes := DefaultResetMinutes
	if v, ok := firstOf(zd, "lifespan", "reset_minutes"); ok {
		if resetMinutes, err = readInt(op, "reset_minutes", v); err != nil {
			return nil, err
		}
	}
	z, err := NewZone(base.ID(), base.Name(), max(0, resetMinutes))
	if err != nil {
		return nil, newError(ErrParse, op, "zone "+base.ID().String(), err)
	}
	z.Entity = base
	if v := zd.Get("reset_mode"); v.Exists() {
		s, err := readString(op, "reset_mode", v)
		if err != nil {
			return nil, err
		}
		if m, ok := ParseResetMode(s); ok {
			z.resetMode = m
		}
	}
	if err := decodeZoneScalars(op, zd, z); err != nil {
		return nil, err
	}

	rooms := root.Get("rooms")
	if nested {
		rooms = root.Get("rooms.rooms")
	}
	if rooms.IsArray() {
		for i, rv := range rooms.Array() {
			if rv.IsObject() {
				rv = rv.Get("id")
			}
			id, err := readID(op, "rooms."+strconv.Itoa(i), rv)
			if err != nil {
				return nil, err
			}
			z.AddRoom(id)
		}
	}

	if cmds := zd.Get("commands"); cmds.IsArray() {
		for i, cv := range cmds.Array() {
			cmd, err := zoneCommandFromResult("commands."+strconv.Itoa(i), cv)
			if err != nil {
				return nil, err
			}
			z.AddCommand(cmd)
		}
	} else if cmds.IsObject() {
		if err := lowerNestedResets(cmds, z); err != nil {
			return nil, err
		}
	}
	if resets := zd.Get("resets"); resets.IsObject() {
		if err := lowerNestedResets(resets, z); err != nil {
			return nil, err
		}
	}

	if err := z.Validate(); err != nil {
		return nil, err
	}
	return z, nil
}

func decodeZoneScalars(op string, zd gjson.Result, z *Zone) error {
	if v := zd.Get("min_level"); v.Exists() {
		n, err := readInt(op, "min_level", v)
		if err != nil {
			return err
		}
		z.SetMinLevel(n)
	}
	if v := zd.Get("max_level"); v.Exists() {
		n, err := readInt(op, "max_level", v)
		if err != nil {
			return err
		}
		z.SetMaxLevel(n)
	}
	if v := zd.Get("builders"); v.Exists() {
		s, err := readString(op, "builders", v)
		if err != nil {
			return err
		}
		z.builders = s
	}
	for _, f := range []struct {
		key string
		dst *EntityID
	}{
		{"top", &z.lastRoom},
		{"first_room", &z.firstRoom},
		{"last_room", &z.lastRoom},
	} {
		if v := zd.Get(f.key); v.Exists() {
			id, err := readID(op, f.key, v)
			if err != nil {
				return err
			}
			*f.dst = id
		}
	}
	names, err := readStrings(op, "flags", zd.Get("flags"), ",")
	if err != nil {
		return err
	}
	for _, n := range names {
		if f, ok := ParseZoneFlag(n); ok {
			z.SetFlag(f, true)
		}
	}
	return nil
}

// ZoneCommandFromJSON decodes one flat command object.
func ZoneCommandFromJSON(data []byte) (ZoneCommand, error) {
	doc, err := parseDocument("ZoneCommandFromJSON", data)
	if err != nil {
		return ZoneCommand{}, err
	}
	return zoneCommandFromResult("command", doc)
}

func zoneCommandFromResult(path string, r gjson.Result) (ZoneCommand, error) {
	const op = "ZoneCommandFromJSON"
	if !r.IsObject() {
		return ZoneCommand{}, parseError(op, "%s: expected JSON object", path)
	}
	tv, ok := firstOf(r, "command_type", "type")
	if !ok {
		return ZoneCommand{}, parseError(op, "%s: missing 'command_type' field", path)
	}
	t, ok := ParseCommandType(tv.String())
	if !ok {
		return ZoneCommand{}, parseError(op, "%s: unknown command type %q", path, tv.String())
	}
	cmd := NewCommand(t)
	ints := []struct {
		key string
		dst *int
	}{
		{"if_flag", &cmd.IfFlag},
		{"max_count", &cmd.MaxCount},
		{"reset_group", &cmd.ResetGroup},
	}
	for _, f := range ints {
		if v := r.Get(f.key); v.Exists() {
			n, err := readInt(op, path+"."+f.key, v)
			if err != nil {
				return ZoneCommand{}, err
			}
			*f.dst = n
		}
	}
	ids := []struct {
		key string
		dst *EntityID
	}{
		{"entity_id", &cmd.EntityID},
		{"room_id", &cmd.RoomID},
		{"container_id", &cmd.ContainerID},
	}
	for _, f := range ids {
		if v := r.Get(f.key); v.Exists() {
			id, err := readID(op, path+"."+f.key, v)
			if err != nil {
				return ZoneCommand{}, err
			}
			*f.dst = id
		}
	}
	var err error
	if v := r.Get("comment"); v.Exists() {
		if cmd.Comment, err = readString(op, path+".comment", v); err != nil {
			return ZoneCommand{}, err
		}
	}
	if v := r.Get("command"); v.Exists() {
		if cmd.Command, err = readString(op, path+".command", v); err != nil {
			return ZoneCommand{}, err
		}
	}
	if cmd.Contents, err = contentsFromResult(path+".contents", r.Get("contents")); err != nil {
		return ZoneCommand{}, err
	}
	return cmd, nil
}

// contentsFromResult reads an array of content nodes. Each node names its
// prototype in "id", may repeat via "quantity" and nests through "contains"
// or "create_objects".
func contentsFromResult(path string, arr gjson.Result) ([]ObjectContent, error) {
	if !arr.Exists() || arr.Type == gjson.Null {
		return nil, nil
	}
	if !arr.IsArray() {
		return nil, parseError("ZoneFromJSON", "%s: expected array", path)
	}
	var out []ObjectContent
	for i, v := range arr.Array() {
		c, err := contentFromResult(path+"."+strconv.Itoa(i), v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func contentFromResult(path string, r gjson.Result) (ObjectContent, error) {
	const op = "ZoneFromJSON"
	if !r.IsObject() {
		return ObjectContent{}, parseError(op, "%s: expected object", path)
	}
	id, err := readID(op, path+".id", r.Get("id"))
	if err != nil {
		return ObjectContent{}, err
	}
	if !id.IsValid() {
		return ObjectContent{}, parseError(op, "%s: missing object id", path)
	}
	c := ObjectContent{ObjectID: id, Quantity: 1}
	if v := r.Get("quantity"); v.Exists() {
		if c.Quantity, err = readInt(op, path+".quantity", v); err != nil {
			return ObjectContent{}, err
		}
	}
	if v := r.Get("comment"); v.Exists() {
		if c.Comment, err = readString(op, path+".comment", v); err != nil {
			return ObjectContent{}, err
		}
	}
	for _, key := range []string{"contains", "create_objects"} {
		nested, err := contentsFromResult(path+"."+key, r.Get(key))
		if err != nil {
			return ObjectContent{}, err
		}
		c.Contents = append(c.Contents, nested...)
	}
	return c, nil
}

// lowerNestedResets expands the nested mob/object/remove/door reset layout
// into flat commands. Each mob entry gets its own negative reset group so
// its carried and equipped items attach to that spawn.
func lowerNestedResets(resets gjson.Result, z *Zone) error {
	const op = "ZoneFromJSON"
	group := -1

	for i, mob := range resets.Get("mob").Array() {
		path := "mob." + strconv.Itoa(i)
		load := NewCommand(CmdLoadMobile)
		var err error
		if load.EntityID, load.RoomID, load.MaxCount, err = readResetTarget(path, mob); err != nil {
			return err
		}
		load.ResetGroup = group
		group--
		z.AddCommand(load)

		for j, carry := range mob.Get("carrying").Array() {
			cpath := path + ".carrying." + strconv.Itoa(j)
			give := NewCommand(CmdGiveObject)
			if give.EntityID, _, give.MaxCount, err = readResetTarget(cpath, carry); err != nil {
				return err
			}
			give.ContainerID = load.EntityID
			give.ResetGroup = load.ResetGroup
			contents, err := contentsFromResult(cpath+".contains", carry.Get("contains"))
			if err != nil {
				return err
			}
			give.Contents = ConsolidateContents(contents)
			z.AddCommand(give)
		}

		for j, eq := range mob.Get("equipped").Array() {
			epath := path + ".equipped." + strconv.Itoa(j)
			equip := NewCommand(CmdEquipObject)
			if equip.EntityID, err = readID(op, epath+".id", eq.Get("id")); err != nil {
				return err
			}
			equip.ContainerID = load.EntityID
			equip.ResetGroup = load.ResetGroup
			equip.MaxCount = 0
			switch loc := eq.Get("location"); loc.Type {
			case gjson.String:
				if slot, ok := ParseEquipSlot(loc.Str); ok {
					equip.MaxCount = int(slot)
				}
			case gjson.Number:
				equip.MaxCount = int(loc.Int())
			}
			contents, err := contentsFromResult(epath+".contains", eq.Get("contains"))
			if err != nil {
				return err
			}
			equip.Contents = ConsolidateContents(contents)
			z.AddCommand(equip)
		}
	}

	for i, obj := range resets.Get("object").Array() {
		path := "object." + strconv.Itoa(i)
		load := NewCommand(CmdLoadObject)
		var err error
		if load.EntityID, load.RoomID, load.MaxCount, err = readResetTarget(path, obj); err != nil {
			return err
		}
		var contents []ObjectContent
		for _, key := range []string{"create_objects", "contains"} {
			nested, err := contentsFromResult(path+"."+key, obj.Get(key))
			if err != nil {
				return err
			}
			contents = append(contents, nested...)
		}
		load.Contents = ConsolidateContents(contents)
		z.AddCommand(load)
	}

	for i, rm := range resets.Get("remove").Array() {
		cmd := NewCommand(CmdRemoveObject)
		var err error
		if cmd.EntityID, cmd.RoomID, _, err = readResetTarget("remove."+strconv.Itoa(i), rm); err != nil {
			return err
		}
		z.AddCommand(cmd)
	}

	for i, d := range resets.Get("door").Array() {
		path := "door." + strconv.Itoa(i)
		state := "open"
		switch sv := d.Get("state"); {
		case sv.Type == gjson.String:
			state = sv.Str
		case sv.IsArray() && len(sv.Array()) > 0:
			state = sv.Array()[0].String()
		}
		cmd := NewCommand(doorCommandForState(state))
		room, err := readID(op, path+".room", d.Get("room"))
		if err != nil {
			return err
		}
		cmd.RoomID = room
		cmd.EntityID = EntityID(North)
		if dv := d.Get("direction"); dv.Exists() {
			if dir, ok := ParseDirection(dv.String()); ok {
				cmd.EntityID = EntityID(dir)
			}
		}
		z.AddCommand(cmd)
	}
	return nil
}

// readResetTarget reads the id, room and max (default 1) of a nested reset
// entry. A missing id is an error.
func readResetTarget(path string, r gjson.Result) (id, room EntityID, maxCount int, err error) {
	const op = "ZoneFromJSON"
	if !r.IsObject() {
		return InvalidID, InvalidID, 0, parseError(op, "%s: expected object", path)
	}
	if id, err = readID(op, path+".id", r.Get("id")); err != nil {
		return
	}
	if !id.IsValid() {
		return InvalidID, InvalidID, 0, parseError(op, "%s: missing id", path)
	}
	if room, err = readID(op, path+".room", r.Get("room")); err != nil {
		return
	}
	maxCount = 1
	if v := r.Get("max"); v.Exists() {
		maxCount, err = readInt(op, path+".max", v)
	}
	return
}

func doorCommandForState(state string) ZoneCommandType {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "open":
		return CmdOpenDoor
	case "close", "closed":
		return CmdCloseDoor
	case "lock", "locked":
		return CmdLockDoor
	case "unlock", "unlocked":
		return CmdUnlockDoor
	}
	return CmdCloseDoor
}

// MarshalJSON encodes the command in the flat form read by
// ZoneCommandFromJSON.
func (c ZoneCommand) MarshalJSON() ([]byte, error) {
	d := newDoc()
	c.writeJSON(d)
	return d.bytes("ZoneCommand.MarshalJSON")
}

func (c ZoneCommand) writeJSON(d *jsonDoc) {
	d.set("command_type", c.Type.String())
	d.set("if_flag", c.IfFlag)
	if c.EntityID.IsValid() {
		d.set("entity_id", uint64(c.EntityID))
	}
	if c.RoomID.IsValid() {
		d.set("room_id", uint64(c.RoomID))
	}
	if c.ContainerID.IsValid() {
		d.set("container_id", uint64(c.ContainerID))
	}
	if c.MaxCount != 1 {
		d.set("max_count", c.MaxCount)
	}
	if c.ResetGroup != 0 {
		d.set("reset_group", c.ResetGroup)
	}
	if c.Comment != "" {
		d.set("comment", c.Comment)
	}
	if c.Command != "" {
		d.set("command", c.Command)
	}
	if len(c.Contents) > 0 {
		d.set("contents", contentsToJSON(c.Contents))
	}
}

func contentsToJSON(contents []ObjectContent) []map[string]any {
	out := make([]map[string]any, 0, len(contents))
	for _, c := range contents {
		m := map[string]any{"id": uint64(c.ObjectID), "quantity": c.Quantity}
		if c.Comment != "" {
			m["comment"] = c.Comment
		}
		if len(c.Contents) > 0 {
			m["contains"] = contentsToJSON(c.Contents)
		}
		out = append(out, m)
	}
	return out
}

// MarshalJSON encodes the zone in the flat layout, including its command
// list.
func (z *Zone) MarshalJSON() ([]byte, error) {
	d := newDoc()
	z.writeJSON(d)
	return d.bytes("Zone.MarshalJSON")
}

func (z *Zone) writeJSON(d *jsonDoc) {
	z.Entity.writeJSON(d, "Zone")
	d.set("reset_minutes", z.resetMinutes)
	d.set("reset_mode", z.resetMode.String())
	d.set("min_level", z.minLevel)
	d.set("max_level", z.maxLevel)
	if z.builders != "" {
		d.set("builders", z.builders)
	}
	if z.firstRoom.IsValid() {
		d.set("first_room", uint64(z.firstRoom))
	}
	if z.lastRoom.IsValid() {
		d.set("last_room", uint64(z.lastRoom))
	}
	if flags := z.Flags(); len(flags) > 0 {
		names := make([]string, len(flags))
		for i, f := range flags {
			names[i] = f.String()
		}
		d.set("flags", names)
	}
	if rooms := z.Rooms(); len(rooms) > 0 {
		ids := make([]uint64, len(rooms))
		for i, id := range rooms {
			ids[i] = uint64(id)
		}
		d.set("rooms", ids)
	}
	if len(z.commands) == 0 {
		return
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range z.commands {
		cd := newDoc()
		c.writeJSON(cd)
		if cd.err != nil {
			d.err = cd.err
			return
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(cd.buf)
	}
	buf.WriteByte(']')
	d.setRaw("commands", buf.Bytes())
}
