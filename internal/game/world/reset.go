package world

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/dice"
)

// ZoneCallbacks connects a zone's reset program to the world that owns the
// rooms, prototypes and live instances. Any callback may be nil; commands
// needing a missing callback are logged and skipped.
type ZoneCallbacks struct {
	// SpawnMobile creates an instance of proto standing in room.
	SpawnMobile func(proto, room EntityID) *Mobile
	// SpawnObject creates an instance of proto. A valid room places it there;
	// InvalidID returns a loose instance for an inventory or container.
	SpawnObject func(proto, room EntityID) *Object
	GetRoom     func(id EntityID) *Room
	// RemoveObject removes one instance of proto lying in room.
	RemoveObject       func(proto, room EntityID) bool
	CleanupZoneMobiles func(zone EntityID)
	RunTrigger         func(zone, trigger, room EntityID) error
	Teleport           func(mobile, room EntityID) bool
	Force              func(mobile EntityID, command string) bool
	Follow             func(follower, leader EntityID) bool
}

// ResetSummary reports what one pass over the command list did.
type ResetSummary struct {
	RunID          uuid.UUID
	ZoneID         EntityID
	Executed       int
	Skipped        int
	Failed         int
	Halted         bool
	MobilesSpawned int
	ObjectsSpawned int
	Duration       time.Duration
}

// ExecuteReset runs the command list once from the top. Commands whose
// if-flag rejects the previous outcome are skipped, failed commands are
// logged and the pass continues, and Halt ends the pass.
func (z *Zone) ExecuteReset() ResetSummary {
	start := z.now()
	p := &resetPass{
		z:         z,
		summary:   ResetSummary{RunID: uuid.New(), ZoneID: z.ID()},
		groups:    make(map[int]*Mobile),
		byProto:   make(map[EntityID]*Mobile),
		objects:   make(map[EntityID]*Object),
		inventory: make(map[*Mobile]int),
	}
	p.log = z.logger.With(
		zap.Uint64("zone", uint64(z.ID())),
		zap.String("reset_run", p.summary.RunID.String()),
	)

	prevOK := true
	for _, cmd := range z.commands {
		if !cmd.ShouldExecute(prevOK) {
			p.summary.Skipped++
			p.log.Debug("skipping reset command",
				zap.Int("if_flag", cmd.IfFlag), zap.Bool("previous_succeeded", prevOK),
				zap.Stringer("command", cmd))
			continue
		}
		if cmd.Type == CmdHalt {
			p.summary.Halted = true
			p.log.Debug("reset halted", zap.Stringer("command", cmd))
			break
		}
		p.summary.Executed++
		ok, err := p.execute(cmd)
		if err != nil {
			p.summary.Failed++
			p.log.Warn("reset command failed", zap.Stringer("command", cmd), zap.Error(err))
		}
		if cmd.Type != CmdComment {
			prevOK = ok && err == nil
		}
	}

	z.updateStatistics()
	p.summary.Duration = z.now().Sub(start)
	p.log.Info("zone reset complete",
		zap.String("name", z.Name()),
		zap.Int("executed", p.summary.Executed),
		zap.Int("skipped", p.summary.Skipped),
		zap.Int("failed", p.summary.Failed),
		zap.Bool("halted", p.summary.Halted),
		zap.Int("mobiles_spawned", p.summary.MobilesSpawned),
		zap.Int("objects_spawned", p.summary.ObjectsSpawned),
	)
	return p.summary
}

var (
	errNoSpawnMobile  = errors.New("no spawn mobile callback")
	errNoSpawnObject  = errors.New("no spawn object callback")
	errNoRemoveObject = errors.New("no remove object callback")
	errNoGetRoom      = errors.New("no room lookup callback")
	errNoTrigger      = errors.New("no trigger callback")
)

// resetPass is the state of one ExecuteReset run.
type resetPass struct {
	z       *Zone
	log     *zap.Logger
	summary ResetSummary

	lastMobile *Mobile
	groups     map[int]*Mobile
	byProto    map[EntityID]*Mobile
	// objects is the latest instance spawned per prototype, the target of
	// Put_Object.
	objects   map[EntityID]*Object
	inventory map[*Mobile]int
}

// execute runs one command. ok is the outcome seen by the next command's
// if-flag; err marks a failure worth logging.
func (p *resetPass) execute(cmd ZoneCommand) (bool, error) {
	switch cmd.Type {
	case CmdComment:
		return true, nil
	case CmdWait:
		p.log.Debug("reset wait", zap.Int("seconds", cmd.MaxCount))
		return true, nil
	case CmdRandom:
		return dice.Percent(p.z.rng, cmd.MaxCount), nil
	case CmdLoadMobile:
		return p.loadMobile(cmd)
	case CmdLoadObject:
		return p.loadObject(cmd)
	case CmdGiveObject:
		return p.giveObject(cmd)
	case CmdEquipObject:
		return p.equipObject(cmd)
	case CmdPutObject:
		return p.putObject(cmd)
	case CmdRemoveObject:
		return p.removeObject(cmd)
	case CmdOpenDoor, CmdCloseDoor, CmdLockDoor, CmdUnlockDoor:
		return p.door(cmd)
	case CmdTrigger:
		return p.trigger(cmd)
	case CmdTeleport:
		if p.z.callbacks.Teleport == nil {
			return false, nil
		}
		return p.z.callbacks.Teleport(cmd.EntityID, cmd.RoomID), nil
	case CmdForce:
		if p.z.callbacks.Force == nil {
			return false, nil
		}
		return p.z.callbacks.Force(cmd.EntityID, cmd.Command), nil
	case CmdFollowMobile:
		if p.z.callbacks.Follow == nil {
			return false, nil
		}
		return p.z.callbacks.Follow(cmd.EntityID, cmd.ContainerID), nil
	}
	return false, invalidArgument("Zone.ExecuteReset", "unknown command type %d", int(cmd.Type))
}

// roomExists is true when rooms cannot be looked up at all.
func (p *resetPass) roomExists(id EntityID) bool {
	if p.z.callbacks.GetRoom == nil {
		return true
	}
	return p.z.callbacks.GetRoom(id) != nil
}

func (p *resetPass) loadMobile(cmd ZoneCommand) (bool, error) {
	cb := p.z.callbacks.SpawnMobile
	if cb == nil {
		return false, errNoSpawnMobile
	}
	if !p.roomExists(cmd.RoomID) {
		return false, invalidState("Load_Mobile", "room %s not found", cmd.RoomID)
	}
	m := cb(cmd.EntityID, cmd.RoomID)
	if m == nil {
		return false, invalidState("Load_Mobile", "failed to spawn mobile %s in room %s", cmd.EntityID, cmd.RoomID)
	}
	p.lastMobile = m
	p.byProto[cmd.EntityID] = m
	if cmd.ResetGroup != 0 {
		p.groups[cmd.ResetGroup] = m
	}
	p.summary.MobilesSpawned++
	p.z.stats.MobileCount++
	p.log.Debug("spawned mobile",
		zap.Uint64("proto", uint64(cmd.EntityID)), zap.Uint64("room", uint64(cmd.RoomID)),
		zap.String("instance", m.InstanceID().String()))
	return true, nil
}

// targetMobile resolves the mobile a Give or Equip command applies to: the
// mobile of its reset group, else the most recently loaded mobile when the
// prototype agrees, else the latest instance of the named prototype.
func (p *resetPass) targetMobile(cmd ZoneCommand) *Mobile {
	if cmd.ResetGroup != 0 {
		return p.groups[cmd.ResetGroup]
	}
	if p.lastMobile != nil && (!cmd.ContainerID.IsValid() || cmd.ContainerID == p.lastMobile.ID()) {
		return p.lastMobile
	}
	return p.byProto[cmd.ContainerID]
}

func (p *resetPass) spawn(proto, room EntityID) *Object {
	obj := p.z.callbacks.SpawnObject(proto, room)
	if obj != nil {
		p.objects[proto] = obj
		p.summary.ObjectsSpawned++
		p.z.stats.ObjectCount++
	}
	return obj
}

// spawnContents fills parent, parent before children, bypassing capacity
// limits.
func (p *resetPass) spawnContents(parent *Object, contents []ObjectContent) {
	c, ok := parent.AsContainer()
	if !ok {
		if len(contents) > 0 {
			p.log.Warn("contents listed for a non-container",
				zap.Uint64("proto", uint64(parent.ID())), zap.Int("entries", len(contents)))
		}
		return
	}
	for _, content := range contents {
		for range max(1, content.Quantity) {
			obj := p.spawn(content.ObjectID, InvalidID)
			if obj == nil {
				p.log.Warn("failed to spawn content object",
					zap.Uint64("proto", uint64(content.ObjectID)), zap.Uint64("container", uint64(parent.ID())))
				continue
			}
			c.AddItemForce(obj)
			if len(content.Contents) > 0 {
				p.spawnContents(obj, content.Contents)
			}
		}
	}
}

func (p *resetPass) loadObject(cmd ZoneCommand) (bool, error) {
	if p.z.callbacks.SpawnObject == nil {
		return false, errNoSpawnObject
	}
	if !p.roomExists(cmd.RoomID) {
		return false, invalidState("Load_Object", "room %s not found", cmd.RoomID)
	}
	obj := p.spawn(cmd.EntityID, cmd.RoomID)
	if obj == nil {
		return false, invalidState("Load_Object", "failed to spawn object %s in room %s", cmd.EntityID, cmd.RoomID)
	}
	p.spawnContents(obj, cmd.Contents)
	return true, nil
}

func (p *resetPass) giveObject(cmd ZoneCommand) (bool, error) {
	if p.z.callbacks.SpawnObject == nil {
		return false, errNoSpawnObject
	}
	m := p.targetMobile(cmd)
	if m == nil {
		return false, invalidState("Give_Object", "no mobile %s loaded for object %s", cmd.ContainerID, cmd.EntityID)
	}
	if p.inventory[m] >= maxMobileInventoryItems {
		return false, invalidState("Give_Object", "mobile %s already carries %d reset items", m.ID(), maxMobileInventoryItems)
	}
	obj := p.spawn(cmd.EntityID, InvalidID)
	if obj == nil {
		return false, invalidState("Give_Object", "failed to spawn object %s", cmd.EntityID)
	}
	p.spawnContents(obj, cmd.Contents)
	m.Give(obj)
	p.inventory[m]++
	return true, nil
}

func (p *resetPass) equipObject(cmd ZoneCommand) (bool, error) {
	if p.z.callbacks.SpawnObject == nil {
		return false, errNoSpawnObject
	}
	m := p.targetMobile(cmd)
	if m == nil {
		return false, invalidState("Equip_Object", "no mobile %s loaded for object %s", cmd.ContainerID, cmd.EntityID)
	}
	slot := EquipSlot(cmd.MaxCount)
	if _, taken := m.Equipped(slot); taken {
		p.log.Debug("equipment slot already filled", zap.Stringer("slot", slot))
		return false, nil
	}
	obj := p.spawn(cmd.EntityID, InvalidID)
	if obj == nil {
		return false, invalidState("Equip_Object", "failed to spawn object %s", cmd.EntityID)
	}
	p.spawnContents(obj, cmd.Contents)
	if err := m.Equip(obj, slot); err != nil {
		return false, err
	}
	return true, nil
}

func (p *resetPass) putObject(cmd ZoneCommand) (bool, error) {
	if p.z.callbacks.SpawnObject == nil {
		return false, errNoSpawnObject
	}
	parent, ok := p.objects[cmd.ContainerID]
	if !ok {
		return false, invalidState("Put_Object", "container %s was not loaded in this reset", cmd.ContainerID)
	}
	c, ok := parent.AsContainer()
	if !ok {
		return false, invalidState("Put_Object", "object %s is not a container", cmd.ContainerID)
	}
	obj := p.spawn(cmd.EntityID, InvalidID)
	if obj == nil {
		return false, invalidState("Put_Object", "failed to spawn object %s", cmd.EntityID)
	}
	c.AddItemForce(obj)
	p.spawnContents(obj, cmd.Contents)
	return true, nil
}

func (p *resetPass) removeObject(cmd ZoneCommand) (bool, error) {
	cb := p.z.callbacks.RemoveObject
	if cb == nil {
		return false, errNoRemoveObject
	}
	if !cb(cmd.EntityID, cmd.RoomID) {
		p.log.Debug("nothing to remove",
			zap.Uint64("proto", uint64(cmd.EntityID)), zap.Uint64("room", uint64(cmd.RoomID)))
		return false, nil
	}
	p.z.stats.ObjectCount = max(0, p.z.stats.ObjectCount-1)
	return true, nil
}

// door forces a door into the commanded state without gating and mirrors
// it onto the far side of a two-way door.
func (p *resetPass) door(cmd ZoneCommand) (bool, error) {
	get := p.z.callbacks.GetRoom
	if get == nil {
		return false, errNoGetRoom
	}
	room := get(cmd.RoomID)
	if room == nil {
		return false, invalidState(cmd.Type.String(), "room %s not found", cmd.RoomID)
	}
	dir := Direction(cmd.EntityID)
	if cmd.EntityID >= EntityID(DirectionNone) || !dir.IsValid() {
		return false, invalidArgument(cmd.Type.String(), "invalid direction %d", uint64(cmd.EntityID))
	}
	exit, ok := room.Exit(dir)
	if !ok || !exit.HasDoor {
		return false, invalidState(cmd.Type.String(), "room %s has no door %s", cmd.RoomID, dir)
	}
	switch cmd.Type {
	case CmdOpenDoor:
		exit.SetState(DoorOpen)
	case CmdCloseDoor:
		exit.SetState(DoorClosed)
	case CmdLockDoor:
		exit.SetState(DoorLocked)
	case CmdUnlockDoor:
		exit.IsLocked = false
	}
	if exit.ToRoom.IsValid() {
		SyncOppositeDoor(room, dir, get(exit.ToRoom))
	}
	return true, nil
}

func (p *resetPass) trigger(cmd ZoneCommand) (bool, error) {
	cb := p.z.callbacks.RunTrigger
	if cb == nil {
		return false, errNoTrigger
	}
	if err := cb(p.z.ID(), cmd.EntityID, cmd.RoomID); err != nil {
		return false, err
	}
	return true, nil
}
