package world

import "strings"

// DoorState is the open/closed/locked state of a door.
type DoorState int

// Door states. Only meaningful while an exit has a door.
const (
	DoorOpen DoorState = iota
	DoorClosed
	DoorLocked
)

func (s DoorState) String() string {
	switch s {
	case DoorClosed:
		return "closed"
	case DoorLocked:
		return "locked"
	}
	return "open"
}

// KeyHolder is anything that may carry keys.
type KeyHolder interface {
	HasKey(key EntityID) bool
}

// ExitInfo describes a room's connection in one direction together with
// its door sub-state.
//
// Invariant: a locked door is closed; flags other than HasDoor are ignored
// when there is no door.
type ExitInfo struct {
	ToRoom      EntityID
	Description string
	Keyword     string
	HasDoor     bool
	IsClosed    bool
	IsLocked    bool
	IsHidden    bool
	IsPickproof bool
	KeyID       EntityID
	Difficulty  int
}

// NewExit returns a door-less exit leading to room.
func NewExit(to EntityID) *ExitInfo {
	return &ExitInfo{ToRoom: to, KeyID: InvalidID}
}

// NewDoor returns an open door leading to room, locked with key (InvalidID
// for a keyless door).
func NewDoor(to EntityID, keyword string, key EntityID) *ExitInfo {
	return &ExitInfo{ToRoom: to, Keyword: keyword, HasDoor: true, KeyID: key}
}

// IsPassable reports whether the exit leads somewhere and is not blocked by
// a closed door.
func (e *ExitInfo) IsPassable() bool {
	return e.ToRoom.IsValid() && (!e.HasDoor || !e.IsClosed)
}

// HasFunctionalDoor reports whether the door can be addressed by keyword.
func (e *ExitInfo) HasFunctionalDoor() bool {
	return e.HasDoor && e.Keyword != ""
}

// RequiresKey reports whether locking and unlocking need a key.
func (e *ExitInfo) RequiresKey() bool { return e.KeyID.IsValid() }

// State returns the door state.
func (e *ExitInfo) State() DoorState {
	switch {
	case e.IsLocked:
		return DoorLocked
	case e.IsClosed:
		return DoorClosed
	}
	return DoorOpen
}

// SetState forces the door into s without gating. Zone resets use it.
// It is a no-op on exits without a door.
func (e *ExitInfo) SetState(s DoorState) {
	if !e.HasDoor {
		return
	}
	e.IsClosed = s != DoorOpen
	e.IsLocked = s == DoorLocked
}

// DoorStateDescription renders e.g. "hidden closed locked door"; it is
// empty without a door.
func (e *ExitInfo) DoorStateDescription() string {
	if !e.HasDoor {
		return ""
	}
	var b strings.Builder
	if e.IsHidden {
		b.WriteString("hidden ")
	}
	if e.IsClosed {
		b.WriteString("closed ")
		if e.IsLocked {
			b.WriteString("locked ")
		}
	} else {
		b.WriteString("open ")
	}
	if e.IsPickproof {
		b.WriteString("pickproof ")
	}
	b.WriteString("door")
	return b.String()
}

// Open opens a closed, unlocked door.
func (e *ExitInfo) Open() error {
	switch {
	case !e.HasDoor:
		return ErrNoDoor
	case !e.IsClosed:
		return ErrDoorAlreadyOpen
	case e.IsLocked:
		return ErrDoorLocked
	}
	e.IsClosed = false
	return nil
}

// Close closes an open door.
func (e *ExitInfo) Close() error {
	switch {
	case !e.HasDoor:
		return ErrNoDoor
	case e.IsClosed:
		return ErrDoorAlreadyClosed
	}
	e.IsClosed = true
	return nil
}

// Lock locks a closed door. When the door takes a key, holder must carry it.
func (e *ExitInfo) Lock(holder KeyHolder) error {
	switch {
	case !e.HasDoor:
		return ErrNoKeyhole
	case e.IsLocked:
		return ErrDoorAlreadyLocked
	case !e.IsClosed:
		return ErrDoorNotClosed
	case !e.holds(holder):
		return ErrWrongKey
	}
	e.IsLocked = true
	return nil
}

// Unlock unlocks a locked door. When the door takes a key, holder must
// carry it.
func (e *ExitInfo) Unlock(holder KeyHolder) error {
	switch {
	case !e.HasDoor:
		return ErrNoKeyhole
	case !e.IsLocked:
		return ErrDoorNotLocked
	case !e.holds(holder):
		return ErrWrongKey
	}
	e.IsLocked = false
	return nil
}

// Pick unlocks a locked door without its key when skill reaches the
// door's difficulty.
func (e *ExitInfo) Pick(skill int) error {
	switch {
	case !e.HasDoor:
		return ErrNoKeyhole
	case !e.IsLocked:
		return ErrDoorNotLocked
	case e.IsPickproof:
		return ErrPickproof
	case skill < e.Difficulty:
		return ErrPickFailed
	}
	e.IsLocked = false
	return nil
}

func (e *ExitInfo) holds(holder KeyHolder) bool {
	if !e.RequiresKey() {
		return true
	}
	return holder != nil && holder.HasKey(e.KeyID)
}

// DoorOp is a door transition applied through a room.
type DoorOp int

// Door operations.
const (
	OpOpen DoorOp = iota
	OpClose
	OpLock
	OpUnlock
	OpPick
)

func (op DoorOp) String() string {
	return [...]string{"open", "close", "lock", "unlock", "pick"}[op]
}

func (e *ExitInfo) apply(op DoorOp, holder KeyHolder, skill int) error {
	switch op {
	case OpOpen:
		return e.Open()
	case OpClose:
		return e.Close()
	case OpLock:
		return e.Lock(holder)
	case OpUnlock:
		return e.Unlock(holder)
	case OpPick:
		return e.Pick(skill)
	}
	return invalidArgument("ExitInfo.apply", "unknown door operation %d", op)
}

// SyncOppositeDoor mirrors the door state of from's exit in dir onto the
// opposite exit of to, provided that exit is a door leading back to from
// and sharing the same key. It reports whether the far side was updated.
func SyncOppositeDoor(from *Room, dir Direction, to *Room) bool {
	if from == nil || to == nil {
		return false
	}
	near, ok := from.Exit(dir)
	if !ok || !near.HasDoor {
		return false
	}
	opp := dir.Opposite()
	if !opp.IsValid() {
		return false
	}
	far, ok := to.Exit(opp)
	if !ok || !far.HasDoor || far.ToRoom != from.ID() || far.KeyID != near.KeyID {
		return false
	}
	far.IsClosed = near.IsClosed
	far.IsLocked = near.IsLocked
	return true
}
