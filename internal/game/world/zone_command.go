package world

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ZoneCommandType tags a reset command.
type ZoneCommandType int

// Reset command types.
const (
	CmdLoadMobile ZoneCommandType = iota
	CmdFollowMobile
	CmdLoadObject
	CmdGiveObject
	CmdEquipObject
	CmdPutObject
	CmdOpenDoor
	CmdCloseDoor
	CmdLockDoor
	CmdUnlockDoor
	CmdTrigger
	CmdComment
	CmdWait
	CmdRandom
	CmdTeleport
	CmdForce
	CmdRemoveObject
	CmdHalt
)

var commandTypeNames = [...]string{
	"Load_Mobile", "Follow_Mobile", "Load_Object", "Give_Object", "Equip_Object", "Put_Object",
	"Open_Door", "Close_Door", "Lock_Door", "Unlock_Door", "Trigger", "Comment", "Wait",
	"Random", "Teleport", "Force", "Remove_Object", "Halt",
}

func (t ZoneCommandType) String() string {
	if t < 0 || int(t) >= len(commandTypeNames) {
		return "Unknown"
	}
	return commandTypeNames[t]
}

// IsDoorCommand reports whether t changes door state. Door commands carry
// the Direction in EntityID.
func (t ZoneCommandType) IsDoorCommand() bool {
	return t == CmdOpenDoor || t == CmdCloseDoor || t == CmdLockDoor || t == CmdUnlockDoor
}

// ParseCommandType resolves a command type by name (case-insensitive) or by
// its legacy single-letter code.
func ParseCommandType(s string) (ZoneCommandType, bool) {
	s = strings.TrimSpace(s)
	for i, n := range commandTypeNames {
		if strings.EqualFold(n, s) {
			return ZoneCommandType(i), true
		}
	}
	if len(s) == 1 {
		return commandTypeFromChar(s[0])
	}
	return 0, false
}

var legacyCommandChars = map[byte]ZoneCommandType{
	'M': CmdLoadMobile,
	'O': CmdLoadObject,
	'E': CmdEquipObject,
	'G': CmdGiveObject,
	'P': CmdPutObject,
	'D': CmdOpenDoor,
	'L': CmdCloseDoor,
	'R': CmdRemoveObject,
	'T': CmdTrigger,
	'F': CmdFollowMobile,
	'W': CmdWait,
	'*': CmdComment,
}

func commandTypeFromChar(c byte) (ZoneCommandType, bool) {
	t, ok := legacyCommandChars[c]
	return t, ok
}

func charFromCommandType(t ZoneCommandType) (byte, bool) {
	for c, ct := range legacyCommandChars {
		if ct == t {
			return c, true
		}
	}
	return 0, false
}

// ObjectContent is one node of the tree of objects spawned inside a loaded
// container.
type ObjectContent struct {
	ObjectID EntityID
	Quantity int
	Comment  string
	Contents []ObjectContent
}

// ConsolidateContents merges entries with the same prototype by summing
// their quantities, keeping first-seen order, and recurses into the merged
// nested contents.
func ConsolidateContents(contents []ObjectContent) []ObjectContent {
	if len(contents) == 0 {
		return nil
	}
	var out []ObjectContent
	index := make(map[EntityID]int)
	for _, c := range contents {
		if i, ok := index[c.ObjectID]; ok {
			out[i].Quantity += c.Quantity
			out[i].Contents = append(out[i].Contents, c.Contents...)
			continue
		}
		index[c.ObjectID] = len(out)
		c.Contents = append([]ObjectContent(nil), c.Contents...)
		out = append(out, c)
	}
	for i := range out {
		out[i].Contents = ConsolidateContents(out[i].Contents)
	}
	return out
}

// ZoneCommand is one step of a zone's reset program. Which fields are
// meaningful depends on Type:
//
//	Load_Mobile    EntityID mobile proto, RoomID
//	Load_Object    EntityID object proto, RoomID, Contents
//	Give_Object    EntityID object proto, ContainerID mobile proto, Contents
//	Equip_Object   EntityID object proto, ContainerID mobile proto, MaxCount slot, Contents
//	Put_Object     EntityID object proto, ContainerID container proto, Contents
//	*_Door         EntityID direction, RoomID
//	Trigger        EntityID trigger, RoomID
//	Wait           MaxCount seconds
//	Random         MaxCount percent chance
//	Teleport       EntityID mobile proto, RoomID destination
//	Force          EntityID mobile proto, Command
//	Follow_Mobile  EntityID follower proto, ContainerID leader proto
//	Remove_Object  EntityID object proto, RoomID
//
// ResetGroup ties Give and Equip commands to the Load_Mobile of the same
// group; 0 means "the most recently loaded mobile".
type ZoneCommand struct {
	Type        ZoneCommandType
	IfFlag      int
	EntityID    EntityID
	RoomID      EntityID
	ContainerID EntityID
	MaxCount    int
	ResetGroup  int
	Comment     string
	Command     string
	Contents    []ObjectContent
}

// NewCommand returns a command of type t with no targets and MaxCount 1.
func NewCommand(t ZoneCommandType) ZoneCommand {
	return ZoneCommand{
		Type:        t,
		EntityID:    InvalidID,
		RoomID:      InvalidID,
		ContainerID: InvalidID,
		MaxCount:    1,
	}
}

// ShouldExecute evaluates the if-flag against the outcome of the previous
// command: 0 always runs, positive runs after a success, negative runs
// after a failure. Comments always run.
func (c ZoneCommand) ShouldExecute(prevSucceeded bool) bool {
	switch {
	case c.Type == CmdComment:
		return true
	case c.IfFlag > 0:
		return prevSucceeded
	case c.IfFlag < 0:
		return !prevSucceeded
	}
	return true
}

func legacyNumber(id EntityID) uint64 {
	if !id.IsValid() {
		return 0
	}
	return uint64(id)
}

func (c ZoneCommand) String() string {
	return fmt.Sprintf("%s: entity=%d room=%d container=%d max=%d - %s",
		c.Type, legacyNumber(c.EntityID), legacyNumber(c.RoomID), legacyNumber(c.ContainerID), c.MaxCount, c.Comment)
}

var commandLineRE = regexp.MustCompile(`^([MOEPDGLRFTW*]) +(-?\d+) +(\d+) +(\d+) +(\d+) +(-?\d+)(?: +; ?(.*))?$`)

// ParseCommand parses one line of the legacy command text
// "C if-flag entity room container max [; comment]". A line that is empty
// or starts with '*' is a Comment carrying the rest of the line.
//
// A 0 in an id position means "none", except for the entity of a door
// command, which is a Direction.
func ParseCommand(line string) (ZoneCommand, error) {
	const op = "ParseCommand"
	line = strings.TrimRight(line, "\r\n")
	if line == "" || line[0] == '*' {
		cmd := NewCommand(CmdComment)
		if line != "" {
			cmd.Comment = strings.TrimSpace(line[1:])
		}
		return cmd, nil
	}
	m := commandLineRE.FindStringSubmatch(line)
	if m == nil {
		return ZoneCommand{}, parseError(op, "invalid zone command format %q", line)
	}
	t, ok := commandTypeFromChar(m[1][0])
	if !ok {
		return ZoneCommand{}, parseError(op, "unknown zone command type %q", m[1])
	}
	cmd := NewCommand(t)
	var err error
	if cmd.IfFlag, err = strconv.Atoi(m[2]); err != nil {
		return ZoneCommand{}, newError(ErrParse, op, "if-flag", err)
	}
	ids := make([]EntityID, 3)
	for i, s := range m[3:6] {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return ZoneCommand{}, newError(ErrParse, op, "argument "+strconv.Itoa(i+1), err)
		}
		ids[i] = EntityID(n)
		if n == 0 && !(i == 0 && t.IsDoorCommand()) {
			ids[i] = InvalidID
		}
	}
	cmd.EntityID, cmd.RoomID, cmd.ContainerID = ids[0], ids[1], ids[2]
	if cmd.MaxCount, err = strconv.Atoi(m[6]); err != nil {
		return ZoneCommand{}, newError(ErrParse, op, "max count", err)
	}
	cmd.Comment = m[7]
	return cmd, nil
}

// ParseCommands parses a block of legacy command text, one command per
// line. Blank lines are skipped; the first bad line fails the whole block.
func ParseCommands(text string) ([]ZoneCommand, error) {
	var out []ZoneCommand
	sc := bufio.NewScanner(strings.NewReader(text))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, newError(ErrParse, "ParseCommands", "reading command text", err)
	}
	return out, nil
}

// FormatCommand renders cmd as a legacy command line. Invalid ids are
// written as 0 and the " ; comment" suffix is emitted only when a comment
// is present. Command types without a legacy letter cannot be formatted.
func FormatCommand(cmd ZoneCommand) (string, error) {
	if cmd.Type == CmdComment {
		if cmd.Comment == "" {
			return "*", nil
		}
		return "* " + cmd.Comment, nil
	}
	c, ok := charFromCommandType(cmd.Type)
	if !ok {
		return "", invalidArgument("FormatCommand", "%s has no legacy command letter", cmd.Type)
	}
	entity := legacyNumber(cmd.EntityID)
	base := fmt.Sprintf("%c %d %d %d %d %d", c, cmd.IfFlag, entity,
		legacyNumber(cmd.RoomID), legacyNumber(cmd.ContainerID), cmd.MaxCount)
	if cmd.Comment != "" {
		return base + " ; " + cmd.Comment, nil
	}
	return base, nil
}
