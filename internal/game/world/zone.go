package world

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudworld/internal/game/dice"
)

// ResetMode controls when a zone repopulates.
type ResetMode int

// Reset modes.
const (
	ResetNever ResetMode = iota
	ResetEmpty
	ResetAlways
	ResetOnReboot
	ResetManual
)

var resetModeNames = [...]string{"Never", "Empty", "Always", "OnReboot", "Manual"}

func (m ResetMode) String() string {
	if m < 0 || int(m) >= len(resetModeNames) {
		return "Unknown"
	}
	return resetModeNames[m]
}

// ParseResetMode resolves a reset mode name case-insensitively.
func ParseResetMode(s string) (ResetMode, bool) {
	for i, n := range resetModeNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return ResetMode(i), true
		}
	}
	return ResetEmpty, false
}

// ZoneFlag is a behavior bit of a zone.
type ZoneFlag uint8

// Zone flags.
const (
	ZoneClosed ZoneFlag = iota
	ZoneNoMortals
	ZoneQuest
	ZoneGrid
	ZoneMaze
	ZoneRecallOk
	ZoneSummonOk
	ZoneTeleportOk
	ZoneSearch
	ZoneNoAttack
	ZoneWorldmap
	ZoneAstral
	ZoneClanZone
	ZoneNewbie
	ZoneArena
	ZonePrison
	ZoneNoWeather
	ZoneUnderground
	ZoneChaosOk
	ZoneLawfulOk
)

var zoneFlagNames = [...]string{
	"Closed", "NoMortals", "Quest", "Grid", "Maze", "Recall_Ok", "Summon_Ok", "Teleport_Ok",
	"Search", "Noattack", "Worldmap", "Astral", "ClanZone", "Newbie", "Arena", "Prison",
	"NoWeather", "Underground", "ChaosOk", "LawfulOk",
}

func (f ZoneFlag) String() string {
	if int(f) >= len(zoneFlagNames) {
		return fmt.Sprintf("ZoneFlag(%d)", int(f))
	}
	return zoneFlagNames[f]
}

// ParseZoneFlag resolves a flag name, ignoring case and underscores.
func ParseZoneFlag(s string) (ZoneFlag, bool) {
	want := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	for i, n := range zoneFlagNames {
		if strings.EqualFold(strings.ReplaceAll(n, "_", ""), want) {
			return ZoneFlag(i), true
		}
	}
	return 0, false
}

// ZoneStats is the runtime bookkeeping of a zone. Counts are refreshed
// from the zone's rooms after every reset when a room lookup is wired.
type ZoneStats struct {
	CreationTime time.Time
	LastReset    time.Time
	ResetCount   int
	PlayerCount  int
	MobileCount  int
	ObjectCount  int
}

// Uptime returns the time elapsed since the zone was created.
func (s ZoneStats) Uptime(now time.Time) time.Duration { return now.Sub(s.CreationTime) }

// TimeSinceReset returns the time elapsed since the last reset.
func (s ZoneStats) TimeSinceReset(now time.Time) time.Duration { return now.Sub(s.LastReset) }

// Default zone parameters.
const (
	DefaultResetMinutes = 30
	defaultMaxLevel     = 100
)

// Zone is an administrative region of rooms together with the command list
// that repopulates it.
//
// A Zone is not safe for concurrent use; the Store serializes access.
type Zone struct {
	Entity

	resetMinutes int
	resetMode    ResetMode
	minLevel     int
	maxLevel     int
	builders     string
	flags        uint32
	rooms        map[EntityID]struct{}
	firstRoom    EntityID
	lastRoom     EntityID
	commands     []ZoneCommand
	stats        ZoneStats

	callbacks ZoneCallbacks
	logger    *zap.Logger
	rng       dice.Source
	now       func() time.Time
}

// NewZone creates a zone that resets every resetMinutes while empty.
//
// Precondition: id must be valid, name non-empty and resetMinutes >= 0.
// Postcondition: Returns an ErrInvalidArgument error otherwise.
func NewZone(id EntityID, name string, resetMinutes int) (*Zone, error) {
	if !id.IsValid() {
		return nil, invalidArgument("NewZone", "invalid zone id")
	}
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("NewZone", "zone name cannot be empty")
	}
	if resetMinutes < 0 {
		return nil, invalidArgument("NewZone", "reset minutes cannot be negative")
	}
	z := &Zone{
		Entity:       NewEntity(id, name),
		resetMinutes: resetMinutes,
		resetMode:    ResetEmpty,
		maxLevel:     defaultMaxLevel,
		rooms:        make(map[EntityID]struct{}),
		firstRoom:    InvalidID,
		lastRoom:     InvalidID,
		logger:       zap.NewNop(),
		rng:          dice.NewCryptoSource(),
		now:          time.Now,
	}
	z.stats.CreationTime = z.now()
	z.stats.LastReset = z.stats.CreationTime
	return z, nil
}

// SetLogger sets the logger used by resets; nil installs a no-op logger.
func (z *Zone) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	z.logger = l
}

// SetRandomSource sets the source consulted by Random commands.
func (z *Zone) SetRandomSource(src dice.Source) {
	if src != nil {
		z.rng = src
	}
}

// SetClock replaces the wall clock. The creation and last reset times are
// moved to the new clock's present.
func (z *Zone) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	z.now = now
	z.stats.CreationTime = now()
	z.stats.LastReset = z.stats.CreationTime
}

// SetCallbacks wires the world collaborator used by resets.
func (z *Zone) SetCallbacks(cb ZoneCallbacks) { z.callbacks = cb }

// ResetMinutes returns the reset interval in minutes.
func (z *Zone) ResetMinutes() int { return z.resetMinutes }

// SetResetMinutes sets the reset interval; negative values become 0.
func (z *Zone) SetResetMinutes(m int) { z.resetMinutes = max(0, m) }

// ResetMode returns the reset mode.
func (z *Zone) ResetMode() ResetMode { return z.resetMode }

// SetResetMode sets the reset mode.
func (z *Zone) SetResetMode(m ResetMode) { z.resetMode = m }

// MinLevel returns the lowest level admitted.
func (z *Zone) MinLevel() int { return z.minLevel }

// SetMinLevel sets the lowest level admitted; negative values become 0.
func (z *Zone) SetMinLevel(l int) { z.minLevel = max(0, l) }

// MaxLevel returns the highest level admitted.
func (z *Zone) MaxLevel() int { return z.maxLevel }

// SetMaxLevel sets the highest level admitted, never below MinLevel.
func (z *Zone) SetMaxLevel(l int) { z.maxLevel = max(z.minLevel, l) }

// Builders returns the builder credits.
func (z *Zone) Builders() string { return z.builders }

// SetBuilders sets the builder credits.
func (z *Zone) SetBuilders(b string) { z.builders = b }

// HasFlag reports whether f is set.
func (z *Zone) HasFlag(f ZoneFlag) bool { return z.flags&(1<<f) != 0 }

// SetFlag sets or clears f.
func (z *Zone) SetFlag(f ZoneFlag, on bool) {
	if on {
		z.flags |= 1 << f
	} else {
		z.flags &^= 1 << f
	}
}

// Flags returns the set flags in ascending order.
func (z *Zone) Flags() []ZoneFlag {
	var out []ZoneFlag
	for f := ZoneFlag(0); int(f) < len(zoneFlagNames); f++ {
		if z.HasFlag(f) {
			out = append(out, f)
		}
	}
	return out
}

// AddRoom records room membership; InvalidID is ignored.
func (z *Zone) AddRoom(id EntityID) {
	if id.IsValid() {
		z.rooms[id] = struct{}{}
	}
}

// RemoveRoom drops room membership.
func (z *Zone) RemoveRoom(id EntityID) { delete(z.rooms, id) }

// ContainsRoom reports membership.
func (z *Zone) ContainsRoom(id EntityID) bool {
	_, ok := z.rooms[id]
	return ok
}

// Rooms returns the member room ids in ascending order.
func (z *Zone) Rooms() []EntityID {
	out := make([]EntityID, 0, len(z.rooms))
	for id := range z.rooms {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// FirstRoom returns the lowest room number of the zone's range.
func (z *Zone) FirstRoom() EntityID { return z.firstRoom }

// SetFirstRoom sets the lowest room number of the zone's range.
func (z *Zone) SetFirstRoom(id EntityID) { z.firstRoom = id }

// LastRoom returns the highest room number of the zone's range.
func (z *Zone) LastRoom() EntityID { return z.lastRoom }

// SetLastRoom sets the highest room number of the zone's range.
func (z *Zone) SetLastRoom(id EntityID) { z.lastRoom = id }

// Commands returns a copy of the reset command list.
func (z *Zone) Commands() []ZoneCommand { return slices.Clone(z.commands) }

// AddCommand appends cmd to the command list.
func (z *Zone) AddCommand(cmd ZoneCommand) { z.commands = append(z.commands, cmd) }

// InsertCommand inserts cmd before position i; i == len appends.
func (z *Zone) InsertCommand(i int, cmd ZoneCommand) error {
	if i < 0 || i > len(z.commands) {
		return invalidArgument("Zone.InsertCommand", "index %d out of range [0,%d]", i, len(z.commands))
	}
	z.commands = slices.Insert(z.commands, i, cmd)
	return nil
}

// RemoveCommand deletes the command at position i.
func (z *Zone) RemoveCommand(i int) error {
	if i < 0 || i >= len(z.commands) {
		return invalidArgument("Zone.RemoveCommand", "index %d out of range [0,%d)", i, len(z.commands))
	}
	z.commands = slices.Delete(z.commands, i, i+1)
	return nil
}

// ClearCommands empties the command list.
func (z *Zone) ClearCommands() { z.commands = nil }

// Stats returns a copy of the runtime statistics.
func (z *Zone) Stats() ZoneStats { return z.stats }

// SetPlayerCount records the number of players present; used when no room
// lookup is wired.
func (z *Zone) SetPlayerCount(n int) { z.stats.PlayerCount = max(0, n) }

// IsClosed reports whether the zone is closed to players.
func (z *Zone) IsClosed() bool { return z.HasFlag(ZoneClosed) }

// AllowsMortals reports whether mortals may enter.
func (z *Zone) AllowsMortals() bool { return !z.HasFlag(ZoneNoMortals) }

// IsQuestZone reports whether the zone is a quest zone.
func (z *Zone) IsQuestZone() bool { return z.HasFlag(ZoneQuest) }

// AllowsSummon reports whether summoning works in the zone.
func (z *Zone) AllowsSummon() bool { return z.HasFlag(ZoneSummonOk) }

// AllowsTeleport reports whether teleporting works in the zone.
func (z *Zone) AllowsTeleport() bool { return z.HasFlag(ZoneTeleportOk) }

// IsNoAttack reports whether combat is forbidden.
func (z *Zone) IsNoAttack() bool { return z.HasFlag(ZoneNoAttack) }

// AllowsCombat is the negation of IsNoAttack.
func (z *Zone) AllowsCombat() bool { return !z.IsNoAttack() }

// IsPKZone reports whether player killing is allowed.
func (z *Zone) IsPKZone() bool { return z.HasFlag(ZoneChaosOk) || z.HasFlag(ZoneLawfulOk) }

// AllowsLevel reports whether level lies within [MinLevel, MaxLevel].
func (z *Zone) AllowsLevel(level int) bool { return level >= z.minLevel && level <= z.maxLevel }

// HasWeatherOverride reports whether weather is suppressed.
func (z *Zone) HasWeatherOverride() bool { return z.HasFlag(ZoneNoWeather) }

// IsUnderground reports whether the zone lies underground.
func (z *Zone) IsUnderground() bool { return z.HasFlag(ZoneUnderground) }

// NeedsReset reports whether the zone is due for a reset at now.
//
// Never and Manual zones never need one; OnReboot zones need exactly one;
// Empty zones additionally require that no player is present.
func (z *Zone) NeedsReset(now time.Time) bool {
	switch z.resetMode {
	case ResetNever, ResetManual:
		return false
	case ResetOnReboot:
		return z.stats.ResetCount == 0
	}
	if z.stats.TimeSinceReset(now) < time.Duration(z.resetMinutes)*time.Minute {
		return false
	}
	if z.resetMode == ResetEmpty {
		return z.isEmptyOfPlayers()
	}
	return true
}

// ForceReset clears the zone's live mobiles and runs the command list
// regardless of the reset schedule.
func (z *Zone) ForceReset() ResetSummary {
	z.stats.LastReset = z.now()
	z.stats.ResetCount++
	if z.callbacks.CleanupZoneMobiles != nil {
		z.callbacks.CleanupZoneMobiles(z.ID())
	}
	return z.ExecuteReset()
}

func (z *Zone) isEmptyOfPlayers() bool {
	if z.callbacks.GetRoom == nil {
		return z.stats.PlayerCount == 0
	}
	for id := range z.rooms {
		room := z.callbacks.GetRoom(id)
		if room == nil {
			continue
		}
		for _, a := range room.Contents().Actors() {
			if a.IsPlayer() {
				return false
			}
		}
	}
	return true
}

// updateStatistics stamps the reset time and, when rooms can be looked up,
// recounts the zone's population.
func (z *Zone) updateStatistics() {
	z.stats.LastReset = z.now()
	if z.callbacks.GetRoom == nil {
		return
	}
	var players, mobiles, objects int
	for id := range z.rooms {
		room := z.callbacks.GetRoom(id)
		if room == nil {
			continue
		}
		objects += len(room.Contents().Objects())
		for _, a := range room.Contents().Actors() {
			if a.IsPlayer() {
				players++
			} else {
				mobiles++
			}
		}
	}
	z.stats.PlayerCount = players
	z.stats.MobileCount = mobiles
	z.stats.ObjectCount = objects
}

// Validate checks the zone invariants.
func (z *Zone) Validate() error {
	if err := z.Entity.Validate(); err != nil {
		return err
	}
	var errs []string
	if z.resetMinutes < 0 {
		errs = append(errs, "zone reset minutes cannot be negative")
	}
	if z.minLevel < 0 {
		errs = append(errs, "zone min level cannot be negative")
	}
	if z.maxLevel < z.minLevel {
		errs = append(errs, fmt.Sprintf("zone max level %d is below min level %d", z.maxLevel, z.minLevel))
	}
	if len(errs) > 0 {
		return invalidState("Zone.Validate", "%s", strings.Join(errs, "; "))
	}
	return nil
}
