// Package world provides the persistent world model: entities, objects,
// rooms with their exits and doors, zones and the zone reset interpreter.
package world

import (
	"fmt"
	"strings"
)

// Direction identifies an exit slot of a room. The numbering matches the
// legacy world files, where door reset commands store it as an integer.
type Direction int

// Directions. DirectionNone is the sentinel for "no direction".
const (
	North Direction = iota
	East
	South
	West
	Up
	Down
	Northeast
	Northwest
	Southeast
	Southwest
	In
	Out
	Portal
	DirectionNone
)

var directionNames = [...]string{
	"North", "East", "South", "West", "Up", "Down",
	"Northeast", "Northwest", "Southeast", "Southwest", "In", "Out", "Portal", "None",
}

var directionAbbrevs = [...]string{
	"n", "e", "s", "w", "u", "d", "ne", "nw", "se", "sw", "in", "out", "portal", "",
}

// AllDirections lists every real direction in numeric order.
var AllDirections = []Direction{
	North, East, South, West, Up, Down,
	Northeast, Northwest, Southeast, Southwest, In, Out, Portal,
}

func (d Direction) String() string {
	if d < 0 || d > DirectionNone {
		return "None"
	}
	return directionNames[d]
}

// Abbrev returns the short form used in listings ("n", "ne", ...).
func (d Direction) Abbrev() string {
	if d < 0 || d > DirectionNone {
		return ""
	}
	return directionAbbrevs[d]
}

// IsValid reports whether d names a real exit slot.
func (d Direction) IsValid() bool { return d >= North && d < DirectionNone }

// Opposite returns the reverse direction. Portal and None have no opposite
// and return DirectionNone.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	case Up:
		return Down
	case Down:
		return Up
	case In:
		return Out
	case Out:
		return In
	default:
		return DirectionNone
	}
}

// ParseDirection accepts enum names ("Northeast"), lower or upper case names
// and the usual abbreviations ("ne").
func ParseDirection(s string) (Direction, bool) {
	s = strings.TrimSpace(s)
	for i, n := range directionNames[:DirectionNone] {
		if s == n || strings.EqualFold(s, n) {
			return Direction(i), true
		}
	}
	lower := strings.ToLower(s)
	for i, a := range directionAbbrevs[:DirectionNone] {
		if lower == a {
			return Direction(i), true
		}
	}
	return DirectionNone, false
}

// SectorType is the terrain of a room.
type SectorType int

// Sector types in legacy numbering order. SectorUndefined is the sentinel.
const (
	SectorInside SectorType = iota
	SectorCity
	SectorField
	SectorForest
	SectorHills
	SectorMountains
	SectorWaterSwim
	SectorWaterNoswim
	SectorUnderwater
	SectorFlying
	SectorDesert
	SectorSwamp
	SectorBeach
	SectorRoad
	SectorUnderground
	SectorLava
	SectorIce
	SectorAstral
	SectorFire
	SectorLightning
	SectorSpirit
	SectorBadlands
	SectorVoid
	SectorUndefined
)

var sectorNames = [...]string{
	"Inside", "City", "Field", "Forest", "Hills", "Mountains", "Water_Swim", "Water_Noswim",
	"Underwater", "Flying", "Desert", "Swamp", "Beach", "Road", "Underground", "Lava", "Ice",
	"Astral", "Fire", "Lightning", "Spirit", "Badlands", "Void", "Undefined",
}

func (s SectorType) String() string {
	if s < 0 || s > SectorUndefined {
		return fmt.Sprintf("SectorType(%d)", int(s))
	}
	return sectorNames[s]
}

// ParseSectorType resolves a sector name case-insensitively.
func ParseSectorType(name string) (SectorType, bool) {
	for i, n := range sectorNames {
		if strings.EqualFold(n, name) {
			return SectorType(i), true
		}
	}
	return SectorUndefined, false
}

// SectorFromNumber maps a legacy numeric sector code; unknown codes yield
// SectorUndefined.
func SectorFromNumber(n int) SectorType {
	if n < 0 || n >= int(SectorUndefined) {
		return SectorUndefined
	}
	return SectorType(n)
}

var movementCosts = map[SectorType]int{
	SectorInside:      1,
	SectorCity:        1,
	SectorField:       2,
	SectorForest:      3,
	SectorHills:       3,
	SectorMountains:   4,
	SectorWaterSwim:   3,
	SectorWaterNoswim: 1,
	SectorUnderwater:  4,
	SectorFlying:      1,
	SectorDesert:      3,
	SectorSwamp:       4,
	SectorBeach:       2,
	SectorRoad:        1,
	SectorUnderground: 2,
	SectorLava:        5,
	SectorIce:         2,
}

// MovementCost returns the movement points needed to enter a sector.
func (s SectorType) MovementCost() int {
	if c, ok := movementCosts[s]; ok {
		return c
	}
	return 2
}

var sectorLight = map[SectorType]int{
	SectorInside:      0,
	SectorCity:        2,
	SectorField:       3,
	SectorForest:      1,
	SectorHills:       3,
	SectorMountains:   3,
	SectorWaterSwim:   2,
	SectorWaterNoswim: 2,
	SectorUnderwater:  0,
	SectorFlying:      4,
	SectorDesert:      4,
	SectorSwamp:       1,
	SectorBeach:       3,
	SectorRoad:        3,
	SectorUnderground: 0,
	SectorLava:        5,
	SectorIce:         2,
	SectorFire:        6,
}

// LightLevel returns the natural light of a sector.
func (s SectorType) LightLevel() int {
	if l, ok := sectorLight[s]; ok {
		return l
	}
	return 2
}

// AllowsFlying reports whether flight is possible in the sector.
func (s SectorType) AllowsFlying() bool {
	return s != SectorUnderwater && s != SectorUnderground
}

// IsWater reports whether the sector is any kind of water.
func (s SectorType) IsWater() bool {
	return s == SectorWaterSwim || s == SectorWaterNoswim || s == SectorUnderwater
}

// RequiresSwimming reports whether entering needs swimming.
func (s SectorType) RequiresSwimming() bool {
	return s == SectorWaterSwim || s == SectorUnderwater
}

// RoomFlag is a behavior bit of a room.
type RoomFlag uint8

// Room flags.
const (
	RoomDark RoomFlag = iota
	RoomDeath
	RoomNoMob
	RoomIndoors
	RoomPeaceful
	RoomSoundproof
	RoomNoTrack
	RoomNoMagic
	RoomTunnel
	RoomPrivate
	RoomGodroom
	RoomHouse
	RoomHouseCrash
	RoomAtrium
	RoomOLC
	RoomBFSMark
	RoomVehicle
	RoomUnderground
	RoomCurrent
	RoomTimedDT
	RoomEarth
	RoomAir
	RoomFire
	RoomWater
	RoomNoRecall
	RoomNoSummon
	RoomNoLocate
	RoomNoTeleport
	RoomAlwaysLit
	RoomClanEntrance
	RoomClanStorage
	RoomArena
	RoomShop
	RoomTemple
	RoomBank
	RoomInn
	RoomCampsite
	RoomWorldmap
	RoomFerryDest
	RoomIsolated
	RoomAltExit
	RoomObservatory
	RoomLarge
	RoomMediumLarge
	RoomMedium
	RoomMediumSmall
	RoomSmall
	RoomVerySmall
	RoomOnePerson
	RoomGuildhall
	RoomNoWell
	RoomNoScan
	RoomUnderdark
	RoomNoShift
	RoomEffectsNext
)

var roomFlagNames = [...]string{
	"Dark", "Death", "NoMob", "Indoors", "Peaceful", "Soundproof", "NoTrack", "NoMagic",
	"Tunnel", "Private", "Godroom", "House", "HouseCrash", "Atrium", "OLC", "BFS_Mark",
	"Vehicle", "Underground", "Current", "Timed_DT", "Earth", "Air", "Fire", "Water",
	"NoRecall", "NoSummon", "NoLocate", "NoTeleport", "AlwaysLit", "ClanEntrance",
	"ClanStorage", "Arena", "Shop", "Temple", "Bank", "Inn", "Campsite", "Worldmap",
	"FerryDest", "Isolated", "AltExit", "Observatory", "Large", "MediumLarge", "Medium",
	"MediumSmall", "Small", "VerySmall", "OnePerson", "Guildhall", "NoWell", "NoScan",
	"Underdark", "NoShift", "EffectsNext",
}

func (f RoomFlag) String() string {
	if int(f) >= len(roomFlagNames) {
		return fmt.Sprintf("RoomFlag(%d)", int(f))
	}
	return roomFlagNames[f]
}

// ParseRoomFlag resolves a flag name, ignoring case and underscores, so the
// legacy "ALWAYSLIT" and "NO_MOB" spellings are accepted.
func ParseRoomFlag(s string) (RoomFlag, bool) {
	want := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	for i, n := range roomFlagNames {
		if strings.EqualFold(strings.ReplaceAll(n, "_", ""), want) {
			return RoomFlag(i), true
		}
	}
	return 0, false
}
