package world

import (
	"slices"
	"strings"
)

// legacyObjectTypes maps upper-case type names of the older file format that
// do not line up with the enum names.
var legacyObjectTypes = map[string]ObjectType{
	"NOTHING":        ObjectOther,
	"DRINKCON":       ObjectLiquidContainer,
	"DRINKCONTAINER": ObjectLiquidContainer,
	"ROPE":           ObjectOther,
	"WALL":           ObjectOther,
	"INSTRUMENT":     ObjectOther,
	"FIREWEAPON":     ObjectFireweapon,
	"SPELLBOOK":      ObjectSpellbook,
}

// ParseObjectType resolves an enum name, case-insensitively, or a legacy
// upper-case name.
func ParseObjectType(s string) (ObjectType, bool) {
	if t, ok := legacyObjectTypes[strings.ToUpper(s)]; ok {
		return t, true
	}
	for i, n := range objectTypeNames {
		if strings.EqualFold(n, s) {
			return ObjectType(i), true
		}
	}
	return ObjectUndefined, false
}

var legacyEquipSlots = map[string]EquipSlot{
	"FINGER_L":       SlotFingerL,
	"FINGER_R":       SlotFingerR,
	"NECK_1":         SlotNeck1,
	"NECK_2":         SlotNeck2,
	"WRIST_L":        SlotWristL,
	"WRIST_R":        SlotWristR,
	"HOVER":          SlotFloat,
	"EYES":           SlotEye,
	"LEAR":           SlotEar,
	"REAR":           SlotEar,
	"OBELT":          SlotWaist,
	"HOLD2":          SlotHold,
	"TWO_HAND_WIELD": SlotWield,
	"NONE":           SlotNone,
	"":               SlotNone,
}

// ParseEquipSlot resolves a slot name: exact enum name first, then
// case-insensitive, then the legacy upper-case aliases.
func ParseEquipSlot(s string) (EquipSlot, bool) {
	if i := slices.Index(equipSlotNames[:], s); i >= 0 {
		return EquipSlot(i - 1), true
	}
	for i, n := range equipSlotNames {
		if strings.EqualFold(n, s) {
			return EquipSlot(i - 1), true
		}
	}
	if slot, ok := legacyEquipSlots[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return slot, true
	}
	return SlotNone, false
}

// ParseObjectFlag resolves a flag name case-insensitively.
func ParseObjectFlag(s string) (ObjectFlag, bool) {
	s = strings.ReplaceAll(s, "_", "")
	for i, n := range objectFlagNames {
		if strings.EqualFold(n, s) {
			return ObjectFlag(i), true
		}
	}
	return 0, false
}

// ParseEffectFlag resolves an effect name case-insensitively.
func ParseEffectFlag(s string) (EffectFlag, bool) {
	s = strings.ReplaceAll(s, "_", "")
	for i, n := range effectFlagNames {
		if strings.EqualFold(n, s) {
			return EffectFlag(i), true
		}
	}
	return 0, false
}

var slotsByType = map[ObjectType][]EquipSlot{
	ObjectLight:      {SlotLight, SlotHold},
	ObjectWeapon:     {SlotWield, SlotWield2, SlotHold},
	ObjectFireweapon: {SlotWield, SlotWield2, SlotHold},
	ObjectArmor:      {SlotBody, SlotHead, SlotLegs, SlotFeet, SlotHands, SlotArms, SlotShield},
	ObjectWorn: {
		SlotFingerR, SlotFingerL, SlotNeck1, SlotNeck2, SlotAbout, SlotWaist,
		SlotWristR, SlotWristL, SlotHold, SlotFloat, SlotEye, SlotEar, SlotBadge,
	},
	ObjectWings:    {SlotWings},
	ObjectDisguise: {SlotDisguise},
}

// CanEquipInSlot reports whether an object of type t may be worn in slot.
// Types without wear positions only accept SlotNone.
func CanEquipInSlot(t ObjectType, slot EquipSlot) bool {
	slots, ok := slotsByType[t]
	if !ok {
		return slot == SlotNone
	}
	return slices.Contains(slots, slot)
}

// DefaultSlot returns the natural wear position of type t.
func DefaultSlot(t ObjectType) EquipSlot {
	switch t {
	case ObjectLight:
		return SlotLight
	case ObjectWeapon, ObjectFireweapon:
		return SlotWield
	case ObjectArmor:
		return SlotBody
	case ObjectWings:
		return SlotWings
	case ObjectDisguise:
		return SlotDisguise
	}
	return SlotNone
}

var baseValues = map[ObjectType]int{
	ObjectLight:      5,
	ObjectScroll:     50,
	ObjectWand:       100,
	ObjectStaff:      200,
	ObjectWeapon:     30,
	ObjectFireweapon: 40,
	ObjectMissile:    1,
	ObjectTreasure:   100,
	ObjectArmor:      50,
	ObjectPotion:     25,
	ObjectWorn:       20,
	ObjectOther:      10,
	ObjectContainer:  15,
	ObjectFood:       5,
	ObjectKey:        1,
	ObjectMoney:      1,
}

// BaseValue estimates the value of a type t object at level.
func BaseValue(t ObjectType, level int) int {
	v, ok := baseValues[t]
	if !ok {
		v = 10
	}
	return v * max(1, level)
}
