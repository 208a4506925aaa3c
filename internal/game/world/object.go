package world

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/mudworld/internal/game/dice"
)

// ObjectType tags the kind of an object.
type ObjectType int

// Object types in legacy numbering order.
const (
	ObjectUndefined ObjectType = iota
	ObjectLight
	ObjectScroll
	ObjectWand
	ObjectStaff
	ObjectWeapon
	ObjectFireweapon
	ObjectMissile
	ObjectTreasure
	ObjectArmor
	ObjectPotion
	ObjectWorn
	ObjectOther
	ObjectTrash
	ObjectTrap
	ObjectContainer
	ObjectNote
	ObjectLiquidContainer
	ObjectKey
	ObjectFood
	ObjectMoney
	ObjectPen
	ObjectBoat
	ObjectFountain
	ObjectVehicle
	ObjectBoard
	ObjectCorpse
	ObjectPortal
	ObjectSpellbook
	ObjectKit
	ObjectWings
	ObjectPerfume
	ObjectDisguise
	ObjectPoison
)

var objectTypeNames = [...]string{
	"Undefined", "Light", "Scroll", "Wand", "Staff", "Weapon", "Fireweapon", "Missile",
	"Treasure", "Armor", "Potion", "Worn", "Other", "Trash", "Trap", "Container", "Note",
	"Liquid_Container", "Key", "Food", "Money", "Pen", "Boat", "Fountain", "Vehicle",
	"Board", "Corpse", "Portal", "Spellbook", "Kit", "Wings", "Perfume", "Disguise", "Poison",
}

func (t ObjectType) String() string {
	if t < 0 || int(t) >= len(objectTypeNames) {
		return fmt.Sprintf("ObjectType(%d)", int(t))
	}
	return objectTypeNames[t]
}

// EquipSlot is a wear position on a body.
type EquipSlot int

// Equipment slots in legacy numbering order.
const (
	SlotNone EquipSlot = iota - 1
	SlotLight
	SlotFingerR
	SlotFingerL
	SlotNeck1
	SlotNeck2
	SlotBody
	SlotHead
	SlotLegs
	SlotFeet
	SlotHands
	SlotArms
	SlotShield
	SlotAbout
	SlotWaist
	SlotWristR
	SlotWristL
	SlotWield
	SlotHold
	SlotFloat
	SlotWield2
	SlotEye
	SlotEar
	SlotBadge
	SlotFocus
	SlotThroat
	SlotFace
	SlotWings
	SlotDisguise
)

var equipSlotNames = [...]string{
	"None", "Light", "Finger_R", "Finger_L", "Neck1", "Neck2", "Body", "Head", "Legs",
	"Feet", "Hands", "Arms", "Shield", "About", "Waist", "Wrist_R", "Wrist_L", "Wield",
	"Hold", "Float", "Wield2", "Eye", "Ear", "Badge", "Focus", "Throat", "Face", "Wings",
	"Disguise",
}

func (s EquipSlot) String() string {
	if s < SlotNone || int(s+1) >= len(equipSlotNames) {
		return fmt.Sprintf("EquipSlot(%d)", int(s))
	}
	return equipSlotNames[s+1]
}

// ObjectFlag is a property bit of an object.
type ObjectFlag uint8

// Object flags.
const (
	FlagGlow ObjectFlag = iota
	FlagHum
	FlagNoRent
	FlagNoDonate
	FlagNoInvisible
	FlagInvisible
	FlagMagic
	FlagNoDrop
	FlagBless
	FlagPermanent
	FlagAntiGood
	FlagAntiEvil
	FlagAntiNeutral
	FlagAntiSorcerer
	FlagAntiCleric
	FlagAntiRogue
	FlagAntiWarrior
	FlagAntiPaladin
	FlagAntiAntiPaladin
	FlagAntiRanger
	FlagAntiDruid
	FlagAntiShaman
	FlagAntiAssassin
	FlagAntiMercenary
	FlagAntiNecromancer
	FlagAntiConjurer
	FlagAntiBerserker
	FlagNoSell
	FlagNoBurn
	FlagNoLocate
	FlagDecomposing
	FlagFloat
	FlagNoFall
	FlagUnique
	FlagCursed
	FlagIdentified
	FlagTwoHanded
	FlagThrown
	FlagPoison
	FlagEnhanced
)

var objectFlagNames = [...]string{
	"Glow", "Hum", "NoRent", "NoDonate", "NoInvisible", "Invisible", "Magic", "NoDrop",
	"Bless", "Permanent", "AntiGood", "AntiEvil", "AntiNeutral", "AntiSorcerer",
	"AntiCleric", "AntiRogue", "AntiWarrior", "AntiPaladin", "AntiAntiPaladin",
	"AntiRanger", "AntiDruid", "AntiShaman", "AntiAssassin", "AntiMercenary",
	"AntiNecromancer", "AntiConjurer", "AntiBerserker", "NoSell", "NoBurn", "NoLocate",
	"Decomposing", "Float", "NoFall", "Unique", "Cursed", "Identified", "TwoHanded",
	"Thrown", "Poison", "Enhanced",
}

func (f ObjectFlag) String() string {
	if int(f) >= len(objectFlagNames) {
		return fmt.Sprintf("ObjectFlag(%d)", int(f))
	}
	return objectFlagNames[f]
}

// EffectFlag is a magical effect granted while an object is equipped.
type EffectFlag uint8

// Effect flags.
const (
	EffectBlind EffectFlag = iota
	EffectInvisible
	EffectDetectAlign
	EffectDetectInvis
	EffectDetectMagic
	EffectSenseLife
	EffectWaterwalk
	EffectSanctuary
	EffectConfusion
	EffectCurse
	EffectInfravision
	EffectPoison
	EffectProtectEvil
	EffectProtectGood
	EffectSleep
	EffectNoTrack
	EffectTamed
	EffectBerserk
	EffectSneak
	EffectStealth
	EffectFly
	EffectCharm
	EffectStoneSkin
	EffectFarsee
	EffectHaste
	EffectBlur
	EffectVitality
	EffectGlory
	EffectMajorParalysis
	EffectFamiliarity
	EffectMesmerized
	EffectImmobilized
	EffectLight
	EffectMinorParalysis
	EffectHurtThroat
	EffectFeatherFall
	EffectWaterbreath
	EffectSoulshield
	EffectSilence
	EffectProtectFire
	EffectProtectCold
	EffectProtectAir
	EffectProtectEarth
	EffectFireshield
	EffectColdshield
	EffectMinorGlobe
	EffectMajorGlobe
	EffectHarness
	EffectOnFire
)

var effectFlagNames = [...]string{
	"Blind", "Invisible", "DetectAlign", "DetectInvis", "DetectMagic", "SenseLife",
	"Waterwalk", "Sanctuary", "Confusion", "Curse", "Infravision", "Poison",
	"ProtectEvil", "ProtectGood", "Sleep", "NoTrack", "Tamed", "Berserk", "Sneak",
	"Stealth", "Fly", "Charm", "StoneSkin", "Farsee", "Haste", "Blur", "Vitality", "Glory",
	"MajorParalysis", "Familiarity", "Mesmerized", "Immobilized", "Light",
	"MinorParalysis", "HurtThroat", "FeatherFall", "Waterbreath", "Soulshield", "Silence",
	"ProtectFire", "ProtectCold", "ProtectAir", "ProtectEarth", "Fireshield", "Coldshield",
	"MinorGlobe", "MajorGlobe", "Harness", "OnFire",
}

func (f EffectFlag) String() string {
	if int(f) >= len(effectFlagNames) {
		return fmt.Sprintf("EffectFlag(%d)", int(f))
	}
	return effectFlagNames[f]
}

// DamageProfile describes weapon damage in dice notation.
type DamageProfile struct {
	BaseDamage  int `json:"base_damage"`
	DiceCount   int `json:"dice_count"`
	DiceSides   int `json:"dice_sides"`
	DamageBonus int `json:"damage_bonus"`
}

// Average returns the expected damage of one hit.
func (d DamageProfile) Average() float64 {
	return float64(d.BaseDamage+d.DamageBonus) + float64(d.DiceCount*(d.DiceSides+1))/2.0
}

// DiceString formats the profile as "NdS+B", or just the flat amount when
// no dice are rolled.
func (d DamageProfile) DiceString() string {
	flat := d.BaseDamage + d.DamageBonus
	if d.DiceCount == 0 {
		return fmt.Sprintf("%d", flat)
	}
	s := fmt.Sprintf("%dd%d", d.DiceCount, d.DiceSides)
	switch {
	case flat > 0:
		s += fmt.Sprintf("+%d", flat)
	case flat < 0:
		s += fmt.Sprintf("%d", flat)
	}
	return s
}

// ParseDamageProfile reads dice notation such as "2d6+1" into a profile
// whose modifier becomes the damage bonus. A bare integer is a flat base
// damage.
func ParseDamageProfile(s string) (DamageProfile, error) {
	e, err := dice.Parse(s)
	if err != nil {
		return DamageProfile{}, newError(ErrParse, "ParseDamageProfile", "damage "+strings.TrimSpace(s), err)
	}
	if e.Count == 0 {
		return DamageProfile{BaseDamage: e.Modifier}, nil
	}
	return DamageProfile{DiceCount: e.Count, DiceSides: e.Sides, DamageBonus: e.Modifier}, nil
}

// Roll rolls the profile once with src. The result is never negative.
func (d DamageProfile) Roll(src dice.Source) int {
	total := d.BaseDamage + d.DamageBonus
	if d.DiceCount > 0 && d.DiceSides >= 2 {
		total += dice.Roll(dice.Expression{Count: d.DiceCount, Sides: d.DiceSides}, src).Total()
	}
	return max(0, total)
}

// ContainerInfo is the capacity and lock sub-state of a container.
type ContainerInfo struct {
	Capacity        int
	WeightCapacity  int
	WeightReduction int
	Closeable       bool
	Closed          bool
	Lockable        bool
	Locked          bool
	KeyID           EntityID
}

// LightInfo describes a light source. Duration -1 burns forever.
type LightInfo struct {
	Duration   int
	Brightness int
	Lit        bool
}

// LiquidInfo describes the contents of a drink container.
type LiquidInfo struct {
	LiquidType string
	Capacity   int
	Remaining  int
	Poisoned   bool
}

// ExtraDescription is a keyword-triggered detail text.
type ExtraDescription struct {
	Keywords    []string
	Description string
}

// MatchesKeyword reports whether k equals one of the trigger keywords.
func (x ExtraDescription) MatchesKeyword(k string) bool {
	for _, kw := range x.Keywords {
		if strings.EqualFold(kw, k) {
			return true
		}
	}
	return false
}

// Condition thresholds for QualityDescription.
const (
	MinCondition            = 0
	MaxCondition            = 100
	conditionPerfect        = 90
	conditionSlightlyWorn   = 80
	conditionWorn           = 60
	conditionDamaged        = 40
	conditionBadlyDamaged   = 20
	defaultContainerSize    = 10
	weightCapacityPerSlot   = 10
	maxMobileInventoryItems = 10
)

// Object is an item in the world. The concrete kind (plain, Weapon, Armor or
// Container) is fixed at construction from the type tag; AsWeapon, AsArmor
// and AsContainer expose the kind-specific API.
type Object struct {
	Entity

	objType     ObjectType
	weight      int
	value       int
	level       int
	condition   int
	timer       int
	hasTimer    bool
	equipSlot   EquipSlot
	armorClass  int
	flags       uint64
	effects     uint64
	damage      DamageProfile
	container   ContainerInfo
	light       LightInfo
	liquid      LiquidInfo
	examine     string
	extras      []ExtraDescription
	spellLevel  int
	spellIDs    [3]int
	charges     int
	maxCharges  int
	weaponStats *weaponStats
	armorStats  *armorStats
	store       *containerStore
}

func newBaseObject(id EntityID, name string, t ObjectType) *Object {
	o := &Object{
		Entity:     NewEntity(id, name),
		objType:    t,
		level:      1,
		condition:  MaxCondition,
		timer:      -1,
		equipSlot:  DefaultSlot(t),
		spellLevel: 1,
		light:      LightInfo{Brightness: 1},
		container:  ContainerInfo{KeyID: InvalidID},
	}
	if kws := ParseKeywordList(name); len(kws) > 0 {
		o.SetKeywords(kws)
	}
	return o
}

// NewObject creates an object of type t, dispatching to the concrete kind:
// Container and Corpse become containers, Weapon and Fireweapon weapons,
// Armor an armor piece.
//
// Precondition: id must be valid and name non-empty.
// Postcondition: Returns an ErrInvalidArgument error otherwise.
func NewObject(id EntityID, name string, t ObjectType) (*Object, error) {
	if !id.IsValid() {
		return nil, invalidArgument("NewObject", "invalid object id")
	}
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("NewObject", "object name cannot be empty")
	}
	switch t {
	case ObjectContainer, ObjectCorpse:
		c, err := newContainer(id, name, defaultContainerSize, t)
		if err != nil {
			return nil, err
		}
		return c.Object, nil
	case ObjectWeapon, ObjectFireweapon:
		w, err := NewWeapon(id, name, t)
		if err != nil {
			return nil, err
		}
		return w.Object, nil
	case ObjectArmor:
		a, err := NewArmor(id, name, SlotBody)
		if err != nil {
			return nil, err
		}
		return a.Object, nil
	}
	return newBaseObject(id, name, t), nil
}

// Type returns the type tag.
func (o *Object) Type() ObjectType { return o.objType }

// TypeName is the serialized kind name.
func (o *Object) TypeName() string {
	switch {
	case o.store != nil:
		return "Container"
	case o.weaponStats != nil:
		return "Weapon"
	case o.armorStats != nil:
		return "Armor"
	}
	return "Object"
}

// Weight returns the object's weight including any contents.
func (o *Object) Weight() int {
	if o.store != nil {
		return o.weight + o.store.weight()
	}
	return o.weight
}

// BaseWeight returns the weight of the object itself.
func (o *Object) BaseWeight() int { return o.weight }

// SetWeight sets the weight, clamped to zero.
func (o *Object) SetWeight(w int) { o.weight = max(0, w) }

// Value returns the object's value.
func (o *Object) Value() int { return o.value }

// SetValue sets the value, clamped to zero.
func (o *Object) SetValue(v int) { o.value = max(0, v) }

// Level returns the level requirement.
func (o *Object) Level() int { return o.level }

// SetLevel sets the level requirement, clamped to zero.
func (o *Object) SetLevel(l int) { o.level = max(0, l) }

// Condition returns durability in [0,100].
func (o *Object) Condition() int { return o.condition }

// SetCondition sets durability clamped into [0,100].
func (o *Object) SetCondition(c int) { o.condition = min(MaxCondition, max(MinCondition, c)) }

// IsBroken reports whether durability is exhausted.
func (o *Object) IsBroken() bool { return o.condition <= MinCondition }

// Timer returns the expiry counter; meaningful only when HasTimer.
func (o *Object) Timer() int { return o.timer }

// HasTimer reports whether the expiry counter is active.
func (o *Object) HasTimer() bool { return o.hasTimer }

// SetTimer activates the expiry counter.
func (o *Object) SetTimer(t int) {
	o.timer = max(0, t)
	o.hasTimer = true
}

// IsExpired reports whether an active timer ran out.
func (o *Object) IsExpired() bool { return o.hasTimer && o.timer == 0 }

// EquipSlot returns the wear position.
func (o *Object) EquipSlot() EquipSlot { return o.equipSlot }

// SetEquipSlot sets the wear position.
func (o *Object) SetEquipSlot(s EquipSlot) { o.equipSlot = s }

// IsWearable reports whether the object has a wear position.
func (o *Object) IsWearable() bool { return o.equipSlot != SlotNone }

// ArmorClass returns the armor class bonus.
func (o *Object) ArmorClass() int { return o.armorClass }

// SetArmorClass sets the armor class bonus.
func (o *Object) SetArmorClass(ac int) { o.armorClass = ac }

// IsWeapon reports whether the type tag is a weapon type.
func (o *Object) IsWeapon() bool {
	return o.objType == ObjectWeapon || o.objType == ObjectFireweapon
}

// IsArmor reports whether the type tag is Armor.
func (o *Object) IsArmor() bool { return o.objType == ObjectArmor }

// IsContainer reports whether the object can hold things, liquids included.
func (o *Object) IsContainer() bool {
	return o.objType == ObjectContainer || o.objType == ObjectLiquidContainer || o.objType == ObjectCorpse
}

// IsLightSource reports whether the type tag is Light.
func (o *Object) IsLightSource() bool { return o.objType == ObjectLight }

// IsMagicItem reports whether the object carries spells.
func (o *Object) IsMagicItem() bool {
	switch o.objType {
	case ObjectScroll, ObjectPotion, ObjectWand, ObjectStaff:
		return true
	}
	return false
}

// HasFlag reports whether f is set.
func (o *Object) HasFlag(f ObjectFlag) bool { return o.flags&(1<<f) != 0 }

// SetFlag sets or clears f.
func (o *Object) SetFlag(f ObjectFlag, on bool) {
	if on {
		o.flags |= 1 << f
	} else {
		o.flags &^= 1 << f
	}
}

// Flags returns the set flags in ascending order.
func (o *Object) Flags() []ObjectFlag {
	var out []ObjectFlag
	for f := ObjectFlag(0); int(f) < len(objectFlagNames); f++ {
		if o.HasFlag(f) {
			out = append(out, f)
		}
	}
	return out
}

// HasEffect reports whether effect e is granted.
func (o *Object) HasEffect(e EffectFlag) bool { return o.effects&(1<<e) != 0 }

// SetEffect sets or clears effect e.
func (o *Object) SetEffect(e EffectFlag, on bool) {
	if on {
		o.effects |= 1 << e
	} else {
		o.effects &^= 1 << e
	}
}

// Effects returns the granted effects in ascending order.
func (o *Object) Effects() []EffectFlag {
	var out []EffectFlag
	for e := EffectFlag(0); int(e) < len(effectFlagNames); e++ {
		if o.HasEffect(e) {
			out = append(out, e)
		}
	}
	return out
}

// DamageProfile returns the weapon damage profile.
func (o *Object) DamageProfile() DamageProfile { return o.damage }

// SetDamageProfile replaces the damage profile.
func (o *Object) SetDamageProfile(d DamageProfile) { o.damage = d }

// ContainerInfo returns the container sub-state.
func (o *Object) ContainerInfo() ContainerInfo { return o.container }

// SetContainerInfo replaces the container sub-state.
func (o *Object) SetContainerInfo(ci ContainerInfo) { o.container = ci }

// LightInfo returns the light sub-state.
func (o *Object) LightInfo() LightInfo { return o.light }

// SetLightInfo replaces the light sub-state.
func (o *Object) SetLightInfo(li LightInfo) { o.light = li }

// LiquidInfo returns the drink container sub-state.
func (o *Object) LiquidInfo() LiquidInfo { return o.liquid }

// SetLiquidInfo replaces the drink container sub-state.
func (o *Object) SetLiquidInfo(li LiquidInfo) { o.liquid = li }

// HasLiquid reports whether any liquid remains.
func (o *Object) HasLiquid() bool { return o.liquid.Remaining > 0 }

// SpellLevel returns the power of the carried spells.
func (o *Object) SpellLevel() int { return o.spellLevel }

// SetSpellLevel sets the spell level, at least 1.
func (o *Object) SetSpellLevel(l int) { o.spellLevel = max(1, l) }

// SpellIDs returns the up to three carried spells.
func (o *Object) SpellIDs() [3]int { return o.spellIDs }

// SetSpellID sets one of the three spell slots; out-of-range indexes are ignored.
func (o *Object) SetSpellID(i, spell int) {
	if i >= 0 && i < len(o.spellIDs) {
		o.spellIDs[i] = spell
	}
}

// Charges returns remaining charges.
func (o *Object) Charges() int { return o.charges }

// SetCharges sets remaining charges, clamped to zero.
func (o *Object) SetCharges(c int) { o.charges = max(0, c) }

// MaxCharges returns the charge capacity.
func (o *Object) MaxCharges() int { return o.maxCharges }

// SetMaxCharges sets the charge capacity, clamped to zero.
func (o *Object) SetMaxCharges(c int) { o.maxCharges = max(0, c) }

// ExamineDescription returns the detailed examine text.
func (o *Object) ExamineDescription() string { return o.examine }

// SetExamineDescription sets the detailed examine text.
func (o *Object) SetExamineDescription(s string) { o.examine = s }

// AddExtraDescription appends a keyword-triggered description.
func (o *Object) AddExtraDescription(x ExtraDescription) { o.extras = append(o.extras, x) }

// ExtraDescriptions returns all extra descriptions.
func (o *Object) ExtraDescriptions() []ExtraDescription { return o.extras }

// ExtraDescriptionFor returns the first description triggered by k.
func (o *Object) ExtraDescriptionFor(k string) (string, bool) {
	for _, x := range o.extras {
		if x.MatchesKeyword(k) {
			return x.Description, true
		}
	}
	return "", false
}

// MatchesKeyword extends entity matching: an identified drink container that
// still holds liquid also answers to the liquid's name.
func (o *Object) MatchesKeyword(k string) bool {
	if o.Entity.MatchesKeyword(k) {
		return true
	}
	return o.objType == ObjectLiquidContainer &&
		o.liquid.Remaining > 0 &&
		o.liquid.LiquidType != "" &&
		o.HasFlag(FlagIdentified) &&
		NormalizeKeyword(k) == NormalizeKeyword(o.liquid.LiquidType)
}

// QualityDescription describes the condition; pristine objects return "".
func (o *Object) QualityDescription() string {
	switch c := o.condition; {
	case c >= conditionPerfect:
		return ""
	case c >= conditionSlightlyWorn:
		return "slightly worn"
	case c >= conditionWorn:
		return "worn"
	case c >= conditionDamaged:
		return "damaged"
	case c >= conditionBadlyDamaged:
		return "badly damaged"
	case c > MinCondition:
		return "nearly broken"
	}
	return "broken"
}

// DisplayNameWithCondition prefixes the display name with the quality
// description when the object is not pristine.
func (o *Object) DisplayNameWithCondition(withArticle bool) string {
	name := o.DisplayName(withArticle)
	if q := o.QualityDescription(); q != "" {
		return q + " " + name
	}
	return name
}

// Validate checks the object invariants.
func (o *Object) Validate() error {
	if err := o.Entity.Validate(); err != nil {
		return err
	}
	var errs []string
	if o.objType == ObjectUndefined {
		errs = append(errs, "object type cannot be undefined")
	}
	if o.weight < 0 {
		errs = append(errs, "object weight cannot be negative")
	}
	if o.value < 0 {
		errs = append(errs, "object value cannot be negative")
	}
	if o.condition < MinCondition || o.condition > MaxCondition {
		errs = append(errs, fmt.Sprintf("object condition must be between %d and %d", MinCondition, MaxCondition))
	}
	if len(errs) > 0 {
		return invalidState("Object.Validate", "%s", strings.Join(errs, "; "))
	}
	return nil
}

// Clone returns a fresh instance of the prototype o with id. Container
// contents are not copied.
func (o *Object) Clone(id EntityID) *Object {
	c := *o
	c.Entity = NewEntityWithKeywords(id, o.Name(), o.keywords, o.ground, o.short)
	c.extras = append([]ExtraDescription(nil), o.extras...)
	if o.weaponStats != nil {
		ws := *o.weaponStats
		c.weaponStats = &ws
	}
	if o.armorStats != nil {
		as := *o.armorStats
		c.armorStats = &as
	}
	if o.store != nil {
		c.store = &containerStore{}
	}
	return &c
}
