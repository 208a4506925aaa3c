package world

import (
	"strings"

	"github.com/tidwall/gjson"
)

const legacyBrightnessDivisor = 10

// ObjectFromJSON decodes an object in either the current or the legacy
// format. The concrete kind is chosen from the type tag, so a CONTAINER
// always decodes to something AsContainer accepts.
//
// Postcondition: malformed fields yield ErrParse; a decoded object that
// fails Validate yields ErrInvalidState.
func ObjectFromJSON(data []byte) (*Object, error) {
	doc, err := parseDocument("ObjectFromJSON", data)
	if err != nil {
		return nil, err
	}
	return objectFromResult(doc)
}

func objectFromResult(r gjson.Result) (*Object, error) {
	const op = "ObjectFromJSON"
	base, err := entityFromJSON(op, r)
	if err != nil {
		return nil, err
	}

	t := ObjectUndefined
	if v, ok := firstOf(r, "object_type", "type"); ok {
		s, err := readString(op, "object_type", v)
		if err != nil {
			return nil, err
		}
		if parsed, ok := ParseObjectType(s); ok {
			t = parsed
		}
	}

	var o *Object
	switch t {
	case ObjectContainer, ObjectCorpse:
		capacity := defaultContainerSize
		if v, ok := firstOf(r, "container_info.capacity", "values.Capacity"); ok {
			if n, err := readInt(op, "capacity", v); err == nil && n > 0 {
				capacity = n
			}
		}
		c, err := newContainer(base.ID(), base.Name(), capacity, t)
		if err != nil {
			return nil, err
		}
		o = c.Object
	case ObjectWeapon, ObjectFireweapon:
		w, err := NewWeapon(base.ID(), base.Name(), t)
		if err != nil {
			return nil, err
		}
		o = w.Object
	case ObjectArmor:
		a, err := NewArmor(base.ID(), base.Name(), SlotBody)
		if err != nil {
			return nil, err
		}
		o = a.Object
	default:
		o = newBaseObject(base.ID(), base.Name(), t)
	}
	o.Entity = base

	if err := decodeObjectScalars(op, r, o); err != nil {
		return nil, err
	}
	if err := decodeObjectFlags(op, r, o); err != nil {
		return nil, err
	}
	if err := decodeObjectSubStates(op, r, o); err != nil {
		return nil, err
	}
	if err := decodeExtraDescriptions(op, r, o); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func decodeObjectScalars(op string, r gjson.Result, o *Object) error {
	if v := r.Get("weight"); v.Exists() {
		n, err := readInt(op, "weight", v)
		if err != nil {
			return err
		}
		o.weight = n
	}
	if v, ok := firstOf(r, "value", "cost"); ok {
		n, err := readInt(op, "value", v)
		if err != nil {
			return err
		}
		o.value = n
	}
	if v := r.Get("level"); v.Exists() {
		n, err := readInt(op, "level", v)
		if err != nil {
			return err
		}
		o.SetLevel(n)
	}
	if v := r.Get("condition"); v.Exists() {
		n, err := readInt(op, "condition", v)
		if err != nil {
			return err
		}
		o.SetCondition(n)
	}
	if v := r.Get("timer"); v.Exists() {
		n, err := readInt(op, "timer", v)
		if err != nil {
			return err
		}
		o.SetTimer(n)
	}
	if v := r.Get("equip_slot"); v.Exists() {
		s, err := readString(op, "equip_slot", v)
		if err != nil {
			return err
		}
		if slot, ok := ParseEquipSlot(s); ok {
			o.equipSlot = slot
		}
	}
	if v := r.Get("armor_class"); v.Exists() {
		n, err := readInt(op, "armor_class", v)
		if err != nil {
			return err
		}
		o.armorClass = n
	}
	if v := r.Get("examine_description"); v.Exists() {
		s, err := readString(op, "examine_description", v)
		if err != nil {
			return err
		}
		o.examine = s
	}
	return nil
}

func decodeObjectFlags(op string, r gjson.Result, o *Object) error {
	names, err := readStrings(op, "flags", r.Get("flags"), ",")
	if err != nil {
		return err
	}
	for _, n := range names {
		if f, ok := ParseObjectFlag(n); ok {
			o.SetFlag(f, true)
		}
	}
	names, err = readStrings(op, "effect_flags", r.Get("effect_flags"), ",")
	if err != nil {
		return err
	}
	for _, n := range names {
		if e, ok := ParseEffectFlag(n); ok {
			o.SetEffect(e, true)
		}
	}
	return nil
}

func decodeObjectSubStates(op string, r gjson.Result, o *Object) error {
	if dv, ok := firstOf(r, "damage", "damage_dice"); ok && dv.Type == gjson.String {
		d, err := ParseDamageProfile(dv.Str)
		if err != nil {
			return err
		}
		o.damage = d
	}
	if dp := r.Get("damage_profile"); dp.Type == gjson.String {
		d, err := ParseDamageProfile(dp.Str)
		if err != nil {
			return err
		}
		o.damage = d
	} else if dp.IsObject() {
		var d DamageProfile
		for field, dst := range map[string]*int{
			"base_damage":  &d.BaseDamage,
			"dice_count":   &d.DiceCount,
			"dice_sides":   &d.DiceSides,
			"damage_bonus": &d.DamageBonus,
		} {
			if v := dp.Get(field); v.Exists() {
				n, err := readInt(op, "damage_profile."+field, v)
				if err != nil {
					return err
				}
				*dst = n
			}
		}
		o.damage = d
	}

	if ci := r.Get("container_info"); ci.IsObject() {
		info, err := decodeContainerInfo(op, ci)
		if err != nil {
			return err
		}
		o.container = info
	} else if vals := r.Get("values"); vals.IsObject() && (o.objType == ObjectContainer || o.objType == ObjectCorpse) {
		o.container = decodeLegacyContainerValues(op, vals)
	}

	if li := r.Get("light_info"); li.IsObject() {
		light := LightInfo{Brightness: 1}
		if v := li.Get("duration"); v.Exists() {
			n, err := readInt(op, "light_info.duration", v)
			if err != nil {
				return err
			}
			light.Duration = n
		}
		if v := li.Get("brightness"); v.Exists() {
			n, err := readInt(op, "light_info.brightness", v)
			if err != nil {
				return err
			}
			light.Brightness = n
		}
		if v := li.Get("lit"); v.Exists() {
			b, err := readBool(op, "light_info.lit", v)
			if err != nil {
				return err
			}
			light.Lit = b
		}
		o.light = light
	} else if vals := r.Get("values"); vals.IsObject() && o.objType == ObjectLight {
		o.light = decodeLegacyLightValues(op, vals)
	}

	if lq := r.Get("liquid_info"); lq.IsObject() {
		var liquid LiquidInfo
		liquid.LiquidType = lq.Get("liquid_type").String()
		if v := lq.Get("capacity"); v.Exists() {
			n, err := readInt(op, "liquid_info.capacity", v)
			if err != nil {
				return err
			}
			liquid.Capacity = n
		}
		if v := lq.Get("remaining"); v.Exists() {
			n, err := readInt(op, "liquid_info.remaining", v)
			if err != nil {
				return err
			}
			liquid.Remaining = n
		}
		liquid.Poisoned = lq.Get("poisoned").Bool()
		o.liquid = liquid
	}
	return nil
}

func decodeContainerInfo(op string, ci gjson.Result) (ContainerInfo, error) {
	info := ContainerInfo{KeyID: InvalidID}
	for field, dst := range map[string]*int{
		"capacity":         &info.Capacity,
		"weight_capacity":  &info.WeightCapacity,
		"weight_reduction": &info.WeightReduction,
	} {
		if v := ci.Get(field); v.Exists() {
			n, err := readInt(op, "container_info."+field, v)
			if err != nil {
				return info, err
			}
			*dst = n
		}
	}
	for field, dst := range map[string]*bool{
		"closeable": &info.Closeable,
		"closed":    &info.Closed,
		"lockable":  &info.Lockable,
		"locked":    &info.Locked,
	} {
		if v := ci.Get(field); v.Exists() {
			b, err := readBool(op, "container_info."+field, v)
			if err != nil {
				return info, err
			}
			*dst = b
		}
	}
	if v := ci.Get("key_id"); v.Exists() {
		id, err := readID(op, "container_info.key_id", v)
		if err != nil {
			return info, err
		}
		info.KeyID = id
	}
	return info, nil
}

// decodeLegacyContainerValues reads the old "values" block. Unparseable
// entries fall back to defaults rather than failing the object.
func decodeLegacyContainerValues(op string, vals gjson.Result) ContainerInfo {
	info := ContainerInfo{KeyID: InvalidID}
	if v := vals.Get("Capacity"); v.Exists() {
		if n, err := readInt(op, "values.Capacity", v); err == nil {
			info.Capacity = n
		}
		info.WeightCapacity = info.Capacity * weightCapacityPerSlot
	}
	if v := vals.Get("Key"); v.Exists() {
		if n, err := readInt(op, "values.Key", v); err == nil && n > 0 {
			info.KeyID = EntityID(n)
			info.Lockable = true
		}
	}
	if v := vals.Get("Flags"); v.IsArray() {
		for _, f := range v.Array() {
			switch f.String() {
			case "Closeable":
				info.Closeable = true
			case "Closed":
				info.Closed = true
			case "Locked":
				info.Lockable = true
				info.Locked = true
			}
		}
	} else if v.Type == gjson.String {
		s := v.Str
		info.Closeable = strings.Contains(s, "CLOSEABLE")
		info.Closed = strings.Contains(s, "CLOSED")
		if strings.Contains(s, "LOCKED") {
			info.Lockable = true
			info.Locked = true
		}
	}
	if v := vals.Get("Weight Reduction"); v.Exists() {
		if n, err := readInt(op, "values.Weight Reduction", v); err == nil {
			info.WeightReduction = n
		}
	}
	return info
}

func decodeLegacyLightValues(op string, vals gjson.Result) LightInfo {
	light := LightInfo{Brightness: 1}
	if v := vals.Get("Remaining"); v.Exists() {
		if n, err := readInt(op, "values.Remaining", v); err == nil {
			light.Duration = n
		}
	}
	if v := vals.Get("Capacity"); v.Exists() {
		if n, err := readInt(op, "values.Capacity", v); err == nil {
			light.Brightness = max(1, n/legacyBrightnessDivisor)
		}
	}
	if v := vals.Get("Is_Lit:"); v.Exists() {
		light.Lit = v.String() != "" && v.String() != "0"
	}
	return light
}

func decodeExtraDescriptions(op string, r gjson.Result, o *Object) error {
	extras := r.Get("extra_descriptions")
	if !extras.IsArray() {
		return nil
	}
	for _, x := range extras.Array() {
		kw, desc := x.Get("keyword"), x.Get("desc")
		if !kw.Exists() || !desc.Exists() {
			continue
		}
		var ed ExtraDescription
		if kw.Type == gjson.String {
			ed.Keywords = strings.Fields(kw.Str)
		} else {
			words, err := readStrings(op, "extra_descriptions.keyword", kw, "")
			if err != nil {
				return err
			}
			ed.Keywords = words
		}
		s, err := readString(op, "extra_descriptions.desc", desc)
		if err != nil {
			return err
		}
		ed.Description = s
		o.extras = append(o.extras, ed)
	}
	return nil
}

// MarshalJSON encodes the object in the current format.
func (o *Object) MarshalJSON() ([]byte, error) {
	d := newDoc()
	o.writeJSON(d)
	return d.bytes("Object.MarshalJSON")
}

func (o *Object) writeJSON(d *jsonDoc) {
	o.Entity.writeJSON(d, o.TypeName())
	d.set("object_type", o.objType.String())
	d.set("weight", o.weight)
	d.set("value", o.value)
	d.set("level", o.level)
	d.set("condition", o.condition)
	if o.hasTimer {
		d.set("timer", o.timer)
	}
	d.set("equip_slot", o.equipSlot.String())
	d.set("armor_class", o.armorClass)
	flags := []string{}
	for _, f := range o.Flags() {
		flags = append(flags, f.String())
	}
	d.set("flags", flags)
	if effects := o.Effects(); len(effects) > 0 {
		names := make([]string, len(effects))
		for i, e := range effects {
			names[i] = e.String()
		}
		d.set("effect_flags", names)
	}
	if o.examine != "" {
		d.set("examine_description", o.examine)
	}
	if o.IsWeapon() {
		d.set("damage_profile", o.damage)
	}
	if o.IsContainer() {
		ci := o.container
		d.set("container_info.capacity", ci.Capacity)
		d.set("container_info.weight_capacity", ci.WeightCapacity)
		d.set("container_info.weight_reduction", ci.WeightReduction)
		d.set("container_info.closeable", ci.Closeable)
		d.set("container_info.closed", ci.Closed)
		d.set("container_info.lockable", ci.Lockable)
		d.set("container_info.locked", ci.Locked)
		if ci.KeyID.IsValid() {
			d.set("container_info.key_id", uint64(ci.KeyID))
		} else {
			d.set("container_info.key_id", -1)
		}
	}
	if o.IsLightSource() {
		d.set("light_info.duration", o.light.Duration)
		d.set("light_info.brightness", o.light.Brightness)
		d.set("light_info.lit", o.light.Lit)
	}
	if o.objType == ObjectLiquidContainer {
		d.set("liquid_info.liquid_type", o.liquid.LiquidType)
		d.set("liquid_info.capacity", o.liquid.Capacity)
		d.set("liquid_info.remaining", o.liquid.Remaining)
		d.set("liquid_info.poisoned", o.liquid.Poisoned)
	}
	if len(o.extras) > 0 {
		extras := make([]map[string]any, len(o.extras))
		for i, x := range o.extras {
			var kw any = x.Keywords
			if len(x.Keywords) == 1 {
				kw = x.Keywords[0]
			}
			extras[i] = map[string]any{"keyword": kw, "desc": x.Description}
		}
		d.set("extra_descriptions", extras)
	}
}
