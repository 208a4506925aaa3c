package world

import "slices"

type weaponStats struct {
	reach int
	speed int
}

type armorStats struct {
	material string
}

// containerStore holds contained objects. Weights are summed on demand so
// that items added to a nested container count toward every ancestor.
type containerStore struct {
	items []*Object
}

func (s *containerStore) weight() int {
	total := 0
	for _, it := range s.items {
		total += it.Weight()
	}
	return total
}

// holds reports whether target is stored in s at any depth.
func (s *containerStore) holds(target *Object) bool {
	for _, it := range s.items {
		if it == target || (it.store != nil && it.store.holds(target)) {
			return true
		}
	}
	return false
}

// Weapon is the weapon view of an object.
type Weapon struct {
	*Object
}

// NewWeapon creates a weapon with reach and speed 5.
//
// Precondition: t is ObjectWeapon or ObjectFireweapon.
// Postcondition: Returns an ErrInvalidArgument error otherwise.
func NewWeapon(id EntityID, name string, t ObjectType) (*Weapon, error) {
	if t != ObjectWeapon && t != ObjectFireweapon {
		return nil, invalidArgument("NewWeapon", "invalid weapon type %s", t)
	}
	if !id.IsValid() || name == "" {
		return nil, invalidArgument("NewWeapon", "weapon requires a valid id and name")
	}
	o := newBaseObject(id, name, t)
	o.weaponStats = &weaponStats{reach: 5, speed: 5}
	return &Weapon{Object: o}, nil
}

// AsWeapon returns the weapon view when o was constructed as a weapon.
func (o *Object) AsWeapon() (*Weapon, bool) {
	if o.weaponStats == nil {
		return nil, false
	}
	return &Weapon{Object: o}, true
}

// IsRanged reports whether the weapon fires missiles.
func (w *Weapon) IsRanged() bool { return w.objType == ObjectFireweapon }

// Reach returns the reach in feet.
func (w *Weapon) Reach() int { return w.weaponStats.reach }

// SetReach sets the reach, clamped to zero.
func (w *Weapon) SetReach(r int) { w.weaponStats.reach = max(0, r) }

// Speed returns attack speed; lower is faster.
func (w *Weapon) Speed() int { return w.weaponStats.speed }

// SetSpeed sets attack speed, at least 1.
func (w *Weapon) SetSpeed(s int) { w.weaponStats.speed = max(1, s) }

// Armor is the armor view of an object.
type Armor struct {
	*Object
}

// NewArmor creates an armor piece worn in slot.
//
// Precondition: slot is not SlotNone.
// Postcondition: material defaults to "leather".
func NewArmor(id EntityID, name string, slot EquipSlot) (*Armor, error) {
	if slot == SlotNone {
		return nil, invalidArgument("NewArmor", "armor must have an equip slot")
	}
	if !id.IsValid() || name == "" {
		return nil, invalidArgument("NewArmor", "armor requires a valid id and name")
	}
	o := newBaseObject(id, name, ObjectArmor)
	o.equipSlot = slot
	o.armorStats = &armorStats{material: "leather"}
	return &Armor{Object: o}, nil
}

// AsArmor returns the armor view when o was constructed as armor.
func (o *Object) AsArmor() (*Armor, bool) {
	if o.armorStats == nil {
		return nil, false
	}
	return &Armor{Object: o}, true
}

// Material returns what the armor is made of.
func (a *Armor) Material() string { return a.armorStats.material }

// SetMaterial sets what the armor is made of.
func (a *Armor) SetMaterial(m string) { a.armorStats.material = m }

// Container is the container view of an object.
type Container struct {
	*Object
}

// NewContainer creates a Container-type object holding up to capacity items
// and capacity*10 weight.
//
// Precondition: capacity > 0.
func NewContainer(id EntityID, name string, capacity int) (*Container, error) {
	return newContainer(id, name, capacity, ObjectContainer)
}

func newContainer(id EntityID, name string, capacity int, t ObjectType) (*Container, error) {
	if capacity <= 0 {
		return nil, invalidArgument("NewContainer", "container capacity must be positive")
	}
	if !id.IsValid() || name == "" {
		return nil, invalidArgument("NewContainer", "container requires a valid id and name")
	}
	o := newBaseObject(id, name, t)
	o.container.Capacity = capacity
	o.container.WeightCapacity = capacity * weightCapacityPerSlot
	o.store = &containerStore{}
	return &Container{Object: o}, nil
}

// AsContainer returns the container view when o was constructed as a
// container.
func (o *Object) AsContainer() (*Container, bool) {
	if o.store == nil {
		return nil, false
	}
	return &Container{Object: o}, true
}

// CanStoreItem reports whether item fits by count and by weight.
func (c *Container) CanStoreItem(item *Object) bool {
	if item == nil {
		return false
	}
	return len(c.store.items) < c.container.Capacity &&
		c.store.weight()+item.Weight() <= c.container.WeightCapacity
}

// AddItem stores item.
//
// Precondition: item is non-nil.
// Postcondition: on failure the container is unchanged; a full container
// yields ErrInvalidState "container is full" and an item that already
// holds c yields ErrInvalidState.
func (c *Container) AddItem(item *Object) error {
	if item == nil {
		return invalidArgument("Container.AddItem", "cannot add nil item")
	}
	if item == c.Object {
		return invalidArgument("Container.AddItem", "container cannot hold itself")
	}
	if item.store != nil && item.store.holds(c.Object) {
		return invalidState("Container.AddItem", "%s already holds this container", item.Name())
	}
	if !c.CanStoreItem(item) {
		return invalidState("Container.AddItem", "container is full")
	}
	c.store.items = append(c.store.items, item)
	return nil
}

// AddItemForce stores item ignoring capacity limits. Zone resets use it so
// that a prototype's declared contents always spawn.
func (c *Container) AddItemForce(item *Object) {
	if item == nil || item == c.Object || (item.store != nil && item.store.holds(c.Object)) {
		return
	}
	c.store.items = append(c.store.items, item)
}

// RemoveItemByID removes the first item with id.
func (c *Container) RemoveItemByID(id EntityID) (*Object, bool) {
	i := slices.IndexFunc(c.store.items, func(o *Object) bool { return o.ID() == id })
	if i < 0 {
		return nil, false
	}
	item := c.store.items[i]
	c.store.items = slices.Delete(c.store.items, i, i+1)
	return item, true
}

// RemoveItem removes item by identity.
func (c *Container) RemoveItem(item *Object) bool {
	i := slices.Index(c.store.items, item)
	if i < 0 {
		return false
	}
	c.store.items = slices.Delete(c.store.items, i, i+1)
	return true
}

// FindItem returns the first item with id.
func (c *Container) FindItem(id EntityID) (*Object, bool) {
	for _, it := range c.store.items {
		if it.ID() == id {
			return it, true
		}
	}
	return nil, false
}

// FindItemsByKeyword returns every item matching k.
func (c *Container) FindItemsByKeyword(k string) []*Object {
	var out []*Object
	for _, it := range c.store.items {
		if it.MatchesKeyword(k) {
			out = append(out, it)
		}
	}
	return out
}

// Contents returns the stored items in insertion order.
func (c *Container) Contents() []*Object { return slices.Clone(c.store.items) }

// ContentsCount returns the number of stored items.
func (c *Container) ContentsCount() int { return len(c.store.items) }

// ContentsWeight returns the summed weight of the stored items.
func (c *Container) ContentsWeight() int { return c.store.weight() }

// IsEmpty reports whether nothing is stored.
func (c *Container) IsEmpty() bool { return len(c.store.items) == 0 }

// IsFull reports whether the item capacity is reached.
func (c *Container) IsFull() bool { return len(c.store.items) >= c.container.Capacity }
