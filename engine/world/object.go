package world

// Object is a tangible thing that can lie in a room or be carried.
type Object struct {
	Thing

	weight int
	damage int
	text   string
	owner  *Being
}

// NewObject creates an object outside any world.
func NewObject(name string) *Object {
	o := &Object{}
	o.init(KindObject, name)
	return o
}

func (o *Object) Weight() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.weight
}

func (o *Object) SetWeight(w int) {
	o.mu.Lock()
	o.weight = w
	o.mu.Unlock()
}

// Damage is the damage dealt when the object is used as a weapon.
func (o *Object) Damage() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.damage
}

func (o *Object) SetDamage(d int) {
	o.mu.Lock()
	o.damage = d
	o.mu.Unlock()
}

// Text is what reading the object shows.
func (o *Object) Text() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.text
}

func (o *Object) SetText(text string) {
	o.mu.Lock()
	o.text = text
	o.mu.Unlock()
}

func (o *Object) IsWeapon() bool { return o.HasTag(TagWeapon) }

// Owner is the being carrying the object, or nil. It is a relation only;
// the being's inventory is the source of truth.
func (o *Object) Owner() *Being {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// OwnerEntity is Owner as a world entity (the Player or Creature), or nil.
func (o *Object) OwnerEntity() Entity {
	b := o.Owner()
	if b == nil {
		return nil
	}
	return b.Self()
}

func (o *Object) setOwner(b *Being) {
	o.mu.Lock()
	o.owner = b
	o.mu.Unlock()
}
