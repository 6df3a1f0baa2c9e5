package world

import (
	"fmt"

	"github.com/nathoo/trogdor/engine/event"
)

const (
	DefaultStrength     = 10
	DefaultDexterity    = 10
	DefaultIntelligence = 10

	DefaultRespawnLives    = -1
	DefaultDamageBareHands = 5
	DefaultWoundRate       = 0.75
)

// BeingEntity is a Player or a Creature.
type BeingEntity interface {
	Entity
	AsBeing() *Being
}

// Being is the living part of a Player or Creature: health, inventory,
// respawn settings and the actions that fire before/after events.
type Being struct {
	Thing
	self BeingEntity

	health    int
	maxHealth int
	alive     bool

	respawnEnabled  bool
	respawnInterval int
	respawnLives    int

	damageBareHands int
	woundRate       float64
	attributes      map[string]int

	inventory []*Object
	maxWeight int
}

func (b *Being) initBeing(kind Kind, name string, self BeingEntity) {
	b.init(kind, name)
	b.self = self
	b.alive = true
	b.respawnLives = DefaultRespawnLives
	b.damageBareHands = DefaultDamageBareHands
	b.woundRate = DefaultWoundRate
	b.attributes = map[string]int{
		"strength":     DefaultStrength,
		"dexterity":    DefaultDexterity,
		"intelligence": DefaultIntelligence,
	}
	b.tags[TagAttackable] = struct{}{}
}

func (b *Being) AsBeing() *Being { return b }

// Self returns the Player or Creature this being belongs to.
func (b *Being) Self() BeingEntity { return b.self }

func (b *Being) Alive() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.alive
}

func (b *Being) Health() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.health
}

func (b *Being) SetHealth(h int) {
	b.mu.Lock()
	b.health = h
	b.mu.Unlock()
}

// MaxHealth of 0 means the being is immortal.
func (b *Being) MaxHealth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxHealth
}

// SetMaxHealth sets the ceiling and fills health up to it.
func (b *Being) SetMaxHealth(max int) {
	b.mu.Lock()
	b.maxHealth = max
	b.health = max
	b.mu.Unlock()
}

func (b *Being) Immortal() bool { return b.MaxHealth() == 0 }

func (b *Being) Attackable() bool { return b.HasTag(TagAttackable) }

func (b *Being) SetAttackable(on bool) {
	if on {
		b.SetTag(TagAttackable)
	} else {
		b.RemoveTag(TagAttackable)
	}
}

// RespawnSettings are read and written together.
type RespawnSettings struct {
	Enabled  bool
	Interval int // ticks; 0 respawns immediately
	Lives    int // -1 is unlimited
}

func (b *Being) RespawnSettings() RespawnSettings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return RespawnSettings{Enabled: b.respawnEnabled, Interval: b.respawnInterval, Lives: b.respawnLives}
}

func (b *Being) SetRespawn(s RespawnSettings) {
	b.mu.Lock()
	b.respawnEnabled = s.Enabled
	b.respawnInterval = s.Interval
	b.respawnLives = s.Lives
	b.mu.Unlock()
}

func (b *Being) DamageBareHands() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.damageBareHands
}

func (b *Being) SetDamageBareHands(d int) {
	b.mu.Lock()
	b.damageBareHands = d
	b.mu.Unlock()
}

// WoundRate is the highest probability of this being getting hit.
func (b *Being) WoundRate() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.woundRate
}

func (b *Being) SetWoundRate(rate float64) {
	b.mu.Lock()
	b.woundRate = rate
	b.mu.Unlock()
}

func (b *Being) Attribute(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attributes[key]
}

func (b *Being) SetAttribute(key string, v int) {
	b.mu.Lock()
	b.attributes[key] = v
	b.mu.Unlock()
}

// AttributeFactor is an attribute's share of the being's attribute total.
func (b *Being) AttributeFactor(key string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, v := range b.attributes {
		total += v
	}
	if total == 0 {
		return 0
	}
	return float64(b.attributes[key]) / float64(total)
}

// Inventory returns the carried objects in pickup order.
func (b *Being) Inventory() []*Object {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*Object(nil), b.inventory...)
}

// InventoryWeight returns (carried, capacity). Capacity 0 is unlimited.
func (b *Being) InventoryWeight() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.carriedLocked(), b.maxWeight
}

func (b *Being) carriedLocked() int {
	total := 0
	for _, o := range b.inventory {
		total += o.Weight()
	}
	return total
}

func (b *Being) SetInventoryCapacity(w int) {
	b.mu.Lock()
	b.maxWeight = w
	b.mu.Unlock()
}

func (b *Being) Carries(o *Object) bool {
	return o != nil && o.Owner() == b
}

// insertIntoInventory adds o. considerWeight false bypasses the capacity
// check (world loading).
func (b *Being) insertIntoInventory(o *Object, considerWeight bool) error {
	w := o.Weight()

	b.mu.Lock()
	defer b.mu.Unlock()
	if considerWeight && b.maxWeight > 0 && b.carriedLocked()+w > b.maxWeight {
		return ErrTooHeavy
	}
	b.inventory = append(b.inventory, o)
	return nil
}

func (b *Being) removeFromInventory(o *Object) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, held := range b.inventory {
		if held == o {
			b.inventory = append(b.inventory[:i], b.inventory[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Being) notify(msg string) {
	if p, ok := b.self.(*Player); ok {
		p.Out(msg)
	}
}

// Take moves o into the inventory. checkUntakeable false ignores the
// untakeable tag; doEvents false skips beforeTake/afterTake.
func (b *Being) Take(o *Object, checkUntakeable, doEvents bool) error {
	if o == nil || o.Destroyed() || b.Destroyed() {
		return ErrDestroyed
	}
	if !b.Alive() {
		return ErrDead
	}
	if checkUntakeable && o.HasTag(TagUntakeable) {
		return ErrUntakeable
	}
	if b.Carries(o) {
		return nil
	}

	if doEvents && !b.fire("beforeTake", Listeners(b.self, o), Ref(b.self), Ref(o)) {
		return ErrVetoed
	}

	if err := b.insertIntoInventory(o, true); err != nil {
		return err
	}
	if prev := o.Location(); prev != nil {
		prev.remove(o)
		o.setLocation(nil)
	}
	if prev := o.Owner(); prev != nil && prev != b {
		prev.removeFromInventory(o)
	}
	o.setOwner(b)

	if doEvents {
		b.fire("afterTake", Listeners(b.self, o), Ref(b.self), Ref(o))
	}
	return nil
}

// Drop puts o into the being's current room. checkUndroppable false
// ignores the undroppable tag; doEvents false skips beforeDrop/afterDrop.
func (b *Being) Drop(o *Object, checkUndroppable, doEvents bool) error {
	if o == nil || o.Destroyed() {
		return ErrDestroyed
	}
	if !b.Carries(o) {
		return ErrNotCarrying
	}
	if checkUndroppable && o.HasTag(TagUndroppable) {
		return ErrUndroppable
	}
	loc := b.Location()
	if loc == nil {
		return ErrNowhere
	}

	if doEvents && !b.fire("beforeDrop", Listeners(b.self, o), Ref(b.self), Ref(o)) {
		return ErrVetoed
	}

	b.removeFromInventory(o)
	o.setOwner(nil)
	o.setLocation(loc)
	loc.insert(o)

	if doEvents {
		b.fire("afterDrop", Listeners(b.self, o), Ref(b.self), Ref(o))
	}
	return nil
}

// GotoLocation moves the being into room to.
func (b *Being) GotoLocation(to *Room, doEvents bool) error {
	if to == nil || to.Destroyed() || b.Destroyed() {
		return ErrDestroyed
	}
	old := b.Location()
	if old == to {
		return nil
	}

	if doEvents && !b.fire("beforeGotoLocation",
		Listeners(b.self, old, to),
		Ref(b.self), Ref(old), Ref(to)) {
		return ErrVetoed
	}

	place(b.self, to)

	if doEvents {
		b.fire("afterGotoLocation",
			Listeners(b.self, old, to),
			Ref(b.self), Ref(old), Ref(to))
	}
	return nil
}

// place moves e into room to without firing events.
func place(e Entity, to *Room) {
	t := e.thing()
	if old := t.Location(); old != nil {
		old.remove(e)
	}
	t.setLocation(to)
	if to != nil {
		to.insert(e)
	}
}

// attackSucceeds decides whether a blow lands. Strength raises the odds up
// to the defender's wound rate.
func (b *Being) attackSucceeds(defender *Being, rng *RNG) bool {
	rate := defender.WoundRate()
	p := b.AttributeFactor("strength")*(rate/2) + rate/2
	if p < 0 {
		p = 0
	}
	if p > rate {
		p = rate
	}
	return rng.Chance(p)
}

// Attack strikes target, optionally with a weapon the attacker carries. A
// creature that is hit may strike back once when allowCounterAttack is
// set. hit reports whether damage was dealt.
func (b *Being) Attack(target BeingEntity, weapon *Object, allowCounterAttack bool) (hit bool, err error) {
	if IsNil(target) || target.Destroyed() || b.Destroyed() {
		return false, ErrDestroyed
	}
	defender := target.AsBeing()
	if !b.Alive() {
		return false, ErrDead
	}
	if !defender.Alive() {
		return false, fmt.Errorf("%s: %w", target.Name(), ErrDead)
	}
	if !defender.Attackable() {
		return false, ErrNotAttackable
	}
	if weapon != nil && (!b.Carries(weapon) || !weapon.IsWeapon()) {
		return false, ErrNotWeapon
	}

	listeners := Listeners(b.self, defender.self, weapon)
	if !b.fire("beforeAttack", listeners, Ref(b.self), Ref(defender.self), Ref(weapon)) {
		return false, ErrVetoed
	}

	rng := b.rng()
	hit = b.attackSucceeds(defender, rng)
	if hit {
		damage := b.DamageBareHands()
		if weapon != nil {
			damage = weapon.Damage()
		}
		b.notify(fmt.Sprintf("You hit %s.", defender.Title()))
		defender.notify(fmt.Sprintf("%s hits you.", b.Title()))
		defender.RemoveHealth(damage, true)
	} else {
		b.notify(fmt.Sprintf("You miss %s.", defender.Title()))
		defender.notify(fmt.Sprintf("%s misses you.", b.Title()))
	}

	b.fire("afterAttack", listeners,
		Ref(b.self), Ref(defender.self), Ref(weapon), event.Bool(hit))

	if allowCounterAttack {
		if c, ok := defender.self.(*Creature); ok && c.CounterAttack() &&
			c.Alive() && b.Alive() && c.Location() == b.Location() {
			_, _ = c.Attack(b.self, c.SelectWeapon(rng), false)
		}
	}
	return hit, nil
}

func (b *Being) rng() *RNG {
	if w := b.World(); w != nil {
		return w.RNG()
	}
	return NewRNG(1)
}

// AddHealth heals a living being. Without allowOverflow health stops at
// MaxHealth.
func (b *Being) AddHealth(up int, allowOverflow bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.health += up
	if !allowOverflow && b.maxHealth > 0 && b.health > b.maxHealth {
		b.health = b.maxHealth
	}
}

// RemoveHealth wounds the being. Immortal beings are unaffected. Health
// reaching 0 kills the being when allowDeath is set.
func (b *Being) RemoveHealth(down int, allowDeath bool) {
	b.mu.Lock()
	if b.maxHealth == 0 || !b.alive {
		b.mu.Unlock()
		return
	}
	b.health -= down
	if b.health < 0 {
		b.health = 0
	}
	dead := b.health == 0
	b.mu.Unlock()

	if dead && allowDeath {
		_ = b.Die()
	}
}

// Die kills the being. Dying twice is a no-op.
func (b *Being) Die() error {
	if !b.Alive() {
		return nil
	}
	if !b.fire("beforeDie", Listeners(b.self), Ref(b.self)) {
		return ErrVetoed
	}

	b.mu.Lock()
	b.alive = false
	b.health = 0
	b.mu.Unlock()

	b.notify("You die.")
	if loc := b.Location(); loc != nil {
		loc.Announce(fmt.Sprintf("%s dies.", b.Title()), b.self)
	}

	b.fire("afterDie", Listeners(b.self), Ref(b.self))
	return nil
}

// Respawn brings a dead being back in its current room with full health,
// spending one life. It is a no-op for the living and the destroyed.
func (b *Being) Respawn() error {
	if b.Destroyed() || b.Alive() {
		return nil
	}
	if b.RespawnSettings().Lives == 0 {
		return ErrNoLives
	}
	if !b.fire("beforeRespawn", Listeners(b.self), Ref(b.self)) {
		return ErrVetoed
	}

	b.mu.Lock()
	if b.alive {
		b.mu.Unlock()
		return nil
	}
	b.alive = true
	b.health = b.maxHealth
	if b.respawnLives > 0 {
		b.respawnLives--
	}
	b.mu.Unlock()

	b.notify("You have been resurrected.")
	if loc := b.Location(); loc != nil {
		loc.Announce(fmt.Sprintf("%s comes back to life.", b.Title()), b.self)
	}

	b.fire("afterRespawn", Listeners(b.self), Ref(b.self))
	return nil
}
