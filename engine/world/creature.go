package world

import (
	"fmt"
	"strings"
)

// Allegiance decides whether a creature attacks players on sight.
type Allegiance int

const (
	Neutral Allegiance = iota
	Friend
	Enemy
)

func (a Allegiance) String() string {
	switch a {
	case Friend:
		return "friend"
	case Enemy:
		return "enemy"
	default:
		return "neutral"
	}
}

// ParseAllegiance accepts "friend", "neutral" or "enemy".
func ParseAllegiance(s string) (Allegiance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "friend":
		return Friend, nil
	case "neutral", "":
		return Neutral, nil
	case "enemy":
		return Enemy, nil
	default:
		return Neutral, fmt.Errorf("unknown allegiance %q", s)
	}
}

const (
	DefaultAutoAttackInterval = 5
	DefaultWanderInterval     = 10
	DefaultWanderLust         = 0.5
)

// AutoAttackSettings control attacks a creature starts on its own.
type AutoAttackSettings struct {
	Enabled  bool
	Interval int  // ticks between attacks
	Repeat   bool // keep attacking until someone dies or leaves
}

// WanderSettings control roaming between rooms.
type WanderSettings struct {
	Enabled  bool
	Interval int     // ticks between wander attempts
	Lust     float64 // probability of moving on each attempt
}

// Creature is a non-player being.
type Creature struct {
	Being

	allegiance    Allegiance
	counterAttack bool
	autoAttack    AutoAttackSettings
	wander        WanderSettings
}

// NewCreature creates a living, neutral creature outside any world.
func NewCreature(name string) *Creature {
	c := &Creature{
		allegiance:    Neutral,
		counterAttack: true,
		autoAttack:    AutoAttackSettings{Interval: DefaultAutoAttackInterval},
		wander:        WanderSettings{Interval: DefaultWanderInterval, Lust: DefaultWanderLust},
	}
	c.initBeing(KindCreature, name, c)
	return c
}

func (c *Creature) Allegiance() Allegiance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allegiance
}

func (c *Creature) SetAllegiance(a Allegiance) {
	c.mu.Lock()
	c.allegiance = a
	c.mu.Unlock()
}

// CounterAttack reports whether the creature strikes back when hit.
func (c *Creature) CounterAttack() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counterAttack
}

func (c *Creature) SetCounterAttack(on bool) {
	c.mu.Lock()
	c.counterAttack = on
	c.mu.Unlock()
}

func (c *Creature) AutoAttack() AutoAttackSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autoAttack
}

func (c *Creature) SetAutoAttack(s AutoAttackSettings) {
	c.mu.Lock()
	c.autoAttack = s
	c.mu.Unlock()
}

func (c *Creature) Wander() WanderSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wander
}

func (c *Creature) SetWander(s WanderSettings) {
	c.mu.Lock()
	c.wander = s
	c.mu.Unlock()
}

func (c *Creature) SetWanderEnabled(on bool) {
	c.mu.Lock()
	c.wander.Enabled = on
	c.mu.Unlock()
}

func (c *Creature) SetWanderInterval(ticks int) {
	c.mu.Lock()
	c.wander.Interval = ticks
	c.mu.Unlock()
}

// Hostile reports whether the creature attacks players on its own.
func (c *Creature) Hostile() bool {
	return c.Allegiance() == Enemy && c.AutoAttack().Enabled
}

// SelectWeapon picks a weapon from the inventory, or nil for bare hands.
// Dexterity decides how likely the creature is to use one at all.
func (c *Creature) SelectWeapon(rng *RNG) *Object {
	p := c.AttributeFactor("dexterity") * 0.7
	if p > 0 {
		p += 0.3
	}
	if rng == nil || !rng.Chance(p) {
		return nil
	}
	for _, o := range c.Inventory() {
		if o.IsWeapon() {
			return o
		}
	}
	return nil
}

// WanderStep moves the creature through a random exit with probability
// equal to its wander lust. Creatures only wander from rooms with exits.
// moved reports whether the creature changed rooms.
func (c *Creature) WanderStep(rng *RNG) (moved bool, err error) {
	if !c.Alive() || c.Destroyed() {
		return false, nil
	}
	from := c.Location()
	if from == nil {
		return false, nil
	}
	dirs := from.Directions()
	if len(dirs) == 0 || rng == nil || !rng.Chance(c.Wander().Lust) {
		return false, nil
	}

	dir := dirs[rng.Intn(len(dirs))]
	to := from.Connection(dir)
	if to == nil {
		return false, nil
	}
	if err := c.GotoLocation(to, true); err != nil {
		return false, err
	}

	from.Announce(fmt.Sprintf("%s leaves %s.", c.Title(), dir))
	to.Announce(fmt.Sprintf("%s arrives.", c.Title()))
	return true, nil
}
