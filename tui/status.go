package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/trogdor/engine/world"
)

// roomDisplayName derives a human-readable name from a room name.
// "great_hall" -> "Great Hall", "castle_gates" -> "Castle Gates".
func roomDisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// roomLabel is the room's title, or its prettified name when it has none.
func roomLabel(r *world.Room) string {
	if r == nil {
		return "Nowhere"
	}
	if t := r.Title(); t != r.Name() {
		return t
	}
	return roomDisplayName(r.Name())
}

// renderStatusBar produces a full-width inverted status line showing the
// current room, exits, health, inventory and game time.
func (m Model) renderStatusBar() string {
	p := m.session.Player
	room := p.Location()

	var exits string
	if room != nil {
		exits = strings.Join(room.Directions(), ",")
	}
	left := fmt.Sprintf(" %s | Exits: %s", roomLabel(room), exits)

	vitals := "dead"
	if p.Alive() {
		vitals = fmt.Sprintf("HP:%d/%d", p.Health(), p.MaxHealth())
		if p.Immortal() {
			vitals = "HP:-"
		}
	}
	tail := fmt.Sprintf("%s | T:%d ", vitals, m.session.Game.Time())
	right := tail

	// Show inventory items if they fit, otherwise just count.
	if inv := p.Inventory(); len(inv) > 0 {
		names := make([]string, len(inv))
		for i, o := range inv {
			names[i] = o.Title()
		}
		candidate := fmt.Sprintf("Inv: %s | %s", strings.Join(names, ", "), tail)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s", len(inv), tail)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	style := styleStatusBar
	if !p.Alive() {
		style = styleStatusBarDead
	}
	return style.Width(m.width).Render(bar)
}
