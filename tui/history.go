// Package tui provides a Bubble Tea terminal UI for trogdor games.
package tui

// History remembers submitted commands for Up/Down recall. The line being
// typed when recall starts is kept and handed back once the player scrolls
// past the newest entry.
type History struct {
	entries []string
	max     int
	pos     int // len(entries) when not recalling
	draft   string
}

// NewHistory creates a history holding at most max commands.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Add records a submitted command and ends any recall in progress. Blank
// lines and repeats of the newest entry are not recorded.
func (h *History) Add(cmd string) {
	defer h.reset()
	if cmd == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Older steps back one entry. current is the line in the input box; it is
// saved as the draft when recall starts. With nothing older, the oldest
// entry (or current, if there is no history) is returned again.
func (h *History) Older(current string) string {
	if len(h.entries) == 0 {
		return current
	}
	if h.pos == len(h.entries) {
		h.draft = current
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos]
}

// Newer steps forward one entry, ending with the saved draft.
func (h *History) Newer() string {
	if h.pos >= len(h.entries) {
		return h.draft
	}
	h.pos++
	if h.pos == len(h.entries) {
		return h.draft
	}
	return h.entries[h.pos]
}

func (h *History) Len() int { return len(h.entries) }

func (h *History) reset() {
	h.pos = len(h.entries)
	h.draft = ""
}
