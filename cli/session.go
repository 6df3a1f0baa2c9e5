package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/trogdor/engine"
	"github.com/nathoo/trogdor/engine/actions"
	"github.com/nathoo/trogdor/engine/save"
	"github.com/nathoo/trogdor/engine/world"
)

// Reply is what one line of input produced.
type Reply struct {
	Lines []string
	// System marks meta-command output, as opposed to game narrative.
	System bool
	Quit   bool
}

// Session is one player's seat at a running game. The plain CLI and the
// TUI both drive the game through it.
type Session struct {
	Game    *engine.Game
	Player  *world.Player
	SaveDir string
	Trace   bool
	lastCmd string
}

// NewSession creates a session that saves under ~/.trogdor/saves.
func NewSession(g *engine.Game, p *world.Player) *Session {
	home, _ := os.UserHomeDir()
	return &Session{
		Game:    g,
		Player:  p,
		SaveDir: filepath.Join(home, ".trogdor", "saves"),
	}
}

// Look describes the player's surroundings.
func (s *Session) Look() []string {
	s.Game.Step(s.Player, "look")
	return s.Player.Drain()
}

// Pending returns output queued for the player since the last call, such
// as an attack started by a timer job.
func (s *Session) Pending() []string {
	return s.Player.Drain()
}

// Handle runs one line of input: a meta-command, "again", or a game
// command.
func (s *Session) Handle(input string) Reply {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		return s.meta(input)
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if s.lastCmd == "" {
			return Reply{Lines: []string{"Nothing to repeat."}, System: true}
		}
		input = s.lastCmd
	} else {
		s.lastCmd = input
	}

	out := s.Game.Step(s.Player, input)
	lines := s.Player.Drain()
	if s.Trace {
		lines = append(lines, traceLine(out))
	}
	return Reply{Lines: lines}
}

func traceLine(out actions.Outcome) string {
	if out.Err != nil {
		return fmt.Sprintf("[trace] %s: %v", out.Status, out.Err)
	}
	return fmt.Sprintf("[trace] %s", out.Status)
}

func (s *Session) meta(input string) Reply {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	r := Reply{System: true}
	switch cmd {
	case "/quit", "/exit":
		r.Lines, r.Quit = []string{"Goodbye."}, true
	case "/save":
		r.Lines = s.cmdSave(arg)
	case "/load":
		r.Lines = s.cmdLoad(arg)
	case "/help":
		r.Lines = helpText
	case "/state":
		r.Lines = s.cmdState()
	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			r.Lines = []string{"Trace output enabled."}
		} else {
			r.Lines = []string{"Trace output disabled."}
		}
	default:
		r.Lines = []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}
	}
	return r
}

func (s *Session) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(s.Game)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := os.MkdirAll(s.SaveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	path := filepath.Join(s.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (s *Session) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := os.ReadFile(filepath.Join(s.SaveDir, name+".json"))
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := save.Apply(s.Game, sd); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	return append([]string{fmt.Sprintf("Game loaded from %s (time %d).", name, sd.Time)}, s.Look()...)
}

func (s *Session) cmdState() []string {
	p := s.Player
	loc := "nowhere"
	if r := p.Location(); r != nil {
		loc = r.Name()
	}
	var inv []string
	for _, o := range p.Inventory() {
		inv = append(inv, o.Name())
	}
	return []string{
		fmt.Sprintf("Time: %d", s.Game.Time()),
		fmt.Sprintf("Location: %s", loc),
		fmt.Sprintf("Health: %d/%d", p.Health(), p.MaxHealth()),
		fmt.Sprintf("Inventory: %v", inv),
		fmt.Sprintf("Timer jobs: %d", s.Game.Scheduler().Len()),
	}
}

var helpText = []string{
	"System:",
	"  /save [name]  Save game (default: quicksave)",
	"  /load [name]  Load game (default: quicksave)",
	"  /quit         Exit game",
	"  /help         Show this help",
	"  /state        Debug: dump current state",
	"  /trace        Toggle debug trace output",
	"",
	"Game commands:",
	"  look (l)               Describe the room",
	"  look <thing> (x)       Look closely at something",
	"  go <dir>               Move (or just type n/s/e/w/u/d)",
	"  take/get <item>        Pick something up",
	"  drop <item>            Put something down",
	"  read <item>            Read what is written on something",
	"  attack <foe> [with <weapon>]",
	"  inventory (i)          Check what you're carrying",
	"  wait (z)               Let time pass",
	"  again (g)              Repeat your last command",
}
