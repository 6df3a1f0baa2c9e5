package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleRoomDesc = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleYouSee = lipgloss.NewStyle().
			Bold(true)

	styleExits = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleStatusBarDead = styleStatusBar.
				Background(lipgloss.Color("52"))

	styleCombat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("209"))

	styleArrival = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110")).
			Italic(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindRoomDesc lineKind = iota
	kindYouSee
	kindExits
	kindCombat
	kindArrival
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You see ") && !strings.HasPrefix(line, "You see nothing"):
		return kindYouSee
	case strings.HasPrefix(line, "Exits:"),
		line == "There are no obvious exits.":
		return kindExits
	case strings.HasPrefix(line, "You don't"),
		strings.HasPrefix(line, "You can't"),
		line == "You're dead.":
		return kindError
	case isCombat(line):
		return kindCombat
	case strings.HasSuffix(line, " arrives."),
		strings.HasSuffix(line, " is here."),
		strings.Contains(line, " leaves "):
		return kindArrival
	default:
		return kindRoomDesc
	}
}

// isCombat matches the lines attacks, deaths and respawns produce.
func isCombat(line string) bool {
	for _, p := range []string{"You hit ", "You miss ", "You die."} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	for _, s := range []string{" hits you.", " misses you.", " dies.", " comes back to life."} {
		if strings.HasSuffix(line, s) {
			return true
		}
	}
	return line == "You have been resurrected."
}

// styledYouSee renders "You see the lamp." with the object bold.
func styledYouSee(line string) string {
	const prefix = "You see "
	if !strings.HasPrefix(line, prefix) {
		return styleRoomDesc.Render(line)
	}
	rest := strings.TrimSuffix(line[len(prefix):], ".")
	return styleRoomDesc.Render(prefix) + styleYouSee.Render(rest) + styleRoomDesc.Render(".")
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindYouSee:
		return styledYouSee(line)
	case kindExits:
		return styleExits.Render(line)
	case kindCombat:
		return styleCombat.Render(line)
	case kindArrival:
		return styleArrival.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleRoomDesc.Render(line)
	}
}
