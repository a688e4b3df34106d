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

	styleStatusPaused = lipgloss.NewStyle().
				Background(lipgloss.Color("94")).
				Foreground(lipgloss.Color("230")).
				Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("141"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleLevel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117")).
			Bold(true)

	styleYouSee = lipgloss.NewStyle().
			Bold(true)

	styleSpells = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("141"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindLevel
	kindYouSee
	kindSpells
	kindDialogue
	kindStatus
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindLevel
	case strings.HasPrefix(line, "You see:"):
		return kindYouSee
	case strings.HasPrefix(line, "Spells:"):
		return kindSpells
	case strings.HasPrefix(line, "Playing "),
		strings.HasPrefix(line, "Closed "),
		strings.HasPrefix(line, "Music:"),
		strings.HasSuffix(line, " has finished."):
		return kindStatus
	case strings.HasPrefix(line, "There is no "),
		strings.HasPrefix(line, "I don't understand"),
		strings.HasPrefix(line, "Nothing is playing"),
		strings.HasSuffix(line, " is still playing."),
		strings.HasPrefix(line, "The story has ended"):
		return kindError
	case speakerSplit(line) > 0:
		return kindDialogue
	default:
		return kindNarration
	}
}

// speakerSplit returns the index of the ": '" separating a speaker label
// from its quoted line, or -1 when line is not attributed speech.
func speakerSplit(line string) int {
	if !strings.HasSuffix(line, "'") {
		return -1
	}
	return strings.Index(line, ": '")
}

// styledYouSee renders "You see: a, b." with the names bold.
func styledYouSee(line string) string {
	const prefix = "You see: "
	if !strings.HasPrefix(line, prefix) {
		return styleNarration.Render(line)
	}
	return styleNarration.Render(prefix) + styleYouSee.Render(line[len(prefix):])
}

// styledDialogue renders "Speaker: 'text'" with the speaker label bold.
// Wrapped continuation lines keep the dialogue color.
func styledDialogue(line string) string {
	i := speakerSplit(line)
	if i <= 0 || strings.Contains(line[:i], "\n") {
		return styleDialogue.Render(line)
	}
	return styleSpeaker.Render(line[:i+1]) + styleDialogue.Render(line[i+1:])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
