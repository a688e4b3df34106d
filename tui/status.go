package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/spellbound/engine/dialogue"
	"github.com/nathoo/spellbound/engine/interp"
)

// renderStatusBar produces a full-width status line showing the level, the
// scenario being played, known spells, and the tick.
func (m Model) renderStatusBar() string {
	s := m.meta.Engine.State
	d := m.meta.Engine.Driver

	left := " " + dialogue.DisplayName(s.Level)
	switch d.Status() {
	case interp.Running:
		left += fmt.Sprintf(" | %s #%d", d.Scenario(), d.Cursor())
		if w := d.Waiting(); w > 0 {
			left += fmt.Sprintf(" (wait %d)", w)
		}
	case interp.Terminated:
		left += fmt.Sprintf(" | %s done", d.Scenario())
	}

	right := fmt.Sprintf("T:%d ", s.Tick)
	if m.paused {
		right = "PAUSED | " + right
	}

	// Show spell names if they fit, otherwise just count.
	if n := len(s.Spells); n > 0 {
		candidate := fmt.Sprintf("Spells: %s | %s", strings.Join(s.Spells, ", "), right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Spells: %d | %s", n, right)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	style := styleStatusBar
	if m.paused {
		style = styleStatusPaused
	}
	return style.Width(m.width).Render(bar)
}
