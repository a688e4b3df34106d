// Package tui provides a Bubble Tea terminal UI for the spellbound engine.
// Unlike the plain console it advances playback on a real-time tick.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/spellbound/cli"
	"github.com/nathoo/spellbound/engine"
	"github.com/nathoo/spellbound/engine/interp"
	"github.com/nathoo/spellbound/relay"
	"github.com/nathoo/spellbound/types"
)

const defaultTickRate = 100 * time.Millisecond

// Options configures the TUI.
type Options struct {
	SaveDir  string
	TickRate time.Duration
	Relay    *relay.Hub // optional
	Trace    bool
}

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the spellbound TUI.
type Model struct {
	meta     *cli.Meta
	relay    *relay.Hub
	tickRate time.Duration

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	paused   bool
	quitting bool
	lastCmd  string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for tick output)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// tickMsg drives real-time playback.
type tickMsg time.Time

// New creates a TUI model wired to the given engine and plays the intro.
func New(eng *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	rate := opts.TickRate
	if rate <= 0 {
		rate = defaultTickRate
	}
	if opts.Relay != nil {
		eng.OnEffects = opts.Relay.Broadcast
	}

	m := Model{
		meta:     &cli.Meta{Engine: eng, SaveDir: opts.SaveDir, Trace: opts.Trace},
		relay:    opts.Relay,
		tickRate: rate,
		input:    ti,
		history:  NewHistory(100),
	}
	return m.appendOutput(gameOutputMsg{lines: m.openingLines()})
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(New(eng, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// openingLines shows the title, starts the intro, and describes the world.
func (m Model) openingLines() []string {
	eng := m.meta.Engine
	var lines []string

	if title := titleLine(eng.Defs.Game); title != "" {
		lines = append(lines, title, "")
	}
	if eng.Defs.Game.Intro != "" {
		if err := eng.Begin(); err != nil {
			lines = append(lines, fmt.Sprintf("Intro failed: %v", err))
		} else {
			lines = append(lines, "Playing "+eng.Defs.Game.Intro+".")
		}
	}
	return append(lines, eng.Describe()...)
}

func titleLine(g types.GameDef) string {
	title := g.Title
	if title == "" {
		return ""
	}
	if g.Version != "" {
		title += " v" + g.Version
	}
	if g.Author != "" {
		title += " by " + g.Author
	}
	return title
}

// Init starts the cursor blink and the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages (key presses, window resize, ticks, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resize(msg.Width, msg.Height)
	case tickMsg:
		return m.advance(), m.tick()
	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize lays out the viewport above the status bar and input line.
func (m Model) resize(width, height int) Model {
	m.width, m.height = width, height
	vpHeight := max(height-2, 1)

	if m.ready {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	} else {
		m.viewport = viewport.New(width, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	}
	m.refreshViewport()
	return m
}

// handleKey reports whether the key was consumed; other keys go to the
// text input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		next, cmd := m.handleEnter()
		return next, cmd, true
	case "up":
		if prev, ok := m.history.Prev(m.input.Value()); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil, true
	case "down":
		if next, ok := m.history.Next(); ok {
			m.input.SetValue(next)
			m.input.CursorEnd()
		}
		return m, nil, true
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}
	return m, nil, false
}

// advance runs one real-time tick: relay requests are applied, then the
// driver advances unless paused or idle.
func (m Model) advance() Model {
	eng := m.meta.Engine

	if m.relay != nil {
		result := m.relay.Drain(eng)
		if len(result.Output) > 0 {
			m = m.appendOutput(gameOutputMsg{lines: result.Output, isSystem: true})
		}
	}

	if m.paused || eng.Driver.Status() == interp.Idle {
		return m
	}
	result := eng.Tick()
	output := result.Output
	if m.meta.Trace {
		output = append(output, cli.FormatTrace(result)...)
	}
	if len(output) > 0 {
		m = m.appendOutput(gameOutputMsg{lines: output})
	}
	return m
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Console command.
	result := m.meta.Engine.Step(input)
	output := result.Output
	if m.meta.Trace {
		output = append(output, cli.FormatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// handleMeta adds the TUI's own commands on top of the shared ones.
func (m *Model) handleMeta(input string) ([]string, bool) {
	switch strings.Fields(input)[0] {
	case "/pause":
		m.paused = !m.paused
		if m.paused {
			return []string{"Playback paused. Use tick or wait to step by hand."}, false
		}
		return []string{"Playback resumed."}, false
	case "/help":
		lines := cli.Help()
		return append(lines,
			"",
			"  /pause         Pause or resume real-time playback",
			"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
		), false
	}
	return m.meta.Handle(input)
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		// Blank line separator between turns.
		if n := len(m.rawLines); n > 0 && m.rawLines[n-1].text != "" {
			m.rawLines = append(m.rawLines, rawLine{})
		}
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles the whole log at the current
// width, then scrolls to the newest line.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := max(m.width, 10)
	styled := make([]string, len(m.rawLines))
	for i, rl := range m.rawLines {
		styled[i] = rl.render(width)
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

func (rl rawLine) render(width int) string {
	if rl.text == "" {
		return ""
	}
	wrapped := wordWrap(rl.text, width)
	switch {
	case rl.isInput:
		return stylePlayerInput.Render(wrapped)
	case rl.isSystem:
		return styledSystemMsg(wrapped)
	default:
		return renderLineKind(wrapped, rl.kind)
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindLevel:
		return styleLevel.Render(line)
	case kindYouSee:
		return styledYouSee(line)
	case kindSpells:
		return styleSpells.Render(line)
	case kindDialogue:
		return styledDialogue(line)
	case kindStatus:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wLen := len(word)
		switch {
		case i == 0:
			lineLen = wLen
		case lineLen+1+wLen > width:
			result.WriteString("\n")
			lineLen = wLen
		default:
			result.WriteString(" ")
			lineLen += 1 + wLen
		}
		result.WriteString(word)
	}
	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
