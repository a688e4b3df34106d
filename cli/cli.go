// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the spellbound engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/spellbound/engine"
	"github.com/nathoo/spellbound/relay"
	"github.com/nathoo/spellbound/types"
)

// CLI handles the plain-text console.
type CLI struct {
	Meta
	In        io.Reader
	Out       io.Writer
	Relay     *relay.Hub // optional; drained before each command, receives every effect
	EchoInput bool       // echo each input line after the prompt (for script playback)
	lastCmd   string     // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, saveDir string) *CLI {
	return &CLI{
		Meta: Meta{Engine: eng, SaveDir: saveDir},
		In:   os.Stdin,
		Out:  os.Stdout,
	}
}

// Run starts the console loop. It plays the intro to completion, describes
// the world, then loops: prompt, input, dispatch, output.
func (c *CLI) Run() {
	if c.Relay != nil {
		c.Engine.OnEffects = c.Relay.Broadcast
	}

	game := c.Engine.Defs.Game
	if game.Title != "" {
		c.printLine(game.Title)
		c.printLine("")
	}

	if game.Intro != "" {
		if err := c.Engine.Begin(); err != nil {
			c.printSystem(fmt.Sprintf("Intro failed: %v", err))
		} else {
			c.printResult(c.Engine.Step("run"))
		}
	}
	c.printResult(c.Engine.Step("look"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.drainRelay()

		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			lines, quit := c.Handle(input)
			for _, line := range lines {
				c.printSystem(line)
			}
			if quit {
				return
			}
			continue
		}

		// "again" / "g" repeats the last console command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		c.step(input)
	}
}

func (c *CLI) step(input string) {
	result := c.Engine.Step(input)
	c.printResult(result)
	if c.Trace {
		for _, line := range FormatTrace(result) {
			c.printSystem(line)
		}
	}
}

// drainRelay applies requests queued by relay clients since the last command.
func (c *CLI) drainRelay() {
	if c.Relay == nil {
		return
	}
	result := c.Relay.Drain(c.Engine)
	for _, line := range result.Output {
		c.printSystem(line)
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
