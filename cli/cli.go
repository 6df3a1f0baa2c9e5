// Package cli provides line-oriented terminal play and the meta-commands
// shared by every front end.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/trogdor/engine"
	"github.com/nathoo/trogdor/engine/world"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	*Session
	Intro     string
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI on stdin and stdout.
func New(g *engine.Game, p *world.Player, intro string) *CLI {
	return &CLI{
		Session: NewSession(g, p),
		Intro:   intro,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run shows the intro and the starting room, then loops: prompt, input,
// dispatch, output. Output the game produces between commands is printed
// as it arrives. Run returns when input ends, the player quits or ctx is
// done.
func (c *CLI) Run(ctx context.Context) error {
	if c.Intro != "" {
		c.printLine(c.Intro)
		c.printLine("")
	}
	c.printLines(c.Look())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.print("> ")
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-c.Player.Notify():
			if pending := c.Pending(); len(pending) > 0 {
				c.printLine("")
				c.printLines(pending)
				c.print("> ")
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input := strings.TrimSpace(line)
			// Blank lines and comments (for script files).
			if input == "" || strings.HasPrefix(input, "#") {
				c.print("> ")
				continue
			}
			if c.EchoInput {
				c.printLine(input)
			}

			r := c.Handle(input)
			if r.System {
				for _, l := range r.Lines {
					c.printSystem(l)
				}
			} else {
				c.printLines(r.Lines)
			}
			if r.Quit {
				return nil
			}
			c.print("> ")
		}
	}
}

func (c *CLI) printLines(lines []string) {
	for _, l := range lines {
		c.printLine(l)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	if text == "" {
		c.printLine("")
		return
	}
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
