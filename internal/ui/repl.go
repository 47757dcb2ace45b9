// Package ui runs the interactive query surface: a read-eval-print loop on
// stdin that hands each line to the query engine while the ingestion
// pipeline keeps indexing in the background.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// sentinels end the loop when typed on their own line.
var sentinels = map[string]bool{
	"exit": true,
	"quit": true,
}

// QueryHandler resolves one query line to display output.
type QueryHandler interface {
	Handle(ctx context.Context, line string) (string, error)
}

// REPL reads query lines and prints results until EOF, a sentinel, or
// context cancellation.
type REPL struct {
	handler     QueryHandler
	in          io.Reader
	out         io.Writer
	styles      Styles
	interactive bool
}

// Option customizes a REPL.
type Option func(*REPL)

// WithIO overrides the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.in = in
		r.out = out
	}
}

// WithInteractive forces prompt and banner rendering on or off.
func WithInteractive(on bool) Option {
	return func(r *REPL) {
		r.interactive = on
		if on {
			r.styles = DefaultStyles()
		} else {
			r.styles = NoColorStyles()
		}
	}
}

// NewREPL builds a loop over the given handler. By default it reads stdin,
// writes stdout, and renders prompts only when stdin is a terminal.
func NewREPL(handler QueryHandler, opts ...Option) *REPL {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	r := &REPL{
		handler:     handler,
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: interactive,
	}
	if interactive {
		r.styles = DefaultStyles()
	} else {
		r.styles = NoColorStyles()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes query lines until the input ends. It returns nil on a clean
// exit (EOF or sentinel) and the scanner error otherwise.
func (r *REPL) Run(ctx context.Context) error {
	if r.interactive {
		fmt.Fprintln(r.out, r.styles.Banner.Render("logsonar - search your live logs"))
		fmt.Fprintln(r.out, r.styles.Meta.Render(`type a query, optionally with trailing "k=N" and "display=raw|pretty"; "exit" quits`))
	}

	scanner := bufio.NewScanner(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if r.interactive {
			fmt.Fprint(r.out, r.styles.Prompt.Render("> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sentinels[strings.ToLower(line)] {
			return nil
		}

		result, err := r.handler.Handle(ctx, line)
		if err != nil {
			fmt.Fprintln(r.out, r.styles.Error.Render(fmt.Sprintf("query failed: %v", err)))
			continue
		}
		r.printResult(result)
	}
}

func (r *REPL) printResult(result string) {
	for _, line := range strings.Split(result, "\n") {
		fmt.Fprintln(r.out, r.styles.Result.Render(line))
	}
	if r.interactive {
		fmt.Fprintln(r.out, r.styles.Divider.Render(strings.Repeat("-", 40)))
	}
}
