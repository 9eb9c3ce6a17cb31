// Package ui implements the terminal surface of podsh: semantic colors, the
// single-action progress reporter, confirmation prompts, a pager, and a
// spinner for indeterminate waits.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// DefaultWidth is the assumed display width when the terminal size is
// unavailable.
const DefaultWidth = 80

// Options configures a Console. Zero-value readers/writers default to the
// process's standard streams.
type Options struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	// Colors enables ANSI color output and in-place progress updates.
	Colors bool

	// Interactive marks the session as attached to a terminal. Prompts are
	// only shown in interactive sessions; otherwise confirmation is granted
	// automatically and selection loops are skipped.
	Interactive bool

	// Width is the display width in columns; 0 means DefaultWidth.
	Width int
}

// Console is the single output/input surface handed to the dispatcher, task
// runner, and confirmation gate.
type Console struct {
	out         io.Writer
	errOut      io.Writer
	in          *bufio.Reader
	colors      bool
	interactive bool
	width       int

	// current holds the in-flight action label between StartAction and
	// FinishAction. Exactly one action may be active at a time; pairing is
	// caller discipline, not enforced with a lock.
	current string

	red    func(a ...interface{}) string
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	blue   func(a ...interface{}) string
}

// NewConsole creates a Console.
func NewConsole(opts Options) *Console {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	return &Console{
		out:         opts.Out,
		errOut:      opts.Err,
		in:          bufio.NewReader(opts.In),
		colors:      opts.Colors,
		interactive: opts.Interactive,
		width:       opts.Width,
		red:         color.New(color.FgHiRed).SprintFunc(),
		green:       color.New(color.FgHiGreen).SprintFunc(),
		yellow:      color.New(color.FgHiYellow).SprintFunc(),
		blue:        color.New(color.FgHiBlue).SprintFunc(),
	}
}

// Interactive reports whether the session is attached to a terminal.
func (c *Console) Interactive() bool { return c.interactive }

// Width returns the display width in columns.
func (c *Console) Width() int { return c.width }

func (c *Console) paint(fn func(a ...interface{}) string, s string) string {
	if !c.colors {
		return s
	}
	return fn(s)
}

// Errorf prints an error diagnostic in red on stderr.
func (c *Console) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(c.errOut, c.paint(c.red, fmt.Sprintf(format, args...)))
}

// Warnf prints a warning in yellow on stderr.
func (c *Console) Warnf(format string, args ...interface{}) {
	fmt.Fprintln(c.errOut, c.paint(c.yellow, fmt.Sprintf(format, args...)))
}

// Infof prints a plain informational line.
func (c *Console) Infof(format string, args ...interface{}) {
	fmt.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Hintf prints an informational line in blue (candidate lists, banners,
// batch summaries).
func (c *Console) Hintf(format string, args ...interface{}) {
	fmt.Fprintln(c.out, c.paint(c.blue, fmt.Sprintf(format, args...)))
}

// Successf prints a line in green.
func (c *Console) Successf(format string, args ...interface{}) {
	fmt.Fprintln(c.out, c.paint(c.green, fmt.Sprintf(format, args...)))
}

// ReadLine prints a prompt and reads one line of input, with the trailing
// newline stripped.
func (c *Console) ReadLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. An empty reply or a case-insensitive "yes"
// confirms. In a non-interactive session confirmation is granted
// automatically, without prompting.
func (c *Console) Confirm(message string) bool {
	if !c.interactive {
		return true
	}
	line, err := c.ReadLine(message)
	if err != nil {
		return false
	}
	return line == "" || strings.EqualFold(line, "yes")
}

// Pager prints the text directly when it fits the terminal (leaving two rows
// for the prompt); longer output goes through $PAGER, falling back to plain
// output when no pager can run.
func (c *Console) Pager(text string) {
	if !c.colors || !c.interactive {
		fmt.Fprintln(c.out, text)
		return
	}

	_, rows := TerminalSize()
	if strings.Count(text, "\n")+3 < rows {
		fmt.Fprintln(c.out, text)
		return
	}

	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}
	cmd := exec.Command(pager)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(c.out, text)
	}
}

// TerminalSize returns the terminal dimensions, or 80x24 when stdout is not
// a terminal.
func TerminalSize() (cols, rows int) {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return DefaultWidth, 24
	}
	return cols, rows
}
