package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newTestConsole(t *testing.T, colors bool, width int) (*Console, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	c := NewConsole(Options{
		Out:    &out,
		Err:    &out,
		Colors: colors,
		Width:  width,
	})
	return c, &out
}

func TestActionMarkersPlain(t *testing.T) {
	tests := []struct {
		name   string
		finish func(c *Console)
		want   string
	}{
		{"done", func(c *Console) { c.FinishAction(true) }, "[DONE]"},
		{"fail", func(c *Console) { c.FinishAction(false) }, "[FAIL]"},
		{"skip", func(c *Console) { c.SkipAction() }, "[SKIP]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestConsole(t, false, 40)
			c.StartAction("Downloading %s", "episode")
			tt.finish(c)

			got := out.String()
			if !strings.HasPrefix(got, "Downloading episode") {
				t.Errorf("output %q does not start with the label", got)
			}
			if !strings.HasSuffix(got, tt.want+"\n") {
				t.Errorf("output %q does not end with %q", got, tt.want)
			}
		})
	}
}

func TestActionLabelPadding(t *testing.T) {
	c, out := newTestConsole(t, false, 40)
	c.StartAction("Short")

	// The label fills the width up to the marker column so every marker
	// lands in the same place.
	if got, want := len(out.String()), 40-7; got != want {
		t.Errorf("label length = %d, want %d", got, want)
	}
}

func TestActionLabelTruncation(t *testing.T) {
	c, out := newTestConsole(t, false, 20)
	c.StartAction("An episode title that clearly will not fit")

	got := out.String()
	if len(got) > 13 {
		t.Errorf("label %q exceeds the %d-column budget", got, 13)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated label %q has no ellipsis", got)
	}
}

func TestUpdateActionIsNoopWithoutColors(t *testing.T) {
	c, out := newTestConsole(t, false, 40)
	c.StartAction("Downloading")
	before := out.Len()

	c.UpdateAction(0.5)
	if out.Len() != before {
		t.Errorf("UpdateAction wrote %q on a plain terminal", out.String()[before:])
	}
}

func TestUpdateActionRewritesLineWithColors(t *testing.T) {
	c, out := newTestConsole(t, true, 40)
	c.StartAction("Downloading")
	c.UpdateAction(0.25)

	got := out.String()
	if !strings.Contains(got, "\r") {
		t.Errorf("output %q was not rewritten in place", got)
	}
	if !strings.Contains(got, " 25%") {
		t.Errorf("output %q does not show the percentage", got)
	}
}

func TestConfirmNonInteractive(t *testing.T) {
	c, out := newTestConsole(t, false, 40)
	if !c.Confirm("Delete 3 episodes? ([yes]/no): ") {
		t.Error("non-interactive Confirm returned false")
	}
	if out.Len() != 0 {
		t.Errorf("non-interactive Confirm prompted: %q", out.String())
	}
}

func TestConfirmReadsAnswer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"no\n", false},
		{"anything\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := NewConsole(Options{
			Out:         &out,
			Err:         &out,
			In:          strings.NewReader(tt.input),
			Interactive: true,
			Width:       40,
		})
		if got := c.Confirm("Sure? ([yes]/no): "); got != tt.want {
			t.Errorf("Confirm with input %q = %v, want %v", tt.input, got, tt.want)
		}
	}
}
