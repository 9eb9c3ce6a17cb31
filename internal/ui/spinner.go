package ui

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner wraps an indeterminate progress spinner for waits with no progress
// figure (directory searches, feed fetches). On non-interactive sessions the
// wrapper is inert so output stays clean when piped.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner shown next to the given message.
func (c *Console) NewSpinner(message string) *Spinner {
	if !c.interactive || !c.colors {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	return &Spinner{s: s}
}

// Start begins the animation.
func (sp *Spinner) Start() {
	if sp.s != nil {
		sp.s.Start()
	}
}

// Stop halts the animation and erases it.
func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}

// UpdateMessage swaps the message next to the spinner.
func (sp *Spinner) UpdateMessage(message string) {
	if sp.s != nil {
		sp.s.Suffix = " " + message
	}
}
