package ui

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// resultWidth is the column budget reserved at the end of the action line for
// the "[DONE]"-style result marker.
const resultWidth = 7

// StartAction sets the current action label and renders it immediately,
// without a result marker. The label is truncated with an ellipsis when it
// would exceed the display width and padded otherwise, so the later result
// marker always lands in the same column.
//
// Only one action may be in flight between StartAction and its matching
// FinishAction; nesting is a caller invariant, not checked here.
func (c *Console) StartAction(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	budget := c.width - resultWidth
	if runewidth.StringWidth(line) > budget {
		line = runewidth.Truncate(line, budget, "...")
	} else {
		line = runewidth.FillRight(line, budget)
	}
	c.current = line
	fmt.Fprint(c.out, c.current)
}

// UpdateAction re-renders the action line in place with a percentage and an
// in-progress marker. On plain terminals it is a no-op so the line is not
// flickered with unerasable repaints.
func (c *Console) UpdateAction(progress float64) {
	if !c.colors {
		return
	}
	pct := fmt.Sprintf("%3.0f%%", progress*100)
	fmt.Fprint(c.out, "\r"+c.current+"["+c.blue(pct)+"]")
}

// FinishAction renders the terminal result marker, "[DONE]" for success or
// "[FAIL]" otherwise, and clears the current label. Color-capable terminals
// get the whole line rewritten in place; plain ones get the marker alone.
func (c *Console) FinishAction(ok bool) {
	if ok {
		c.finishAction(c.paint(c.green, "DONE"))
	} else {
		c.finishAction(c.paint(c.red, "FAIL"))
	}
}

// SkipAction renders a "[SKIP]" marker and clears the current label.
func (c *Console) SkipAction() {
	c.finishAction(c.paint(c.yellow, "SKIP"))
}

func (c *Console) finishAction(marker string) {
	result := "[" + marker + "]"
	if c.colors {
		fmt.Fprintln(c.out, "\r"+c.current+result)
	} else {
		fmt.Fprintln(c.out, result)
	}
	c.current = ""
}
