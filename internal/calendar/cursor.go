// Package calendar provides the month windows that scope budget queries and
// the cursor that selects among them.
package calendar

import (
	"strings"
	"time"

	"github.com/theirongolddev/fincoach/internal/model"
)

// DefaultYear is the year the dashboard browses.
const DefaultYear = 2024

var monthLabels = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Windows returns the twelve calendar months of year, each ending on the
// month's last day.
func Windows(year int) []model.MonthWindow {
	out := make([]model.MonthWindow, 12)
	for i := range out {
		start := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		out[i] = model.MonthWindow{
			Label: monthLabels[i],
			Start: start,
			End:   start.AddDate(0, 1, -1),
		}
	}
	return out
}

// Cursor selects one month window. Every change of index issues a new epoch;
// work started for an older epoch is stale.
type Cursor struct {
	windows []model.MonthWindow
	index   int
	epoch   uint64
}

// NewCursor returns a cursor at the first month of year.
func NewCursor(year int) Cursor {
	return Cursor{windows: Windows(year)}
}

// Index returns the selected position, always in [0, 11].
func (c *Cursor) Index() int {
	return c.index
}

// Window returns the selected month.
func (c *Cursor) Window() model.MonthWindow {
	return c.windows[c.index]
}

// Epoch identifies the current selection.
func (c *Cursor) Epoch() uint64 {
	return c.epoch
}

// IsCurrent reports whether epoch still names the current selection.
func (c *Cursor) IsCurrent(epoch uint64) bool {
	return epoch == c.epoch
}

// Previous moves one month back. It reports false at the first month.
func (c *Cursor) Previous() bool {
	return c.move(c.index - 1)
}

// Next moves one month forward. It reports false at the last month.
func (c *Cursor) Next() bool {
	return c.move(c.index + 1)
}

// Seek jumps to the month labelled label (case-insensitive, e.g. "mar").
// It reports false when the label is unknown or already selected.
func (c *Cursor) Seek(label string) bool {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i, w := range c.windows {
		if w.Label == label {
			return c.move(i)
		}
	}
	return false
}

// Peek returns the label delta months away, or "" past either end.
func (c *Cursor) Peek(delta int) string {
	i := c.index + delta
	if i < 0 || i >= len(c.windows) {
		return ""
	}
	return c.windows[i].Label
}

func (c *Cursor) move(i int) bool {
	if i < 0 || i >= len(c.windows) || i == c.index {
		return false
	}
	c.index = i
	c.epoch++
	return true
}
