package components

import (
	"strings"

	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Budget", Key: 'b', KeyPos: 0},
	{Name: "Debt", Key: 'd', KeyPos: 0},
	{Name: "Invest", Key: 'i', KeyPos: 0},
}

const tabGap = "  "

func tabLabel(tab Tab, active bool) (plain string, styled string) {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimKeyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	if active {
		return tab.Name, activeStyle.Render(tab.Name)
	}
	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		before := tab.Name[:tab.KeyPos]
		key := string(tab.Name[tab.KeyPos])
		after := tab.Name[tab.KeyPos+1:]
		return before + "[" + key + "]" + after,
			inactiveStyle.Render(before) +
				dimKeyStyle.Render("[") + keyStyle.Render(key) + dimKeyStyle.Render("]") +
				inactiveStyle.Render(after)
	}
	return tab.Name + "[" + string(tab.Key) + "]",
		inactiveStyle.Render(tab.Name) +
			dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimKeyStyle.Render("]")
}

// TabVisualWidth returns the rendered width of a tab label.
func TabVisualWidth(tab Tab, active bool) int {
	plain, _ := tabLabel(tab, active)
	return lipgloss.Width(plain)
}

// RenderTabBar renders the single-row tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		_, parts[i] = tabLabel(tab, i == activeIdx)
	}
	bar := " " + strings.Join(parts, tabGap)
	if lipgloss.Width(bar) > width && width > 0 {
		bar = lipgloss.NewStyle().MaxWidth(width).Render(bar)
	}
	return bar
}

// TabAtX maps a click column on the tab bar row to a tab index, or -1.
func TabAtX(x, activeIdx int) int {
	pos := 1
	for i, tab := range Tabs {
		w := TabVisualWidth(tab, i == activeIdx)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + len(tabGap)
	}
	return -1
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
