package tui

import (
	"strings"

	"github.com/theirongolddev/fincoach/internal/model"
	"github.com/theirongolddev/fincoach/internal/tui/components"
	"github.com/theirongolddev/fincoach/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// chatChrome is the overlay's non-transcript height: card border, title,
// divider, input row and pending row.
const chatChrome = 7

// afterChatOpen restores the draft and schedules input focus for a short
// moment after the overlay appears.
func (a App) afterChatOpen() (tea.Model, tea.Cmd) {
	a.input.SetValue(a.chat.Draft())
	a.input.CursorEnd()
	a.focusGen++
	a.refreshTranscript()
	return a, focusCmd(a.focusGen)
}

// closeChat hides the overlay, keeps the draft and cancels a pending focus.
func (a *App) closeChat() {
	a.chat.SetDraft(a.input.Value())
	a.chat.Close()
	a.input.Blur()
	a.focusGen++
}

func (a App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeChat()
		return a, nil

	case "tab":
		a.switchTab((a.activeTab + 1) % len(components.Tabs))
		return a, nil

	case "enter":
		turn, ok := a.chat.Begin(a.input.Value())
		if !ok {
			return a, nil
		}
		a.input.Reset()
		a.refreshTranscript()
		return a, tea.Batch(chatCmd(a.backend, turn), a.spinner.Tick)

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.chat.SetDraft(a.input.Value())
	return a, cmd
}

func (a App) chatSize() (w, h int) {
	w = a.contentWidth() - 4
	if w > maxChatWidth {
		w = maxChatWidth
	}
	h = a.height - 3 - chatChrome
	if h < 3 {
		h = 3
	}
	return w, h
}

// refreshTranscript re-renders the conversation into the viewport and
// scrolls to the newest message.
func (a *App) refreshTranscript() {
	if a.width == 0 {
		return
	}
	w, h := a.chatSize()
	inner := components.CardInnerWidth(w)
	a.transcript.Width = inner
	a.transcript.Height = h
	a.input.Width = inner - lipgloss.Width(a.input.Prompt) - 1

	if a.renderer == nil || a.rendererWidth != inner {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(inner-2),
		)
		if err != nil {
			a.log.Warn("markdown renderer unavailable", zap.Error(err))
			r = nil
		}
		a.renderer = r
		a.rendererWidth = inner
	}

	a.transcript.SetContent(a.renderTranscript(inner))
	a.transcript.GotoBottom()
}

func (a App) renderTranscript(width int) string {
	t := theme.Active

	youStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	coachStyle := lipgloss.NewStyle().Foreground(t.Magenta).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Width(width)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Width(width)

	var b strings.Builder
	for i, m := range a.chat.Log() {
		if i > 0 {
			b.WriteString("\n")
		}
		if m.Sender == model.SenderUser {
			b.WriteString(youStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(textStyle.Render(m.Text))
			b.WriteString("\n")
			continue
		}
		b.WriteString(coachStyle.Render("Coach"))
		b.WriteString("\n")
		if strings.HasPrefix(m.Text, "Error:") {
			b.WriteString(warnStyle.Render(m.Text))
			b.WriteString("\n")
			continue
		}
		b.WriteString(a.renderMarkdown(m.Text, textStyle))
		b.WriteString("\n")
	}
	return b.String()
}

func (a App) renderMarkdown(text string, fallback lipgloss.Style) string {
	if a.renderer == nil {
		return fallback.Render(text)
	}
	out, err := a.renderer.Render(text)
	if err != nil {
		return fallback.Render(text)
	}
	return strings.Trim(out, "\n")
}

func (a App) renderChat(cw int) string {
	t := theme.Active
	w, _ := a.chatSize()

	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	typingStyle := lipgloss.NewStyle().Foreground(t.Yellow)

	var b strings.Builder
	b.WriteString(a.transcript.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", components.CardInnerWidth(w))))
	b.WriteString("\n")
	if a.chat.Pending() {
		b.WriteString(a.spinner.View())
		b.WriteString(typingStyle.Render(" Coach is typing..."))
	} else {
		b.WriteString(dimStyle.Render("enter send · esc close · pgup/pgdn scroll"))
	}
	b.WriteString("\n")
	b.WriteString(a.input.View())

	card := components.FocusCard("Financial Coach", b.String(), w)
	return lipgloss.PlaceHorizontal(cw, lipgloss.Center, card)
}
