// Package tui provides the interactive Bubble Tea dashboard for fincoach.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fincoach/internal/calendar"
	"github.com/theirongolddev/fincoach/internal/chat"
	"github.com/theirongolddev/fincoach/internal/config"
	"github.com/theirongolddev/fincoach/internal/dataset"
	"github.com/theirongolddev/fincoach/internal/gateway"
	"github.com/theirongolddev/fincoach/internal/logging"
	"github.com/theirongolddev/fincoach/internal/model"
	"github.com/theirongolddev/fincoach/internal/tui/components"
	"github.com/theirongolddev/fincoach/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Backend is the part of the gateway the dashboard talks to.
type Backend interface {
	FetchDebt(ctx context.Context, opts gateway.PlanOptions) gateway.DebtData
	FetchBudget(ctx context.Context, k int, w model.MonthWindow) gateway.BudgetData
	Chat(ctx context.Context, text string) (string, error)
	Health(ctx context.Context) error
}

// DebtMsg is sent when the debt list and payoff plan queries finish.
type DebtMsg struct {
	Data gateway.DebtData
}

// BudgetMsg is sent when a month's budget queries finish. Epoch is the
// cursor epoch the fetch was issued under.
type BudgetMsg struct {
	Epoch uint64
	Data  gateway.BudgetData
}

// ChatReplyMsg is sent when the agent answers (or fails to answer) a turn.
type ChatReplyMsg struct {
	Turn  chat.Turn
	Reply string
	Err   error
}

// HealthMsg reports the backend health probe.
type HealthMsg struct {
	Err error
}

type splashPhase int

const (
	splashShown splashPhase = iota
	splashFading
	splashDone
)

// splashMsg and focusMsg carry the generation of the scope that scheduled
// them; a tick whose generation is stale is dropped.
type splashMsg struct {
	gen   int
	phase splashPhase
}

type focusMsg struct {
	gen int
}

const (
	splashFadeAfter = 1200 * time.Millisecond
	splashDoneAfter = 1700 * time.Millisecond
	chatFocusDelay  = 100 * time.Millisecond
)

// Options configures NewApp.
type Options struct {
	Backend   Backend
	Logger    *zap.Logger
	Config    config.Config
	NeedSetup bool
}

// App is the root Bubble Tea model.
type App struct {
	backend Backend
	log     *zap.Logger
	cfg     config.Config
	topK    int
	plan    gateway.PlanOptions

	// Data
	store         dataset.Store
	cursor        calendar.Cursor
	lastPlan      *model.DebtPlan
	debtCount     int
	debtErr       error
	budgetErr     error
	budgetLoading bool
	backendState  string

	// Chat overlay
	chat          *chat.Session
	input         textinput.Model
	transcript    viewport.Model
	renderer      *glamour.TermRenderer
	rendererWidth int
	focusGen      int

	// Splash
	splash    splashPhase
	splashGen int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	maxChatWidth     = 100
)

const (
	tabOverview = iota
	tabBudget
	tabDebt
	tabInvest
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	topK := cfg.Budget.TopK
	if topK < 1 {
		topK = dataset.DefaultTopK
	}
	year := cfg.Budget.Year
	if year == 0 {
		year = calendar.DefaultYear
	}
	months := cfg.Debt.ScheduleMonths
	if months < 1 {
		months = gateway.DefaultScheduleMonths
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	in := textinput.New()
	in.Placeholder = "Ask about your budget, debt or investments"
	in.Prompt = "› "
	in.CharLimit = 500

	return App{
		backend: opts.Backend,
		log:     log,
		cfg:     cfg,
		topK:    topK,
		plan: gateway.PlanOptions{
			ScheduleMonths: months,
			Strategy:       cfg.Debt.Strategy,
			ExtraPayment:   cfg.Debt.ExtraPayment,
		},
		store:         dataset.New(),
		cursor:        calendar.NewCursor(year),
		budgetLoading: true,
		chat:          chat.New(),
		input:         in,
		transcript:    viewport.New(0, 0),
		needSetup:     opts.NeedSetup,
		spinner:       sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		splashCmd(a.splashGen),
		fetchDebtCmd(a.backend, a.plan),
		fetchBudgetCmd(a.backend, a.topK, a.cursor.Window(), a.cursor.Epoch()),
		healthCmd(a.backend),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.refreshTranscript()
		return a, nil

	case splashMsg:
		if msg.gen != a.splashGen || a.splash == splashDone {
			return a, nil
		}
		a.splash = msg.phase
		if a.splash == splashDone {
			return a.startSetup()
		}
		return a, nil

	case focusMsg:
		if msg.gen != a.focusGen || !a.chat.IsOpen() {
			return a, nil
		}
		cmd := a.input.Focus()
		return a, cmd

	case DebtMsg:
		a.applyDebt(msg.Data)
		return a, nil

	case BudgetMsg:
		if !a.cursor.IsCurrent(msg.Epoch) {
			a.log.Debug("dropping stale budget response",
				logging.Window(msg.Data.Window.String()), logging.Epoch(msg.Epoch))
			return a, nil
		}
		a.applyBudget(msg.Data)
		return a, nil

	case HealthMsg:
		if msg.Err != nil {
			a.backendState = "down"
			a.log.Warn("backend health probe failed", zap.String("kind", gateway.Kind(msg.Err)), zap.Error(msg.Err))
		} else {
			a.backendState = "up"
		}
		return a, nil

	case ChatReplyMsg:
		if msg.Err != nil {
			a.log.Error("agent chat failed",
				logging.Endpoint("/agent/chat"), zap.String("kind", gateway.Kind(msg.Err)), zap.Error(msg.Err))
		}
		a.chat.Complete(msg.Turn, msg.Reply, msg.Err)
		a.refreshTranscript()
		return a, nil

	case spinner.TickMsg:
		if a.splash != splashDone || a.chat.Pending() || a.budgetLoading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.MouseMsg:
		if a.splash != splashDone || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.switchTab(tab)
			}
			return a, nil
		}
		if a.chat.IsOpen() {
			var cmd tea.Cmd
			a.transcript, cmd = a.transcript.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Forward unhandled messages (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.chat.IsOpen() {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Any key skips the splash.
	if a.splash != splashDone {
		a.splashGen++
		a.splash = splashDone
		return a.startSetup()
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if a.chat.IsOpen() {
		return a.updateChat(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "c":
		a.chat.Open()
		return a.afterChatOpen()
	case "a":
		a.chat.OpenWithContext(a.tabInsight())
		return a.afterChatOpen()
	case "[", "h":
		if a.cursor.Previous() {
			return a.refetchBudget()
		}
		return a, nil
	case "]", "l":
		if a.cursor.Next() {
			return a.refetchBudget()
		}
		return a, nil
	case "r":
		a.backendState = ""
		a.budgetLoading = true
		return a, tea.Batch(
			a.spinner.Tick,
			fetchDebtCmd(a.backend, a.plan),
			fetchBudgetCmd(a.backend, a.topK, a.cursor.Window(), a.cursor.Epoch()),
			healthCmd(a.backend),
		)
	case "left":
		a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		return a, nil
	case "right", "tab":
		a.switchTab((a.activeTab + 1) % len(components.Tabs))
		return a, nil
	}

	if runes := []rune(key); len(runes) == 1 {
		if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
			a.switchTab(idx)
		}
	}
	return a, nil
}

// refetchBudget issues the budget queries for the window the cursor just
// moved to, stamped with the new epoch.
func (a App) refetchBudget() (tea.Model, tea.Cmd) {
	a.budgetLoading = true
	w := a.cursor.Window()
	a.log.Debug("month changed", logging.Window(w.String()), logging.Epoch(a.cursor.Epoch()))
	return a, tea.Batch(a.spinner.Tick, fetchBudgetCmd(a.backend, a.topK, w, a.cursor.Epoch()))
}

func (a *App) switchTab(idx int) {
	if idx == a.activeTab {
		return
	}
	a.activeTab = idx
	if a.chat.IsOpen() {
		a.closeChat()
	}
}

func (a App) tabInsight() string {
	switch a.activeTab {
	case tabBudget:
		return dataset.BudgetInsight
	case tabDebt:
		return dataset.DebtInsight
	case tabInvest:
		return dataset.InvestInsight
	default:
		return dataset.DefaultInsight
	}
}

func (a *App) applyDebt(d gateway.DebtData) {
	if d.DebtsErr != nil {
		a.log.Error("debt list failed", logging.Endpoint("/debt/list"),
			zap.String("kind", gateway.Kind(d.DebtsErr)), zap.Error(d.DebtsErr))
	} else {
		a.debtCount = len(d.Debts)
	}
	if d.PlanErr != nil {
		a.log.Error("debt plan failed", logging.Endpoint("/debt/plan"),
			zap.String("kind", gateway.Kind(d.PlanErr)), zap.Error(d.PlanErr))
	} else if d.Plan != nil {
		a.lastPlan = d.Plan
	}
	a.store.ApplyDebtList(d.Debts, d.DebtsErr)
	a.store.ApplyDebtPlan(d.Plan, d.PlanErr)
	a.debtErr = d.Err()
}

func (a *App) applyBudget(d gateway.BudgetData) {
	window := logging.Window(d.Window.String())
	if d.SummaryErr != nil {
		a.log.Error("spend summary failed", logging.Endpoint("/spend/summary"), window,
			zap.String("kind", gateway.Kind(d.SummaryErr)), zap.Error(d.SummaryErr))
	}
	if d.CategoriesErr != nil {
		a.log.Error("top categories failed", logging.Endpoint("/spend/top_categories"), window,
			zap.String("kind", gateway.Kind(d.CategoriesErr)), zap.Error(d.CategoriesErr))
	}
	a.store.ApplySpendSummary(d.Summary, d.SummaryErr)
	a.store.ApplyTopCategories(d.Categories, a.topK, d.CategoriesErr)
	a.budgetErr = d.Err()
	a.budgetLoading = false
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.splash != splashDone {
		return a.viewSplash()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fincoach needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewSplash() string {
	t := theme.Active

	logoColor, textColor := t.AccentBright, t.TextMuted
	if a.splash == splashFading {
		logoColor, textColor = t.AccentDim, t.TextDim
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(2, 4)
	if a.splash == splashFading {
		cardStyle = cardStyle.BorderForeground(t.Border)
	}
	logoStyle := lipgloss.NewStyle().Foreground(logoColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(textColor)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fincoach"))
	b.WriteString(subtitleStyle.Render(" · Personal Finance Coach"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.Accent).Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Syncing your accounts..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o b d i", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"[ ]  h l", "Previous / Next month"},
		}},
		{"Coach", []struct{ key, desc string }{
			{"c", "Open chat"},
			{"a", "Ask about this tab"},
			{"Enter", "Send message"},
			{"PgUp PgDn", "Scroll conversation"},
			{"Esc", "Close chat"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"r", "Refresh data"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + month pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	pill := pillStyle.Render(" month ") + pillAccent.Render(a.cursor.Window().String())
	if a.budgetLoading {
		pill += pillStyle.Render(" ") + a.spinner.View()
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Width(w).Render(pill)

	// 2. Status bar
	status := components.Status{
		Month:   a.cursor.Window().String(),
		Backend: a.backendState,
	}
	if a.chat.Pending() {
		status.Busy = "coach is typing"
	}
	if a.activeTab == tabBudget {
		status.Hint = "[ ]month"
	}
	statusBar := components.RenderStatusBar(w, status)

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content, or the chat overlay when open
	var content string
	if a.chat.IsOpen() {
		content = a.renderChat(cw)
	} else {
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabBudget:
			content = a.renderBudgetTab(cw)
		case tabDebt:
			content = a.renderDebtTab(cw)
		case tabInvest:
			content = a.renderInvestTab(cw)
		}
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

func splashCmd(gen int) tea.Cmd {
	return tea.Batch(
		tea.Tick(splashFadeAfter, func(time.Time) tea.Msg { return splashMsg{gen: gen, phase: splashFading} }),
		tea.Tick(splashDoneAfter, func(time.Time) tea.Msg { return splashMsg{gen: gen, phase: splashDone} }),
	)
}

func focusCmd(gen int) tea.Cmd {
	return tea.Tick(chatFocusDelay, func(time.Time) tea.Msg { return focusMsg{gen: gen} })
}

func fetchDebtCmd(b Backend, opts gateway.PlanOptions) tea.Cmd {
	return func() tea.Msg {
		return DebtMsg{Data: b.FetchDebt(context.Background(), opts)}
	}
}

func fetchBudgetCmd(b Backend, k int, w model.MonthWindow, epoch uint64) tea.Cmd {
	return func() tea.Msg {
		return BudgetMsg{Epoch: epoch, Data: b.FetchBudget(context.Background(), k, w)}
	}
}

func chatCmd(b Backend, turn chat.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := b.Chat(context.Background(), turn.Text)
		return ChatReplyMsg{Turn: turn, Reply: reply, Err: err}
	}
}

func healthCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		return HealthMsg{Err: b.Health(context.Background())}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	return components.TabAtX(x, a.activeTab)
}
