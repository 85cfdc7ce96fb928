package tui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/theirongolddev/fincoach/internal/config"
	"github.com/theirongolddev/fincoach/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"go.uber.org/zap"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	BaseURL  string
	Theme    string
	Strategy string
	TopK     string
}

// NewSetupValues seeds the form answers from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		BaseURL:  cfg.Backend.BaseURL,
		Theme:    cfg.Appearance.Theme,
		Strategy: cfg.Debt.Strategy,
		TopK:     strconv.Itoa(cfg.Budget.TopK),
	}
}

// NewSetupForm builds the first-run form writing into vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fincoach").
				Description("Point the dashboard at your finance backend and pick a look.\nRun `fincoach setup` anytime to change these."),
			huh.NewInput().
				Title("Backend URL").
				Description("Where the finance API listens").
				Value(&vals.BaseURL).
				Validate(validateBaseURL),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Debt payoff strategy").
				Options(
					huh.NewOption("Backend default", ""),
					huh.NewOption("Avalanche (highest APR first)", "avalanche"),
					huh.NewOption("Snowball (smallest balance first)", "snowball"),
				).
				Value(&vals.Strategy),
			huh.NewInput().
				Title("Budget categories per month").
				Value(&vals.TopK).
				Validate(validateTopK),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

// Apply copies the answers onto cfg.
func (v *SetupValues) Apply(cfg *config.Config) error {
	if err := validateBaseURL(v.BaseURL); err != nil {
		return err
	}
	if err := validateTopK(v.TopK); err != nil {
		return err
	}
	k, _ := strconv.Atoi(strings.TrimSpace(v.TopK))
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(v.BaseURL), "/")
	cfg.Budget.TopK = k
	cfg.Debt.Strategy = v.Strategy
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL such as http://localhost:8000")
	}
	return nil
}

func validateTopK(s string) error {
	k, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || k < 1 || k > 20 {
		return fmt.Errorf("enter a number from 1 to 20")
	}
	return nil
}

// startSetup shows the first-run form once the splash is gone.
func (a App) startSetup() (tea.Model, tea.Cmd) {
	if !a.needSetup || a.setupForm != nil {
		return a, nil
	}
	a.setupVals = NewSetupValues(a.cfg)
	a.setupForm = NewSetupForm(a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a, a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a, tea.Batch(
			fetchDebtCmd(a.backend, a.plan),
			fetchBudgetCmd(a.backend, a.topK, a.cursor.Window(), a.cursor.Epoch()),
		)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// saveSetupConfig persists the answers and applies what takes effect
// without a restart. The backend address is read at start-up.
func (a *App) saveSetupConfig() {
	cfg := a.cfg
	if err := a.setupVals.Apply(&cfg); err != nil {
		a.log.Warn("setup answers rejected", zap.Error(err))
		return
	}
	if err := config.Save(cfg); err != nil {
		a.log.Warn("saving config failed", zap.Error(err))
	}
	a.cfg = cfg
	a.topK = cfg.Budget.TopK
	a.plan.Strategy = cfg.Debt.Strategy
	theme.SetActive(cfg.Appearance.Theme)
}
