package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/fincoach/internal/config"
	"github.com/theirongolddev/fincoach/internal/gateway"
	"github.com/theirongolddev/fincoach/internal/journal"
	"github.com/theirongolddev/fincoach/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagBaseURL   string
	flagDebug     bool
	flagNoJournal bool
)

var rootCmd = &cobra.Command{
	Use:   "fincoach",
	Short: "Personal finance coaching dashboard",
	Long:  "Track net worth, monthly spending, debt payoff and investments, and talk them through with your finance coach.",
	RunE:  runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Finance backend URL (overrides config and "+config.BaseURLEnv+")")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&flagNoJournal, "no-journal", false, "Do not record backend calls in the fetch journal")
}

// loadConfig is the shared config path used by all commands.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	cfg.Backend.BaseURL = config.GetBaseURL(cfg)
	if flagBaseURL != "" {
		cfg.Backend.BaseURL = flagBaseURL
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", config.ConfigPath(), err)
	}
	return cfg, nil
}

// session bundles what a command needs to talk to the backend.
type session struct {
	cfg     config.Config
	log     *zap.Logger
	client  *gateway.Client
	journal *journal.Journal
}

// openSession builds the logger, the optional fetch journal and the gateway
// client. logPath "" logs to stderr.
func openSession(logPath string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logPath, flagDebug)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log}
	var opts []gateway.Option
	if !flagNoJournal {
		j, err := journal.Open(config.JournalPath())
		if err != nil {
			// The journal is diagnostics only; carry on without it.
			log.Warn("fetch journal unavailable", zap.Error(err))
		} else {
			s.journal = j
			opts = append(opts, gateway.WithObserver(j.Observer(log)))
		}
	}
	s.client = gateway.NewClient(cfg.Backend.BaseURL, opts...)
	return s, nil
}

func (s *session) Close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
	_ = s.log.Sync()
}

func (s *session) planOptions() gateway.PlanOptions {
	return gateway.PlanOptions{
		ScheduleMonths: s.cfg.Debt.ScheduleMonths,
		Strategy:       s.cfg.Debt.Strategy,
		ExtraPayment:   s.cfg.Debt.ExtraPayment,
	}
}
