// Package cmd implements the fincoach CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/fincoach/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Backend]")
	fmt.Printf("    Base URL: %s\n", config.GetBaseURL(cfg))
	if os.Getenv(config.BaseURLEnv) != "" {
		fmt.Printf("              (from %s)\n", config.BaseURLEnv)
	}
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Top categories: %d\n", cfg.Budget.TopK)
	fmt.Printf("    Year:           %d\n", cfg.Budget.Year)
	fmt.Println()

	fmt.Println("  [Debt]")
	fmt.Printf("    Schedule months: %d\n", cfg.Debt.ScheduleMonths)
	if cfg.Debt.Strategy != "" {
		fmt.Printf("    Strategy:        %s\n", cfg.Debt.Strategy)
	} else {
		fmt.Println("    Strategy:        backend default")
	}
	fmt.Printf("    Extra payment:   $%.2f\n", cfg.Debt.ExtraPayment)
	fmt.Println()

	fmt.Println("  [Assistant]")
	fmt.Printf("    Host:        %s\n", cfg.Assistant.HostURL)
	fmt.Printf("    Agent:       %s\n", maskID(cfg.Assistant.AgentID))
	fmt.Printf("    Environment: %s\n", maskID(cfg.Assistant.AgentEnvironmentID))
	fmt.Printf("    Mount point: #%s\n", cfg.Assistant.RootElementID)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address:  %s\n", cfg.Serve.Addr)
	fmt.Printf("    Schedule: %s\n", cfg.Serve.Schedule)
	fmt.Println()

	fmt.Println("  Run `fincoach setup` to reconfigure.")
	return nil
}

func maskID(id string) string {
	if id == "" {
		return "not configured"
	}
	if len(id) > 12 {
		return id[:8] + "..." + id[len(id)-4:]
	}
	return id
}
