package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/fincoach/internal/cli"
	"github.com/theirongolddev/fincoach/internal/config"
	"github.com/theirongolddev/fincoach/internal/journal"

	"github.com/spf13/cobra"
)

var (
	flagJournalLimit     int
	flagJournalEndpoint  string
	flagJournalOlderThan time.Duration
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the backend fetch journal",
	RunE:  runJournalRecent,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Per-endpoint call counts, failures and latency",
	RunE:  runJournalStats,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal entries",
	RunE:  runJournalPrune,
}

func init() {
	journalCmd.Flags().IntVarP(&flagJournalLimit, "limit", "n", 20, "Number of calls to show")
	journalCmd.Flags().StringVar(&flagJournalEndpoint, "endpoint", "", "Only show calls to this endpoint (e.g. /debt/plan)")
	journalPruneCmd.Flags().DurationVar(&flagJournalOlderThan, "older-than", 30*24*time.Hour, "Delete entries older than this")

	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.AddCommand(journalPruneCmd)
	rootCmd.AddCommand(journalCmd)
}

func openJournal() (*journal.Journal, error) {
	if flagNoJournal {
		return nil, errors.New("--no-journal disables the fetch journal")
	}
	return journal.Open(config.JournalPath())
}

func runJournalRecent(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.Recent(cmd.Context(), flagJournalLimit, flagJournalEndpoint)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("  No backend calls recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "-"
		if e.Status > 0 {
			status = strconv.Itoa(e.Status)
		}
		result := "ok"
		if !e.OK() {
			result = cli.RenderWarning(e.ErrorKind)
		}
		rows = append(rows, []string{
			cli.FormatAgo(e.At),
			e.Method,
			e.Endpoint,
			status,
			cli.FormatLatency(e.Duration),
			result,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Recent backend calls (%s)", config.JournalPath()),
		Headers: []string{"When", "Method", "Endpoint", "Status", "Latency", "Result"},
		Rows:    rows,
	}))
	return nil
}

func runJournalStats(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	stats, err := j.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("  No backend calls recorded yet.")
		return nil
	}

	var calls, failures int64
	rows := make([][]string, 0, len(stats)+2)
	for _, st := range stats {
		calls += int64(st.Calls)
		failures += int64(st.Failures)
		rate := 0.0
		if st.Calls > 0 {
			rate = float64(st.Failures) / float64(st.Calls)
		}
		rows = append(rows, []string{
			st.Endpoint,
			cli.FormatNumber(int64(st.Calls)),
			cli.FormatNumber(int64(st.Failures)),
			cli.FormatPercent(rate),
			cli.FormatLatency(st.AvgDuration),
			cli.FormatAgo(st.LastAt),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", cli.FormatNumber(calls), cli.FormatNumber(failures), "", "", ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Backend calls by endpoint",
		Headers: []string{"Endpoint", "Calls", "Failed", "Fail %", "Avg", "Last"},
		Rows:    rows,
	}))
	return nil
}

func runJournalPrune(cmd *cobra.Command, _ []string) error {
	if flagJournalOlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	n, err := j.Prune(cmd.Context(), time.Now().Add(-flagJournalOlderThan))
	if err != nil {
		return err
	}
	fmt.Printf("  Pruned %s entries older than %s\n", cli.FormatNumber(n), flagJournalOlderThan)
	return nil
}
