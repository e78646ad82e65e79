package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentcoord/internal/config"
	"github.com/ShayCichocki/agentcoord/internal/state"
	"github.com/ShayCichocki/agentcoord/pkg/models"
)

type statusOptions struct {
	agentID string
	runID   string
	limit   int
	purge   time.Duration
}

var statusOpts statusOptions

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded coordination events",
	Long: `Display what the journal recorded about recent runs.

Shows:
  - Recent runs with their event counts
  - Event counts by type for the latest (or selected) run
  - The most recent events, optionally for a single agent`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusOpts.agentID, "agent", "", "Only show events for this agent")
	statusCmd.Flags().StringVar(&statusOpts.runID, "run", "", "Show this run instead of the latest")
	statusCmd.Flags().IntVar(&statusOpts.limit, "limit", 20, "Maximum number of events to show")
	statusCmd.Flags().DurationVar(&statusOpts.purge, "purge", 0, "Delete events older than this before showing status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.Journal.Path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No journal yet. Run 'agentcoord simulate <scenario.yaml>' to record one.")
		return nil
	}

	db, err := state.Open(cfg.Journal.Driver, cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}

	return showStatus(out, db, statusOpts)
}

// showStatus renders the journal summary described by opts.
func showStatus(w io.Writer, db state.Journal, opts statusOptions) error {
	if opts.purge > 0 {
		n, err := db.PurgeOldEvents(opts.purge)
		if err != nil {
			return err
		}
		printStatus(w, "✓", fmt.Sprintf("Purged %d events older than %s", n, opts.purge), color.FgGreen)
	}

	runs, err := db.ListRuns(5)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "Journal is empty.")
		return nil
	}

	bold := color.New(color.Bold)
	fmt.Fprintln(w, bold.Sprint("Recent runs:"))
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %4d events  %s  (%s)\n",
			r.RunID, r.Events, r.StartedAt.Local().Format("2006-01-02 15:04:05"), formatDuration(r.EndedAt.Sub(r.StartedAt)))
	}

	runID := opts.runID
	if runID == "" {
		runID = runs[0].RunID
	}

	counts, err := db.CountByType(runID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Events by type for run"), runID)
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		c := color.New(levelColor(models.EventType(t)))
		fmt.Fprintf(w, "  %-20s %d\n", c.Sprint(t), counts[models.EventType(t)])
	}

	events, err := db.ListEvents(state.EventFilter{RunID: runID, AgentID: opts.agentID, Limit: opts.limit})
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	title := "Recent events:"
	if opts.agentID != "" {
		title = fmt.Sprintf("Recent events for %s:", opts.agentID)
	}
	fmt.Fprintln(w, bold.Sprint(title))
	if len(events) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	for _, e := range events {
		detail := e.Message
		if e.Path != "" {
			detail = e.Path + " " + detail
		}
		fmt.Fprintf(w, "  %s %-20s %-14s %s\n",
			e.Timestamp.Local().Format("15:04:05.000"),
			color.New(levelColor(e.Type)).Sprint(e.Type),
			e.AgentID,
			detail)
	}
	return nil
}
