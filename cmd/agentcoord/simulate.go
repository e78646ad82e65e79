package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentcoord/internal/config"
	"github.com/ShayCichocki/agentcoord/internal/coordinator"
	"github.com/ShayCichocki/agentcoord/internal/signals"
	"github.com/ShayCichocki/agentcoord/internal/sim"
	"github.com/ShayCichocki/agentcoord/internal/state"
)

var (
	simulateTUI       bool
	simulateNoJournal bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Play a scenario against a live coordinator",
	Long: `Load a YAML scenario and run every agent in it against a coordinator
built from the current configuration. Scenario policy overrides take
precedence over configured values.

While the run is in progress:
  - the stale sweeper evicts silent agents and reclaims idle locks
  - every coordination event is written to the journal
  - 'agentcoord signal stop' ends the run, 'agentcoord signal sweep'
    forces an immediate sweep`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateTUI, "tui", false, "Show the live dashboard while the scenario runs")
	simulateCmd.Flags().BoolVar(&simulateNoJournal, "no-journal", false, "Do not record events to the journal")
}

type drainResult struct {
	written int
	err     error
}

func runSimulate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	scenario, err := sim.LoadScenario(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := coordinator.NewDebugLogger(cfg.Logging.DebugLog)
	if err != nil {
		return err
	}
	defer logger.Close()

	policy := scenario.Policy.Apply(cfg.Coordinator.Policy())
	coord := coordinator.New(
		coordinator.WithPolicy(policy),
		coordinator.WithLogger(logger),
	)
	runner := sim.NewRunner(coord, scenario)

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var drained chan drainResult
	if cfg.Journal.Enabled && !simulateNoJournal {
		db, err := state.Open(cfg.Journal.Driver, cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}

		events := coord.Subscribe(1024)
		drained = make(chan drainResult, 1)
		go func() {
			n, err := db.Drain(context.Background(), runner.RunID(), events)
			drained <- drainResult{written: n, err: err}
		}()
	}

	// Leftovers from an earlier run must not stop this one.
	for _, s := range signals.All {
		_ = signals.Clear(cfg.Signals.Dir, s)
	}
	watcher, err := signals.New(cfg.Signals.Dir)
	if err != nil {
		printStatus(cmd.ErrOrStderr(), "⚠", fmt.Sprintf("control signals disabled: %v", err), color.FgYellow)
	} else {
		defer watcher.Close()
		go handleSignals(runCtx, watcher, coord, stopRun)
	}

	sweeperDone := coord.StartSweeper(runCtx, policy.SweepInterval)

	var report *sim.Report
	var runErr error
	if simulateTUI {
		report, runErr = runWithTUI(runCtx, stopRun, coord, runner, cfg.TUI.RefreshRate)
	} else {
		printStatus(out, "▶", fmt.Sprintf("Running %s (%d agents, run %s)", scenario.Name, len(scenario.Agents), runner.RunID()), color.FgCyan)
		report, runErr = runner.Run(runCtx)
	}

	stopRun()
	<-sweeperDone
	coord.Close()

	if report != nil {
		fmt.Fprintln(out)
		printReport(out, report)
	}

	if drained != nil {
		res := <-drained
		if res.err != nil {
			printStatus(cmd.ErrOrStderr(), "✗", fmt.Sprintf("journal write failed after %d events: %v", res.written, res.err), color.FgRed)
		} else {
			printStatus(out, "✓", fmt.Sprintf("Recorded %d events to %s", res.written, cfg.Journal.Path), color.FgGreen)
		}
	}
	if dropped := coord.DroppedEventCount(); dropped > 0 {
		printStatus(cmd.ErrOrStderr(), "⚠", fmt.Sprintf("%d events dropped by slow subscribers", dropped), color.FgYellow)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			printStatus(out, "⚠", "Run stopped before all agents finished", color.FgYellow)
			return nil
		}
		return runErr
	}
	if report != nil {
		if n := failedAgents(report); n > 0 {
			return fmt.Errorf("%d agents did not complete", n)
		}
	}
	return nil
}

// handleSignals applies control signals until ctx ends.
func handleSignals(ctx context.Context, w *signals.Watcher, coord *coordinator.Coordinator, stop context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-w.C():
			if !ok {
				return
			}
			switch s {
			case signals.SignalStop:
				stop()
				return
			case signals.SignalSweep:
				coord.SweepNow()
			}
		}
	}
}
