package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentcoord/internal/config"
	"github.com/ShayCichocki/agentcoord/internal/signals"
)

var signalCmd = &cobra.Command{
	Use:   "signal <sweep|stop|clear>",
	Short: "Steer a running simulation",
	Long: `Send a control signal to a running 'agentcoord simulate'.

  sweep  run a stale sweep immediately
  stop   stop the run; agents release their locks and the report is printed
  clear  remove any undelivered signal files`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sweep", "stop", "clear"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return sendSignal(cmd, cfg.Signals.Dir, args[0])
	},
}

func sendSignal(cmd *cobra.Command, dir, name string) error {
	out := cmd.OutOrStdout()

	if name == "clear" {
		for _, s := range signals.All {
			if err := signals.Clear(dir, s); err != nil {
				return fmt.Errorf("clear %s: %w", s, err)
			}
		}
		printStatus(out, "✓", "Cleared pending signals", color.FgGreen)
		return nil
	}

	s, err := signals.Parse(name)
	if err != nil {
		return err
	}
	if err := signals.Send(dir, s); err != nil {
		return fmt.Errorf("send %s: %w", s, err)
	}
	printStatus(out, "✓", fmt.Sprintf("Sent %s to %s", s, signals.SignalsDir(dir)), color.FgGreen)
	return nil
}
