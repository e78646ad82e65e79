package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/agentcoord/internal/coordinator"
	"github.com/ShayCichocki/agentcoord/internal/sim"
	"github.com/ShayCichocki/agentcoord/internal/tui"
	"github.com/ShayCichocki/agentcoord/pkg/models"
)

type runResult struct {
	report *sim.Report
	err    error
}

// runWithTUI runs the scenario behind the live dashboard. Quitting the
// dashboard early stops the run.
func runWithTUI(ctx context.Context, stop context.CancelFunc, coord *coordinator.Coordinator, runner *sim.Runner, refresh time.Duration) (report *sim.Report, retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runWithTUI: %v", r)
		}
	}()

	program, _ := tui.NewProgram(coord, "agentcoord · "+runner.RunID(), coord.Policy().MaxConcurrentAgents, refresh)
	go forwardEventsToTUI(program, coord.Subscribe(256))

	runDone := make(chan runResult, 1)
	go func() {
		r, err := runner.Run(ctx)
		runDone <- runResult{report: r, err: err}
	}()

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	select {
	case res := <-runDone:
		summary := "run finished"
		if res.report != nil {
			summary = fmt.Sprintf("%d completed, %d failed", res.report.Count(sim.OutcomeCompleted), failedAgents(res.report))
		}
		program.Send(tui.DoneMsg{Summary: summary, Err: res.err})
		// Wait for the user to quit so the final state stays visible.
		<-tuiDone
		return res.report, res.err

	case err := <-tuiDone:
		stop()
		res := <-runDone
		if err != nil {
			return res.report, err
		}
		return res.report, res.err
	}
}

// forwardEventsToTUI relays coordinator events until the coordinator closes.
func forwardEventsToTUI(program *tea.Program, events <-chan models.Event) {
	for ev := range events {
		program.Send(tui.EventMsg{Event: ev})
	}
}
