// Package tui provides the live terminal dashboard for a coordinator run.
//
// The dashboard is read-only. It polls the coordinator every refresh interval
// and shows:
//   - Capacity, lock and conflict counts
//   - One row per registered agent with status, retries and held locks
//   - The most recent coordination events
//
// Users can only quit with 'q' or Ctrl+C.
//
// Usage:
//
//	program, dash := tui.NewProgram(coord, 200*time.Millisecond)
//	go program.Run()
//
//	// Forward coordination events
//	program.Send(tui.EventMsg{Event: ev})
//
//	// Signal completion
//	program.Send(tui.DoneMsg{Summary: "4 completed"})
package tui
