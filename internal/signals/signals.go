// Package signals lets a separate process steer a running coordinator by
// dropping files into a signals directory.
package signals

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Signal is a control request delivered through the signals directory.
type Signal string

const (
	// SignalSweep asks the coordinator to run a stale sweep now.
	SignalSweep Signal = "sweep"
	// SignalStop asks the current run to stop.
	SignalStop Signal = "stop"
)

// All lists every known signal.
var All = []Signal{SignalSweep, SignalStop}

// ErrUnknownSignal is returned for names other than sweep and stop.
var ErrUnknownSignal = errors.New("unknown signal")

// Parse converts a name into a Signal.
func Parse(name string) (Signal, error) {
	for _, s := range All {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSignal, name)
}

// SignalsDir returns the directory holding signal files under base.
func SignalsDir(base string) string {
	return filepath.Join(base, "signals")
}

// Send writes the signal file for s under base.
func Send(base string, s Signal) error {
	if _, err := Parse(string(s)); err != nil {
		return err
	}
	dir := SignalsDir(base)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create signals directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, string(s)), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the signal file for s under base. Missing files are not an error.
func Clear(base string, s Signal) error {
	err := os.Remove(filepath.Join(SignalsDir(base), string(s)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Pending returns the signals whose files currently exist under base.
func Pending(base string) []Signal {
	var out []Signal
	for _, s := range All {
		if _, err := os.Stat(filepath.Join(SignalsDir(base), string(s))); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPolling disables fsnotify and checks the directory every interval instead.
func WithPolling(interval time.Duration) Option {
	return func(w *Watcher) {
		w.forcePoll = true
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// Watcher publishes signals as their files appear. Each delivered signal's
// file is removed, so sending the same signal again fires again.
type Watcher struct {
	base         string
	ch           chan Signal
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	watcher      *fsnotify.Watcher
	forcePoll    bool
	pollInterval time.Duration
	mu           sync.Mutex
}

// New creates the signals directory under base and starts watching it.
// If fsnotify is unavailable the watcher falls back to polling.
func New(base string, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(SignalsDir(base), 0755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}

	w := &Watcher{
		base:         base,
		ch:           make(chan Signal, 8),
		done:         make(chan struct{}),
		pollInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}

	if !w.forcePoll {
		if fw, err := fsnotify.NewWatcher(); err == nil {
			if err := fw.Add(SignalsDir(base)); err == nil {
				w.watcher = fw
			} else {
				fw.Close()
			}
		}
	}

	// Signals left over from before the watcher started.
	w.scan()

	w.wg.Add(1)
	if w.watcher != nil {
		go w.watchLoop()
	} else {
		go w.pollLoop()
	}
	return w, nil
}

// C returns the channel signals are delivered on. It is closed by Close.
func (w *Watcher) C() <-chan Signal {
	return w.ch
}

// Watching reports whether fsnotify is in use rather than polling.
func (w *Watcher) Watching() bool {
	return w.watcher != nil
}

// Send writes a signal file into the watched directory.
func (w *Watcher) Send(s Signal) error {
	return Send(w.base, s)
}

// Clear removes a signal file from the watched directory.
func (w *Watcher) Clear(s Signal) error {
	return Clear(w.base, s)
}

// Pending returns signals whose files exist but have not been delivered yet.
func (w *Watcher) Pending() []Signal {
	return Pending(w.base)
}

// Close stops watching and closes C.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		if w.watcher != nil {
			err = w.watcher.Close()
		}
		w.wg.Wait()
		close(w.ch)
	})
	return err
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.deliver(filepath.Base(event.Name))
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Errors are transient; the next event or Pending catches up.
		}
	}
}

func (w *Watcher) pollLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Watcher) scan() {
	for _, s := range All {
		w.deliver(string(s))
	}
}

// deliver consumes the signal file for name, if present, and publishes it.
func (w *Watcher) deliver(name string) {
	s, err := Parse(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(SignalsDir(w.base), name)
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return
	}

	select {
	case w.ch <- s:
	case <-w.done:
	default:
		// Receiver is behind; the signal is already queued or redundant.
	}
}
