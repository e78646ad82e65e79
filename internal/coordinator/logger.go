package coordinator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	pkgLoggerMu sync.RWMutex
	pkgLogger   *DebugLogger
)

func setPackageLogger(l *DebugLogger) {
	pkgLoggerMu.Lock()
	defer pkgLoggerMu.Unlock()
	pkgLogger = l
}

// debugLog traces a coordinator decision under a component tag such as
// "locks" or "registry". Rejections are only ever reported here, never as
// errors.
func debugLog(component, format string, args ...interface{}) {
	pkgLoggerMu.RLock()
	l := pkgLogger
	pkgLoggerMu.RUnlock()

	l.Log(component, format, args...)
}

// DebugLogger writes one line per coordination decision:
//
//	[15:04:05.000] [locks] agent-1 acquired main.go (write)
type DebugLogger struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	now func() time.Time
}

// NewDebugLogger opens logPath for appending, creating parent directories.
// An empty path yields a logger that discards everything.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return NopLogger(), nil
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &DebugLogger{w: f, c: f, now: time.Now}
	l.Log("coordinator", "trace opened pid=%d at %s", os.Getpid(), l.now().Format(time.RFC3339))
	return l, nil
}

// NewWriterLogger traces to w. The caller owns w; Close does not close it.
func NewWriterLogger(w io.Writer) *DebugLogger {
	return &DebugLogger{w: w, now: time.Now}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a line tagged with component. No-op on a nil or discarding logger.
func (l *DebugLogger) Log(component, format string, args ...interface{}) {
	if l == nil || l.w == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] [%s] %s\n", l.now().Format("15:04:05.000"), component, fmt.Sprintf(format, args...))
}

// Close closes the underlying file, if the logger opened one.
func (l *DebugLogger) Close() error {
	if l == nil || l.c == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Close()
}
