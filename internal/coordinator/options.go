package coordinator

import "time"

// Option configures a Coordinator. Use With* functions to create Options.
type Option func(*coordinatorOptions)

// coordinatorOptions holds all optional configuration used during construction.
type coordinatorOptions struct {
	policy Policy
	clock  func() time.Time
	logger *DebugLogger
}

// WithPolicy sets the admission, retry and timing policy.
// Zero fields fall back to DefaultPolicy values.
func WithPolicy(p Policy) Option {
	return func(o *coordinatorOptions) { o.policy = p }
}

// WithClock replaces time.Now, mainly for tests that need to age heartbeats.
func WithClock(clock func() time.Time) Option {
	return func(o *coordinatorOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the debug logger used by the coordinator package.
func WithLogger(l *DebugLogger) Option {
	return func(o *coordinatorOptions) { o.logger = l }
}
