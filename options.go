package electrolytes

import (
	"time"

	"github.com/hupe1980/electrolytes/internal/fs"
)

// DefaultLockTimeout bounds the wait for the cross-process lock. Exceeding it
// surfaces ErrLockTimeout instead of blocking forever behind a stuck process.
const DefaultLockTimeout = 30 * time.Second

type options struct {
	path        string
	fs          fs.FileSystem
	lockTimeout time.Duration
	logger      *Logger
	metrics     MetricsCollector
}

// Option configures database construction.
type Option func(*options)

// WithPath overrides the user overlay file location. The default is a
// per-user path derived from os.UserConfigDir; tests point independent
// databases at isolated temporary locations with this option.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithFileSystem injects a filesystem implementation. Used by tests to
// simulate I/O failures around the overlay's atomic flush.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fs = fsys
	}
}

// WithLockTimeout bounds how long operations wait for the cross-process
// lock. Zero waits indefinitely.
func WithLockTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = timeout
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector sets the metrics collector. The default is a no-op.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}
