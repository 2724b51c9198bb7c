// Package logging provides the zap-backed loggers used across studentlens.
// Every subsystem logs through a named child logger (api, whatif, dashboard,
// batch, config) so log lines can be filtered by origin. Logs go to stderr
// with a console encoder, keeping stdout clean for command output.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names for the child loggers handed out by Get.
const (
	CategoryAPI       = "api"
	CategoryWhatIf    = "whatif"
	CategoryDashboard = "dashboard"
	CategoryBatch     = "batch"
	CategoryConfig    = "config"
)

// Options control how the root logger is built.
type Options struct {
	Level string // debug, info, warn, or error
	Dev   bool   // dev mode forces debug level and enables request/response dumps
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	devMode bool
)

// Init builds the root logger from opts and installs it so Get can hand out
// child loggers. Before Init the package is a silent no-op, which keeps
// tests and early startup code from needing a logger.
func Init(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Dev && level > zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	root = logger
	devMode = opts.Dev
	mu.Unlock()
	return logger, nil
}

// Get returns a child logger named for one subsystem.
func Get(category string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(category)
}

// Dev reports whether request/response dump logging is enabled.
func Dev() bool {
	mu.RLock()
	defer mu.RUnlock()
	return devMode
}

// Sync flushes buffered entries. Called once on shutdown; flush errors on
// stderr are expected on some platforms and ignored.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// SetLogger replaces the root logger. Tests use this to capture output.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = l
}

// ParseLevel maps a config level string onto a zap level. An empty string
// means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", s)
	}
}
