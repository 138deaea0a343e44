// internal/utils/logger.go

package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the lower-case level name used in configuration files.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLogLevel parses "debug", "info", "warn"/"warning" or "error".
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Process-wide level shared by every logger built through this package, so
// that component loggers created at init time follow the configured level.
var (
	levelOnce   sync.Once
	sharedLevel zap.AtomicLevel
)

func atomicLevel() zap.AtomicLevel {
	levelOnce.Do(func() {
		sharedLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	})
	return sharedLevel
}

// SetLevel changes the level of all loggers returned by NewLogger and
// NewComponentLogger.
func SetLevel(level LogLevel) {
	atomicLevel().SetLevel(level.zapLevel())
}

// ZapLogger adapts a zap SugaredLogger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a console logger writing to stderr at the shared level.
func NewLogger() Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = atomicLevel()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &ZapLogger{sugar: base.Sugar()}
}

// NewComponentLogger returns a logger tagged with the component name.
func NewComponentLogger(component string) Logger {
	return NewLogger().WithField("component", component)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{sugar: l.Sugar()}
}

func (l *ZapLogger) Debug(msg string) { l.sugar.Debug(msg) }

func (l *ZapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

func (l *ZapLogger) Info(msg string) { l.sugar.Info(msg) }

func (l *ZapLogger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

func (l *ZapLogger) Warn(msg string) { l.sugar.Warn(msg) }

func (l *ZapLogger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

func (l *ZapLogger) Error(msg string) { l.sugar.Error(msg) }

func (l *ZapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func (l *ZapLogger) WithField(key string, value interface{}) Logger {
	return &ZapLogger{sugar: l.sugar.With(key, value)}
}

// WithFields attaches fields in key order so output is stable.
func (l *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &ZapLogger{sugar: l.sugar.With(kv...)}
}

// Truncate shortens s to at most n runes, for log lines carrying error text.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
