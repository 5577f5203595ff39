// Package logger configures the process-wide zap logger. Command output
// owns stdout, so every log line goes to stderr; at the default level
// the tool is silent unless something goes wrong, which keeps it usable
// in pipelines.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

var (
	mu     sync.Mutex
	global *zap.Logger
)

// Config represents logger configuration.
type Config struct {
	Level    string // debug, info, warn or error
	Encoding string // json or console
}

// Init builds the global logger from cfg. The first successful call
// wins; later calls are no-ops so libraries cannot reconfigure the CLI
// underneath it.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return nil
	}

	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	global = l
	return nil
}

func newLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "invalid log level: %s", cfg.Level)
	}

	enc, err := newEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(encoding string) (zapcore.Encoder, error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	switch encoding {
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	case "console", "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "invalid log format: %s", encoding)
	}
}

// Get returns the global logger, bootstrapping a quiet console logger
// when Init has not run.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		l, err := newLogger(Config{Level: "error", Encoding: "console"})
		if err != nil {
			l = zap.NewNop()
		}
		global = l
	}
	return global
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// With creates a child logger with additional fields.
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return global.Sync()
	}
	return nil
}
