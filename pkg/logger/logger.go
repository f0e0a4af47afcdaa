// Package logger provides a process-wide printf-style logger backed by zap.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = newDefault()
)

func newDefault() *zap.SugaredLogger {
	l, err := build("info", "")
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// Initialize configures the global logger.
// outputPath is optional; when set, log lines are written to stderr and the file.
func Initialize(level, outputPath string) error {
	l, err := build(level, outputPath)
	if err != nil {
		return err
	}
	mu.Lock()
	old := log
	log = l
	mu.Unlock()
	_ = old.Sync()
	return nil
}

// Use replaces the global logger. Intended for tests.
func Use(l *zap.Logger) {
	mu.Lock()
	log = l.Sugar()
	mu.Unlock()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}

func build(level, outputPath string) (*zap.SugaredLogger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if outputPath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, outputPath)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, outputPath)
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l.Sugar(), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level %q", level)
	}
}

// ValidLevel reports whether level names a supported log level.
func ValidLevel(level string) bool {
	_, err := parseLevel(level)
	return err == nil && strings.TrimSpace(level) != ""
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(format string, args ...any) { current().Debugf(format, args...) }

func Info(format string, args ...any) { current().Infof(format, args...) }

func Warn(format string, args ...any) { current().Warnf(format, args...) }

func Error(format string, args ...any) { current().Errorf(format, args...) }

// Fatal logs the message and exits the process with status 1.
func Fatal(format string, args ...any) {
	current().Errorf(format, args...)
	Sync()
	os.Exit(1)
}
