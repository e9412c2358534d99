package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level)
	})
	return globalLogger
}

// defaultZapLevel is the fallback when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newZapLogger builds a sugared zap logger writing console lines to stdout.
// Timestamps stay on: triage activity is read back against audit log times.
func newZapLogger(levelStr string) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(cfg)
	ws := zapcore.Lock(os.Stdout)
	core := zapcore.NewCore(encoder, zapcore.AddSync(ws), zap.NewAtomicLevelAt(toZapLevel(levelStr)))
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
	}
}
