package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger discards everything until InitializeLogger runs
var Logger = zap.NewNop()

// InitializeLogger replaces Logger with a JSON logger appending to logFilePath
func InitializeLogger(logLevel zapcore.Level, logFilePath string) error {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	sink := zapcore.Lock(file)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, logLevel)
	// scrubbing through a folder logs one decode per keypress
	core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)

	Logger = zap.New(core, zap.AddCaller(), zap.ErrorOutput(sink))
	return nil
}

// ParseLevel converts a configured level name, falling back to info
func ParseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// SyncLogger ensures all log entries are flushed
func SyncLogger() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}
