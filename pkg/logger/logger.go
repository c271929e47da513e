// Package logger builds the zap logger used across tutorhub and provides
// field helpers for the lesson domain.
package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	// Level is one of debug, info, warn, error (default info).
	Level string

	// Output receives the console stream (default os.Stdout).
	Output io.Writer

	// FilePath enables a rotating JSON log file when non-empty.
	FilePath string

	// Rotation settings for FilePath.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Output:     os.Stdout,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// New creates a JSON logger writing to Output and, if configured, to a
// lumberjack-rotated file.
func New(opts Options) *zap.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	level := ParseLevel(opts.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(opts.Output),
			level,
		),
	}

	if opts.FilePath != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
				Compress:   true,
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Domain field helpers.
func LessonID(id string) zap.Field     { return zap.String("lesson_id", id) }
func SeriesID(id string) zap.Field     { return zap.String("series_id", id) }
func StudentID(id string) zap.Field    { return zap.String("student_id", id) }
func TeacherID(id string) zap.Field    { return zap.String("teacher_id", id) }
func Scope(scope string) zap.Field     { return zap.String("scope", scope) }
func Operation(name string) zap.Field  { return zap.String("operation", name) }
func Occurrences(n int) zap.Field      { return zap.Int("occurrences", n) }
