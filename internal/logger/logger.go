package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global structured logger
	Log *slog.Logger
	// logWriter is the rotating log writer, nil when logging to stderr
	logWriter *lumberjack.Logger

	mu sync.Mutex
)

// Options controls logger initialization.
type Options struct {
	// Verbosity counts -v flags: 0 = error, 1 = warn, 2 = info, >= 3 = debug.
	Verbosity int
	// JSON switches output to one JSON object per line.
	JSON bool
	// LogFile, when non-empty, sends output to a rotating file instead of stderr.
	LogFile string
}

// Level maps a -v count to a slog level.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelWarn
	case verbosity == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// InitLogger initializes the global logger.
func InitLogger(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	var writer io.Writer = os.Stderr
	if opts.LogFile != "" {
		logWriter = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
		writer = logWriter
	}

	hopts := &slog.HandlerOptions{Level: Level(opts.Verbosity)}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(writer, hopts)
	} else {
		handler = slog.NewTextHandler(writer, hopts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// Close closes the log file if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

// getLogger returns the global logger, or the default slog logger if not initialized.
func getLogger() *slog.Logger {
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	getLogger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With creates a new logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}
