// Package logger provides the process-wide structured logger, grounded on
// internal/logger (teacher): a package-level *slog.Logger, switchable
// between text and json output, with severity gating via a slog.LevelVar
// and optional file rotation through gopkg.in/natefinch/lumberjack.v2.
//
// The CLI (cmd) and the server host log through this package rather than
// the stdlib log package directly, so log level and format are controlled
// from one place. Volume methods, cache primitives and the worker dispatch
// loop do not log; they return their errors to the caller.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity level names, matching the teacher's config.LogConfig.Severity
// vocabulary.
const (
	Trace   = "TRACE"
	Debug   = "DEBUG"
	Info    = "INFO"
	Warning = "WARNING"
	Error   = "ERROR"
	Off     = "OFF"
)

// Custom slog levels: slog only defines Debug/Info/Warn/Error natively, so
// Trace sits below Debug and Off sits above Error, wide enough that no
// real record is ever emitted at that level.
const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelOff   slog.Level = slog.LevelError + 4
)

// LogRotateConfig mirrors the teacher's config.LogRotateConfig: the
// lumberjack knobs exposed to operators.
type LogRotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// DefaultLogRotateConfig matches the teacher's defaults.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{MaxFileSizeMB: 512, BackupFileCount: 10, Compress: false}
}

// Config is the logger's view of server configuration: a file path (empty
// means stderr), severity, output format ("text" or "json"), and rotation
// policy.
type Config struct {
	FilePath        string
	Severity        string
	Format          string
	LogRotateConfig LogRotateConfig
}

type loggerFactory struct {
	file            *os.File
	sysWriter       io.Writer
	level           string
	format          string
	logRotateConfig LogRotateConfig
}

var (
	programLevel         = new(slog.LevelVar)
	defaultLoggerFactory = &loggerFactory{level: Info, format: "json", logRotateConfig: DefaultLogRotateConfig()}
	defaultLogger        = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, programLevel, ""))
)

// Init wires the package-level logger from Config, opening (and rotating,
// via lumberjack) FilePath if one is set.
func Init(cfg Config) error {
	f := &loggerFactory{
		level:           cfg.Severity,
		format:          cfg.Format,
		logRotateConfig: cfg.LogRotateConfig,
	}
	var out io.Writer = os.Stderr
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.LogRotateConfig.MaxFileSizeMB,
			MaxBackups: cfg.LogRotateConfig.BackupFileCount,
			Compress:   cfg.LogRotateConfig.Compress,
		}
		out = lj
		f.sysWriter = lj
	}
	setLoggingLevel(cfg.Severity, programLevel)
	defaultLoggerFactory = f
	defaultLogger = slog.New(f.createJsonOrTextHandler(out, programLevel, ""))
	return nil
}

// SetLogFormat switches the package-level logger's output format without
// touching its destination or level. An empty or unrecognized format falls
// back to json, matching the teacher's behavior.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	var out io.Writer = os.Stderr
	if defaultLoggerFactory.sysWriter != nil {
		out = defaultLoggerFactory.sysWriter
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(out, programLevel, ""))
}

func setLoggingLevel(level string, pl *slog.LevelVar) {
	switch level {
	case Trace:
		pl.Set(LevelTrace)
	case Debug:
		pl.Set(LevelDebug)
	case Info:
		pl.Set(LevelInfo)
	case Warning:
		pl.Set(LevelWarn)
	case Error:
		pl.Set(LevelError)
	case Off:
		pl.Set(LevelOff)
	default:
		pl.Set(LevelInfo)
	}
}

// createJsonOrTextHandler builds a slog.Handler in the teacher's two
// supported shapes: compact time+severity+message text lines, or a nested
// timestamp/severity/message JSON object. prefix is prepended to every
// message (used by tests to distinguish a redirected logger's output).
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	replace := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.MessageKey:
			a.Value = slog.StringValue(prefix + a.Value.String())
		case slog.LevelKey:
			a.Key = "severity"
			a.Value = slog.StringValue(levelName(a.Value.Any().(slog.Level)))
		}
		return a
	}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replace}
	if f.format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func levelName(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= LevelDebug:
		return "DEBUG"
	case l <= LevelInfo:
		return "INFO"
	case l <= LevelWarn:
		return "WARNING"
	default:
		return "ERROR"
	}
}

func log(level slog.Level, format string, args ...any) {
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Tracef logs at TRACE severity.
func Tracef(format string, args ...any) { log(LevelTrace, format, args...) }

// Debugf logs at DEBUG severity.
func Debugf(format string, args ...any) { log(LevelDebug, format, args...) }

// Infof logs at INFO severity.
func Infof(format string, args ...any) { log(LevelInfo, format, args...) }

// Warnf logs at WARNING severity.
func Warnf(format string, args ...any) { log(LevelWarn, format, args...) }

// Errorf logs at ERROR severity.
func Errorf(format string, args ...any) { log(LevelError, format, args...) }
