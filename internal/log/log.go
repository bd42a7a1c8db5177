// Package log is the categorized, leveled logger shared by the editor and the
// reference server. Output goes to a debug file (editor) or stderr (server),
// and every line is also published so the TUI can show a live log overlay.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jinhealth/reconcile/internal/pubsub"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string onto a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related messages.
type Category string

const (
	CatRegistry Category = "registry" // partition invariant breaches
	CatEditor   Category = "editor"
	CatDragDrop Category = "dragdrop"
	CatSync     Category = "sync" // load/save round trips
	CatUI       Category = "ui"
	CatConfig   Category = "config"
	CatDB       Category = "db"
	CatServer   Category = "server"
	CatCache    Category = "cache"
	CatWatcher  Category = "watcher"
	CatImport   Category = "import"
)

// Logger serializes writes to a single sink.
type Logger struct {
	mu       sync.Mutex
	closer   io.Closer
	out      io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var std *Logger

// Init opens path for appending and installs it as the global sink.
// The returned func closes the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: debug log path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	std = newLogger(f)
	std.closer = f
	return func() { _ = f.Close() }, nil
}

// InitWriter installs w as the global sink.
func InitWriter(w io.Writer) {
	std = newLogger(w)
}

func newLogger(w io.Writer) *Logger {
	return &Logger{
		out:      w,
		enabled:  true,
		minLevel: LevelDebug,
		broker:   pubsub.NewBrokerSize[string](256),
	}
}

// SetEnabled toggles output without dropping the sink.
func SetEnabled(enabled bool) {
	if std == nil {
		return
	}
	std.mu.Lock()
	std.enabled = enabled
	std.mu.Unlock()
}

// SetMinLevel drops messages below level.
func SetMinLevel(level Level) {
	if std == nil {
		return
	}
	std.mu.Lock()
	std.minLevel = level
	std.mu.Unlock()
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }

func Info(cat Category, msg string, fields ...any) { write(LevelInfo, cat, msg, fields) }

func Warn(cat Category, msg string, fields ...any) { write(LevelWarn, cat, msg, fields) }

func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs at error level with err attached as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	write(LevelError, cat, msg, fields)
}

// Format renders one line: 2026-01-02T15:04:05 [WARN] [sync] message key=value
func Format(ts time.Time, level Level, cat Category, msg string, fields []any) string {
	var sb strings.Builder
	sb.WriteString(ts.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&sb, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&sb, " %v=<missing>", fields[len(fields)-1])
	}
	sb.WriteByte('\n')
	return sb.String()
}

func write(level Level, cat Category, msg string, fields []any) {
	l := std
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	line := Format(time.Now(), level, cat, msg, fields)
	if l.out != nil {
		_, _ = io.WriteString(l.out, line)
	}
	l.broker.Publish(pubsub.KindLog, line)
}

// Listener streams formatted log lines into a tea program.
type Listener = pubsub.Listener[string]

// NewListener subscribes to the global logger. Nil when logging is off.
func NewListener(ctx context.Context) *Listener {
	if std == nil {
		return nil
	}
	return pubsub.Listen[string](ctx, std.broker)
}
