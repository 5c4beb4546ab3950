package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeStore   LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeWeb     LogType = "WEB"
	TypeError   LogType = "ERR"
)

// CustomHandler prints one coloured line per record: app, clock, level, type.
type CustomHandler struct {
	app    string
	out    io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
}

type Option func(*CustomHandler)

func WithWriter(w io.Writer) Option {
	return func(h *CustomHandler) { h.out = w }
}

func WithLevel(level slog.Leveler) Option {
	return func(h *CustomHandler) { h.level = level }
}

// WithoutColor disables ANSI escapes, for log files and tests.
func WithoutColor() Option {
	return func(h *CustomHandler) { h.color = false }
}

func NewHandler(app string, opts ...Option) *CustomHandler {
	h := &CustomHandler{
		app:   app,
		out:   os.Stdout,
		mu:    &sync.Mutex{},
		level: slog.LevelDebug,
		color: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	values := collect(h.attrs, &r)

	message := r.Message
	if r.Level >= slog.LevelError {
		location := values["error_location"]
		if location == "" {
			location = sourceLocation(r.PC)
		}
		if location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
		if details := values["error"]; details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if name, user := values["name"], values["user_name"]; name != "" && user != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, name, user)
	}
	if status := values["status"]; status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if took := values["took"]; took != "" {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	var extra strings.Builder
	prefix := strings.Join(h.groups, ".")
	if prefix != "" {
		prefix += "."
	}
	for _, attr := range h.attrs {
		if !isInternalAttr(attr.Key) {
			fmt.Fprintf(&extra, " %s%s=%v", prefix, attr.Key, attr.Value)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if !isInternalAttr(a.Key) {
			fmt.Fprintf(&extra, " %s%s=%v", prefix, a.Key, a.Value)
		}
		return true
	})

	line := fmt.Sprintf("[%s] [%s] [%s] [%s] %s%s",
		h.app,
		r.Time.Format("15:04:05"),
		levelText,
		logType(values["type"]),
		message,
		extra.String(),
	)
	if h.color {
		line = fmt.Sprintf("%s[%s] [%s] [%s%s%s] [%s%s%s] %s%s%s",
			colorWhite, h.app, r.Time.Format("15:04:05"),
			levelColor, levelText, colorWhite,
			colorCyan, logType(values["type"]), colorWhite,
			message, extra.String(), colorReset)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

// skippedMessages are disgo gateway and rest chatter.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

func shouldSkipLog(r *slog.Record) bool {
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func collect(base []slog.Attr, r *slog.Record) map[string]string {
	values := make(map[string]string, len(base)+r.NumAttrs())
	for _, a := range base {
		values[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		values[a.Key] = a.Value.String()
		return true
	})
	return values
}

func logType(v string) LogType {
	switch v {
	case "cmd", "component", "modal":
		return TypeCommand
	case "db":
		return TypeStore
	case "web":
		return TypeWeb
	case "error":
		return TypeError
	}
	return TypeSystem
}

func sourceLocation(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

func isInternalAttr(key string) bool {
	switch key {
	case "type", "name", "user_name", "status", "took", "error", "error_location":
		return true
	}
	return false
}
