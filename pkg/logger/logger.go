// Package logger builds the process-wide slog logger and the zap adapter handed
// to the MTProto client.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"tgbridge/pkg/config"

	charmLog "github.com/charmbracelet/log"
)

// Environment variables that win over the config file.
const (
	envFormat    = "TGBRIDGE_LOG_FORMAT"
	envLevel     = "TGBRIDGE_LOG_LEVEL"
	envAddSource = "TGBRIDGE_LOG_ADD_SOURCE"
)

// LogEntry is one line of JSON log output.
type LogEntry struct {
	Level     string         `json:"level"`
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
}

type options struct {
	json      bool
	level     slog.Level
	addSource bool
}

// New builds a logger writing to stderr.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	opts, err := resolveOptions(cfg)
	if err != nil {
		return nil, err
	}

	if !opts.json {
		return slog.New(charmLog.NewWithOptions(writer, charmLog.Options{
			Level:           charmLevel(opts.level),
			ReportTimestamp: true,
			ReportCaller:    opts.addSource,
			Formatter:       charmLog.TextFormatter,
		})), nil
	}

	return slog.New(&jsonHandler{
		opts:   opts,
		out:    &lockedWriter{w: writer},
		fields: map[string]any{},
	}), nil
}

func resolveOptions(cfg config.LoggingConfig) (options, error) {
	var opts options

	switch format := override(envFormat, cfg.Format, "text"); format {
	case "json":
		opts.json = true
	case "text":
	default:
		return opts, fmt.Errorf("unsupported log format %q", format)
	}

	switch level := override(envLevel, cfg.Level, "info"); level {
	case "debug":
		opts.level = slog.LevelDebug
	case "info":
		opts.level = slog.LevelInfo
	case "warn", "warning":
		opts.level = slog.LevelWarn
	case "error":
		opts.level = slog.LevelError
	default:
		return opts, fmt.Errorf("unsupported log level %q", level)
	}

	opts.addSource = cfg.AddSource
	if value := strings.TrimSpace(os.Getenv(envAddSource)); value != "" {
		opts.addSource, _ = strconv.ParseBool(value)
	}

	return opts, nil
}

// override returns the lowercased env value, else the configured one, else fallback.
func override(env, configured, fallback string) string {
	for _, value := range []string{os.Getenv(env), configured} {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			return value
		}
	}
	return fallback
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) writeLine(line []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(append(line, '\n'))
	return err
}

// jsonHandler writes one LogEntry per record. Attributes bound with With are
// flattened once, so Handle only copies them.
type jsonHandler struct {
	opts      options
	out       *lockedWriter
	prefix    string
	component string
	fields    map[string]any
}

func (h *jsonHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

func (h *jsonHandler) Handle(_ context.Context, record slog.Record) error {
	at := record.Time
	if at.IsZero() {
		at = time.Now()
	}

	entry := LogEntry{
		Level:     strings.ToLower(record.Level.String()),
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Component: h.component,
		Message:   record.Message,
	}

	fields := make(map[string]any, len(h.fields)+record.NumAttrs())
	for key, value := range h.fields {
		fields[key] = value
	}
	record.Attrs(func(attr slog.Attr) bool {
		h.collect(fields, &entry.Component, h.prefix, attr)
		return true
	})
	if len(fields) > 0 {
		entry.Fields = fields
	}

	if h.opts.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		if frame.File != "" {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return h.out.writeLine(line)
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		h.collect(next.fields, &next.component, h.prefix, attr)
	}
	return next
}

func (h *jsonHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = h.prefix + name + "."
	return next
}

func (h *jsonHandler) clone() *jsonHandler {
	next := *h
	next.fields = make(map[string]any, len(h.fields))
	for key, value := range h.fields {
		next.fields[key] = value
	}
	return &next
}

// collect stores attr under its dotted key. A top-level string "component"
// becomes the entry component instead of a field.
func (h *jsonHandler) collect(fields map[string]any, component *string, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if prefix == "" && attr.Key == "component" && attr.Value.Kind() == slog.KindString {
		*component = attr.Value.String()
		return
	}

	if attr.Value.Kind() == slog.KindGroup && attr.Key == "" {
		for _, inner := range attr.Value.Group() {
			h.collect(fields, component, prefix, inner)
		}
		return
	}

	fields[prefix+attr.Key] = plainValue(attr.Value)
}

func plainValue(value slog.Value) any {
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindGroup:
		group := make(map[string]any, len(value.Group()))
		for _, attr := range value.Group() {
			group[attr.Key] = plainValue(attr.Value.Resolve())
		}
		return group
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.Any()
	default:
		return value.Any()
	}
}
