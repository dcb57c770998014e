package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"loopsleuth/internal/config"
)

// LogFileName is the log written under paths.log_dir.
const LogFileName = "loopsleuth.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives every record; nil means stderr so stdout stays
	// reserved for command output.
	Console io.Writer
	// File, when set, receives a copy of every record in the same format.
	File string
}

// New constructs a slog logger writing console or JSON lines.
func New(opts Options) (*slog.Logger, error) {
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	if opts.File != "" {
		file, err := openLogFile(opts.File)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(out, file)
	}

	level := parseLevel(opts.Level)
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return slog.New(&consoleHandler{out: out, level: level, mu: new(sync.Mutex)}), nil
	case "json":
		return slog.New(newJSONHandler(out, level)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates the application logger: console output on stderr
// plus a file under paths.log_dir when one is configured.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Paths.LogDir != "" {
		opts.File = filepath.Join(cfg.Paths.LogDir, LogFileName)
	}
	return New(opts)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
			case slog.LevelKey:
				return slog.String("level", strings.ToLower(attr.Value.String()))
			}
			return attr
		},
	})
}

// consoleHandler renders one line per record:
//
//	2026-01-02 15:04:05 WARN  [scan 3 clip 12] scanner: probe failed path=/clips/a.mp4 error=...
//
// Scan and clip ids move into the bracketed prefix and the component leads
// the message. The session id is left to the JSON sink.
type consoleHandler struct {
	out   io.Writer
	level slog.Level
	mu    *sync.Mutex

	attrs  []slog.Attr
	groups []string
}

// consoleLine collects the fields the prefix is built from.
type consoleLine struct {
	scan, clip, component string
	rest                  strings.Builder
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var line consoleLine
	for _, attr := range h.attrs {
		line.add(h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.add(h.groups, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(time.DateTime))
	fmt.Fprintf(&b, " %-5s ", levelLabel(record.Level))
	switch {
	case line.scan != "" && line.clip != "":
		fmt.Fprintf(&b, "[scan %s clip %s] ", line.scan, line.clip)
	case line.scan != "":
		fmt.Fprintf(&b, "[scan %s] ", line.scan)
	case line.clip != "":
		fmt.Fprintf(&b, "[clip %s] ", line.clip)
	}
	if line.component != "" {
		b.WriteString(line.component)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	b.WriteString(line.rest.String())
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (l *consoleLine) add(groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groups = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			l.add(groups, member)
		}
		return
	}
	if len(groups) == 0 {
		switch attr.Key {
		case FieldScanID:
			if l.scan == "" {
				l.scan = formatValue(attr.Value)
			}
			return
		case FieldClipID:
			if l.clip == "" {
				l.clip = formatValue(attr.Value)
			}
			return
		case FieldComponent:
			if l.component == "" {
				l.component = attr.Value.String()
			}
			return
		case FieldSessionID:
			return
		}
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(append(append([]string(nil), groups...), key), ".")
	}
	l.rest.WriteByte(' ')
	l.rest.WriteString(key)
	l.rest.WriteByte('=')
	l.rest.WriteString(formatValue(attr.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		return v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
