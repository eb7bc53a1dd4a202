package simulate

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/mattn/go-isatty"
)

// LogLevel represents the severity level for logs.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "INFO":
		return LevelInfo
	case "DEBUG":
		return LevelDebug
	default:
		return LevelWarn // default
	}
}

// Logger is the interface used by the simulator and the analyzers.
type Logger interface {
	// Debugf, Infof, Warnf, Errorf log formatted messages at respective levels.
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// With returns a child logger augmented with the provided fields.
	With(fields map[string]any) Logger
}

// DefaultTimeFormat is the strftime layout of log timestamps.
const DefaultTimeFormat = "%Y-%m-%dT%H:%M:%S.%f%z"

// textFormatter emits compact single-line text logs.
// Format: [LEVEL] ts msg key1=val1 key2=val2 ...
type textFormatter struct {
	timeFormat string // strftime layout, empty disables timestamps
	color      bool
}

var levelColors = map[LogLevel]string{
	LevelError: "\x1b[31m",
	LevelWarn:  "\x1b[33m",
	LevelInfo:  "\x1b[36m",
	LevelDebug: "\x1b[90m",
}

func (f *textFormatter) format(ts time.Time, level LogLevel, msg string, fields map[string]any) []byte {
	var b strings.Builder
	b.Grow(128)

	if f.color {
		b.WriteString(levelColors[level])
	}
	b.WriteByte('[')
	b.WriteString(level.String())
	b.WriteByte(']')
	if f.color {
		b.WriteString("\x1b[0m")
	}
	b.WriteByte(' ')

	if f.timeFormat != "" {
		b.WriteString(timefmt.Format(ts.UTC(), f.timeFormat))
		b.WriteByte(' ')
	}

	// Message first for readability
	b.WriteString(msg)

	// Sort field keys for deterministic output
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(safeSprint(fields[k]))
		}
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

func safeSprint(v any) string {
	switch t := v.(type) {
	case string:
		// Quote if contains whitespace
		if strings.IndexFunc(t, func(r rune) bool { return r <= ' ' }) >= 0 {
			return fmt.Sprintf("%q", t)
		}
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// LoggerOption customizes NewLogger.
type LoggerOption func(*textFormatter)

// WithTimeFormat sets the strftime layout of timestamps. An empty layout
// disables timestamps.
func WithTimeFormat(layout string) LoggerOption {
	return func(f *textFormatter) { f.timeFormat = layout }
}

// WithColor forces level colors on or off.
func WithColor(enabled bool) LoggerOption {
	return func(f *textFormatter) { f.color = enabled }
}

// defaultLogger is a thread-safe logger implementation supporting With() context.
type defaultLogger struct {
	out       io.Writer
	level     LogLevel
	formatter *textFormatter

	// baseFields are the context fields attached to this logger.
	baseFields map[string]any

	// mu serializes writes to the writer and protects baseFields during write.
	mu *sync.Mutex
}

// NewLogger creates a default logger with the given level.
// If w is nil, os.Stderr is used. Colors default to on when w is a terminal.
func NewLogger(level LogLevel, w io.Writer, opts ...LoggerOption) Logger {
	if w == nil {
		w = os.Stderr
	}
	f := &textFormatter{timeFormat: DefaultTimeFormat, color: IsTerminal(w)}
	for _, opt := range opts {
		opt(f)
	}
	return &defaultLogger{
		out:        w,
		level:      level,
		formatter:  f,
		baseFields: make(map[string]any),
		mu:         &sync.Mutex{},
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// noopLogger is a logger that discards all output.
type noopLogger struct{}

func (l *noopLogger) IsEnabled(level LogLevel) bool     { return false }
func (l *noopLogger) Debugf(format string, args ...any) {}
func (l *noopLogger) Infof(format string, args ...any)  {}
func (l *noopLogger) Warnf(format string, args ...any)  {}
func (l *noopLogger) Errorf(format string, args ...any) {}
func (l *noopLogger) With(fields map[string]any) Logger { return l }

// NopLogger returns a logger that discards all output.
func NopLogger() Logger {
	return &noopLogger{}
}

func (l *defaultLogger) IsEnabled(level LogLevel) bool {
	return level <= l.level
}

func (l *defaultLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	newFields := make(map[string]any, len(l.baseFields)+len(fields))
	for k, v := range l.baseFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &defaultLogger{
		out:        l.out,
		level:      l.level,
		formatter:  l.formatter,
		baseFields: newFields,
		mu:         l.mu, // share same lock and writer
	}
}

func (l *defaultLogger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

func (l *defaultLogger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

func (l *defaultLogger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

func (l *defaultLogger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

func (l *defaultLogger) logf(level LogLevel, format string, args ...any) {
	if !l.IsEnabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)

	// Snapshot fields to avoid mutation races by callers
	fields := make(map[string]any, len(l.baseFields))
	for k, v := range l.baseFields {
		fields[k] = v
	}

	line := l.formatter.format(time.Now(), level, msg, fields)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(line)
}

// isEnabled reports whether logger would emit level. Loggers that do not
// expose IsEnabled are assumed to emit everything.
func isEnabled(logger Logger, level LogLevel) bool {
	if l, ok := logger.(interface{ IsEnabled(LogLevel) bool }); ok {
		return l.IsEnabled(level)
	}
	return true
}

// ----------------------------------------------------------------------------
// Helpers: element summaries, truncation
// ----------------------------------------------------------------------------

// elementSummary returns a compact one-line representation of an Element.
func elementSummary(e Element, maxValues int) string {
	if e.IsEmpty() {
		return "empty"
	}
	types := make([]string, 0, len(e.types))
	for _, t := range e.types {
		types = append(types, shortType(t.Name))
	}
	out := truncateList(types, 3)
	if len(e.values) == 0 {
		return out
	}
	vals := make([]string, 0, len(e.values))
	for _, v := range e.values {
		vals = append(vals, summarizeValue(v))
	}
	return out + "=" + truncateList(vals, maxValues)
}

// stackPreview summarizes up to n elements from the top of the stack down.
func stackPreview(stack []Element, n, maxValues int) string {
	if len(stack) == 0 {
		return "empty"
	}
	items := make([]string, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		items = append(items, elementSummary(stack[i], maxValues))
	}
	if n <= 0 || len(items) <= n {
		return strings.Join(items, "|")
	}
	return strings.Join(items[:n], "|") + fmt.Sprintf("|+%d", len(items)-n)
}

func summarizeValue(v any) string {
	switch x := v.(type) {
	case *HttpResponse:
		return fmt.Sprintf("response%v", x.Statuses)
	case *JSONObject:
		return "object{" + truncateList(x.Keys(), 5) + "}"
	case *JSONArray:
		return "array"
	case *Instance:
		return "new " + x.Class
	default:
		return valueString(v)
	}
}

// shortType drops the package of a descriptor for log output.
func shortType(desc string) string {
	if i := strings.LastIndexByte(desc, '/'); i >= 0 && strings.HasPrefix(desc, "L") {
		return desc[i+1 : len(desc)-1]
	}
	return desc
}

// truncateList joins items with "," and appends +N if truncated.
func truncateList(items []string, max int) string {
	if max <= 0 || len(items) <= max {
		return strings.Join(items, ",")
	}
	head := items[:max]
	return strings.Join(head, ",") + fmt.Sprintf(",+%d", len(items)-max)
}
