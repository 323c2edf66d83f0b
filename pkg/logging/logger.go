package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With creates a child logger with the given fields pre-set
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
	// Enabled reports whether messages at level would be written
	Enabled(level Level) bool
}

// LogEntry is one line of JSONLogger output.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// output serialises writes from a logger and all of its children.
type output struct {
	mu  sync.Mutex
	w   io.Writer
	buf bytes.Buffer
	enc *json.Encoder
	now func() time.Time
}

func newOutput(w io.Writer) *output {
	o := &output{w: w, now: time.Now}
	o.enc = json.NewEncoder(&o.buf)
	o.enc.SetEscapeHTML(false)
	return o
}

func (o *output) write(entry *LogEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry.Time = o.now().Format(time.RFC3339Nano)
	o.buf.Reset()
	if err := o.enc.Encode(entry); err != nil {
		fmt.Fprintf(o.w, "[ERROR] Failed to marshal log entry: %v\n", err)
		return
	}
	o.w.Write(o.buf.Bytes())
}

// JSONLogger writes one JSON object per line. Children created by With
// share the parent's writer but keep their own level.
type JSONLogger struct {
	out    *output
	level  atomic.Int32
	fields []Field
}

// NewJSONLogger creates a logger writing to writer at level.
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	l := &JSONLogger{out: newOutput(writer)}
	l.level.Store(int32(level))
	return l
}

// NewDefaultLogger creates a logger that writes to stderr at INFO level.
// Stdout is left for the run summary.
func NewDefaultLogger() *JSONLogger {
	return NewJSONLogger(os.Stderr, InfoLevel)
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	entry := &LogEntry{Level: level.String(), Message: msg}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}
	l.out.write(entry)
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// With returns a child logger that adds fields to every entry. Later fields
// with the same key win.
func (l *JSONLogger) With(fields ...Field) Logger {
	child := &JSONLogger{
		out:    l.out,
		fields: append(append(make([]Field, 0, len(l.fields)+len(fields)), l.fields...), fields...),
	}
	child.level.Store(l.level.Load())
	return child
}

// SetLevel sets the minimum log level
func (l *JSONLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	return Level(l.level.Load())
}

func (l *JSONLogger) Enabled(level Level) bool {
	return level >= l.GetLevel()
}
