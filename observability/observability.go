// Package observability carries the logging hooks the redaction pipeline
// reports through. Callers inject a Logger; the default is a no-op.
package observability

import (
	"fmt"
	"io"
	"sync"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field        { return stringField{key, value} }
func Int(key string, value int) Field       { return intField{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field     { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field) {}
func (NopLogger) Warn(string, ...Field) {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// WriterLogger formats log lines to an io.Writer; cmd binaries use it on
// stderr.
type WriterLogger struct {
	mu   sync.Mutex
	w    io.Writer
	base []Field
}

func NewWriterLogger(w io.Writer) *WriterLogger { return &WriterLogger{w: w} }

func (l *WriterLogger) log(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s", level, msg)
	// base is shared with loggers derived by With; never append to it
	for _, f := range l.base {
		fmt.Fprintf(l.w, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(l.w)
}

func (l *WriterLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *WriterLogger) Info(msg string, fields ...Field) { l.log("INFO", msg, fields) }
func (l *WriterLogger) Warn(msg string, fields ...Field) { l.log("WARN", msg, fields) }
func (l *WriterLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }
func (l *WriterLogger) With(fields ...Field) Logger {
	return &WriterLogger{w: l.w, base: append(append([]Field(nil), l.base...), fields...)}
}

// Standard metric names emitted by the engine.
const (
	MetricParsedOps     = "redact.parse.operations"
	MetricCharsRemoved  = "redact.text.chars_removed"
	MetricOpsDropped    = "redact.text.ops_dropped"
	MetricPathsClipped  = "redact.path.clipped"
	MetricPolygonsKept  = "redact.path.polygons_kept"
	MetricVerifyChecks  = "redact.verify.checks"
	MetricVerifyLeaks   = "redact.verify.leaks"
)
