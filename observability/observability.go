// Package observability holds the logging and tracing hooks the writer
// reports through. Nothing is emitted unless a Logger or Tracer is set.
package observability

import "context"

// Logger receives the writer's events. Debug carries one line per object
// written; Info and above cover document level milestones and failures.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a Logger that adds fields to every event.
	With(fields ...Field) Logger
}

// Field is a key/value pair attached to a log event.
type Field interface {
	Key() string
	Value() interface{}
}

type field struct {
	key string
	val interface{}
}

func (f field) Key() string        { return f.key }
func (f field) Value() interface{} { return f.val }

// String, Int and Int64 build fields for names, counts and byte offsets.
func String(key, value string) Field      { return field{key, value} }
func Int(key string, value int) Field     { return field{key, value} }
func Int64(key string, value int64) Field { return field{key, value} }

// Error attaches err; a nil error is logged as an empty value.
func Error(key string, err error) Field {
	if err == nil {
		return field{key: key}
	}
	return field{key, err}
}

// NopLogger drops every event. It is the writer's default.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (l NopLogger) With(...Field) Logger { return l }

// Tracer opens a span around Close, where the document is finalized.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span records tags and the outcome of one traced operation.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns the writer's default tracer, which records nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Field keys and span tags reported when a document is finalized.
const (
	MetricObjectCount  = "pdf.objects.count"
	MetricPageCount    = "pdf.pages.count"
	MetricBytesWritten = "pdf.write.bytes"
	MetricWriteTime    = "pdf.write.duration"
)
