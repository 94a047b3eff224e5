package writer

import (
	"errors"
	"time"

	"golang.org/x/text/encoding"

	"github.com/wudi/pdfwrite/filters"
	"github.com/wudi/pdfwrite/ir/raw"
	"github.com/wudi/pdfwrite/observability"
)

type PDFVersion string

const (
	PDF14 PDFVersion = "1.4"
	PDF17 PDFVersion = "1.7"
)

const (
	DefaultProducer    = "pdfwrite"
	DefaultJPEGQuality = 90
)

var (
	// ErrClosed is returned when the writer or a page is used after Close.
	ErrClosed = errors.New("writer: closed")
	// ErrInvalidReference is returned for references this writer did not
	// issue and for references that were already written.
	ErrInvalidReference = errors.New("writer: invalid object reference")
	// ErrOpenPage is returned by Close when pages were left open. The file
	// is still finalized without them.
	ErrOpenPage = errors.New("writer: page not closed")
	// ErrUnknownXObject is returned when drawing an external object that
	// was not added to the writer.
	ErrUnknownXObject = errors.New("writer: unknown external object")
	// ErrInvalidObject is returned by WriteObject for bodies that cannot be
	// serialized: nil values and nil streams.
	ErrInvalidObject = errors.New("writer: invalid object")
)

// Config controls document level settings. The zero value is usable.
type Config struct {
	Version PDFVersion
	// Producer is written as a comment after the header and in the
	// document information.
	Producer string
	Creator  string
	Title    string
	Author   string
	Subject  string
	Keywords string

	// TextFilter compresses text streams. Nil leaves them uncompressed.
	TextFilter filters.Filter
	// TextEncoding converts text streams to bytes. Nil selects
	// Windows-1252, matching WinAnsiEncoding fonts.
	TextEncoding encoding.Encoding

	JPEGQuality int
	// MaxImageDimension downscales decoded images whose width or height
	// exceeds it. Zero keeps the original size.
	MaxImageDimension int

	// Deterministic derives the file identifier from the document instead
	// of crypto/rand.
	Deterministic bool
	Now           func() time.Time

	Logger       observability.Logger
	Tracer       observability.Tracer
	Interceptors []Interceptor
}

// Interceptor observes every object written.
type Interceptor interface {
	BeforeWrite(ref raw.ObjectRef, obj *raw.Object) error
	AfterWrite(ref raw.ObjectRef, obj *raw.Object, bytesWritten int64) error
}

func (cfg Config) withDefaults() Config {
	if cfg.Version == "" {
		cfg.Version = PDF14
	}
	if cfg.Producer == "" {
		cfg.Producer = DefaultProducer
	}
	if cfg.Creator == "" {
		cfg.Creator = DefaultProducer
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultJPEGQuality
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	return cfg
}
