package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wudi/pdfwrite/filters"
	"github.com/wudi/pdfwrite/fonts"
	"github.com/wudi/pdfwrite/ir/raw"
	"github.com/wudi/pdfwrite/observability"
	"github.com/wudi/pdfwrite/resources"
)

// binaryMarker follows the version comment so that transfer tools treat
// the file as binary.
var binaryMarker = []byte{0xE2, 0xE3, 0xCF, 0xD3}

// Writer streams a PDF document. Objects are written as soon as they are
// complete; Close appends the shared resources, the page tree, the
// cross-reference table and the trailer.
//
// A Writer and its pages must be used from a single goroutine.
type Writer struct {
	cfg    Config
	log    observability.Logger
	sink   Sink
	closer io.Closer

	// offsets[n-1] is the file offset of object n, -1 until written.
	offsets []int64
	gen     int

	res    *resources.Registry
	ratios map[raw.ObjectRef]float64

	catalogRef   raw.ObjectRef
	infoRef      raw.ObjectRef
	resourcesRef raw.ObjectRef
	pagesRef     raw.ObjectRef

	pages     []raw.ObjectRef
	openPages int

	created string
	started time.Time
	err     error
	closed  bool
}

// New writes the file header, the catalog and the document information to
// w. When w implements io.Closer it is closed by Close.
func New(w io.Writer, cfg Config) (*Writer, error) {
	if w == nil {
		return nil, errors.New("writer: nil destination")
	}
	cfg = cfg.withDefaults()
	pw := &Writer{
		cfg:     cfg,
		log:     cfg.Logger,
		sink:    newSink(w),
		res:     resources.NewRegistry(),
		ratios:  make(map[raw.ObjectRef]float64),
		started: time.Now(),
	}
	if c, ok := w.(io.Closer); ok {
		pw.closer = c
	}
	if err := pw.start(); err != nil {
		if pw.closer != nil {
			pw.closer.Close()
		}
		return nil, err
	}
	return pw, nil
}

// Create creates the named file and starts a document in it.
func Create(path string, cfg Config) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return New(f, cfg)
}

func (w *Writer) start() error {
	header := "%PDF-" + string(w.cfg.Version) + "\n%"
	if err := w.sink.WriteText(header); err != nil {
		return w.fail("write header", err)
	}
	if err := w.sink.WriteBytes(binaryMarker); err != nil {
		return w.fail("write header", err)
	}
	if err := w.sink.WriteText("\n%" + w.cfg.Producer + "\n"); err != nil {
		return w.fail("write header", err)
	}

	w.catalogRef = w.Reserve()
	w.infoRef = w.Reserve()
	w.resourcesRef = w.Reserve()
	w.pagesRef = w.Reserve()

	catalog := raw.NewObject()
	catalog.Set("Type", raw.Name("Catalog")).
		Set("Version", raw.Name(w.cfg.Version)).
		Set("Pages", w.pagesRef)
	if err := w.WriteObject(catalog, w.catalogRef); err != nil {
		return err
	}

	w.created = formatDate(w.cfg.Now())
	info := raw.NewObject()
	if nonBlank(w.cfg.Title) {
		info.Set("Title", raw.String(w.cfg.Title))
	}
	if nonBlank(w.cfg.Subject) {
		info.Set("Subject", raw.String(w.cfg.Subject))
	}
	if nonBlank(w.cfg.Keywords) {
		info.Set("Keywords", raw.String(w.cfg.Keywords))
	}
	author := w.cfg.Author
	if !nonBlank(author) {
		author = currentUser()
	}
	info.Set("Author", raw.String(author)).
		Set("Creator", raw.String(w.cfg.Creator)).
		Set("Producer", raw.String(w.cfg.Producer)).
		Set("CreationDate", raw.String(w.created))
	return w.WriteObject(info, w.infoRef)
}

// fail records the first sink error. Every later operation returns it.
func (w *Writer) fail(op string, err error) error {
	if w.err == nil {
		w.err = fmt.Errorf("writer: %s: %w", op, err)
		w.log.Error("output failed", observability.String("op", op), observability.Error("err", err))
	}
	return w.err
}

func (w *Writer) usable() error {
	if w.closed {
		return ErrClosed
	}
	return w.err
}

// Reserve allocates the next object identity. The object may be written
// later with WriteObject; identities never written appear as free entries
// in the cross-reference table.
func (w *Writer) Reserve() raw.ObjectRef {
	w.offsets = append(w.offsets, -1)
	return raw.ObjectRef{Num: len(w.offsets), Gen: w.gen}
}

// Write reserves an identity for obj and writes it.
func (w *Writer) Write(obj *raw.Object) (raw.ObjectRef, error) {
	if err := w.usable(); err != nil {
		return raw.ObjectRef{}, err
	}
	ref := w.Reserve()
	if err := w.WriteObject(obj, ref); err != nil {
		return raw.ObjectRef{}, err
	}
	return ref, nil
}

// WriteObject serializes obj as the indirect object ref. ref must have been
// reserved by this writer and not written before.
func (w *Writer) WriteObject(obj *raw.Object, ref raw.ObjectRef) error {
	if err := w.usable(); err != nil {
		return err
	}
	return w.writeObject(obj, ref)
}

func (w *Writer) writeObject(obj *raw.Object, ref raw.ObjectRef) error {
	if ref.Num < 1 || ref.Num > len(w.offsets) || ref.Gen != w.gen {
		return fmt.Errorf("%w: %s was not issued by this writer", ErrInvalidReference, ref)
	}
	if w.offsets[ref.Num-1] >= 0 {
		return fmt.Errorf("%w: %s already written", ErrInvalidReference, ref)
	}
	if obj == nil {
		obj = &raw.Object{}
	}
	if err := checkObject(obj); err != nil {
		return fmt.Errorf("object %s: %w", ref, err)
	}
	for _, ic := range w.cfg.Interceptors {
		if err := ic.BeforeWrite(ref, obj); err != nil {
			return err
		}
	}

	var (
		b         strings.Builder
		payload   []byte
		hasStream bool
	)
	b.WriteString(strconv.Itoa(ref.Num) + " " + strconv.Itoa(ref.Gen) + " obj\n")
	if obj.HasBody() {
		b.WriteString("<<\n")
		for _, key := range obj.Dict.Keys() {
			if obj.Stream != nil && (key == "Length" || key == "Filter") {
				continue
			}
			v, _ := obj.Dict.Get(key)
			b.WriteString(key.String())
			b.WriteByte(' ')
			b.WriteString(v.String())
			b.WriteByte('\n')
		}
		switch s := obj.Stream.(type) {
		case nil:
			b.WriteString(">>\n")
		case *raw.BinaryStream:
			hasStream = true
			payload = s.Data
			b.WriteString("/Length " + strconv.Itoa(len(payload)) + "\n")
			if s.Filter != "" {
				b.WriteString("/Filter " + filterArray(s.Filter) + "\n")
			}
			b.WriteString(">>\nstream\n")
		case *raw.TextStream:
			hasStream = true
			data, filter, err := w.encodeText(s.String())
			if err != nil {
				return fmt.Errorf("object %s: %w", ref, err)
			}
			payload = data
			if filter != "" {
				b.WriteString("/Filter " + filterArray(filter) + "\n")
			}
			b.WriteString("/Length " + strconv.Itoa(len(payload)) + "\n")
			b.WriteString(">>\nstream\n")
		}
	}

	start := w.sink.Position()
	w.offsets[ref.Num-1] = start
	if hasStream {
		if err := w.sink.WriteText(b.String()); err != nil {
			return w.fail("write object", err)
		}
		if err := w.sink.WriteBytes(payload); err != nil {
			return w.fail("write stream", err)
		}
		b.Reset()
		b.WriteString("\nendstream\n")
	}
	b.WriteString("endobj\n")
	if err := w.sink.WriteText(b.String()); err != nil {
		return w.fail("write object", err)
	}

	n := w.sink.Position() - start
	w.log.Debug("object written", observability.Int("num", ref.Num), observability.Int64("bytes", n))
	for _, ic := range w.cfg.Interceptors {
		if err := ic.AfterWrite(ref, obj, n); err != nil {
			return err
		}
	}
	return nil
}

// checkObject rejects values writeObject cannot render.
func checkObject(obj *raw.Object) error {
	switch s := obj.Stream.(type) {
	case *raw.TextStream:
		if s == nil {
			return fmt.Errorf("%w: nil text stream", ErrInvalidObject)
		}
	case *raw.BinaryStream:
		if s == nil {
			return fmt.Errorf("%w: nil binary stream", ErrInvalidObject)
		}
	}
	for _, key := range obj.Dict.Keys() {
		v, _ := obj.Dict.Get(key)
		if err := checkValue(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func checkValue(v raw.Value) error {
	switch v := v.(type) {
	case nil:
		return fmt.Errorf("%w: nil value", ErrInvalidObject)
	case *raw.Dict:
		for _, key := range v.Keys() {
			inner, _ := v.Get(key)
			if err := checkValue(inner); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	case raw.Array:
		for i, inner := range v {
			if err := checkValue(inner); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// encodeText converts a text stream to its stored bytes and returns the
// name of the filter applied, if any.
func (w *Writer) encodeText(text string) ([]byte, raw.Name, error) {
	data, err := filters.EncodeTextWith(w.cfg.TextEncoding, text)
	if err != nil {
		return nil, "", err
	}
	if w.cfg.TextFilter == nil {
		return data, "", nil
	}
	out, err := w.cfg.TextFilter.Encode(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", w.cfg.TextFilter.Name(), err)
	}
	return out, w.cfg.TextFilter.Name(), nil
}

// RegisterFont writes f once per font name and returns its reference.
// Later registrations of the same name return the first reference.
func (w *Writer) RegisterFont(f fonts.Font) (raw.ObjectRef, error) {
	if err := w.usable(); err != nil {
		return raw.ObjectRef{}, err
	}
	name := raw.Name(f.Name())
	if ref, ok := w.res.Lookup(resources.CategoryFont, name); ok {
		return ref, nil
	}
	ref := w.Reserve()
	obj, err := f.Object(w)
	if err != nil {
		return raw.ObjectRef{}, fmt.Errorf("font %s: %w", f.Name(), err)
	}
	if err := w.WriteObject(obj, ref); err != nil {
		return raw.ObjectRef{}, err
	}
	w.res.Register(resources.CategoryFont, name, ref)
	return ref, nil
}

// AddXObject writes obj as an external object named after its reference
// and makes it available to every page.
func (w *Writer) AddXObject(obj *raw.Object) (raw.ObjectRef, error) {
	if err := w.usable(); err != nil {
		return raw.ObjectRef{}, err
	}
	if obj == nil {
		obj = raw.NewObject()
	}
	if obj.Dict == nil {
		obj.Dict = raw.NewDict()
	}
	ref := w.Reserve()
	name := ref.DefaultName()
	obj.Set("Type", raw.Name("XObject"))
	if !obj.Dict.Has("Subtype") {
		obj.Set("Subtype", raw.Name("Form"))
	}
	obj.Set("Name", name)
	if err := w.WriteObject(obj, ref); err != nil {
		return raw.ObjectRef{}, err
	}
	w.res.Register(resources.CategoryXObject, name, ref)
	return ref, nil
}

// XObjectName returns the resource name of an external object.
func (w *Writer) XObjectName(ref raw.ObjectRef) (raw.Name, bool) {
	return w.res.NameOf(resources.CategoryXObject, ref)
}

// ImageAspectRatio returns height divided by width of an image added with
// one of the Add image methods.
func (w *Writer) ImageAspectRatio(ref raw.ObjectRef) (float64, bool) {
	r, ok := w.ratios[ref]
	return r, ok
}

// Offset returns the file offset of a written object.
func (w *Writer) Offset(ref raw.ObjectRef) (int64, bool) {
	if ref.Num < 1 || ref.Num > len(w.offsets) || ref.Gen != w.gen {
		return 0, false
	}
	off := w.offsets[ref.Num-1]
	return off, off >= 0
}

// Position returns the number of bytes produced so far.
func (w *Writer) Position() int64 { return w.sink.Position() }

// Objects returns the number of identities reserved so far.
func (w *Writer) Objects() int { return len(w.offsets) }

// Pages returns the number of pages written so far.
func (w *Writer) Pages() int { return len(w.pages) }

func (w *Writer) writePage(page *raw.Object) (raw.ObjectRef, error) {
	page.Set("Type", raw.Name("Page")).
		Set("Parent", w.pagesRef).
		Set("Resources", w.resourcesRef)
	ref, err := w.Write(page)
	if err != nil {
		return raw.ObjectRef{}, err
	}
	w.pages = append(w.pages, ref)
	return ref, nil
}

// Close finishes the document and closes the destination when it is an
// io.Closer. Calling Close again returns nil and writes nothing.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, span := w.cfg.Tracer.StartSpan(context.Background(), "writer.Close")
	defer span.Finish()

	var openErr error
	if w.openPages > 0 {
		openErr = fmt.Errorf("%w: %d page(s) still open", ErrOpenPage, w.openPages)
		w.log.Warn("closing with open pages", observability.Int("open", w.openPages))
	}
	finishErr := w.err
	if finishErr == nil {
		finishErr = w.finish()
	}
	err := errors.Join(openErr, finishErr, w.release(finishErr == nil))
	if err != nil {
		span.SetError(err)
		return err
	}

	span.SetTag(observability.MetricBytesWritten, w.sink.Position())
	w.log.Info("document finalized",
		observability.Int(observability.MetricObjectCount, len(w.offsets)),
		observability.Int(observability.MetricPageCount, len(w.pages)),
		observability.Int64(observability.MetricBytesWritten, w.sink.Position()),
		observability.Int64(observability.MetricWriteTime, time.Since(w.started).Milliseconds()))
	return nil
}

func (w *Writer) finish() error {
	res := raw.NewObject()
	res.Set("ProcSet", raw.Array{raw.Name("PDF"), raw.Name("Text"), raw.Name("ImageB"), raw.Name("ImageC")})
	dict := w.res.Dict()
	for _, key := range dict.Keys() {
		v, _ := dict.Get(key)
		res.Set(key, v)
	}
	if err := w.writeObject(res, w.resourcesRef); err != nil {
		return err
	}

	pages := raw.NewObject()
	pages.Set("Type", raw.Name("Pages")).
		Set("Count", raw.Integer(len(w.pages))).
		Set("Kids", raw.Refs(w.pages))
	if err := w.writeObject(pages, w.pagesRef); err != nil {
		return err
	}

	xrefStart := w.sink.Position()
	var b strings.Builder
	b.WriteString("xref\r\n")
	fmt.Fprintf(&b, "0 %d\r\n", len(w.offsets)+1)
	b.WriteString("0000000000 65535 f\r\n")
	for _, off := range w.offsets {
		if off < 0 {
			fmt.Fprintf(&b, "%010d %05d f\r\n", 0, w.gen)
		} else {
			fmt.Fprintf(&b, "%010d %05d n\r\n", off, w.gen)
		}
	}
	id := "<" + w.fileID() + ">"
	b.WriteString("trailer\n<<\n")
	fmt.Fprintf(&b, "/Size %d\n", len(w.offsets)+1)
	b.WriteString("/Root " + w.catalogRef.String() + "\n")
	b.WriteString("/Info " + w.infoRef.String() + "\n")
	b.WriteString("/ID [" + id + id + "]\n")
	b.WriteString(">>\nstartxref\n")
	fmt.Fprintf(&b, "%d\n%%%%EOF\n", xrefStart)
	if err := w.sink.WriteText(b.String()); err != nil {
		return w.fail("write trailer", err)
	}
	return nil
}

// release flushes buffered output and closes the destination.
func (w *Writer) release(flush bool) error {
	var errs []error
	if flush {
		if err := w.sink.Flush(); err != nil {
			errs = append(errs, w.fail("flush", err))
		}
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("writer: close destination: %w", err))
		}
	}
	return errors.Join(errs...)
}
