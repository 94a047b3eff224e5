package builder

import (
	"errors"
	"fmt"
	"image"

	"github.com/wudi/pdfwrite/contentstream"
	"github.com/wudi/pdfwrite/fonts"
	"github.com/wudi/pdfwrite/ir/raw"
	"github.com/wudi/pdfwrite/writer"
)

// PDFBuilder provides a fluent API for PDF construction. Pages are streamed
// to the underlying writer as they are finished.
type PDFBuilder interface {
	NewPage(width, height float64) PageBuilder
	NewPageFormat(format writer.PageFormat) PageBuilder
	RegisterFont(name string, font fonts.Font) PDFBuilder
	RegisterTrueTypeFont(name string, data []byte) PDFBuilder
	AddImage(name string, img image.Image) PDFBuilder
	AddJPEG(name string, data []byte) PDFBuilder
	AddImageFile(name, path string) PDFBuilder
	// ImageAspectRatio returns height over width of an added image.
	ImageAspectRatio(name string) (float64, bool)
	MeasureText(text string, fontSize float64, fontName string) float64
	// Err returns the first error met by any builder call.
	Err() error
	// Close finishes open pages and the document.
	Close() error
}

// PageBuilder provides a fluent API for page construction.
type PageBuilder interface {
	DrawText(text string, x, y float64, opts TextOptions) PageBuilder
	DrawTextBlock(text string, x, y, width float64, opts TextOptions) PageBuilder
	DrawPath(path *contentstream.Path, opts PathOptions) PageBuilder
	DrawImage(name string, x, y, width, height float64, opts ImageOptions) PageBuilder
	DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder
	DrawCircle(x, y, r float64, opts PathOptions) PageBuilder
	DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder
	DrawTable(table Table, opts TableOptions) PageBuilder
	SetRotation(degrees int) PageBuilder
	Size() (width, height float64)
	Finish() PDFBuilder
}

// Color is an RGB color with components in [0, 1].
type Color = contentstream.Color

// TextOptions configures text drawing. Font names a font registered with
// the builder or one of the standard fonts.
type TextOptions struct {
	Font         string
	FontSize     float64
	Color        Color
	RenderMode   contentstream.TextRenderMode
	CharSpacing  float64
	WordSpacing  float64
	HorizScaling float64
	Rise         float64
	Leading      float64
}

// PathOptions configures path drawing.
type PathOptions = contentstream.GraphicsOptions

// RectOptions configures rectangle drawing (defaults to stroke if neither fill nor stroke is set).
type RectOptions = PathOptions

// LineOptions configures line drawing.
type LineOptions struct {
	StrokeColor Color
	LineWidth   float64
	LineCap     contentstream.LineCap
	DashPattern []float64
	DashPhase   float64
}

// ImageOptions configures image drawing.
type ImageOptions struct {
	Placement writer.ImagePlacement
}

var ErrUnknownFont = errors.New("builder: unknown font")

type builderImpl struct {
	w           *writer.Writer
	fonts       map[string]fonts.Font
	images      map[string]raw.ObjectRef
	defaultFont string
	open        []*pageBuilderImpl
	err         error
}

type pageBuilderImpl struct {
	parent   *builderImpl
	page     *writer.Page
	script   *contentstream.Script
	rotation int
	finished bool
}

// NewBuilder constructs a PDFBuilder writing to w. Close closes w.
func NewBuilder(w *writer.Writer) PDFBuilder {
	return &builderImpl{
		w:      w,
		fonts:  make(map[string]fonts.Font),
		images: make(map[string]raw.ObjectRef),
	}
}

func (b *builderImpl) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

func (b *builderImpl) Err() error { return b.err }

func (b *builderImpl) NewPage(w, h float64) PageBuilder {
	p := &pageBuilderImpl{parent: b, page: b.w.NewPage(w, h), script: contentstream.NewScript()}
	b.open = append(b.open, p)
	return p
}

func (b *builderImpl) NewPageFormat(format writer.PageFormat) PageBuilder {
	return b.NewPage(format.Size())
}

// RegisterFont makes font available under name. The first registered font
// becomes the default.
func (b *builderImpl) RegisterFont(name string, font fonts.Font) PDFBuilder {
	if font == nil {
		return b
	}
	b.fonts[name] = font
	if b.defaultFont == "" {
		b.defaultFont = name
	}
	return b
}

func (b *builderImpl) RegisterTrueTypeFont(name string, data []byte) PDFBuilder {
	font, err := fonts.LoadTrueType(name, data)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.RegisterFont(name, font)
}

func (b *builderImpl) AddImage(name string, img image.Image) PDFBuilder {
	return b.addImage(name, func() (raw.ObjectRef, error) { return b.w.AddImage(img) })
}

func (b *builderImpl) AddJPEG(name string, data []byte) PDFBuilder {
	return b.addImage(name, func() (raw.ObjectRef, error) { return b.w.AddJPEG(data) })
}

func (b *builderImpl) AddImageFile(name, path string) PDFBuilder {
	return b.addImage(name, func() (raw.ObjectRef, error) { return b.w.AddImageFile(path) })
}

func (b *builderImpl) addImage(name string, add func() (raw.ObjectRef, error)) PDFBuilder {
	if b.err != nil {
		return b
	}
	ref, err := add()
	if err != nil {
		b.fail(fmt.Errorf("image %s: %w", name, err))
		return b
	}
	b.images[name] = ref
	return b
}

func (b *builderImpl) ImageAspectRatio(name string) (float64, bool) {
	ref, ok := b.images[name]
	if !ok {
		return 0, false
	}
	return b.w.ImageAspectRatio(ref)
}

// lookupFont resolves a font name; the empty name selects the default font.
func (b *builderImpl) lookupFont(name string) (fonts.Font, bool) {
	if name == "" {
		name = b.defaultFont
		if name == "" {
			return fonts.Helvetica, true
		}
	}
	if f, ok := b.fonts[name]; ok {
		return f, true
	}
	if f, ok := fonts.StandardFont(name); ok {
		return f, true
	}
	return nil, false
}

func (b *builderImpl) font(name string) (fonts.Font, bool) {
	f, ok := b.lookupFont(name)
	if !ok {
		b.fail(fmt.Errorf("%w: %q", ErrUnknownFont, name))
	}
	return f, ok
}

// MeasureText returns the width of the widest line of text in points.
// Unknown fonts are measured as Helvetica.
func (b *builderImpl) MeasureText(text string, fontSize float64, fontName string) float64 {
	f, ok := b.lookupFont(fontName)
	if !ok {
		f = fonts.Helvetica
	}
	if fontSize <= 0 {
		fontSize = 12
	}
	return fonts.StringWidth(f, text, fontSize)
}

func (b *builderImpl) Close() error {
	for len(b.open) > 0 {
		b.open[0].Finish()
	}
	return errors.Join(b.err, b.w.Close())
}

func (p *pageBuilderImpl) usable() bool {
	return !p.finished && p.parent.err == nil
}

func (p *pageBuilderImpl) Size() (float64, float64) {
	return p.page.Width(), p.page.Height()
}

func (p *pageBuilderImpl) textOptions(opts TextOptions) (contentstream.TextOptions, bool) {
	f, ok := p.parent.font(opts.Font)
	return contentstream.TextOptions{
		Font:         f,
		FontSize:     opts.FontSize,
		Color:        opts.Color,
		RenderMode:   opts.RenderMode,
		CharSpacing:  opts.CharSpacing,
		WordSpacing:  opts.WordSpacing,
		HorizScaling: opts.HorizScaling,
		Rise:         opts.Rise,
		Leading:      opts.Leading,
	}, ok
}

func (p *pageBuilderImpl) DrawText(text string, x, y float64, opts TextOptions) PageBuilder {
	if !p.usable() {
		return p
	}
	to, ok := p.textOptions(opts)
	if !ok {
		return p
	}
	p.script.Save().BeginText()
	to.Apply(p.script, x, y)
	p.script.DrawText(text)
	p.script.EndText().Restore()
	return p
}

// DrawTextBlock wraps text to width before drawing it.
func (p *pageBuilderImpl) DrawTextBlock(text string, x, y, width float64, opts TextOptions) PageBuilder {
	if !p.usable() {
		return p
	}
	to, ok := p.textOptions(opts)
	if !ok {
		return p
	}
	return p.DrawText(fonts.SplitText(to.Font, text, to.Size(), width), x, y, opts)
}

func (p *pageBuilderImpl) DrawPath(path *contentstream.Path, opts PathOptions) PageBuilder {
	if path == nil || !p.usable() {
		return p
	}
	p.script.Save()
	opts.Apply(p.script)
	p.script.AppendPath(*path)
	opts.Paint(p.script, false)
	p.script.Restore()
	return p
}

func (p *pageBuilderImpl) DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder {
	if !p.usable() {
		return p
	}
	p.script.Save()
	opts.Apply(p.script)
	p.script.Rectangle(x, y, width, height)
	opts.Paint(p.script, true)
	p.script.Restore()
	return p
}

func (p *pageBuilderImpl) DrawCircle(x, y, r float64, opts PathOptions) PageBuilder {
	if !p.usable() {
		return p
	}
	p.script.Save()
	opts.Apply(p.script)
	p.script.Circle(x, y, r)
	opts.Paint(p.script, true)
	p.script.Restore()
	return p
}

func (p *pageBuilderImpl) DrawLine(x1, y1, x2, y2 float64, opts LineOptions) PageBuilder {
	if !p.usable() {
		return p
	}
	g := PathOptions{
		LineWidth:   opts.LineWidth,
		StrokeColor: opts.StrokeColor,
		LineCap:     opts.LineCap,
		DashPattern: opts.DashPattern,
		DashPhase:   opts.DashPhase,
		Stroke:      true,
	}
	p.script.Save()
	g.Apply(p.script)
	p.script.MoveTo(x1, y1).LineTo(x2, y2)
	g.Paint(p.script, false)
	p.script.Restore()
	return p
}

// DrawImage draws an image added under name. A zero height keeps the aspect
// ratio of the image for the given width, and the other way round.
func (p *pageBuilderImpl) DrawImage(name string, x, y, width, height float64, opts ImageOptions) PageBuilder {
	if !p.usable() {
		return p
	}
	b := p.parent
	ref, ok := b.images[name]
	if !ok {
		b.fail(fmt.Errorf("%w: image %q", writer.ErrUnknownXObject, name))
		return p
	}
	xname, _ := b.w.XObjectName(ref)
	aspect, _ := b.w.ImageAspectRatio(ref)
	switch {
	case height == 0 && aspect > 0:
		height = width * aspect
	case width == 0 && aspect > 0:
		width = height / aspect
	}
	x, y, width, height = writer.PlaceImage(x, y, width, height, aspect, opts.Placement)
	p.script.DrawImage(x, y, width, height, xname)
	return p
}

func (p *pageBuilderImpl) SetRotation(degrees int) PageBuilder {
	p.rotation = normalizeRotation(degrees)
	p.page.Set("Rotate", raw.Integer(p.rotation))
	return p
}

// Finish writes the page content and the page itself.
func (p *pageBuilderImpl) Finish() PDFBuilder {
	b := p.parent
	if p.finished {
		return b
	}
	p.finished = true
	for i, o := range b.open {
		if o == p {
			b.open = append(b.open[:i], b.open[i+1:]...)
			break
		}
	}
	if b.err == nil && p.script.Len() > 0 {
		if _, err := p.page.WriteScript(p.script); err != nil {
			b.fail(err)
		}
	}
	b.fail(p.page.Close())
	return b
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg - deg%90
}
