package writer

import (
	"fmt"
	"image"

	"github.com/wudi/pdfwrite/contentstream"
	"github.com/wudi/pdfwrite/fonts"
	"github.com/wudi/pdfwrite/ir/raw"
)

// Page collects the content streams of one page. Every draw call writes
// one content object immediately; the page object itself is written by
// Close.
type Page struct {
	w        *Writer
	dict     *raw.Object
	contents []raw.ObjectRef
	width    float64
	height   float64
}

// NewPage starts a page of the given size in points.
func (w *Writer) NewPage(width, height float64) *Page {
	dict := raw.NewObject()
	dict.Set("Type", raw.Name("Page")).
		Set("MediaBox", raw.Numbers(0, 0, width, height))
	w.openPages++
	return &Page{w: w, dict: dict, width: width, height: height}
}

// NewPageFormat starts a page of a standard paper size.
func (w *Writer) NewPageFormat(f PageFormat) *Page {
	width, height := f.Size()
	return w.NewPage(width, height)
}

func (p *Page) Width() float64  { return p.width }
func (p *Page) Height() float64 { return p.height }

// Contents returns the content objects written so far.
func (p *Page) Contents() []raw.ObjectRef {
	return append([]raw.ObjectRef(nil), p.contents...)
}

// Set adds an entry to the page dictionary, for instance /Rotate.
func (p *Page) Set(key raw.Name, value raw.Value) *Page {
	p.dict.Set(key, value)
	return p
}

// WriteScript registers the fonts used by s and writes s as a content
// object of the page.
func (p *Page) WriteScript(s *contentstream.Script) (raw.ObjectRef, error) {
	if p.w == nil {
		return raw.ObjectRef{}, fmt.Errorf("page: %w", ErrClosed)
	}
	for _, f := range s.Fonts() {
		if _, err := p.w.RegisterFont(f); err != nil {
			return raw.ObjectRef{}, err
		}
	}
	obj, err := s.Object()
	if err != nil {
		return raw.ObjectRef{}, err
	}
	ref, err := p.w.Write(obj)
	if err != nil {
		return raw.ObjectRef{}, err
	}
	p.contents = append(p.contents, ref)
	return ref, nil
}

func (p *Page) shape(o contentstream.GraphicsOptions, close bool, path func(s *contentstream.Script)) (raw.ObjectRef, error) {
	s := contentstream.NewScript()
	s.Save()
	o.Apply(s)
	path(s)
	o.Paint(s, close)
	s.Restore()
	return p.WriteScript(s)
}

// DrawLine strokes a line. Fill settings of o are ignored.
func (p *Page) DrawLine(x1, y1, x2, y2 float64, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	o.Fill, o.Stroke = false, true
	return p.shape(o, false, func(s *contentstream.Script) {
		s.MoveTo(x1, y1).LineTo(x2, y2)
	})
}

func (p *Page) DrawRectangle(x, y, width, height float64, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	return p.shape(o, true, func(s *contentstream.Script) {
		s.Rectangle(x, y, width, height)
	})
}

// DrawRectangle2 draws the rectangle spanned by two opposite corners.
func (p *Page) DrawRectangle2(x1, y1, x2, y2 float64, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	return p.shape(o, true, func(s *contentstream.Script) {
		s.Rectangle2(x1, y1, x2, y2)
	})
}

func (p *Page) DrawCircle(x, y, r float64, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	return p.shape(o, true, func(s *contentstream.Script) {
		s.Circle(x, y, r)
	})
}

// DrawOval draws the ellipse inscribed in the given rectangle.
func (p *Page) DrawOval(x, y, width, height float64, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	return p.shape(o, true, func(s *contentstream.Script) {
		s.Oval(x, y, width, height)
	})
}

func (p *Page) DrawOval2(x1, y1, x2, y2 float64, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	return p.shape(o, true, func(s *contentstream.Script) {
		s.Oval2(x1, y1, x2, y2)
	})
}

func (p *Page) DrawPath(path contentstream.Path, o contentstream.GraphicsOptions) (raw.ObjectRef, error) {
	return p.shape(o, false, func(s *contentstream.Script) {
		s.AppendPath(path)
	})
}

// DrawText draws text with its first baseline at (x, y). Line feeds start
// new lines.
func (p *Page) DrawText(x, y float64, text string, o contentstream.TextOptions) (raw.ObjectRef, error) {
	s := contentstream.NewScript()
	s.Save().BeginText()
	o.Apply(s, x, y)
	s.DrawText(text)
	s.EndText().Restore()
	return p.WriteScript(s)
}

// DrawTextBlock wraps text to width before drawing it.
func (p *Page) DrawTextBlock(x, y float64, text string, width float64, o contentstream.TextOptions) (raw.ObjectRef, error) {
	return p.DrawText(x, y, fonts.SplitText(o.FontOrDefault(), text, o.Size(), width), o)
}

// DrawImageRef draws an image added to the writer into the given box.
func (p *Page) DrawImageRef(x, y float64, ref raw.ObjectRef, width, height float64, placement ImagePlacement) (raw.ObjectRef, error) {
	if p.w == nil {
		return raw.ObjectRef{}, fmt.Errorf("page: %w", ErrClosed)
	}
	name, ok := p.w.XObjectName(ref)
	if !ok {
		return raw.ObjectRef{}, fmt.Errorf("%w: %s", ErrUnknownXObject, ref)
	}
	if placement != Stretch {
		if aspect, ok := p.w.ImageAspectRatio(ref); ok {
			x, y, width, height = PlaceImage(x, y, width, height, aspect, placement)
		}
	}
	s := contentstream.NewScript()
	s.DrawImage(x, y, width, height, name)
	return p.WriteScript(s)
}

// DrawImageWidth draws an image at the given width, keeping its aspect
// ratio.
func (p *Page) DrawImageWidth(x, y float64, ref raw.ObjectRef, width float64) (raw.ObjectRef, error) {
	if p.w == nil {
		return raw.ObjectRef{}, fmt.Errorf("page: %w", ErrClosed)
	}
	aspect, ok := p.w.ImageAspectRatio(ref)
	if !ok {
		return raw.ObjectRef{}, fmt.Errorf("%w: %s has no aspect ratio", ErrUnknownXObject, ref)
	}
	return p.DrawImageRef(x, y, ref, width, width*aspect, Stretch)
}

// DrawImage adds img to the writer and draws it into the given box.
func (p *Page) DrawImage(x, y float64, img image.Image, width, height float64, placement ImagePlacement) (raw.ObjectRef, error) {
	if p.w == nil {
		return raw.ObjectRef{}, fmt.Errorf("page: %w", ErrClosed)
	}
	ref, err := p.w.AddImage(img)
	if err != nil {
		return raw.ObjectRef{}, err
	}
	return p.DrawImageRef(x, y, ref, width, height, placement)
}

// DrawXObjectRef paints an external object with its origin at (x, y).
func (p *Page) DrawXObjectRef(x, y float64, ref raw.ObjectRef) (raw.ObjectRef, error) {
	if p.w == nil {
		return raw.ObjectRef{}, fmt.Errorf("page: %w", ErrClosed)
	}
	name, ok := p.w.XObjectName(ref)
	if !ok {
		return raw.ObjectRef{}, fmt.Errorf("%w: %s", ErrUnknownXObject, ref)
	}
	s := contentstream.NewScript()
	s.Save().Translate(x, y).DrawXObject(name).Restore()
	return p.WriteScript(s)
}

// Close writes the page object. The page cannot be drawn on afterwards;
// calling Close again does nothing.
func (p *Page) Close() error {
	if p.w == nil {
		return nil
	}
	w := p.w
	p.w = nil
	w.openPages--
	if len(p.contents) > 0 {
		p.dict.Set("Contents", raw.Refs(p.contents))
	}
	_, err := w.writePage(p.dict)
	return err
}
