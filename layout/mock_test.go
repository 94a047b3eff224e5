package layout

import (
	"image"

	"github.com/wudi/pdfwrite/builder"
	"github.com/wudi/pdfwrite/contentstream"
	"github.com/wudi/pdfwrite/fonts"
	"github.com/wudi/pdfwrite/writer"
)

// --- Mocks ---

type MockBuilder struct {
	Pages      []*MockPageBuilder
	Images     map[string]float64
	ImageFiles map[string]string
	Error      error
}

func (m *MockBuilder) NewPage(width, height float64) builder.PageBuilder {
	p := &MockPageBuilder{parent: m, Width: width, Height: height}
	m.Pages = append(m.Pages, p)
	return p
}

func (m *MockBuilder) NewPageFormat(format writer.PageFormat) builder.PageBuilder {
	return m.NewPage(format.Size())
}

func (m *MockBuilder) MeasureText(text string, fontSize float64, fontName string) float64 {
	return float64(len(text)) * fontSize * 0.5
}

func (m *MockBuilder) AddImageFile(name, path string) builder.PDFBuilder {
	if m.Images == nil {
		m.Images = make(map[string]float64)
		m.ImageFiles = make(map[string]string)
	}
	m.Images[name] = 0.5
	m.ImageFiles[name] = path
	return m
}

func (m *MockBuilder) ImageAspectRatio(name string) (float64, bool) {
	r, ok := m.Images[name]
	return r, ok
}

// Stubs for other methods
func (m *MockBuilder) RegisterFont(name string, font fonts.Font) builder.PDFBuilder     { return m }
func (m *MockBuilder) RegisterTrueTypeFont(name string, data []byte) builder.PDFBuilder { return m }
func (m *MockBuilder) AddImage(name string, img image.Image) builder.PDFBuilder         { return m }
func (m *MockBuilder) AddJPEG(name string, data []byte) builder.PDFBuilder              { return m }
func (m *MockBuilder) Err() error                                                       { return m.Error }
func (m *MockBuilder) Close() error                                                     { return m.Error }

// texts returns every text drawn on any page.
func (m *MockBuilder) texts() []DrawnText {
	var out []DrawnText
	for _, p := range m.Pages {
		out = append(out, p.DrawnTexts...)
	}
	return out
}

type MockPageBuilder struct {
	parent        *MockBuilder
	Width, Height float64
	DrawnTexts    []DrawnText
	DrawnImages   []DrawnImage
	DrawnTables   []DrawnTable
	DrawnLines    []builder.LineOptions
	DrawnRects    []builder.RectOptions
	Finished      bool
}

type DrawnText struct {
	Text string
	X, Y float64
	Opts builder.TextOptions
}

type DrawnImage struct {
	Name       string
	X, Y, W, H float64
}

type DrawnTable struct {
	Table builder.Table
	Opts  builder.TableOptions
}

func (m *MockPageBuilder) DrawText(text string, x, y float64, opts builder.TextOptions) builder.PageBuilder {
	m.DrawnTexts = append(m.DrawnTexts, DrawnText{Text: text, X: x, Y: y, Opts: opts})
	return m
}

func (m *MockPageBuilder) DrawImage(name string, x, y, width, height float64, opts builder.ImageOptions) builder.PageBuilder {
	m.DrawnImages = append(m.DrawnImages, DrawnImage{Name: name, X: x, Y: y, W: width, H: height})
	return m
}

func (m *MockPageBuilder) DrawTable(table builder.Table, opts builder.TableOptions) builder.PageBuilder {
	m.DrawnTables = append(m.DrawnTables, DrawnTable{Table: table, Opts: opts})
	// Simulate table height for layout
	if opts.FinalY != nil {
		*opts.FinalY = opts.Y - 100
	}
	return m
}

func (m *MockPageBuilder) DrawLine(x1, y1, x2, y2 float64, opts builder.LineOptions) builder.PageBuilder {
	m.DrawnLines = append(m.DrawnLines, opts)
	return m
}

func (m *MockPageBuilder) DrawRectangle(x, y, width, height float64, opts builder.RectOptions) builder.PageBuilder {
	m.DrawnRects = append(m.DrawnRects, opts)
	return m
}

func (m *MockPageBuilder) Finish() builder.PDFBuilder {
	m.Finished = true
	return m.parent
}

func (m *MockPageBuilder) Size() (float64, float64) { return m.Width, m.Height }

// Stubs for other methods
func (m *MockPageBuilder) DrawTextBlock(text string, x, y, width float64, opts builder.TextOptions) builder.PageBuilder {
	return m
}
func (m *MockPageBuilder) DrawPath(path *contentstream.Path, opts builder.PathOptions) builder.PageBuilder {
	return m
}
func (m *MockPageBuilder) DrawCircle(x, y, r float64, opts builder.PathOptions) builder.PageBuilder {
	return m
}
func (m *MockPageBuilder) SetRotation(degrees int) builder.PageBuilder { return m }
