package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfwrite/builder"
	"github.com/wudi/pdfwrite/contentstream"
	"github.com/wudi/pdfwrite/writer"
)

// Engine handles the layout and rendering of structured content (Markdown/HTML/text) into PDF pages.
type Engine struct {
	b builder.PDFBuilder

	// Configuration
	DefaultFont     string
	BoldFont        string
	ItalicFont      string
	BoldItalicFont  string
	CodeFont        string
	DefaultFontSize float64
	LineHeight      float64 // Multiplier, e.g., 1.2
	Margins         Margins
	// ImageDir resolves relative image sources. Images are only embedded
	// when it is set; otherwise their alternative text is drawn.
	ImageDir  string
	LinkColor builder.Color

	// State
	currentPage builder.PageBuilder
	cursorY     float64
	indent      float64
	textColor   builder.Color
	pageWidth   float64
	pageHeight  float64
	pages       int
}

// Margins defines page margins in points.
type Margins struct {
	Top, Bottom, Left, Right float64
}

// Option defines a configuration option for the Engine.
type Option func(*Engine)

// WithDefaultFont sets the default font.
func WithDefaultFont(font string) Option {
	return func(e *Engine) {
		e.DefaultFont = font
	}
}

// WithStyleFonts sets the fonts used for bold, italic and bold italic text.
func WithStyleFonts(bold, italic, boldItalic string) Option {
	return func(e *Engine) {
		e.BoldFont = bold
		e.ItalicFont = italic
		e.BoldItalicFont = boldItalic
	}
}

// WithCodeFont sets the font for code spans and blocks.
func WithCodeFont(font string) Option {
	return func(e *Engine) {
		e.CodeFont = font
	}
}

// WithDefaultFontSize sets the default font size.
func WithDefaultFontSize(size float64) Option {
	return func(e *Engine) {
		e.DefaultFontSize = size
	}
}

// WithLineHeight sets the line height multiplier.
func WithLineHeight(height float64) Option {
	return func(e *Engine) {
		e.LineHeight = height
	}
}

// WithMargins sets the page margins.
func WithMargins(margins Margins) Option {
	return func(e *Engine) {
		e.Margins = margins
	}
}

// WithPageSize sets the page dimensions.
func WithPageSize(width, height float64) Option {
	return func(e *Engine) {
		e.pageWidth = width
		e.pageHeight = height
	}
}

// WithPaperSize sets the page dimensions using a standard paper size.
func WithPaperSize(format writer.PageFormat) Option {
	return func(e *Engine) {
		e.pageWidth, e.pageHeight = format.Size()
	}
}

// WithImageDir sets the directory relative image sources are read from.
func WithImageDir(dir string) Option {
	return func(e *Engine) {
		e.ImageDir = dir
	}
}

// styleVariants lists bold, italic and bold italic faces of the standard
// families.
var styleVariants = map[string][3]string{
	"Helvetica": {"Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique"},
	"Courier":   {"Courier-Bold", "Courier-Oblique", "Courier-BoldOblique"},
}

// NewEngine creates a new layout engine with optional configuration.
func NewEngine(b builder.PDFBuilder, opts ...Option) *Engine {
	width, height := writer.A4Portrait.Size()
	e := &Engine{
		b:               b,
		DefaultFont:     "Helvetica",
		DefaultFontSize: 12,
		LineHeight:      1.2,
		Margins: Margins{
			Top:    50,
			Bottom: 50,
			Left:   50,
			Right:  50,
		},
		LinkColor:  contentstream.RGB(0, 0, 200),
		pageWidth:  width,
		pageHeight: height,
	}
	for _, opt := range opts {
		opt(e)
	}
	variants, known := styleVariants[e.DefaultFont]
	for i, f := range []*string{&e.BoldFont, &e.ItalicFont, &e.BoldItalicFont} {
		if *f != "" {
			continue
		}
		*f = e.DefaultFont
		if known {
			*f = variants[i]
		}
	}
	if e.CodeFont == "" {
		e.CodeFont = "Courier"
	}
	return e
}

// SetPageSize sets the dimensions for new pages.
func (e *Engine) SetPageSize(width, height float64) {
	e.pageWidth = width
	e.pageHeight = height
}

// Pages returns the number of pages started by the engine.
func (e *Engine) Pages() int { return e.pages }

// Finish ends the current page. The next rendered content starts a new one.
func (e *Engine) Finish() {
	if e.currentPage != nil {
		e.currentPage.Finish()
		e.currentPage = nil
	}
}

// ensurePage makes sure there is a current page and the cursor is valid.
func (e *Engine) ensurePage() {
	if e.currentPage == nil {
		e.newPage()
	}
}

// newPage starts a new page and resets the cursor.
func (e *Engine) newPage() {
	e.currentPage = e.b.NewPage(e.pageWidth, e.pageHeight)
	e.cursorY = e.top()
	e.pages++
}

func (e *Engine) top() float64 { return e.pageHeight - e.Margins.Top }

func (e *Engine) atTop() bool { return e.currentPage == nil || e.cursorY >= e.top() }

// checkPageBreak checks if there is enough space for height; if not, adds a new page.
func (e *Engine) checkPageBreak(height float64) {
	if e.currentPage == nil {
		e.newPage()
		return
	}
	if e.cursorY-height < e.Margins.Bottom && !e.atTop() {
		e.currentPage.Finish()
		e.newPage()
	}
}

func (e *Engine) left() float64 { return e.Margins.Left + e.indent }

func (e *Engine) contentWidth() float64 {
	return e.pageWidth - e.Margins.Right - e.left()
}

func (e *Engine) lineHeight(size float64) float64 { return size * e.LineHeight }

// TextSpan represents a segment of text with specific styling.
type TextSpan struct {
	Text          string
	Font          string
	FontSize      float64
	Color         builder.Color
	Underline     bool
	Strikethrough bool
}

type textStyle uint8

const (
	styleBold textStyle = 1 << iota
	styleItalic
	styleCode
	styleLink
	styleStrike
	styleUnderline
)

func (e *Engine) fontFor(st textStyle) string {
	switch {
	case st&styleCode != 0:
		return e.CodeFont
	case st&styleBold != 0 && st&styleItalic != 0:
		return e.BoldItalicFont
	case st&styleBold != 0:
		return e.BoldFont
	case st&styleItalic != 0:
		return e.ItalicFont
	}
	return e.DefaultFont
}

func (e *Engine) span(text string, st textStyle, size float64) TextSpan {
	s := TextSpan{Text: text, Font: e.fontFor(st), FontSize: size, Color: e.textColor}
	if st&styleLink != 0 {
		s.Color = e.LinkColor
		s.Underline = true
	}
	s.Strikethrough = st&styleStrike != 0
	s.Underline = s.Underline || st&styleUnderline != 0
	return s
}

// paragraphSpacing leaves half the body font size between blocks.
func (e *Engine) paragraphSpacing() {
	if e.currentPage != nil && !e.atTop() {
		e.cursorY -= e.DefaultFontSize / 2
	}
}

// renderHeading draws a heading line. Level 1 is twice the body size.
func (e *Engine) renderHeading(level int, spans []TextSpan) {
	scale := 1.1
	switch level {
	case 1:
		scale = 2
	case 2:
		scale = 1.5
	case 3:
		scale = 1.25
	}
	size := e.DefaultFontSize * scale
	for i := range spans {
		spans[i].FontSize = size
	}
	e.ensurePage()
	if !e.atTop() {
		e.cursorY -= size / 2
	}
	e.renderSpans(spans, e.lineHeight(size))
	e.cursorY -= size / 4
}

// renderCodeBlock draws preformatted lines in the code font on a shaded
// background.
func (e *Engine) renderCodeBlock(lines []string) {
	size := e.DefaultFontSize * 0.9
	lh := e.lineHeight(size)
	e.ensurePage()
	for _, line := range lines {
		line = strings.ReplaceAll(strings.TrimRight(line, "\r\n"), "\t", "    ")
		e.checkPageBreak(lh)
		e.currentPage.DrawRectangle(e.left()-2, e.cursorY-lh, e.contentWidth()+4, lh, builder.RectOptions{
			Fill:      true,
			FillColor: contentstream.Gray(0.95),
		})
		if line != "" {
			e.currentPage.DrawText(line, e.left()+4, e.cursorY-size, builder.TextOptions{Font: e.CodeFont, FontSize: size, Color: e.textColor})
		}
		e.cursorY -= lh
	}
	e.paragraphSpacing()
}

func (e *Engine) renderRule() {
	lh := e.lineHeight(e.DefaultFontSize)
	e.checkPageBreak(lh)
	y := e.cursorY - lh/2
	e.currentPage.DrawLine(e.left(), y, e.left()+e.contentWidth(), y, builder.LineOptions{
		StrokeColor: contentstream.Gray(0.6),
		LineWidth:   0.5,
	})
	e.cursorY -= lh
}

const listIndent = 18.0

// renderListItem draws marker in the left gutter and the item body indented
// next to it.
func (e *Engine) renderListItem(marker string, body func()) {
	size := e.DefaultFontSize
	e.checkPageBreak(e.lineHeight(size))
	e.currentPage.DrawText(marker, e.left(), e.cursorY-size, builder.TextOptions{Font: e.DefaultFont, FontSize: size, Color: e.textColor})
	start := e.cursorY
	e.indent += listIndent
	body()
	e.indent -= listIndent
	if e.cursorY == start {
		e.cursorY -= e.lineHeight(size)
	}
}

// renderQuote draws body indented in a muted color.
func (e *Engine) renderQuote(body func()) {
	saved := e.textColor
	e.textColor = contentstream.Gray(0.35)
	e.indent += listIndent
	body()
	e.indent -= listIndent
	e.textColor = saved
}

// renderImage draws an image scaled to at most the content width, or its
// alternative text when the image cannot be embedded.
func (e *Engine) renderImage(src, alt string) {
	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.ImageDir, src)
	}
	if e.ImageDir == "" || strings.Contains(src, "://") {
		path = ""
	}
	if _, ok := e.b.ImageAspectRatio(src); !ok && path != "" {
		if _, err := os.Stat(path); err == nil {
			e.b.AddImageFile(src, path)
		}
	}
	aspect, ok := e.b.ImageAspectRatio(src)
	if !ok {
		if alt == "" {
			alt = src
		}
		e.ensurePage()
		e.renderSpans([]TextSpan{e.span("["+alt+"]", styleItalic, e.DefaultFontSize)}, e.lineHeight(e.DefaultFontSize))
		return
	}
	width := e.contentWidth()
	height := width * aspect
	if maxHeight := e.top() - e.Margins.Bottom; height > maxHeight {
		height = maxHeight
		width = height / aspect
	}
	e.checkPageBreak(height)
	e.currentPage.DrawImage(src, e.left(), e.cursorY-height, width, height, builder.ImageOptions{})
	e.cursorY -= height
	e.paragraphSpacing()
}

// renderTable draws rows with equal column widths; the first row is the
// header.
func (e *Engine) renderTable(rows [][]string, align []builder.HAlign) {
	if len(rows) == 0 {
		return
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	size := e.DefaultFontSize * 0.9
	rowHeight := size*1.2 + 8
	e.checkPageBreak(rowHeight)

	t := builder.Table{HeaderRows: 1}
	for i := 0; i < cols; i++ {
		t.Columns = append(t.Columns, e.contentWidth()/float64(cols))
	}
	for i, r := range rows {
		row := builder.TableRow{}
		for c := 0; c < cols; c++ {
			cell := builder.TableCell{}
			if c < len(r) {
				cell.Text = r[c]
			}
			if c < len(align) {
				cell.HAlign = align[c]
			}
			if i == 0 {
				cell.Font = e.BoldFont
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	header := contentstream.Gray(0.9)
	var finalY float64
	e.currentPage = e.currentPage.DrawTable(t, builder.TableOptions{
		X:            e.left(),
		Y:            e.cursorY,
		TopMargin:    e.Margins.Top,
		BottomMargin: e.Margins.Bottom,
		DefaultFont:  e.DefaultFont,
		DefaultSize:  size,
		HeaderFill:   &header,
		BorderColor:  contentstream.Gray(0.5),
		FinalY:       &finalY,
	})
	e.cursorY = finalY
	e.paragraphSpacing()
}

// renderSpans lays out spans as wrapped lines starting at the cursor. A
// line feed in a span forces a new line.
func (e *Engine) renderSpans(spans []TextSpan, lineHeight float64) {
	if len(spans) == 0 {
		return
	}
	e.ensurePage()
	x := e.left()
	maxWidth := e.contentWidth()

	type wordSpan struct {
		text  string
		span  TextSpan
		width float64
		space bool
	}

	var currentLine []wordSpan
	currentLineWidth := 0.0

	flushLine := func() {
		for len(currentLine) > 0 && currentLine[len(currentLine)-1].space {
			currentLine = currentLine[:len(currentLine)-1]
		}
		if len(currentLine) == 0 {
			return
		}
		e.checkPageBreak(lineHeight)
		size := 0.0
		for _, ws := range currentLine {
			size = max(size, ws.span.FontSize)
		}
		baseline := e.cursorY - size

		// consecutive words of one style are drawn as a single run
		type run struct {
			text  strings.Builder
			span  TextSpan
			x     float64
			width float64
		}
		var runs []*run
		curX := x
		for _, ws := range currentLine {
			if n := len(runs); n > 0 && runs[n-1].span == ws.span {
				runs[n-1].text.WriteString(ws.text)
				runs[n-1].width += ws.width
			} else {
				r := &run{span: ws.span, x: curX, width: ws.width}
				r.text.WriteString(ws.text)
				runs = append(runs, r)
			}
			curX += ws.width
		}
		for _, r := range runs {
			e.currentPage.DrawText(r.text.String(), r.x, baseline, builder.TextOptions{
				Font:     r.span.Font,
				FontSize: r.span.FontSize,
				Color:    r.span.Color,
			})
			if r.span.Underline {
				e.currentPage.DrawLine(r.x, baseline-2, r.x+r.width, baseline-2, builder.LineOptions{
					StrokeColor: r.span.Color,
					LineWidth:   0.5,
				})
			}
			if r.span.Strikethrough {
				midY := baseline + r.span.FontSize/3
				e.currentPage.DrawLine(r.x, midY, r.x+r.width, midY, builder.LineOptions{
					StrokeColor: r.span.Color,
					LineWidth:   0.5,
				})
			}
		}
		e.cursorY -= lineHeight
		currentLine = nil
		currentLineWidth = 0
	}

	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		if span.Font == "" {
			span.Font = e.DefaultFont
		}
		if span.FontSize == 0 {
			span.FontSize = e.DefaultFontSize
		}
		size, font := span.FontSize, span.Font
		spaceW := e.b.MeasureText(" ", size, font)
		tokens := tokenize(span.Text)
		span.Text = ""

		for _, token := range tokens {
			switch token {
			case "\n":
				if len(currentLine) == 0 {
					e.checkPageBreak(lineHeight)
					e.cursorY -= lineHeight
				} else {
					flushLine()
				}
				continue
			case " ":
				if len(currentLine) == 0 {
					continue
				}
				if currentLineWidth+spaceW > maxWidth {
					flushLine()
				} else {
					currentLine = append(currentLine, wordSpan{text: " ", span: span, width: spaceW, space: true})
					currentLineWidth += spaceW
				}
				continue
			}

			w := e.b.MeasureText(token, size, font)
			if currentLineWidth+w <= maxWidth {
				currentLine = append(currentLine, wordSpan{text: token, span: span, width: w})
				currentLineWidth += w
				continue
			}
			flushLine()
			if w <= maxWidth {
				currentLine = append(currentLine, wordSpan{text: token, span: span, width: w})
				currentLineWidth = w
				continue
			}
			// Character-level wrapping
			var subToken strings.Builder
			subWidth := 0.0
			for _, r := range token {
				rw := e.b.MeasureText(string(r), size, font)
				if subWidth+rw > maxWidth && subToken.Len() > 0 {
					currentLine = append(currentLine, wordSpan{text: subToken.String(), span: span, width: subWidth})
					flushLine()
					subToken.Reset()
					subWidth = 0
				}
				subToken.WriteRune(r)
				subWidth += rw
			}
			if subToken.Len() > 0 {
				currentLine = append(currentLine, wordSpan{text: subToken.String(), span: span, width: subWidth})
				currentLineWidth = subWidth
			}
		}
	}
	flushLine()
}

// tokenize splits text into words, single spaces and line feeds.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n':
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			if r == '\n' {
				tokens = append(tokens, "\n")
			} else {
				tokens = append(tokens, " ")
			}
		case '\r':
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
