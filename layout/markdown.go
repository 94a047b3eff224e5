package layout

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/wudi/pdfwrite/builder"
)

// RenderMarkdown renders a markdown string to the PDF using goldmark. GFM
// tables and strikethrough are supported.
func (e *Engine) RenderMarkdown(source string) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	e.walkMarkdown(doc, src)
	e.Finish()
	return e.b.Err()
}

func (e *Engine) walkMarkdown(node ast.Node, source []byte) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		e.renderMarkdownBlock(child, source)
	}
}

func (e *Engine) renderMarkdownBlock(n ast.Node, source []byte) {
	switch n := n.(type) {
	case *ast.Heading:
		e.renderHeading(n.Level, e.markdownSpans(n, source, styleBold, e.DefaultFontSize))
	case *ast.Paragraph, *ast.TextBlock:
		e.renderMarkdownParagraph(n, source)
	case *ast.List:
		e.renderMarkdownList(n, source)
	case *ast.FencedCodeBlock:
		e.renderCodeBlock(blockLines(n, source))
	case *ast.CodeBlock:
		e.renderCodeBlock(blockLines(n, source))
	case *ast.Blockquote:
		e.renderQuote(func() { e.walkMarkdown(n, source) })
	case *ast.ThematicBreak:
		e.renderRule()
	case *east.Table:
		e.renderMarkdownTable(n, source)
	case *ast.HTMLBlock:
		// raw HTML is not rendered
	default:
		e.walkMarkdown(n, source)
	}
}

// renderMarkdownParagraph draws inline content; images split the paragraph
// into runs of text around them.
func (e *Engine) renderMarkdownParagraph(n ast.Node, source []byte) {
	var spans []TextSpan
	flush := func() {
		e.ensurePage()
		e.renderSpans(spans, e.lineHeight(e.DefaultFontSize))
		spans = nil
	}
	var walk func(ast.Node, textStyle)
	walk = func(node ast.Node, st textStyle) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if img, ok := c.(*ast.Image); ok {
				flush()
				e.renderImage(string(img.Destination), plainText(img, source))
				continue
			}
			e.appendInline(&spans, c, source, st, e.DefaultFontSize, walk)
		}
	}
	walk(n, 0)
	if len(spans) > 0 {
		flush()
	}
	e.paragraphSpacing()
}

func (e *Engine) markdownSpans(n ast.Node, source []byte, base textStyle, size float64) []TextSpan {
	var spans []TextSpan
	var walk func(ast.Node, textStyle)
	walk = func(node ast.Node, st textStyle) {
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			e.appendInline(&spans, c, source, st, size, walk)
		}
	}
	walk(n, base)
	return spans
}

// appendInline converts one inline node to spans. Containers recurse through
// walk, which appends to the same slice.
func (e *Engine) appendInline(spans *[]TextSpan, c ast.Node, source []byte, st textStyle, size float64, walk func(ast.Node, textStyle)) {
	add := func(text string, st textStyle) {
		*spans = append(*spans, e.span(text, st, size))
	}
	switch c := c.(type) {
	case *ast.Text:
		add(string(c.Segment.Value(source)), st)
		switch {
		case c.HardLineBreak():
			add("\n", st)
		case c.SoftLineBreak():
			add(" ", st)
		}
	case *ast.String:
		add(string(c.Value), st)
	case *ast.CodeSpan:
		add(plainText(c, source), st|styleCode)
	case *ast.Emphasis:
		if c.Level >= 2 {
			walk(c, st|styleBold)
		} else {
			walk(c, st|styleItalic)
		}
	case *east.Strikethrough:
		walk(c, st|styleStrike)
	case *ast.Link:
		walk(c, st|styleLink)
	case *ast.AutoLink:
		add(string(c.URL(source)), st|styleLink)
	case *ast.Image:
		add("["+plainText(c, source)+"]", st|styleItalic)
	case *ast.RawHTML:
	default:
		walk(c, st)
	}
}

func (e *Engine) renderMarkdownList(n *ast.List, source []byte) {
	number := n.Start
	if number == 0 {
		number = 1
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "•"
		if n.IsOrdered() {
			marker = strconv.Itoa(number) + "."
			number++
		}
		e.renderListItem(marker, func() {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*ast.TextBlock); ok {
					e.renderSpans(e.markdownSpans(c, source, 0, e.DefaultFontSize), e.lineHeight(e.DefaultFontSize))
					continue
				}
				e.renderMarkdownBlock(c, source)
			}
		})
	}
	e.paragraphSpacing()
}

func (e *Engine) renderMarkdownTable(n *east.Table, source []byte) {
	var rows [][]string
	for r := n.FirstChild(); r != nil; r = r.NextSibling() {
		var row []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			row = append(row, strings.TrimSpace(plainText(c, source)))
		}
		rows = append(rows, row)
	}
	align := make([]builder.HAlign, len(n.Alignments))
	for i, a := range n.Alignments {
		switch a {
		case east.AlignCenter:
			align[i] = builder.HAlignCenter
		case east.AlignRight:
			align[i] = builder.HAlignRight
		default:
			align[i] = builder.HAlignLeft
		}
	}
	e.renderTable(rows, align)
}

func blockLines(n ast.Node, source []byte) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, string(seg.Value(source)))
	}
	return out
}

// plainText concatenates the text beneath n.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
