package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML renders an HTML string to the PDF.
func (e *Engine) RenderHTML(source string) error {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return err
	}
	r := &htmlRenderer{e: e}
	r.walk(doc, 0)
	r.flush()
	e.Finish()
	return e.b.Err()
}

// htmlRenderer collects inline content until a block element ends it.
type htmlRenderer struct {
	e       *Engine
	pending []TextSpan
}

func (r *htmlRenderer) flush() {
	blank := true
	for _, s := range r.pending {
		if strings.TrimLeft(s.Text, " ") != "" {
			blank = false
			break
		}
	}
	if blank {
		r.pending = nil
		return
	}
	r.e.ensurePage()
	r.e.renderSpans(r.pending, r.e.lineHeight(r.e.DefaultFontSize))
	r.pending = nil
}

func (r *htmlRenderer) walkChildren(n *html.Node, st textStyle) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c, st)
	}
}

func (r *htmlRenderer) walk(n *html.Node, st textStyle) {
	e := r.e
	switch n.Type {
	case html.TextNode:
		if t := collapseSpace(n.Data); t != "" {
			r.pending = append(r.pending, e.span(t, st, e.DefaultFontSize))
		}
		return
	case html.ElementNode:
	default:
		r.walkChildren(n, st)
		return
	}

	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Title:
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		r.flush()
		level, _ := strconv.Atoi(n.Data[1:])
		e.renderHeading(level, r.collect(n, st|styleBold))
	case atom.P:
		r.flush()
		r.walkChildren(n, st)
		r.flush()
		e.paragraphSpacing()
	case atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer:
		r.flush()
		r.walkChildren(n, st)
		r.flush()
	case atom.Ul, atom.Ol:
		r.flush()
		r.renderList(n, st)
		e.paragraphSpacing()
	case atom.Pre:
		r.flush()
		e.renderCodeBlock(strings.Split(strings.TrimSuffix(strings.TrimPrefix(rawText(n), "\n"), "\n"), "\n"))
	case atom.Blockquote:
		r.flush()
		e.renderQuote(func() {
			r.walkChildren(n, st)
			r.flush()
		})
	case atom.Hr:
		r.flush()
		e.renderRule()
	case atom.Br:
		r.pending = append(r.pending, e.span("\n", st, e.DefaultFontSize))
	case atom.Img:
		r.flush()
		e.renderImage(attr(n, "src"), attr(n, "alt"))
	case atom.Table:
		r.flush()
		e.renderTable(tableRows(n), nil)
	case atom.B, atom.Strong:
		r.walkChildren(n, st|styleBold)
	case atom.I, atom.Em:
		r.walkChildren(n, st|styleItalic)
	case atom.Code, atom.Tt, atom.Kbd, atom.Samp:
		r.walkChildren(n, st|styleCode)
	case atom.A:
		r.walkChildren(n, st|styleLink)
	case atom.Del, atom.S, atom.Strike:
		r.walkChildren(n, st|styleStrike)
	case atom.U, atom.Ins:
		r.walkChildren(n, st|styleUnderline)
	default:
		r.walkChildren(n, st)
	}
}

// collect returns the inline spans beneath n without disturbing pending
// content.
func (r *htmlRenderer) collect(n *html.Node, st textStyle) []TextSpan {
	saved := r.pending
	r.pending = nil
	r.walkChildren(n, st)
	spans := r.pending
	r.pending = saved
	return spans
}

func (r *htmlRenderer) renderList(n *html.Node, st textStyle) {
	number := 1
	if v, err := strconv.Atoi(attr(n, "start")); err == nil {
		number = v
	}
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		marker := "•"
		if n.DataAtom == atom.Ol {
			marker = strconv.Itoa(number) + "."
			number++
		}
		r.e.renderListItem(marker, func() {
			r.walkChildren(li, st)
			r.flush()
		})
	}
}

func tableRows(n *html.Node) [][]string {
	var rows [][]string
	var find func(*html.Node)
	find = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom != atom.Tr {
				find(c)
				continue
			}
			var row []string
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.DataAtom == atom.Td || cell.DataAtom == atom.Th {
					row = append(row, strings.TrimSpace(collapseSpace(rawText(cell))))
				}
			}
			rows = append(rows, row)
		}
	}
	find(n)
	return rows
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func rawText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

// collapseSpace replaces each run of white space with a single space.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}
