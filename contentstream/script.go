package contentstream

import (
	"errors"
	"strings"

	"github.com/wudi/pdfwrite/fonts"
	"github.com/wudi/pdfwrite/ir/raw"
)

// ErrUnbalanced is returned by Object when q/Q or BT/ET do not pair up.
var ErrUnbalanced = errors.New("contentstream: unbalanced graphics state or text object")

// kappa places the control points of a Bézier quarter circle.
const kappa = 0.5522847498

// Script builds a content stream one operator per line. Methods return the
// script so calls can be chained.
type Script struct {
	b      strings.Builder
	fonts  []fonts.Font
	seen   map[string]bool
	depth  int
	inText bool
	err    error
}

func NewScript() *Script { return &Script{seen: make(map[string]bool)} }

func (s *Script) op(op string, operands ...float64) *Script {
	for _, v := range operands {
		s.b.WriteString(raw.FormatNumber(v))
		s.b.WriteByte(' ')
	}
	s.b.WriteString(op)
	s.b.WriteByte('\n')
	return s
}

// Raw appends operators verbatim. A line feed is added when missing.
func (s *Script) Raw(ops string) *Script {
	s.b.WriteString(ops)
	if ops != "" && !strings.HasSuffix(ops, "\n") {
		s.b.WriteByte('\n')
	}
	return s
}

func (s *Script) Save() *Script {
	s.depth++
	return s.op("q")
}

func (s *Script) Restore() *Script {
	if s.depth == 0 {
		s.err = ErrUnbalanced
		return s
	}
	s.depth--
	return s.op("Q")
}

func (s *Script) Transform(a, b, c, d, e, f float64) *Script {
	return s.op("cm", a, b, c, d, e, f)
}

func (s *Script) Translate(x, y float64) *Script { return s.Transform(1, 0, 0, 1, x, y) }

func (s *Script) SetLineWidth(w float64) *Script  { return s.op("w", w) }
func (s *Script) SetLineCap(c LineCap) *Script    { return s.op("J", float64(c)) }
func (s *Script) SetLineJoin(j LineJoin) *Script  { return s.op("j", float64(j)) }
func (s *Script) SetStrokeColor(c Color) *Script  { return s.op("RG", c.R, c.G, c.B) }
func (s *Script) SetFillColor(c Color) *Script    { return s.op("rg", c.R, c.G, c.B) }
func (s *Script) MoveTo(x, y float64) *Script     { return s.op("m", x, y) }
func (s *Script) LineTo(x, y float64) *Script     { return s.op("l", x, y) }
func (s *Script) ClosePath() *Script              { return s.op("h") }
func (s *Script) Rectangle(x, y, w, h float64) *Script {
	return s.op("re", x, y, w, h)
}

// SetDash sets the dash pattern. An empty pattern draws solid lines.
func (s *Script) SetDash(pattern []float64, phase float64) *Script {
	s.b.WriteByte('[')
	for i, v := range pattern {
		if i > 0 {
			s.b.WriteByte(' ')
		}
		s.b.WriteString(raw.FormatNumber(v))
	}
	s.b.WriteString("] ")
	return s.op("d", phase)
}

func (s *Script) CurveTo(x1, y1, x2, y2, x3, y3 float64) *Script {
	return s.op("c", x1, y1, x2, y2, x3, y3)
}

// Rectangle2 adds the rectangle spanned by two opposite corners.
func (s *Script) Rectangle2(x1, y1, x2, y2 float64) *Script {
	return s.Rectangle(min(x1, x2), min(y1, y2), abs(x2-x1), abs(y2-y1))
}

// Circle adds a circle around (x, y).
func (s *Script) Circle(x, y, r float64) *Script {
	return s.Oval(x-r, y-r, 2*r, 2*r)
}

// Oval adds the ellipse inscribed in the rectangle with lower left corner
// (x, y), as four Bézier arcs.
func (s *Script) Oval(x, y, w, h float64) *Script {
	rx, ry := w/2, h/2
	cx, cy := x+rx, y+ry
	kx, ky := kappa*rx, kappa*ry
	s.MoveTo(cx+rx, cy)
	s.CurveTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	s.CurveTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	s.CurveTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	s.CurveTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	return s.ClosePath()
}

// Oval2 adds the ellipse inscribed in the rectangle spanned by two corners.
func (s *Script) Oval2(x1, y1, x2, y2 float64) *Script {
	return s.Oval(min(x1, x2), min(y1, y2), abs(x2-x1), abs(y2-y1))
}

// AppendPath adds every subpath of p.
func (s *Script) AppendPath(p Path) *Script {
	for _, sp := range p.Subpaths {
		for _, pt := range sp.Points {
			switch pt.Type {
			case PathMoveTo:
				s.MoveTo(pt.X, pt.Y)
			case PathLineTo:
				s.LineTo(pt.X, pt.Y)
			case PathCurveTo:
				s.CurveTo(pt.Control1X, pt.Control1Y, pt.Control2X, pt.Control2Y, pt.X, pt.Y)
			case PathClose:
				s.ClosePath()
			}
		}
		if sp.Closed {
			s.ClosePath()
		}
	}
	return s
}

// EndPath paints the current path. A path that is neither filled nor
// stroked is discarded.
func (s *Script) EndPath(close, fill, stroke bool) *Script {
	switch {
	case fill && stroke && close:
		return s.op("b")
	case fill && stroke:
		return s.op("B")
	case stroke && close:
		return s.op("s")
	case stroke:
		return s.op("S")
	case fill:
		// f closes implicitly
		return s.op("f")
	case close:
		s.op("h")
	}
	return s.op("n")
}

func (s *Script) BeginText() *Script {
	if s.inText {
		s.err = ErrUnbalanced
	}
	s.inText = true
	return s.op("BT")
}

func (s *Script) EndText() *Script {
	if !s.inText {
		s.err = ErrUnbalanced
	}
	s.inText = false
	return s.op("ET")
}

// SetFont selects f at size and records f as referenced by the script.
func (s *Script) SetFont(f fonts.Font, size float64) *Script {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if !s.seen[f.Name()] {
		s.seen[f.Name()] = true
		s.fonts = append(s.fonts, f)
	}
	s.b.WriteString(raw.Name(f.Name()).String())
	s.b.WriteByte(' ')
	return s.op("Tf", size)
}

func (s *Script) SetCharSpacing(v float64) *Script   { return s.op("Tc", v) }
func (s *Script) SetWordSpacing(v float64) *Script   { return s.op("Tw", v) }
func (s *Script) SetHorizScaling(v float64) *Script  { return s.op("Tz", v) }
func (s *Script) SetRise(v float64) *Script          { return s.op("Ts", v) }
func (s *Script) SetLeading(v float64) *Script       { return s.op("TL", v) }
func (s *Script) SetRenderMode(m TextRenderMode) *Script {
	return s.op("Tr", float64(m))
}
func (s *Script) MoveText(x, y float64) *Script { return s.op("Td", x, y) }
func (s *Script) NextLine() *Script             { return s.op("T*") }

// ShowText shows a single line of text.
func (s *Script) ShowText(text string) *Script {
	s.b.WriteByte('(')
	s.b.WriteString(raw.EscapeString(text))
	s.b.WriteString(") ")
	return s.op("Tj")
}

// DrawText shows text line by line, moving down by the leading between
// lines.
func (s *Script) DrawText(text string) *Script {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			s.NextLine()
		}
		if line != "" {
			s.ShowText(line)
		}
	}
	return s
}

// DrawXObject paints the named external object in the current coordinate
// system.
func (s *Script) DrawXObject(name raw.Name) *Script {
	s.b.WriteString(name.String())
	s.b.WriteByte(' ')
	return s.op("Do")
}

// DrawImage paints the named image into the given rectangle.
func (s *Script) DrawImage(x, y, w, h float64, name raw.Name) *Script {
	s.Save()
	s.Transform(w, 0, 0, h, x, y)
	s.DrawXObject(name)
	return s.Restore()
}

// Fonts returns the fonts selected by the script in order of first use.
func (s *Script) Fonts() []fonts.Font { return append([]fonts.Font(nil), s.fonts...) }

func (s *Script) String() string { return s.b.String() }

func (s *Script) Len() int { return s.b.Len() }

// Object wraps the script in a content stream object.
func (s *Script) Object() (*raw.Object, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.depth != 0 || s.inText {
		return nil, ErrUnbalanced
	}
	obj := raw.NewObject()
	obj.Stream = raw.NewTextStream(s.b.String())
	return obj, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
