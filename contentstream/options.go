package contentstream

import "github.com/wudi/pdfwrite/fonts"

// GraphicsOptions describe how shapes are drawn. A shape with neither Fill
// nor Stroke set is stroked.
type GraphicsOptions struct {
	LineWidth   float64
	StrokeColor Color
	FillColor   Color
	LineCap     LineCap
	LineJoin    LineJoin
	DashPattern []float64
	DashPhase   float64
	Fill        bool
	Stroke      bool
}

// Apply emits the state operators for o.
func (o GraphicsOptions) Apply(s *Script) {
	if o.LineWidth > 0 {
		s.SetLineWidth(o.LineWidth)
	}
	if o.LineCap != LineCapButt {
		s.SetLineCap(o.LineCap)
	}
	if o.LineJoin != LineJoinMiter {
		s.SetLineJoin(o.LineJoin)
	}
	if len(o.DashPattern) > 0 {
		s.SetDash(o.DashPattern, o.DashPhase)
	}
	if o.strokes() {
		s.SetStrokeColor(o.StrokeColor)
	}
	if o.Fill {
		s.SetFillColor(o.FillColor)
	}
}

// Paint ends the current path according to o.
func (o GraphicsOptions) Paint(s *Script, close bool) {
	s.EndPath(close, o.Fill, o.strokes())
}

func (o GraphicsOptions) strokes() bool { return o.Stroke || !o.Fill }

// TextOptions describe how text is set. The zero value draws black 12pt
// Helvetica.
type TextOptions struct {
	Font         fonts.Font
	FontSize     float64
	Color        Color
	RenderMode   TextRenderMode
	CharSpacing  float64
	WordSpacing  float64
	HorizScaling float64
	Rise         float64
	// Leading defaults to 1.2 times the font size.
	Leading float64
}

func (o TextOptions) FontOrDefault() fonts.Font {
	if o.Font == nil {
		return fonts.Helvetica
	}
	return o.Font
}

func (o TextOptions) Size() float64 {
	if o.FontSize <= 0 {
		return 12
	}
	return o.FontSize
}

func (o TextOptions) LineHeight() float64 {
	if o.Leading > 0 {
		return o.Leading
	}
	return 1.2 * o.Size()
}

// Apply emits the text state operators for o inside a text object and
// moves to (x, y), the baseline of the first line.
func (o TextOptions) Apply(s *Script, x, y float64) {
	s.SetFont(o.FontOrDefault(), o.Size())
	s.SetFillColor(o.Color)
	switch o.RenderMode {
	case TextStroke, TextFillStroke, TextStrokeClip, TextFillStrokeClip:
		s.SetStrokeColor(o.Color)
	}
	if o.RenderMode != TextFill {
		s.SetRenderMode(o.RenderMode)
	}
	if o.CharSpacing != 0 {
		s.SetCharSpacing(o.CharSpacing)
	}
	if o.WordSpacing != 0 {
		s.SetWordSpacing(o.WordSpacing)
	}
	if o.HorizScaling > 0 && o.HorizScaling != 100 {
		s.SetHorizScaling(o.HorizScaling)
	}
	if o.Rise != 0 {
		s.SetRise(o.Rise)
	}
	s.SetLeading(o.LineHeight())
	s.MoveText(x, y)
}
