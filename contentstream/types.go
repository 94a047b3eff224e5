package contentstream

// TextRenderMode matches PDF text rendering modes set via Tr operator.
type TextRenderMode int

const (
	TextFill TextRenderMode = iota
	TextStroke
	TextFillStroke
	TextInvisible
	TextFillClip
	TextStrokeClip
	TextFillStrokeClip
	TextClip
)

// LineCap represents the line cap style (J operator).
type LineCap int

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

// LineJoin represents the line join style (j operator).
type LineJoin int

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

// Path describes a graphics path made of subpaths.
type Path struct {
	Subpaths []Subpath
}

// Subpath describes a portion of a path.
type Subpath struct {
	Points []PathPoint
	Closed bool
}

// PathPoint identifies a path segment and its coordinates.
type PathPoint struct {
	X, Y                 float64
	Type                 PathPointType
	Control1X, Control1Y float64
	Control2X, Control2Y float64
}

// PathPointType enumerates path segment types.
type PathPointType int

const (
	PathMoveTo PathPointType = iota
	PathLineTo
	PathCurveTo
	PathClose
)

func (p *Path) MoveTo(x, y float64) *Path {
	p.Subpaths = append(p.Subpaths, Subpath{Points: []PathPoint{{X: x, Y: y, Type: PathMoveTo}}})
	return p
}

func (p *Path) LineTo(x, y float64) *Path {
	sp := p.current(x, y)
	sp.Points = append(sp.Points, PathPoint{X: x, Y: y, Type: PathLineTo})
	return p
}

func (p *Path) CurveTo(x1, y1, x2, y2, x, y float64) *Path {
	sp := p.current(x1, y1)
	sp.Points = append(sp.Points, PathPoint{
		X: x, Y: y, Type: PathCurveTo,
		Control1X: x1, Control1Y: y1,
		Control2X: x2, Control2Y: y2,
	})
	return p
}

// Close closes the current subpath.
func (p *Path) Close() *Path {
	if n := len(p.Subpaths); n > 0 {
		p.Subpaths[n-1].Closed = true
	}
	return p
}

// current returns the open subpath, starting one at (x, y) when there is none.
func (p *Path) current(x, y float64) *Subpath {
	if n := len(p.Subpaths); n == 0 || p.Subpaths[n-1].Closed {
		p.MoveTo(x, y)
	}
	return &p.Subpaths[len(p.Subpaths)-1]
}

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	Black = Color{}
	White = Color{1, 1, 1}
)

// RGB builds a color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}

// Gray returns the gray level g.
func Gray(g float64) Color { return Color{g, g, g} }
