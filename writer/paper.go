package writer

import (
	"fmt"
	"strings"
)

type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

// PageFormat is a paper size given by its long (Height) and short (Width)
// side in points.
type PageFormat struct {
	Height      float64
	Width       float64
	Orientation Orientation
}

var (
	A4Portrait      = PageFormat{Height: 841, Width: 595, Orientation: Portrait}
	A4Landscape     = PageFormat{Height: 841, Width: 595, Orientation: Landscape}
	LetterPortrait  = PageFormat{Height: 792, Width: 612, Orientation: Portrait}
	LetterLandscape = PageFormat{Height: 792, Width: 612, Orientation: Landscape}
)

// Size returns the media box width and height for the orientation.
func (f PageFormat) Size() (width, height float64) {
	if f.Orientation == Landscape {
		return f.Height, f.Width
	}
	return f.Width, f.Height
}

// ParsePageFormat maps "a4" and "letter" to a page format.
func ParsePageFormat(name string, landscape bool) (PageFormat, error) {
	var f PageFormat
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		f = A4Portrait
	case "letter":
		f = LetterPortrait
	default:
		return PageFormat{}, fmt.Errorf("unknown paper size %q", name)
	}
	if landscape {
		f.Orientation = Landscape
	}
	return f, nil
}

// ImagePlacement decides how an image is fitted into a box whose aspect
// ratio differs from the image's.
type ImagePlacement int

const (
	// Stretch fills the box, distorting the image.
	Stretch ImagePlacement = iota
	Center
	// LeftOrTop aligns the image to the left edge or the top edge.
	LeftOrTop
	// RightOrBottom aligns the image to the right edge or the bottom edge.
	RightOrBottom
)

// PlaceImage fits an image with the given height/width ratio into the box
// (x, y, width, height) and returns the rectangle to draw it in.
func PlaceImage(x, y, width, height, aspect float64, placement ImagePlacement) (float64, float64, float64, float64) {
	if placement == Stretch || aspect <= 0 || width <= 0 || height <= 0 {
		return x, y, width, height
	}
	box := height / width
	if aspect < box {
		h := width * aspect
		switch placement {
		case LeftOrTop:
			y += height - h
		case Center:
			y += (height - h) / 2
		}
		return x, y, width, h
	}
	w := height / aspect
	switch placement {
	case RightOrBottom:
		x += width - w
	case Center:
		x += (width - w) / 2
	}
	return x, y, w, height
}
