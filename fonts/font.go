package fonts

import (
	"strings"
	"unicode/utf8"

	"github.com/wudi/pdfwrite/ir/raw"
)

// Font is a font that can be registered with a document. Name is the
// resource name used by content streams (Tf operands).
type Font interface {
	Name() string
	BaseFont() string
	// RawCharWidth returns the advance of r in thousandths of the font size.
	RawCharWidth(r rune) int
	// Object builds the font dictionary. Auxiliary objects such as
	// descriptors and font files are written through a.
	Object(a Allocator) (*raw.Object, error)
}

// Allocator hands out object identities and serializes objects. The
// document writer implements it.
type Allocator interface {
	Reserve() raw.ObjectRef
	WriteObject(obj *raw.Object, ref raw.ObjectRef) error
}

// Measurer is implemented by fonts that measure shaped text more precisely
// than the sum of their character widths.
type Measurer interface {
	MeasureString(s string, size float64) float64
}

// StringWidth returns the width in points of the widest line of s set in f
// at the given size.
func StringWidth(f Font, s string, size float64) float64 {
	maxWidth := 0.0
	for _, line := range splitLines(s) {
		var w float64
		if m, ok := f.(Measurer); ok {
			w = m.MeasureString(line, size)
		} else {
			w = float64(rawWidth(f, line)) * size / 1000
		}
		if w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

func rawWidth(f Font, s string) int {
	w := 0
	for _, r := range s {
		w += f.RawCharWidth(r)
	}
	return w
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
}

// SplitText inserts line feeds into text so that no line is wider than
// width points at the given size. Tabs become four spaces. A word that does
// not fit is moved to the next line; a word wider than a whole line is
// broken.
func SplitText(f Font, text string, size, width float64) string {
	text = strings.ReplaceAll(text, "\t", "    ")
	if size <= 0 || width <= 0 {
		return text
	}
	limit := int(1000 * width / size)

	out := make([]rune, 0, utf8.RuneCountInString(text)+16)
	used := 0
	lineStart := 0
	word := 0
	for _, r := range text {
		switch r {
		case '\r', '\n':
			out = append(out, r)
			used, word, lineStart = 0, 0, len(out)
			continue
		case ' ':
			out = append(out, r)
			used += f.RawCharWidth(r)
			word = 0
			continue
		}

		w := f.RawCharWidth(r)
		if used+w > limit && len(out) > lineStart {
			var moved []rune
			if word > 0 && word < len(out)-lineStart {
				moved = append(moved, out[len(out)-word:]...)
				out = out[:len(out)-word]
			}
			for len(out) > lineStart && out[len(out)-1] == ' ' {
				out = out[:len(out)-1]
			}
			out = append(out, '\n')
			lineStart = len(out)
			out = append(out, moved...)
			used = rawWidth(f, string(moved))
			word = len(moved)
		}
		out = append(out, r)
		used += w
		word++
	}
	return string(out)
}
