package fonts

import (
	"golang.org/x/text/unicode/norm"

	"github.com/wudi/pdfwrite/ir/raw"
)

// Standard is one of the base 14 Type1 fonts that every reader provides.
// It is never embedded and uses WinAnsiEncoding.
type Standard struct {
	name     string
	baseFont string
	ascii    *[95]int // widths of U+0020 through U+007E
	extra    map[rune]int
	fixed    int
	missing  int
}

var (
	Helvetica            = &Standard{name: "Helv", baseFont: "Helvetica", ascii: &helveticaWidths, extra: helveticaExtra, missing: 556}
	HelveticaOblique     = &Standard{name: "HelvO", baseFont: "Helvetica-Oblique", ascii: &helveticaWidths, extra: helveticaExtra, missing: 556}
	HelveticaBold        = &Standard{name: "HelvB", baseFont: "Helvetica-Bold", ascii: &helveticaBoldWidths, extra: helveticaBoldExtra, missing: 556}
	HelveticaBoldOblique = &Standard{name: "HelvBO", baseFont: "Helvetica-BoldOblique", ascii: &helveticaBoldWidths, extra: helveticaBoldExtra, missing: 556}
	Courier              = &Standard{name: "Cour", baseFont: "Courier", fixed: 600}
	CourierBold          = &Standard{name: "CourB", baseFont: "Courier-Bold", fixed: 600}
	CourierOblique       = &Standard{name: "CourO", baseFont: "Courier-Oblique", fixed: 600}
	CourierBoldOblique   = &Standard{name: "CourBO", baseFont: "Courier-BoldOblique", fixed: 600}
)

var standardFonts = []*Standard{
	Helvetica, HelveticaOblique, HelveticaBold, HelveticaBoldOblique,
	Courier, CourierBold, CourierOblique, CourierBoldOblique,
}

// StandardFont looks up a standard font by its PostScript name
// ("Helvetica-Bold") or its resource name ("HelvB").
func StandardFont(name string) (*Standard, bool) {
	for _, f := range standardFonts {
		if f.baseFont == name || f.name == name {
			return f, true
		}
	}
	return nil, false
}

// StandardFonts returns all standard fonts known to this package.
func StandardFonts() []*Standard {
	return append([]*Standard(nil), standardFonts...)
}

func (f *Standard) Name() string     { return f.name }
func (f *Standard) BaseFont() string { return f.baseFont }

func (f *Standard) RawCharWidth(r rune) int {
	if f.fixed > 0 {
		return f.fixed
	}
	if r >= 0x20 && r <= 0x7e {
		return f.ascii[r-0x20]
	}
	if w, ok := f.extra[r]; ok {
		return w
	}
	// accented letters share the advance of their base letter
	if d := norm.NFD.String(string(r)); d != "" {
		if base := []rune(d)[0]; base != r && base >= 0x20 && base <= 0x7e {
			return f.ascii[base-0x20]
		}
	}
	return f.missing
}

func (f *Standard) Object(Allocator) (*raw.Object, error) {
	obj := raw.NewObject()
	obj.Set("Type", raw.Name("Font")).
		Set("Subtype", raw.Name("Type1")).
		Set("Name", raw.Name(f.name)).
		Set("BaseFont", raw.Name(f.baseFont)).
		Set("Encoding", raw.Name("WinAnsiEncoding"))
	return obj, nil
}

var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // space - /
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, // 0 - 9
	278, 278, 584, 584, 584, 556, 1015, // : - @
	667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, // A - M
	722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, // N - Z
	278, 278, 278, 469, 556, 333, // [ - `
	556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, // a - m
	556, 556, 556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, // n - z
	334, 260, 334, 584, // { - ~
}

var helveticaBoldWidths = [95]int{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556,
	333, 333, 584, 584, 584, 611, 975,
	722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833,
	722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611,
	333, 278, 333, 584, 556, 333,
	556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889,
	611, 611, 611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500,
	389, 280, 389, 584,
}

var helveticaExtra = map[rune]int{
	'\u00a0': 278, '•': 350, '–': 556, '—': 1000, '‘': 222, '’': 222, '“': 333, '”': 333,
	'…': 1000, '€': 556, '©': 737, '®': 737, '°': 400, '×': 584, '£': 556, '§': 556,
	'ß': 611, 'æ': 889, 'Æ': 1000, 'ø': 611, 'Ø': 778, '«': 556, '»': 556,
}

var helveticaBoldExtra = map[rune]int{
	'\u00a0': 278, '•': 350, '–': 556, '—': 1000, '‘': 278, '’': 278, '“': 500, '”': 500,
	'…': 1000, '€': 556, '©': 737, '®': 737, '°': 400, '×': 584, '£': 556, '§': 556,
	'ß': 611, 'æ': 889, 'Æ': 1000, 'ø': 611, 'Ø': 778, '«': 556, '»': 556,
}
