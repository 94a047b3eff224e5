package fonts

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/pdfwrite/filters"
	"github.com/wudi/pdfwrite/ir/raw"
)

const (
	firstChar = 32
	lastChar  = 255
)

// TrueType is an embedded TrueType font addressed through WinAnsiEncoding.
// The whole font program is embedded (no subsetting).
type TrueType struct {
	name     string
	baseFont string
	data     []byte

	widths  [lastChar - firstChar + 1]int
	missing int

	flags       int
	italicAngle float64
	ascent      float64
	descent     float64
	capHeight   float64
	bbox        [4]float64

	faceOnce sync.Once
	shape    shaping.Input
	shapeOK  bool
}

// LoadTrueType parses a TrueType/OpenType font and extracts the metrics
// needed for a simple font dictionary. name is the resource name; when it is
// empty the PostScript name of the font is used.
func LoadTrueType(name string, data []byte) (*TrueType, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("truetype font data is empty")
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(unitsPerEm << 6)

	baseName := ""
	if ps, _ := font.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	baseName = strings.ReplaceAll(baseName, " ", "")
	name = strings.TrimSpace(name)
	if baseName == "" {
		baseName = strings.ReplaceAll(name, " ", "")
	}
	if baseName == "" {
		baseName = "CustomTT"
	}
	if name == "" {
		name = baseName
	}

	t := &TrueType{name: name, baseFont: baseName, data: data}
	if adv, err := font.GlyphAdvance(buf, 0, ppem, xfont.HintingNone); err == nil {
		t.missing = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}
	for code := firstChar; code <= lastChar; code++ {
		w := t.missing
		r := charmap.Windows1252.DecodeByte(byte(code))
		if gi, err := font.GlyphIndex(buf, r); err == nil && gi != 0 {
			if adv, err := font.GlyphAdvance(buf, gi, ppem, xfont.HintingNone); err == nil {
				w = int(math.Round(scaleFixed(adv, unitsPerEm)))
			}
		}
		t.widths[code-firstChar] = w
	}

	metrics, _ := font.Metrics(buf, ppem, xfont.HintingNone)
	bounds, _ := font.Bounds(buf, ppem, xfont.HintingNone)
	t.ascent = scaleFixed(metrics.Ascent, unitsPerEm)
	t.descent = -scaleFixed(metrics.Descent, unitsPerEm)
	t.capHeight = scaleFixed(metrics.CapHeight, unitsPerEm)
	if t.capHeight == 0 {
		t.capHeight = t.ascent
	}
	// sfnt bounds have y pointing down
	t.bbox = [4]float64{
		scaleFixed(bounds.Min.X, unitsPerEm),
		-scaleFixed(bounds.Max.Y, unitsPerEm),
		scaleFixed(bounds.Max.X, unitsPerEm),
		-scaleFixed(bounds.Min.Y, unitsPerEm),
	}

	t.flags = 32 // nonsymbolic
	if post := font.PostTable(); post != nil {
		t.italicAngle = post.ItalicAngle
		if post.IsFixedPitch {
			t.flags |= 1
		}
		if post.ItalicAngle != 0 {
			t.flags |= 64
		}
	}
	return t, nil
}

func (t *TrueType) Name() string     { return t.name }
func (t *TrueType) BaseFont() string { return t.baseFont }

func (t *TrueType) RawCharWidth(r rune) int {
	b, ok := charmap.Windows1252.EncodeRune(r)
	if !ok || b < firstChar {
		return t.missing
	}
	return t.widths[int(b)-firstChar]
}

// Object writes the compressed font program and the font descriptor, then
// returns the font dictionary referring to them.
func (t *TrueType) Object(a Allocator) (*raw.Object, error) {
	flate := filters.NewFlate()
	packed, err := flate.Encode(t.data)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", t.baseFont, err)
	}
	fileRef := a.Reserve()
	file := raw.NewObject().Set("Length1", raw.Integer(len(t.data)))
	file.Stream = raw.NewBinaryStream(flate.Name(), packed)
	if err := a.WriteObject(file, fileRef); err != nil {
		return nil, err
	}

	descRef := a.Reserve()
	desc := raw.NewObject()
	desc.Set("Type", raw.Name("FontDescriptor")).
		Set("FontName", raw.Name(t.baseFont)).
		Set("Flags", raw.Integer(t.flags)).
		Set("FontBBox", raw.Numbers(t.bbox[:]...)).
		Set("ItalicAngle", raw.Real(t.italicAngle)).
		Set("Ascent", raw.Real(t.ascent)).
		Set("Descent", raw.Real(t.descent)).
		Set("CapHeight", raw.Real(t.capHeight)).
		Set("StemV", raw.Integer(80)).
		Set("MissingWidth", raw.Integer(t.missing)).
		Set("FontFile2", fileRef)
	if err := a.WriteObject(desc, descRef); err != nil {
		return nil, err
	}

	widths := make(raw.Array, len(t.widths))
	for i, w := range t.widths {
		widths[i] = raw.Integer(w)
	}
	obj := raw.NewObject()
	obj.Set("Type", raw.Name("Font")).
		Set("Subtype", raw.Name("TrueType")).
		Set("Name", raw.Name(t.name)).
		Set("BaseFont", raw.Name(t.baseFont)).
		Set("FirstChar", raw.Integer(firstChar)).
		Set("LastChar", raw.Integer(lastChar)).
		Set("Widths", widths).
		Set("FontDescriptor", descRef).
		Set("Encoding", raw.Name("WinAnsiEncoding"))
	return obj, nil
}

// shapingInput returns an input template carrying the parsed face.
func (t *TrueType) shapingInput() (shaping.Input, bool) {
	t.faceOnce.Do(func() {
		face, err := gofont.ParseTTF(bytes.NewReader(t.data))
		if err != nil {
			return
		}
		t.shape.Face = face
		t.shapeOK = true
	})
	return t.shape, t.shapeOK
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
