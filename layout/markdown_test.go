package layout

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/pdfwrite/builder"
)

func TestRenderMarkdown_Heading(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)

	err := engine.RenderMarkdown("# Title\n\nBody text")
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	texts := mb.texts()
	if len(texts) != 2 {
		t.Fatalf("expected 2 texts, got %q", textsOf(texts))
	}
	h := texts[0]
	if h.Text != "Title" || h.Opts.Font != "Helvetica-Bold" || h.Opts.FontSize != 24 || !near(h.Y, 767) {
		t.Errorf("heading = %+v", h)
	}
	p := texts[1]
	if p.Text != "Body text" || p.Opts.Font != "Helvetica" || p.Opts.FontSize != 12 || !near(p.Y, 744.2) {
		t.Errorf("paragraph = %+v", p)
	}
}

func TestRenderMarkdown_Lists(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("- one\n- two\n\n3. third\n4. fourth\n")

	texts := mb.texts()
	want := []struct {
		text string
		x, y float64
	}{
		{"•", 50, 779},
		{"one", 68, 779},
		{"•", 50, 764.6},
		{"two", 68, 764.6},
		{"3.", 50, 744.2},
		{"third", 68, 744.2},
		{"4.", 50, 729.8},
		{"fourth", 68, 729.8},
	}
	if len(texts) != len(want) {
		t.Fatalf("texts = %q", textsOf(texts))
	}
	for i, w := range want {
		got := texts[i]
		if got.Text != w.text || got.X != w.x || !near(got.Y, w.y) {
			t.Errorf("item %d = %q at (%v, %v), want %q at (%v, %v)", i, got.Text, got.X, got.Y, w.text, w.x, w.y)
		}
	}
}

func TestRenderMarkdown_InlineStyles(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("a **b** *c* ***d*** `e` ~~f~~ [g](http://example.com)")

	fonts := map[string]string{}
	for _, tx := range mb.texts() {
		fonts[strings.TrimSpace(tx.Text)] = tx.Opts.Font
	}
	for text, font := range map[string]string{
		"b": "Helvetica-Bold",
		"c": "Helvetica-Oblique",
		"d": "Helvetica-BoldOblique",
		"e": "Courier",
		"f": "Helvetica",
		"g": "Helvetica",
	} {
		got, ok := fonts[text]
		if !ok {
			t.Errorf("%s not drawn (all: %v)", text, fonts)
			continue
		}
		if got != font {
			t.Errorf("%s drawn in %q, want %q (all: %v)", text, got, font, fonts)
		}
	}
	// strikethrough and link underline
	if n := len(mb.Pages[0].DrawnLines); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
	for _, tx := range mb.texts() {
		if tx.Text == "g" && tx.Opts.Color != engine.LinkColor {
			t.Errorf("link color = %+v", tx.Opts.Color)
		}
	}
}

func TestRenderMarkdown_NestedInlineText(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("plain **bold *both*** [see ~~old~~ new](http://example.com) end")

	var got []string
	for _, tx := range mb.texts() {
		got = append(got, tx.Text)
	}
	joined := strings.Join(got, "")
	if joined != "plain bold both see old new end" {
		t.Fatalf("texts = %q", got)
	}
	for _, tx := range mb.texts() {
		if tx.Text == "both" && tx.Opts.Font != "Helvetica-BoldOblique" {
			t.Errorf("both font = %s", tx.Opts.Font)
		}
	}
}

func TestRenderMarkdown_HeadingKeepsEmphasis(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("## Release *notes*")

	texts := mb.texts()
	if got := strings.Join(textsOf(texts), ""); got != "Release notes" {
		t.Fatalf("heading texts = %q", textsOf(texts))
	}
	last := texts[len(texts)-1]
	if last.Text != "notes" || last.Opts.Font != "Helvetica-BoldOblique" || last.Opts.FontSize != 18 {
		t.Fatalf("emphasis in heading = %+v", last)
	}
}

func TestRenderMarkdown_CodeBlock(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("```go\nfmt.Println()\n\n  x := 1\n```\n")

	page := mb.Pages[0]
	got := textsOf(page.DrawnTexts)
	if strings.Join(got, "|") != "fmt.Println()|  x := 1" {
		t.Fatalf("code lines = %q", got)
	}
	for _, tx := range page.DrawnTexts {
		if tx.Opts.Font != "Courier" || !near(tx.Opts.FontSize, 10.8) || tx.X != 54 {
			t.Errorf("code text = %+v", tx)
		}
	}
	// one background per line, blank lines included
	if len(page.DrawnRects) != 3 {
		t.Fatalf("backgrounds = %d", len(page.DrawnRects))
	}
}

func TestRenderMarkdown_Table(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("| Item | Qty |\n|------|----:|\n| Tea | 2 |\n\nafter")

	page := mb.Pages[0]
	if len(page.DrawnTables) != 1 {
		t.Fatalf("tables = %d", len(page.DrawnTables))
	}
	tbl := page.DrawnTables[0]
	if tbl.Table.HeaderRows != 1 || len(tbl.Table.Rows) != 2 || len(tbl.Table.Columns) != 2 {
		t.Fatalf("table = %+v", tbl.Table)
	}
	if tbl.Table.Columns[0] != 247.5 {
		t.Errorf("column width = %v", tbl.Table.Columns[0])
	}
	if c := tbl.Table.Rows[0].Cells[0]; c.Text != "Item" || c.Font != "Helvetica-Bold" {
		t.Errorf("header cell = %+v", c)
	}
	if c := tbl.Table.Rows[1].Cells[1]; c.Text != "2" || c.HAlign != builder.HAlignRight {
		t.Errorf("body cell = %+v", c)
	}
	if tbl.Opts.X != 50 || tbl.Opts.Y != 791 || tbl.Opts.BottomMargin != 50 {
		t.Errorf("table options = %+v", tbl.Opts)
	}
	after := page.DrawnTexts[len(page.DrawnTexts)-1]
	if after.Text != "after" || !near(after.Y, 673) {
		t.Fatalf("text after table = %+v", after)
	}
}

func TestRenderMarkdown_ImageFallsBackToAltText(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("![logo](logo.png)")

	texts := mb.texts()
	if len(texts) != 1 || texts[0].Text != "[logo]" || texts[0].Opts.Font != "Helvetica-Oblique" {
		t.Fatalf("texts = %+v", texts)
	}
	if len(mb.ImageFiles) != 0 {
		t.Fatalf("image loaded without an image directory")
	}
}

func TestRenderMarkdown_Image(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 2))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	mb := &MockBuilder{}
	engine := NewEngine(mb, WithImageDir(dir))
	engine.RenderMarkdown("Before\n\n![logo](logo.png)")

	if got := mb.ImageFiles["logo.png"]; got != filepath.Join(dir, "logo.png") {
		t.Fatalf("image path = %q", got)
	}
	page := mb.Pages[0]
	if len(page.DrawnImages) != 1 {
		t.Fatalf("images = %d", len(page.DrawnImages))
	}
	img := page.DrawnImages[0]
	// "Before" paragraph takes 14.4 plus 6 spacing
	if img.Name != "logo.png" || img.X != 50 || img.W != 495 || img.H != 247.5 || !near(img.Y, 791-20.4-247.5) {
		t.Fatalf("image = %+v", img)
	}
}

func TestRenderMarkdown_ThematicBreak(t *testing.T) {
	mb := &MockBuilder{}
	engine := NewEngine(mb)
	engine.RenderMarkdown("above\n\n---\n\nbelow")
	page := mb.Pages[0]
	if len(page.DrawnLines) != 1 || page.DrawnLines[0].LineWidth != 0.5 {
		t.Fatalf("lines = %+v", page.DrawnLines)
	}
	if got := strings.Join(textsOf(page.DrawnTexts), "|"); got != "above|below" {
		t.Fatalf("texts = %q", got)
	}
}
