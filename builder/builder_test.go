package builder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/pdfwrite/contentstream"
	"github.com/wudi/pdfwrite/fonts"
	"github.com/wudi/pdfwrite/writer"
	"github.com/wudi/pdfwrite/xref"
)

func newBuilder(t *testing.T) (PDFBuilder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w, err := writer.New(&buf, writer.Config{
		Author:        "tester",
		Deterministic: true,
		Now:           func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	return NewBuilder(w), &buf
}

func verify(t *testing.T, data []byte) {
	t.Helper()
	if _, err := xref.Verify(context.Background(), bytes.NewReader(data)); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBuilder_DrawTextWritesOneContentStream(t *testing.T) {
	b, buf := newBuilder(t)
	b.NewPage(200, 200).
		DrawText("Hello", 10, 20, TextOptions{
			Font:     "Helvetica-Bold",
			FontSize: 16,
			Color:    Color{R: 0.1, G: 0.2, B: 0.3},
		}).
		DrawRectangle(10, 10, 50, 20, RectOptions{LineWidth: 2, StrokeColor: Color{R: 1}}).
		Finish()
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	content := "q\nBT\n/HelvB 16 Tf\n0.1 0.2 0.3 rg\n19.2 TL\n10 20 Td\n(Hello) Tj\nET\nQ\n" +
		"q\n2 w\n1 0 0 RG\n10 10 50 20 re\ns\nQ\n"
	for _, want := range []string{
		"stream\n" + content + "\nendstream",
		"/BaseFont /Helvetica-Bold\n",
		"/Contents [6 0 R]\n",
		"/Type /Pages\n/Count 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
	verify(t, buf.Bytes())
}

func TestBuilder_UnknownFontIsSticky(t *testing.T) {
	b, buf := newBuilder(t)
	page := b.NewPage(100, 100)
	page.DrawText("x", 0, 0, TextOptions{Font: "Nope"})
	page.DrawLine(0, 0, 10, 10, LineOptions{})
	if !errors.Is(b.Err(), ErrUnknownFont) {
		t.Fatalf("expected ErrUnknownFont, got %v", b.Err())
	}
	page.Finish()
	if err := b.Close(); !errors.Is(err, ErrUnknownFont) {
		t.Fatalf("close: %v", err)
	}
	if strings.Contains(buf.String(), "stream\n") {
		t.Fatalf("content written after error")
	}
	verify(t, buf.Bytes())
}

func TestBuilder_DefaultFontIsFirstRegistered(t *testing.T) {
	b, buf := newBuilder(t)
	b.RegisterTrueTypeFont("Body", goregular.TTF).
		RegisterFont("Mono", fonts.Courier)
	b.NewPageFormat(writer.A4Portrait).
		DrawText("Go", 50, 700, TextOptions{}).
		DrawText("Mono", 50, 680, TextOptions{Font: "Mono", FontSize: 9}).
		Finish()
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"/Body 12 Tf\n", "/Cour 9 Tf\n", "/Subtype /TrueType\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
	verify(t, buf.Bytes())
}

func TestBuilder_BadTrueTypeData(t *testing.T) {
	b, _ := newBuilder(t)
	b.RegisterTrueTypeFont("Broken", []byte("not a font"))
	if b.Err() == nil {
		t.Fatalf("expected error")
	}
	b.Close()
}

func TestBuilder_MeasureText(t *testing.T) {
	b, _ := newBuilder(t)
	if got := b.MeasureText("Hello", 10, "Courier"); got != 30 {
		t.Fatalf("Courier width = %v", got)
	}
	want := fonts.StringWidth(fonts.Helvetica, "Hello", 12)
	if got := b.MeasureText("Hello", 0, "Unknown"); got != want {
		t.Fatalf("fallback width = %v, want %v", got, want)
	}
	if b.Err() != nil {
		t.Fatalf("measuring must not fail the builder: %v", b.Err())
	}
}

func TestBuilder_DrawImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	b, buf := newBuilder(t)
	b.AddImage("logo", img)
	b.NewPage(300, 300).
		DrawImage("logo", 10, 10, 100, 0, ImageOptions{}).
		DrawImage("logo", 0, 0, 0, 20, ImageOptions{}).
		DrawImage("logo", 0, 100, 100, 100, ImageOptions{Placement: writer.Center}).
		Finish()
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"q\n100 0 0 50 10 10 cm\n/XO5 Do\nQ\n",
		"q\n40 0 0 20 0 0 cm\n/XO5 Do\nQ\n",
		"q\n100 0 0 50 0 125 cm\n/XO5 Do\nQ\n",
		"/XObject << /XO5 5 0 R >>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}

	b2, _ := newBuilder(t)
	b2.NewPage(10, 10).DrawImage("missing", 0, 0, 1, 1, ImageOptions{})
	if !errors.Is(b2.Err(), writer.ErrUnknownXObject) {
		t.Fatalf("expected ErrUnknownXObject, got %v", b2.Err())
	}
	b2.Close()
}

func TestBuilder_CloseFinishesOpenPages(t *testing.T) {
	b, buf := newBuilder(t)
	b.NewPage(100, 100).DrawCircle(50, 50, 10, PathOptions{Fill: true})
	b.NewPage(100, 100).SetRotation(-90)
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Type /Pages\n/Count 2\n") {
		t.Fatalf("open pages not written")
	}
	if !strings.Contains(out, "/Rotate 270\n") {
		t.Fatalf("rotation missing")
	}
	verify(t, buf.Bytes())
}

func TestBuilder_DrawPathAndLine(t *testing.T) {
	var path contentstream.Path
	path.MoveTo(0, 0).LineTo(10, 0).LineTo(10, 10).Close()

	b, buf := newBuilder(t)
	b.NewPage(50, 50).
		DrawLine(0, 0, 5, 5, LineOptions{StrokeColor: Color{G: 1}, LineWidth: 1.5, DashPattern: []float64{3, 1}}).
		DrawPath(&path, PathOptions{Fill: true, FillColor: Color{B: 1}}).
		Finish()
	b.Close()
	out := buf.String()
	for _, want := range []string{
		"q\n1.5 w\n[3 1] 0 d\n0 1 0 RG\n0 0 m\n5 5 l\nS\nQ\n",
		"q\n0 0 1 rg\n0 0 m\n10 0 l\n10 10 l\nh\nf\nQ\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestBuilder_DrawTextBlockWraps(t *testing.T) {
	b, buf := newBuilder(t)
	b.NewPage(200, 200).
		DrawTextBlock("aaa bbb ccc", 10, 150, 35, TextOptions{Font: "Courier", FontSize: 10}).
		Finish()
	b.Close()
	if !strings.Contains(buf.String(), "(aaa) Tj\nT*\n(bbb) Tj\nT*\n(ccc) Tj\n") {
		t.Fatalf("text not wrapped:\n%s", buf.String())
	}
}

func TestBuilder_DrawTablePageBreak(t *testing.T) {
	b, buf := newBuilder(t)
	table := Table{Columns: []float64{80, 60}, HeaderRows: 1}
	table.Rows = append(table.Rows, TableRow{Cells: []TableCell{{Text: "Name"}, {Text: "Qty", HAlign: HAlignRight}}})
	for i := 0; i < 19; i++ {
		table.Rows = append(table.Rows, TableRow{Cells: []TableCell{{Text: "Row " + string(rune('A'+i))}, {Text: "1", HAlign: HAlignRight}}})
	}
	gray := contentstream.Gray(0.9)
	var finalY float64
	first := b.NewPage(200, 200)
	last := first.DrawTable(table, TableOptions{
		X:            10,
		TopMargin:    10,
		BottomMargin: 10,
		HeaderFill:   &gray,
		FinalY:       &finalY,
	})
	if last == first {
		t.Fatalf("table did not continue on a new page")
	}
	last.Finish()
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "/Type /Pages\n/Count 3\n") {
		t.Fatalf("expected three pages")
	}
	if n := strings.Count(out, "(Name) Tj"); n != 3 {
		t.Fatalf("header drawn %d times", n)
	}
	if !strings.Contains(out, "(Row S) Tj") {
		t.Fatalf("last row missing")
	}
	// 190 top edge, six rows of 12*1.2+8 on the last page
	if math.Abs(finalY-(190-6*22.4)) > 1e-6 {
		t.Fatalf("final y = %v", finalY)
	}
	verify(t, buf.Bytes())
}

func TestNormalizeRotation(t *testing.T) {
	for in, want := range map[int]int{0: 0, 90: 90, -90: 270, 450: 90, 100: 90, -360: 0} {
		if got := normalizeRotation(in); got != want {
			t.Errorf("normalizeRotation(%d) = %d, want %d", in, got, want)
		}
	}
}
