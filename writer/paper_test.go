package writer

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/pdfwrite/contentstream"
	"github.com/wudi/pdfwrite/fonts"
)

func TestPageFormatSize(t *testing.T) {
	tests := []struct {
		format PageFormat
		w, h   float64
	}{
		{A4Portrait, 595, 841},
		{A4Landscape, 841, 595},
		{LetterPortrait, 612, 792},
		{LetterLandscape, 792, 612},
	}
	for _, tc := range tests {
		w, h := tc.format.Size()
		if w != tc.w || h != tc.h {
			t.Errorf("%+v: got %vx%v, want %vx%v", tc.format, w, h, tc.w, tc.h)
		}
	}
}

func TestParsePageFormat(t *testing.T) {
	f, err := ParsePageFormat(" Letter ", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f != LetterLandscape {
		t.Fatalf("got %+v", f)
	}
	if f, _ := ParsePageFormat("", false); f != A4Portrait {
		t.Fatalf("default = %+v", f)
	}
	if _, err := ParsePageFormat("a5", false); err == nil {
		t.Fatalf("expected error for unknown size")
	}
}

func TestPlaceImage(t *testing.T) {
	type rect struct{ X, Y, W, H float64 }
	tests := []struct {
		name      string
		aspect    float64
		placement ImagePlacement
		want      rect
	}{
		{"stretch", 0.5, Stretch, rect{0, 0, 100, 200}},
		{"wide center", 0.5, Center, rect{0, 75, 100, 50}},
		{"wide top", 0.5, LeftOrTop, rect{0, 150, 100, 50}},
		{"wide bottom", 0.5, RightOrBottom, rect{0, 0, 100, 50}},
		{"tall center", 4, Center, rect{25, 0, 50, 200}},
		{"tall left", 4, LeftOrTop, rect{0, 0, 50, 200}},
		{"tall right", 4, RightOrBottom, rect{50, 0, 50, 200}},
		{"same ratio", 2, Center, rect{0, 0, 100, 200}},
		{"no aspect", 0, Center, rect{0, 0, 100, 200}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y, w, h := PlaceImage(0, 0, 100, 200, tc.aspect, tc.placement)
			if diff := cmp.Diff(tc.want, rect{x, y, w, h}); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutputReadByPdfcpu(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	w, err := Create(path, Config{Title: "pdfcpu check", Author: "tester"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i, format := range []PageFormat{A4Portrait, LetterLandscape} {
		page := w.NewPageFormat(format)
		if _, err := page.DrawText(72, 400, "Page text", contentstream.TextOptions{Font: fonts.Courier, FontSize: float64(10 + i)}); err != nil {
			t.Fatalf("text: %v", err)
		}
		if _, err := page.DrawRectangle(50, 50, 100, 60, contentstream.GraphicsOptions{LineWidth: 2, Fill: true, Stroke: true}); err != nil {
			t.Fatalf("rect: %v", err)
		}
		if err := page.Close(); err != nil {
			t.Fatalf("close page: %v", err)
		}
	}
	if _, err := w.AddImage(gradient(16, 16)); err != nil {
		t.Fatalf("image: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	n, err := api.PageCountFile(path)
	if err != nil {
		t.Fatalf("pdfcpu: %v", err)
	}
	if n != 2 {
		t.Fatalf("pdfcpu counted %d pages", n)
	}
}
