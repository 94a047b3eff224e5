package writer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func TestAddImageRGB(t *testing.T) {
	w, buf := newTestWriter(t, testConfig())
	img := gradient(40, 20)
	img.Set(0, 0, color.RGBA{}) // transparent pixel is flattened onto white
	ref, err := w.AddImage(img)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if ratio, ok := w.ImageAspectRatio(ref); !ok || ratio != 0.5 {
		t.Fatalf("ratio = %v %v", ratio, ok)
	}
	page := w.NewPageFormat(A4Portrait)
	if _, err := page.DrawImageRef(10, 10, ref, 100, 100, Center); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if _, err := page.DrawImageWidth(0, 0, ref, 80); err != nil {
		t.Fatalf("draw width: %v", err)
	}
	page.Close()
	w.Close()
	out := buf.String()
	for _, want := range []string{
		"5 0 obj\n<<\n/Subtype /Image\n/Width 40\n/Height 20\n/BitsPerComponent 8\n/ColorSpace /DeviceRGB\n/Type /XObject\n/Name /XO5\n/Length ",
		"/Filter [/DCTDecode]\n>>\nstream\n\xff\xd8",
		"q\n100 0 0 50 10 35 cm\n/XO5 Do\nQ\n",
		"q\n80 0 0 40 0 0 cm\n/XO5 Do\nQ\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
	verify(t, buf.Bytes())
}

func TestAddImageGray(t *testing.T) {
	w, buf := newTestWriter(t, testConfig())
	img := image.NewGray(image.Rect(0, 0, 8, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	if _, err := w.AddImage(img); err != nil {
		t.Fatalf("add: %v", err)
	}
	w.Close()
	if !strings.Contains(buf.String(), "/Width 8\n/Height 16\n/BitsPerComponent 8\n/ColorSpace /DeviceGray\n") {
		t.Fatalf("gray image not written as DeviceGray")
	}
}

func TestAddImageEmpty(t *testing.T) {
	w, _ := newTestWriter(t, testConfig())
	if _, err := w.AddImage(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Fatalf("expected error for empty image")
	}
	if _, err := w.AddImage(nil); err == nil {
		t.Fatalf("expected error for nil image")
	}
}

func TestMaxImageDimension(t *testing.T) {
	cfg := testConfig()
	cfg.MaxImageDimension = 100
	w, buf := newTestWriter(t, cfg)
	ref, err := w.AddImage(gradient(400, 200))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	w.Close()
	if !strings.Contains(buf.String(), "/Width 100\n/Height 50\n") {
		t.Fatalf("image not downscaled")
	}
	if ratio, _ := w.ImageAspectRatio(ref); ratio != 0.5 {
		t.Fatalf("ratio = %v", ratio)
	}
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: 75}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b.Bytes()
}

func TestAddJPEGPassthrough(t *testing.T) {
	data := encodeJPEG(t, gradient(30, 60))
	w, buf := newTestWriter(t, testConfig())
	ref, err := w.AddJPEG(data)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	w.Close()
	if !bytes.Contains(buf.Bytes(), data) {
		t.Fatalf("jpeg data was re-encoded")
	}
	if ratio, _ := w.ImageAspectRatio(ref); ratio != 2 {
		t.Fatalf("ratio = %v", ratio)
	}
	verify(t, buf.Bytes())
}

func TestAddJPEGDownscales(t *testing.T) {
	data := encodeJPEG(t, gradient(300, 150))
	cfg := testConfig()
	cfg.MaxImageDimension = 60
	w, buf := newTestWriter(t, cfg)
	if _, err := w.AddJPEG(data); err != nil {
		t.Fatalf("add: %v", err)
	}
	w.Close()
	if bytes.Contains(buf.Bytes(), data) || !strings.Contains(buf.String(), "/Width 60\n/Height 30\n") {
		t.Fatalf("oversized jpeg not downscaled")
	}
}

func TestAddJPEGInvalid(t *testing.T) {
	w, _ := newTestWriter(t, testConfig())
	if _, err := w.AddJPEG([]byte("not a jpeg")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAddImageFile(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "a.png")
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, gradient(12, 6)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pngPath, pngData.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	bmpPath := filepath.Join(dir, "b.bmp")
	var bmpData bytes.Buffer
	if err := bmp.Encode(&bmpData, gradient(6, 12)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bmpPath, bmpData.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	jpgPath := filepath.Join(dir, "c.jpg")
	jpgData := encodeJPEG(t, gradient(9, 9))
	if err := os.WriteFile(jpgPath, jpgData, 0o644); err != nil {
		t.Fatal(err)
	}

	w, buf := newTestWriter(t, testConfig())
	for _, p := range []string{pngPath, bmpPath, jpgPath} {
		if _, err := w.AddImageFile(p); err != nil {
			t.Fatalf("%s: %v", p, err)
		}
	}
	if _, err := w.AddImageFile(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	w.Close()
	out := buf.String()
	for _, want := range []string{"/Width 12\n/Height 6\n", "/Width 6\n/Height 12\n", "/Width 9\n/Height 9\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
	if !bytes.Contains(buf.Bytes(), jpgData) {
		t.Fatalf("jpeg file was re-encoded")
	}
}

func TestDrawImage(t *testing.T) {
	w, buf := newTestWriter(t, testConfig())
	page := w.NewPage(300, 300)
	if _, err := page.DrawImage(0, 0, gradient(10, 40), 100, 100, RightOrBottom); err != nil {
		t.Fatalf("draw: %v", err)
	}
	page.Close()
	w.Close()
	if !strings.Contains(buf.String(), "q\n25 0 0 100 75 0 cm\n/XO5 Do\nQ\n") {
		t.Fatalf("image not placed at the right edge")
	}
}
