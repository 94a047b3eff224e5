package writer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wudi/pdfwrite/filters"
	"github.com/wudi/pdfwrite/ir/raw"
	"github.com/wudi/pdfwrite/observability"
)

// AddImage stores img as a JPEG image object. Transparent areas are
// composed onto white. The image is available to every page of the
// document.
func (w *Writer) AddImage(img image.Image) (raw.ObjectRef, error) {
	if err := w.usable(); err != nil {
		return raw.ObjectRef{}, err
	}
	if img == nil || img.Bounds().Empty() {
		return raw.ObjectRef{}, errors.New("writer: empty image")
	}
	src := w.downscale(img)
	gray := isGray(src)
	var flat image.Image
	if gray {
		flat = flattenGray(src)
	} else {
		flat = flattenRGB(src)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: w.cfg.JPEGQuality}); err != nil {
		return raw.ObjectRef{}, fmt.Errorf("encode image: %w", err)
	}
	b := flat.Bounds()
	return w.addJPEGObject(buf.Bytes(), b.Dx(), b.Dy(), gray)
}

// AddJPEG stores already encoded JPEG data without recompressing it. CMYK
// images are converted to RGB.
func (w *Writer) AddJPEG(data []byte) (raw.ObjectRef, error) {
	if err := w.usable(); err != nil {
		return raw.ObjectRef{}, err
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return raw.ObjectRef{}, fmt.Errorf("read jpeg: %w", err)
	}
	switch cfg.ColorModel {
	case color.GrayModel:
		return w.addJPEGObject(data, cfg.Width, cfg.Height, true)
	case color.YCbCrModel:
		if w.cfg.MaxImageDimension <= 0 || max(cfg.Width, cfg.Height) <= w.cfg.MaxImageDimension {
			return w.addJPEGObject(data, cfg.Width, cfg.Height, false)
		}
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return raw.ObjectRef{}, fmt.Errorf("decode jpeg: %w", err)
	}
	return w.AddImage(img)
}

// AddImageFile reads a JPEG, PNG, GIF, BMP, TIFF or WebP file.
func (w *Writer) AddImageFile(path string) (raw.ObjectRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return raw.ObjectRef{}, err
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return raw.ObjectRef{}, fmt.Errorf("%s: %w", path, err)
	}
	if format == "jpeg" {
		return w.AddJPEG(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return raw.ObjectRef{}, fmt.Errorf("%s: %w", path, err)
	}
	return w.AddImage(img)
}

func (w *Writer) addJPEGObject(data []byte, width, height int, gray bool) (raw.ObjectRef, error) {
	space := raw.Name("DeviceRGB")
	if gray {
		space = "DeviceGray"
	}
	obj := raw.NewObject()
	obj.Set("Subtype", raw.Name("Image")).
		Set("Width", raw.Integer(width)).
		Set("Height", raw.Integer(height)).
		Set("BitsPerComponent", raw.Integer(8)).
		Set("ColorSpace", space)
	obj.Stream = raw.NewBinaryStream(filters.DCTName, data)
	ref, err := w.AddXObject(obj)
	if err != nil {
		return raw.ObjectRef{}, err
	}
	w.ratios[ref] = float64(height) / float64(width)
	w.log.Debug("image added", observability.Int("num", ref.Num), observability.Int("width", width), observability.Int("height", height))
	return ref, nil
}

func (w *Writer) downscale(img image.Image) image.Image {
	limit := w.cfg.MaxImageDimension
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img
	}
	scale := float64(limit) / float64(max(b.Dx(), b.Dy()))
	dw := max(1, int(float64(b.Dx())*scale+0.5))
	dh := max(1, int(float64(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	if isGray(img) {
		return flattenGray(dst)
	}
	return dst
}

func isGray(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}

func flattenRGB(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func flattenGray(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
