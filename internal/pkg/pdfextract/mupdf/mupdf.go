// Package mupdf rasterizes PDF pages for OCR using MuPDF via go-fitz.
package mupdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"
)

// Renderer implements pdfextract.Rasterizer.
type Renderer struct {
	dpi      float64
	maxWidth int
}

// New renders at dpi; pages wider than maxWidth pixels are
// scaled down (maxWidth <= 0 disables scaling).
func New(dpi float64, maxWidth int) *Renderer {
	if dpi <= 0 {
		dpi = 300
	}
	return &Renderer{dpi: dpi, maxWidth: maxWidth}
}

func (r *Renderer) EachPage(ctx context.Context, path string, fn func(page int, png []byte) error) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("open pdf for rendering: %w", err)
	}
	defer doc.Close()

	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			return fmt.Errorf("render page %d: %w", i+1, err)
		}
		encoded, err := encodePNG(r.fit(img))
		if err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		if err := fn(i+1, encoded); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) fit(img image.Image) image.Image {
	return scaleToWidth(img, r.maxWidth)
}

func scaleToWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
