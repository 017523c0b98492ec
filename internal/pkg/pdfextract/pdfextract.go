// Package pdfextract turns a PDF file into plain text, either from the
// embedded text layer or by rasterizing each page and running OCR.
package pdfextract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrExtraction reports an unreadable document (corrupted, encrypted, ...).
var ErrExtraction = errors.New("pdf extraction failed")

// PageTextReader returns the text layer of every page, in page order.
type PageTextReader interface {
	PageTexts(path string) ([]string, error)
}

// Rasterizer renders pages to PNG images, calling fn once per page in order.
type Rasterizer interface {
	EachPage(ctx context.Context, path string, fn func(page int, png []byte) error) error
}

// Recognizer runs OCR over a single image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Extractor struct {
	text   PageTextReader
	raster Rasterizer
	ocr    Recognizer
}

func New(text PageTextReader, raster Rasterizer, ocr Recognizer) *Extractor {
	return &Extractor{
		text:   text,
		raster: raster,
		ocr:    ocr,
	}
}

// Extract returns the document text. With scanned set, every page goes
// through OCR; otherwise only the text layer is read.
func (e *Extractor) Extract(ctx context.Context, path string, scanned bool) (string, error) {
	if scanned {
		return e.extractScanned(ctx, path)
	}
	pages, err := e.text.PageTexts(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return JoinTextPages(pages), nil
}

func (e *Extractor) extractScanned(ctx context.Context, path string) (string, error) {
	if e.raster == nil || e.ocr == nil {
		return "", fmt.Errorf("%w: ocr is not configured", ErrExtraction)
	}

	var pages []string
	err := e.raster.EachPage(ctx, path, func(page int, png []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := e.ocr.Recognize(ctx, png)
		if err != nil {
			return fmt.Errorf("ocr page %d: %w", page, err)
		}
		pages = append(pages, text)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return JoinOCRPages(pages), nil
}

// JoinTextPages joins trimmed pages with a single space, skipping pages with
// no text or only whitespace.
func JoinTextPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, " ")
}

// JoinOCRPages joins every page with a single space, empty ones included, so
// a blank page still leaves its separator behind.
func JoinOCRPages(pages []string) string {
	return strings.Join(pages, " ")
}
