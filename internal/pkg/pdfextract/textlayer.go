package pdfextract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextLayer reads embedded page text with ledongthuc/pdf.
type TextLayer struct{}

func (TextLayer) PageTexts(path string) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		// GetPlainText starts every text object on a new line.
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
