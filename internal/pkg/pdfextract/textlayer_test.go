package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF renders one Helvetica text line per page and returns the file
// bytes with a valid xref table.
func buildPDF(pages ...string) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func TestTextLayerPageTexts(t *testing.T) {
	path := writeFile(t, "doc.pdf", buildPDF("Hello", " ", "World"))

	pages, err := TextLayer{}.PageTexts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "", "World"}, pages)
}

func TestTextLayerExtract(t *testing.T) {
	path := writeFile(t, "doc.pdf", buildPDF("Hello", " ", "World"))

	text, err := New(TextLayer{}, nil, nil).Extract(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
}

func TestTextLayerCorruptedFile(t *testing.T) {
	good := buildPDF("Hello")
	cases := map[string][]byte{
		"not a pdf": []byte("plain text, no header"),
		"truncated": good[:len(good)/2],
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "bad.pdf", body)

			_, err := New(TextLayer{}, nil, nil).Extract(context.Background(), path, false)
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}
