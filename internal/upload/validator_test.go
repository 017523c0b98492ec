package upload

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error)        { return 0, errors.New("disk gone") }
func (failingReader) Seek(int64, int) (int64, error) { return 0, nil }

func TestValidate(t *testing.T) {
	v := NewValidator(1 << 20)

	tests := []struct {
		name    string
		file    string
		size    int64
		content []byte
		want    error
	}{
		{name: "empty file", file: "a.pdf", size: 0, content: nil, want: ErrEmptyFile},
		{name: "empty file with wrong extension", file: "a.txt", size: 0, content: nil, want: ErrEmptyFile},
		{name: "too large pdf", file: "a.pdf", size: 1<<20 + 1, content: pdfBytes, want: ErrTooLarge},
		{name: "too large wrong type", file: "a.exe", size: 5 << 20, content: pngBytes, want: ErrTooLarge},
		{name: "unsupported extension", file: "notes.txt", size: 10, content: pdfBytes, want: ErrUnsupportedType},
		{name: "no extension", file: "report", size: 10, content: pdfBytes, want: ErrUnsupportedType},
		{name: "png disguised as pdf", file: "scan.pdf", size: int64(len(pngBytes)), content: pngBytes, want: ErrInvalidContent},
		{name: "plain text disguised as pdf", file: "x.pdf", size: 5, content: []byte("hello"), want: ErrInvalidContent},
		{name: "valid pdf", file: "paper.pdf", size: int64(len(pdfBytes)), content: pdfBytes, want: nil},
		{name: "uppercase extension", file: "PAPER.PDF", size: int64(len(pdfBytes)), content: pdfBytes, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.file, tt.size, bytes.NewReader(tt.content))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want.Error(), Reason(err))
		})
	}
}

func TestValidateRestoresCursor(t *testing.T) {
	v := NewValidator(0)
	content := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("x"), 4096)...)
	r := bytes.NewReader(content)

	require.NoError(t, v.Validate("big.pdf", int64(len(content)), r))

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, all)
}

func TestValidateReadFailureIsGeneric(t *testing.T) {
	v := NewValidator(0)
	err := v.Validate("a.pdf", 100, failingReader{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation error", Reason(err))
}

func TestDefaultMaxSize(t *testing.T) {
	assert.Equal(t, int64(200<<20), NewValidator(0).MaxSize())
}
