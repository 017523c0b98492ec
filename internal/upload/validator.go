package upload

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Rejection reasons. Their messages are shown to the user verbatim.
var (
	ErrEmptyFile       = errors.New("empty file")
	ErrTooLarge        = errors.New("too large")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrInvalidContent  = errors.New("invalid content")
	ErrValidation      = errors.New("validation error")
)

const sniffLen = 2048

// DefaultMaxSize is 200 MB.
const DefaultMaxSize int64 = 200 << 20

var defaultAllowed = map[string]string{
	"pdf": "application/pdf",
}

type Validator struct {
	maxSize int64
	allowed map[string]string // extension -> expected MIME type
}

func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Validator{
		maxSize: maxSize,
		allowed: defaultAllowed,
	}
}

func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate runs the size, extension and content checks in order and stops at
// the first failure. A nil result means the file is accepted. The reader is
// left positioned at offset 0.
func (v *Validator) Validate(name string, size int64, r io.ReadSeeker) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = ErrValidation
		}
	}()

	switch {
	case size == 0:
		return ErrEmptyFile
	case size < 0:
		return ErrValidation
	case size > v.maxSize:
		return ErrTooLarge
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	expected, ok := v.allowed[ext]
	if !ok {
		return ErrUnsupportedType
	}

	detected, err := sniff(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !detected.Is(expected) {
		return ErrInvalidContent
	}
	return nil
}

// Reason returns the user-facing text for a Validate error.
func Reason(err error) string {
	for _, known := range []error{ErrEmptyFile, ErrTooLarge, ErrUnsupportedType, ErrInvalidContent} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrValidation.Error()
}

func sniff(r io.ReadSeeker) (detected *mimetype.MIME, err error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek upload failed: %w", err)
	}
	defer func() {
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("rewind upload failed: %w", seekErr)
		}
	}()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload prefix failed: %w", err)
	}
	return mimetype.Detect(buf[:n]), nil
}
