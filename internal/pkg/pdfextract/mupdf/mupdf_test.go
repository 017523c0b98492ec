package mupdf

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleToWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))

	scaled := scaleToWidth(src, 100)
	assert.Equal(t, 100, scaled.Bounds().Dx())
	assert.Equal(t, 50, scaled.Bounds().Dy())

	assert.Same(t, src, scaleToWidth(src, 0))
	assert.Same(t, src, scaleToWidth(src, 800))
}

func TestEncodePNG(t *testing.T) {
	out, err := encodePNG(image.NewGray(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), out[:4])
}

func TestEachPageMissingFile(t *testing.T) {
	r := New(0, 0)
	called := false
	err := r.EachPage(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), func(int, []byte) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
