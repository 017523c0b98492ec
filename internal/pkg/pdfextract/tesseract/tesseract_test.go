package tesseract

import (
	"context"
	"testing"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLanguages(t *testing.T) {
	available := []string{"eng", "osd", "deu"}

	assert.NoError(t, checkLanguages("eng", available))
	assert.NoError(t, checkLanguages("eng+deu", available))

	err := checkLanguages("fra", available)
	assert.ErrorIs(t, err, ErrLanguageUnavailable)
	assert.ErrorContains(t, err, "fra")

	err = checkLanguages("eng+jpn+fra", available)
	assert.ErrorIs(t, err, ErrLanguageUnavailable)
	assert.ErrorContains(t, err, "jpn, fra")

	assert.ErrorIs(t, checkLanguages("eng", nil), ErrLanguageUnavailable)
}

func TestNewRejectsMissingLanguage(t *testing.T) {
	engine, err := New("xx_not_installed", 1)
	assert.Error(t, err)
	assert.Nil(t, engine)
}

func newTestEngine(size int) *Engine {
	e := &Engine{clients: make(chan *gosseract.Client, size)}
	for i := 0; i < size; i++ {
		client := gosseract.NewClient()
		e.all = append(e.all, client)
		e.clients <- client
	}
	return e
}

func TestRecognizeWaitsForFreeClient(t *testing.T) {
	e := newTestEngine(1)
	held := <-e.clients

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.Recognize(ctx, []byte("png"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	e.clients <- held
	require.NoError(t, e.Close())
}

func TestCloseFreesEveryClientOnce(t *testing.T) {
	e := newTestEngine(3)

	require.NoError(t, e.Close())
	assert.Empty(t, e.clients)
	require.NoError(t, e.Close())
}
