// Package tesseract implements pdfextract.Recognizer on top of Tesseract OCR.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// ErrLanguageUnavailable means the tesseract data for a language is not installed.
var ErrLanguageUnavailable = errors.New("ocr language data not installed")

// Engine recognizes text with a fixed set of gosseract clients. Each client
// holds a native tesseract handle, so the set is bounded and Close frees it.
type Engine struct {
	clients chan *gosseract.Client
	all     []*gosseract.Client
	once    sync.Once
}

// New opens size clients for language, a "+"-joined list such as "eng+deu".
// size <= 0 means one client per CPU.
func New(language string, size int) (*Engine, error) {
	if language == "" {
		language = "eng"
	}
	available, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("list ocr languages: %w", err)
	}
	if err := checkLanguages(language, available); err != nil {
		return nil, err
	}

	if size <= 0 {
		size = runtime.NumCPU()
	}
	e := &Engine{clients: make(chan *gosseract.Client, size)}
	langs := strings.Split(language, "+")
	for i := 0; i < size; i++ {
		client := gosseract.NewClient()
		if err := client.SetLanguage(langs...); err != nil {
			_ = client.Close()
			_ = e.Close()
			return nil, fmt.Errorf("set ocr language %q: %w", language, err)
		}
		e.all = append(e.all, client)
		e.clients <- client
	}
	return e, nil
}

// checkLanguages reports every requested language missing from available.
func checkLanguages(language string, available []string) error {
	have := make(map[string]struct{}, len(available))
	for _, lang := range available {
		have[lang] = struct{}{}
	}
	var missing []string
	for _, lang := range strings.Split(language, "+") {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if _, ok := have[lang]; !ok {
			missing = append(missing, lang)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrLanguageUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	var client *gosseract.Client
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case client = <-e.clients:
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	// The client goes back only once tesseract is done with it.
	go func() {
		defer func() { e.clients <- client }()
		if err := client.SetImageFromBytes(image); err != nil {
			done <- result{err: fmt.Errorf("set ocr image: %w", err)}
			return
		}
		text, err := client.Text()
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.text, res.err
	}
}

// Close waits for in-flight recognitions to hand their clients back, then
// frees every client.
func (e *Engine) Close() error {
	var errs []error
	e.once.Do(func() {
		for range e.all {
			client := <-e.clients
			if err := client.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
