package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/scanbill/scanbill/internal/utils"
)

// InitializationError reports a failure to bring up the recognition engine.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("engine initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// RecognitionError reports a failure inside a single recognition attempt.
type RecognitionError struct {
	Config string
	Err    error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition with config %q failed: %v", e.Config, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Word is a single recognized token with its engine confidence.
type Word struct {
	Text       string
	Confidence float64 // 0-100
	Box        image.Rectangle
}

// RawResult is the unscored output of one recognition call.
type RawResult struct {
	Text       string
	Confidence float64 // mean word confidence, 0-100
	Words      []Word
}

// Tesseract owns a single gosseract client session. The session keeps
// per-call state (image, segmentation mode, variables), so calls are
// serialized through a mutex and every attempt reconfigures the session
// completely before invoking recognition.
type Tesseract struct {
	config Config
	client *gosseract.Client
	mu     sync.Mutex
	closed bool
}

// New creates a Tesseract engine and applies the configured language set.
func New(config Config) (*Tesseract, error) {
	if err := config.Validate(); err != nil {
		return nil, &InitializationError{Err: err}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(config.Languages...); err != nil {
		_ = client.Close()
		return nil, &InitializationError{Err: fmt.Errorf("set languages %v: %w", config.Languages, err)}
	}

	return &Tesseract{config: config, client: client}, nil
}

// Config returns the engine configuration.
func (t *Tesseract) Config() Config {
	return t.config
}

// Recognize runs one recognition pass over img using the given catalog
// entry. The context is checked before the engine is invoked; a running
// Tesseract call itself is not interruptible.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, rc RecognitionConfig) (RawResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return RawResult{}, &RecognitionError{Config: rc.Name, Err: errors.New("engine is closed")}
	}
	if img == nil {
		return RawResult{}, &RecognitionError{Config: rc.Name, Err: errors.New("image is nil")}
	}
	select {
	case <-ctx.Done():
		return RawResult{}, ctx.Err()
	default:
	}

	data, err := utils.EncodePNG(img)
	if err != nil {
		return RawResult{}, &RecognitionError{Config: rc.Name, Err: fmt.Errorf("encode image: %w", err)}
	}
	if err := t.configure(data, rc); err != nil {
		return RawResult{}, &RecognitionError{Config: rc.Name, Err: err}
	}

	text, err := t.client.Text()
	if err != nil {
		return RawResult{}, &RecognitionError{Config: rc.Name, Err: fmt.Errorf("recognize text: %w", err)}
	}

	words, meanConf := t.collectWords()
	return RawResult{
		Text:       strings.TrimSpace(text),
		Confidence: meanConf,
		Words:      words,
	}, nil
}

func (t *Tesseract) configure(imageData []byte, rc RecognitionConfig) error {
	if err := t.client.SetImageFromBytes(imageData); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	if err := t.client.SetPageSegMode(rc.SegMode); err != nil {
		return fmt.Errorf("set segmentation mode: %w", err)
	}
	if err := t.client.SetWhitelist(rc.Whitelist); err != nil {
		return fmt.Errorf("set whitelist: %w", err)
	}
	if t.config.DPI > 0 {
		if err := t.client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(t.config.DPI)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range rc.Overrides {
		if err := t.client.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	return nil
}

func (t *Tesseract) collectWords() ([]Word, float64) {
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}

	words := make([]Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
		words = append(words, Word{Text: b.Word, Confidence: b.Confidence, Box: b.Box})
	}
	return words, sum / float64(len(words))
}

// Close releases the underlying Tesseract session. Safe to call more than
// once.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.client.Close()
}
