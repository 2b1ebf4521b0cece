package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/scanbill/scanbill/internal/preprocess"
	"github.com/scanbill/scanbill/internal/utils"
)

// Stage names for progress events.
const (
	StageValidate  = "validate"
	StageRecognize = "recognize"
	StagePage      = "page"
	StageDone      = "done"
)

// ProgressEvent describes one processing milestone.
type ProgressEvent struct {
	Document string `json:"document"`
	Stage    string `json:"stage"`
	Attempt  int    `json:"attempt,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ProgressFunc receives progress events. Callbacks run synchronously on
// the processing goroutine and must return quickly.
type ProgressFunc func(ProgressEvent)

func (p *Pipeline) emit(doc, stage string, attempt int, message string) {
	if p.progress == nil {
		return
	}
	p.progress(ProgressEvent{Document: doc, Stage: stage, Attempt: attempt, Message: message})
}

// NewConsoleProgress returns a ProgressFunc that writes one line per
// event, serialized so interleaved workers stay readable.
func NewConsoleProgress(w io.Writer) ProgressFunc {
	var mu sync.Mutex
	return func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Attempt > 0 {
			_, _ = fmt.Fprintf(w, "%s: %s (attempt %d) %s\n", ev.Document, ev.Stage, ev.Attempt, ev.Message)
			return
		}
		_, _ = fmt.Fprintf(w, "%s: %s %s\n", ev.Document, ev.Stage, ev.Message)
	}
}

// dumpVariants writes the generated variants as PNGs into the configured
// debug directory. Failures are logged by SaveImage's caller contract and
// never interrupt processing.
func (p *Pipeline) dumpVariants(variants []preprocess.Variant) {
	if err := os.MkdirAll(p.cfg.SaveVariantsDir, 0o750); err != nil {
		return
	}
	for i, v := range variants {
		name := fmt.Sprintf("%02d_%s.png", i+1, v.Kind)
		_ = utils.SaveImage(v.Image, filepath.Join(p.cfg.SaveVariantsDir, name))
	}
}
