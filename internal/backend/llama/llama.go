//go:build llama

package llama

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"g2pd/internal/backend"
	"g2pd/internal/common/fsutil"
	"g2pd/pkg/types"
)

// Built reports whether this binary carries the llama.cpp runtime.
const Built = true

// Predictor owns a loaded model. llama.cpp contexts are not safe for
// concurrent use, so predictions are serialized.
type Predictor struct {
	mu        sync.Mutex
	model     *llama.LLama
	threads   int
	maxTokens int
}

// New loads the GGUF model at the variant location.
func New(v types.Variant, opts backend.Options) (*Predictor, error) {
	path, err := fsutil.ExpandHome(strings.TrimSpace(v.Location))
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(path, llama.SetContext(zn(opts.Llama.CtxSize, defaultCtxSize)))
	if err != nil {
		return nil, backend.ErrDependencyUnavailable("load llama model " + path + ": " + err.Error())
	}
	return &Predictor{
		model:     m,
		threads:   zn(opts.Llama.Threads, defaultThreads),
		maxTokens: zn(opts.Llama.MaxTokens, defaultMaxTokens),
	}, nil
}

// Factory adapts New to backend.Factory.
func Factory(v types.Variant, opts backend.Options) (backend.Predictor, error) {
	p, err := New(v, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PredictBatch prompts the model once per grapheme string.
func (p *Predictor) PredictBatch(ctx context.Context, graphemes []string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	p.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	out := make([]string, len(graphemes))
	for i, g := range graphemes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := p.model.Predict(prompt(g),
			llama.SetTokens(p.maxTokens),
			llama.SetThreads(p.threads),
			llama.SetTemperature(0),
			llama.SetStopWords("\n"),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		out[i] = cleanCompletion(text)
	}
	return out, nil
}

// Close frees the model.
func (p *Predictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model != nil {
		p.model.Free()
		p.model = nil
	}
	return nil
}
