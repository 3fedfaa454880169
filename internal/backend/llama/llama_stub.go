//go:build !llama

package llama

import (
	"context"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

// Built reports whether this binary carries the llama.cpp runtime.
const Built = false

const unavailable = "llama support not built (missing 'llama' build tag)"

// Predictor is a stub that refuses to run without the 'llama' build tag.
type Predictor struct{}

// New always fails in builds without llama support.
func New(types.Variant, backend.Options) (*Predictor, error) {
	return nil, backend.ErrDependencyUnavailable(unavailable)
}

// Factory adapts New to backend.Factory.
func Factory(v types.Variant, opts backend.Options) (backend.Predictor, error) {
	p, err := New(v, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PredictBatch never succeeds in the stub.
func (p *Predictor) PredictBatch(ctx context.Context, _ []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, backend.ErrDependencyUnavailable(unavailable)
}

// Close is a no-op.
func (p *Predictor) Close() error { return nil }
