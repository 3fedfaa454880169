//go:build !llama

package llama

import (
	"context"
	"testing"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

func TestStubReportsDependencyUnavailable(t *testing.T) {
	if Built {
		t.Fatalf("stub must report Built=false")
	}
	_, err := Factory(types.Variant{Name: "g", Location: "/models/g2p.gguf"}, backend.Options{})
	if !backend.IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	var p Predictor
	if _, err := p.PredictBatch(context.Background(), []string{"a"}); !backend.IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable from stub predictor, got %v", err)
	}
}
