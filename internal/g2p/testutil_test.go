package g2p

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"g2pd/pkg/types"
)

// fakeInferer returns canned predictions and records the configs it saw.
type fakeInferer struct {
	preds []string
	err   error
	calls []types.InferConfig
}

func (f *fakeInferer) Infer(ctx context.Context, cfg types.InferConfig) ([]string, error) {
	f.calls = append(f.calls, cfg)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(f.preds))
	copy(out, f.preds)
	return out, nil
}

type fakeResolver struct {
	variants []types.Variant
	err      error
	families []string
}

func (f *fakeResolver) Resolve(ctx context.Context, family string) ([]types.Variant, error) {
	f.families = append(f.families, family)
	return f.variants, f.err
}

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(b)
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
