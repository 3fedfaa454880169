package manager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"g2pd/internal/backend"
	"g2pd/internal/registry"
	"g2pd/pkg/types"
)

// fakePredictor upper-cases its input. When gate is set, every batch waits
// for it after signalling entered.
type fakePredictor struct {
	mu      sync.Mutex
	calls   int
	closed  bool
	entered chan struct{}
	gate    chan struct{}
	short   bool
}

func (f *fakePredictor) PredictBatch(ctx context.Context, in []string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakePredictor) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// fakeBackends registers a "fake" backend that hands out pred and counts
// how many predictors were created.
func fakeBackends(pred *fakePredictor, created *int) *backend.Registry {
	r := backend.NewRegistry()
	r.Register("fake", func(v types.Variant, opts backend.Options) (backend.Predictor, error) {
		if created != nil {
			*created++
		}
		return pred, nil
	})
	return r
}

func testCatalog() *registry.Catalog {
	return &registry.Catalog{Families: []registry.Family{
		{Name: "G2PModel"},
		{Name: "FakeG2PModel", Parent: "G2PModel", Backend: "fake", Variants: []types.Variant{
			{Name: "upper", Location: "mem://upper"},
			{Name: "alt", Location: "mem://alt"},
		}},
		{Name: "Broken", Parent: "G2PModel", Backend: "missing", Variants: []types.Variant{
			{Name: "nobackend", Location: "mem://none"},
		}},
	}}
}

func newTestManager(t *testing.T, pred *fakePredictor, mut func(*ManagerConfig)) *Manager {
	t.Helper()
	cfg := ManagerConfig{
		Store:          registry.NewStaticStore(testCatalog()),
		Backends:       fakeBackends(pred, nil),
		DefaultVariant: "upper",
		MaxWait:        time.Second,
	}
	if mut != nil {
		mut(&cfg)
	}
	m := NewWithConfig(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func writeManifest(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	p := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return p
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
