package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"g2pd/internal/httpapi"
	"g2pd/internal/manager"
	"g2pd/internal/registry"
	"g2pd/pkg/types"
)

// createTempModelsDir creates a directory of tiny pronouncing dictionaries,
// one per name, each knowing HELLO and WORLD.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		writeFile(t, filepath.Join(dir, n+".dict"), "HELLO  HH AH0 L OW1\nWORLD  W ER1 L D\n")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeManifest(t *testing.T, dir string, words ...string) string {
	t.Helper()
	var b strings.Builder
	for _, w := range words {
		line, _ := json.Marshal(map[string]string{"text_graphemes": w})
		b.Write(line)
		b.WriteByte('\n')
	}
	p := filepath.Join(dir, "manifest.json")
	writeFile(t, p, b.String())
	return p
}

// newServer wires a real store, manager and HTTP mux behind httptest.
func newServer(t *testing.T, scfg registry.StoreConfig, cfg manager.ManagerConfig) (*httptest.Server, *registry.Store, *manager.Manager) {
	t.Helper()
	if scfg.Root == "" {
		scfg.Root = "G2PModel"
	}
	store, err := registry.NewStore(scfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	cfg.Store = store
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, store, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func modelNames(t *testing.T, body []byte) []string {
	t.Helper()
	var resp types.ModelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("/models json: %v body=%s", err, body)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names
}
