package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"g2pd/internal/common/fsutil"
	"g2pd/pkg/types"
)

// backendByExt maps model file extensions to the backend serving them.
var backendByExt = map[string]string{
	".gguf": "llama",
	".dict": "lexicon",
}

// ScanDir scans a directory for *.gguf and *.dict files and builds variants
// from filenames. Name is the filename without extension; Location is the
// absolute file path.
func ScanDir(dir, family string) ([]types.Variant, error) {
	abs, err := fsutil.Resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var variants []types.Variant
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		backend, ok := backendByExt[ext]
		if !ok {
			continue
		}
		variants = append(variants, types.Variant{
			Name:     strings.TrimSuffix(name, filepath.Ext(name)),
			Location: filepath.Join(abs, name),
			Family:   family,
			Backend:  backend,
		})
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].Name < variants[j].Name })
	return variants, nil
}

// isModelFile reports whether ScanDir would pick up path.
func isModelFile(path string) bool {
	_, ok := backendByExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
