package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"g2pd/internal/common/fsutil"
	"g2pd/pkg/types"
)

// DefaultModelsFamily names the family holding variants found by ScanDir.
const DefaultModelsFamily = "LocalG2PModel"

// StoreConfig describes where the catalog comes from. Zero values mean
// "not configured".
type StoreConfig struct {
	// CatalogPath is an optional YAML/JSON/TOML catalog file.
	CatalogPath string
	// ModelsDir is an optional directory scanned for model files.
	ModelsDir string
	// ModelsFamily is the family scanned variants belong to.
	ModelsFamily string
	// Root is the base family; it is added when the catalog lacks it and
	// is the parent of the scanned family.
	Root   string
	Logger *zerolog.Logger
}

// Store is a concurrency-safe holder of the current catalog. It implements
// the driver's resolver and can hot-reload its sources.
type Store struct {
	cfg    StoreConfig
	logger zerolog.Logger

	mu  sync.RWMutex
	cat *Catalog
}

// NewStore builds the catalog from cfg.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.ModelsFamily == "" {
		cfg.ModelsFamily = DefaultModelsFamily
	}
	if cfg.CatalogPath != "" {
		p, err := fsutil.Resolve(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cfg.CatalogPath = p
	}
	if cfg.ModelsDir != "" {
		p, err := fsutil.Resolve(cfg.ModelsDir)
		if err != nil {
			return nil, err
		}
		cfg.ModelsDir = p
	}
	s := &Store{cfg: cfg, logger: zerolog.Nop()}
	if cfg.Logger != nil {
		s.logger = *cfg.Logger
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an in-memory catalog; Watch is a no-op for it.
func NewStaticStore(cat *Catalog) *Store {
	if cat == nil {
		cat = &Catalog{}
	}
	return &Store{logger: zerolog.Nop(), cat: cat}
}

func (s *Store) build() (*Catalog, error) {
	cat := &Catalog{}
	if s.cfg.CatalogPath != "" {
		loaded, err := LoadCatalog(s.cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}
	if s.cfg.Root != "" {
		if _, ok := cat.Family(s.cfg.Root); !ok {
			cat.Families = append(cat.Families, Family{Name: s.cfg.Root})
		}
	}
	if s.cfg.ModelsDir != "" {
		variants, err := ScanDir(s.cfg.ModelsDir, s.cfg.ModelsFamily)
		if err != nil {
			return nil, fmt.Errorf("scan models dir: %w", err)
		}
		if _, exists := cat.Family(s.cfg.ModelsFamily); exists {
			return nil, errInvalidCatalog("family %q is reserved for scanned models", s.cfg.ModelsFamily)
		}
		cat.Families = append(cat.Families, Family{Name: s.cfg.ModelsFamily, Parent: s.cfg.Root, Variants: variants})
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Reload rebuilds the catalog from its sources. On failure the current
// catalog stays in place.
func (s *Store) Reload() error {
	cat, err := s.build()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cat = cat
	s.mu.Unlock()
	return nil
}

// Catalog returns the current catalog. Callers must not modify it.
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat
}

// Resolve lists the variants available under base.
func (s *Store) Resolve(ctx context.Context, base string) ([]types.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Catalog().Resolve(base)
}

// Lookup finds a variant by name.
func (s *Store) Lookup(name string) (types.Variant, bool) {
	return s.Catalog().Lookup(name)
}

// Watch reloads the catalog when the catalog file or the models directory
// changes. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.cfg.CatalogPath == "" && s.cfg.ModelsDir == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	catalogPath := ""
	if s.cfg.CatalogPath != "" {
		catalogPath = s.cfg.CatalogPath
		// Watch the directory so editors that replace the file are seen.
		if err := watcher.Add(filepath.Dir(catalogPath)); err != nil {
			return fmt.Errorf("watch catalog dir: %w", err)
		}
	}
	modelsDir := ""
	if s.cfg.ModelsDir != "" {
		modelsDir = s.cfg.ModelsDir
		if err := watcher.Add(modelsDir); err != nil {
			return fmt.Errorf("watch models dir %q: %w", modelsDir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, _ := filepath.Abs(event.Name)
			relevant := (catalogPath != "" && name == catalogPath) ||
				(modelsDir != "" && filepath.Dir(name) == modelsDir && isModelFile(name))
			if !relevant {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn().Err(err).Str("file", event.Name).Msg("catalog reload failed; keeping previous catalog")
				continue
			}
			s.logger.Info().Str("file", event.Name).Msg("catalog reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
