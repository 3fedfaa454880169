// Package registry holds the explicit registry of pretrained G2P variants.
// Families form a specialisation tree through parent links; listing the
// variants of a base family walks every descendant.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"g2pd/pkg/types"
)

// Family is a concrete model family and the variants it contributes.
type Family struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	// Backend applies to variants that do not name one.
	Backend  string          `json:"backend,omitempty" yaml:"backend,omitempty" toml:"backend,omitempty"`
	Variants []types.Variant `json:"variants,omitempty" yaml:"variants,omitempty" toml:"variants,omitempty"`
}

// Catalog is the full family tree.
type Catalog struct {
	Families []Family `json:"families" yaml:"families" toml:"families"`
}

// LoadCatalog reads a catalog from a YAML, JSON or TOML file chosen by
// extension and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cat)
	case ".json":
		err = json.Unmarshal(b, &cat)
	case ".toml":
		err = toml.Unmarshal(b, &cat)
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks family names are unique and non-empty, parents exist,
// the parent links are acyclic and every variant is named.
func (c *Catalog) Validate() error {
	byName := make(map[string]*Family, len(c.Families))
	for i := range c.Families {
		f := &c.Families[i]
		if strings.TrimSpace(f.Name) == "" {
			return errInvalidCatalog("family #%d has no name", i+1)
		}
		if _, dup := byName[f.Name]; dup {
			return errInvalidCatalog("duplicate family %q", f.Name)
		}
		byName[f.Name] = f
		for j, v := range f.Variants {
			if strings.TrimSpace(v.Name) == "" {
				return errInvalidCatalog("family %q: variant #%d has no name", f.Name, j+1)
			}
		}
	}
	for _, f := range c.Families {
		if f.Parent == "" {
			continue
		}
		if _, ok := byName[f.Parent]; !ok {
			return errInvalidCatalog("family %q: unknown parent %q", f.Name, f.Parent)
		}
	}
	for _, f := range c.Families {
		seen := map[string]bool{f.Name: true}
		for p := f.Parent; p != ""; p = byName[p].Parent {
			if seen[p] {
				return errInvalidCatalog("family %q: parent cycle through %q", f.Name, p)
			}
			seen[p] = true
		}
	}
	return nil
}

// Family returns the family called name.
func (c *Catalog) Family(name string) (Family, bool) {
	for _, f := range c.Families {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}

// children indexes families by parent, keeping catalog order.
func (c *Catalog) children() map[string][]Family {
	out := make(map[string][]Family)
	for _, f := range c.Families {
		if f.Parent != "" {
			out[f.Parent] = append(out[f.Parent], f)
		}
	}
	return out
}

// descriptor fills the family and backend a variant inherits from f.
func descriptor(f Family, v types.Variant) types.Variant {
	if v.Family == "" {
		v.Family = f.Name
	}
	if v.Backend == "" {
		v.Backend = f.Backend
	}
	return v
}

// Lookup finds a variant by name anywhere in the catalog.
func (c *Catalog) Lookup(name string) (types.Variant, bool) {
	for _, f := range c.Families {
		for _, v := range f.Variants {
			if v.Name == name {
				return descriptor(f, v), true
			}
		}
	}
	return types.Variant{}, false
}
