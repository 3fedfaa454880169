package registry

import (
	"sort"

	"g2pd/pkg/types"
)

// Resolve lists the variants contributed by every descendant of base. The
// base family's own variants are not included. Results carry the family
// that contributed them, are de-duplicated by location (by name when the
// location is empty) and sorted by name.
func (c *Catalog) Resolve(base string) ([]types.Variant, error) {
	if _, ok := c.Family(base); !ok {
		return nil, ErrFamilyNotFound(base)
	}
	kids := c.children()
	seen := make(map[string]bool)
	out := []types.Variant{}
	var walk func(parent string)
	walk = func(parent string) {
		for _, f := range kids[parent] {
			for _, v := range f.Variants {
				d := descriptor(f, v)
				key := "loc:" + d.Location
				if d.Location == "" {
					key = "name:" + d.Name
				}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, d)
			}
			walk(f.Name)
		}
	}
	walk(base)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
