package registry

import (
	"os"
	"path/filepath"
	"testing"
)

const yamlCatalog = `families:
  - name: G2PModel
  - name: T5G2PModel
    parent: G2PModel
    backend: remote
    variants:
      - name: t5_en
        location: http://g2p.local:8080
  - name: LexiconG2PModel
    parent: G2PModel
    backend: lexicon
    variants:
      - name: cmudict
        location: /models/cmudict.dict
`

const jsonCatalog = `{"families":[{"name":"G2PModel"},{"name":"A","parent":"G2PModel","variants":[{"name":"a1","location":"/m/a1.dict","backend":"lexicon"}]}]}`

const tomlCatalog = `[[families]]
name = "G2PModel"

[[families]]
name = "A"
parent = "G2PModel"
backend = "lexicon"

[[families.variants]]
name = "a1"
location = "/m/a1.dict"
`

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCatalogFormats(t *testing.T) {
	cases := []struct {
		name, file, content string
		families            int
	}{
		{"yaml", "c.yaml", yamlCatalog, 3},
		{"json", "c.json", jsonCatalog, 2},
		{"toml", "c.toml", tomlCatalog, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat, err := LoadCatalog(writeCatalog(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(cat.Families) != tc.families {
				t.Fatalf("families = %d, want %d", len(cat.Families), tc.families)
			}
			if v, ok := cat.Lookup(cat.Families[1].Variants[0].Name); !ok || v.Family == "" || v.Backend == "" {
				t.Fatalf("lookup did not inherit family/backend: %+v %v", v, ok)
			}
		})
	}
}

func TestLoadCatalogUnsupportedExt(t *testing.T) {
	if _, err := LoadCatalog(writeCatalog(t, "c.ini", "x")); err == nil {
		t.Fatalf("expected error for .ini")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cat  Catalog
	}{
		{"empty family name", Catalog{Families: []Family{{Name: ""}}}},
		{"duplicate", Catalog{Families: []Family{{Name: "A"}, {Name: "A"}}}},
		{"unknown parent", Catalog{Families: []Family{{Name: "A", Parent: "B"}}}},
		{"cycle", Catalog{Families: []Family{{Name: "A", Parent: "B"}, {Name: "B", Parent: "A"}}}},
		{"self parent", Catalog{Families: []Family{{Name: "A", Parent: "A"}}}},
		{"unnamed variant", Catalog{Families: []Family{{Name: "A", Variants: []variantT{{Location: "/x"}}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cat.Validate()
			if !IsInvalidCatalog(err) {
				t.Fatalf("expected invalid catalog error, got %v", err)
			}
		})
	}
	ok := Catalog{Families: []Family{{Name: "Root"}, {Name: "A", Parent: "Root"}, {Name: "B", Parent: "A"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid catalog rejected: %v", err)
	}
}
