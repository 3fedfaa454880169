// Package dataset loads the grapheme text of a manifest and splits it into
// inference batches.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"g2pd/internal/manifest"
	"g2pd/pkg/types"
)

// Dataset holds the grapheme strings of a manifest in line order.
type Dataset struct {
	Texts     []string
	batchSize int
	dropLast  bool
	shuffle   bool
}

// Batch is a group of records handed to a predictor together.
type Batch struct {
	// Indices are the 0-based manifest line numbers of the texts.
	Indices []int
	Texts   []string
}

// Load reads cfg.ManifestFilepath and extracts cfg.GraphemeField from every
// record.
func Load(cfg types.InferConfig) (*Dataset, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	f, err := os.Open(cfg.ManifestFilepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, cfg)
}

// Read is Load over an already opened manifest.
func Read(r io.Reader, cfg types.InferConfig) (*Dataset, error) {
	ds := &Dataset{batchSize: cfg.BatchSize, dropLast: cfg.DropLast, shuffle: cfg.Shuffle}
	if ds.batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	mr := manifest.NewReader(r)
	for {
		rec, err := mr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		text, ok := rec.String(cfg.GraphemeField)
		if !ok {
			return nil, fmt.Errorf("manifest line %d: missing string field %q", mr.Line(), cfg.GraphemeField)
		}
		ds.Texts = append(ds.Texts, text)
	}
	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Texts) }

// Batches splits the dataset into batches. Record order is permuted with
// seed only when shuffling is enabled, and the trailing partial batch is
// dropped only when drop-last is enabled.
func (d *Dataset) Batches(seed int64) []Batch {
	order := make([]int, len(d.Texts))
	for i := range order {
		order[i] = i
	}
	if d.shuffle {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	var out []Batch
	for start := 0; start < len(order); start += d.batchSize {
		end := start + d.batchSize
		if end > len(order) {
			if d.dropLast {
				break
			}
			end = len(order)
		}
		b := Batch{Indices: append([]int(nil), order[start:end]...), Texts: make([]string, 0, end-start)}
		for _, idx := range b.Indices {
			b.Texts = append(b.Texts, d.Texts[idx])
		}
		out = append(out, b)
	}
	return out
}
