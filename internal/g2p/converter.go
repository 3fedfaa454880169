// Package g2p drives grapheme-to-phoneme inference over JSON Lines
// manifests. A Converter reads a manifest, hands an order-preserving
// inference configuration to an injected Inferer, and writes every record
// back out with its prediction attached. It also lists the pretrained
// variants of its model family through an injected Resolver.
package g2p

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"g2pd/internal/manifest"
	"g2pd/pkg/types"
)

// Defaults applied when the corresponding Options fields are unset.
const (
	DefaultGraphemeField = "text_graphemes"
	DefaultPredField     = "pred_text"
	DefaultBatchSize     = 32
	DefaultFamily        = "G2PModel"

	progressEvery = 10000
)

// Inferer runs batched inference over the manifest named in cfg and returns
// one prediction per manifest line, in manifest order.
type Inferer interface {
	Infer(ctx context.Context, cfg types.InferConfig) ([]string, error)
}

// Resolver returns the pretrained variants reachable from a model family.
type Resolver interface {
	Resolve(ctx context.Context, family string) ([]types.Variant, error)
}

// Config wires a Converter.
type Config struct {
	Inferer  Inferer
	Resolver Resolver
	// Family is the model family whose variants ListAvailableModels reports.
	Family string
	Logger *zerolog.Logger
	Events EventPublisher
}

// Converter implements manifest conversion and variant listing.
type Converter struct {
	inferer  Inferer
	resolver Resolver
	family   string
	log      zerolog.Logger
	events   EventPublisher
}

// New constructs a Converter, applying defaults for unset fields.
func New(cfg Config) *Converter {
	c := &Converter{
		inferer:  cfg.Inferer,
		resolver: cfg.Resolver,
		family:   cfg.Family,
		log:      zerolog.Nop(),
		events:   cfg.Events,
	}
	if c.family == "" {
		c.family = DefaultFamily
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	}
	if c.events == nil {
		c.events = noopPublisher{}
	}
	return c
}

// Options describes one conversion. Zero values mean unspecified.
type Options struct {
	ManifestPath string
	// OutputPath receives the annotated manifest. When empty the predictions
	// are computed and returned without writing anything.
	OutputPath    string
	GraphemeField string
	BatchSize     int
	NumWorkers    int
	PredField     string
}

func (o Options) withDefaults() (Options, error) {
	if o.ManifestPath == "" {
		return o, invalidOptionError{msg: "manifest path is empty"}
	}
	if o.BatchSize < 0 {
		return o, invalidOptionError{msg: fmt.Sprintf("batch size must be positive, got %d", o.BatchSize)}
	}
	if o.NumWorkers < 0 {
		return o, invalidOptionError{msg: fmt.Sprintf("worker count must not be negative, got %d", o.NumWorkers)}
	}
	if o.GraphemeField == "" {
		o.GraphemeField = DefaultGraphemeField
	}
	if o.PredField == "" {
		o.PredField = DefaultPredField
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o, nil
}

// Convert predicts phonemes for every record of opts.ManifestPath and
// writes the records, each with opts.PredField set to its prediction, to
// opts.OutputPath. The output appears only once every line has been
// written. Errors from the Inferer are returned unchanged, except manifest
// parse errors, which gain the manifest path.
func (c *Converter) Convert(ctx context.Context, opts Options) (preds []string, err error) {
	opts, err = opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if c.inferer == nil {
		return nil, errors.New("no inference capability configured")
	}
	runID := xid.New().String()
	log := c.log.With().Str("run_id", runID).Str("manifest", opts.ManifestPath).Logger()
	c.events.Publish(Event{Name: EventConvertStart, RunID: runID, Fields: map[string]any{
		"manifest": opts.ManifestPath,
		"output":   opts.OutputPath,
	}})
	defer func() {
		if err != nil {
			log.Debug().Err(err).Msg("convert failed")
			c.events.Publish(Event{Name: EventConvertFailed, RunID: runID, Fields: map[string]any{
				"manifest": opts.ManifestPath,
				"error":    err.Error(),
			}})
		}
	}()

	if _, serr := os.Stat(opts.ManifestPath); serr != nil {
		return nil, fileNotFoundError{path: opts.ManifestPath, err: serr}
	}
	cfg := types.NewInferConfig(opts.ManifestPath, opts.GraphemeField, opts.BatchSize, opts.NumWorkers)
	log.Debug().Int("batch_size", cfg.BatchSize).Int("num_workers", cfg.NumWorkers).Msg("inference start")
	preds, err = c.inferer.Infer(ctx, cfg)
	if err != nil {
		var pe *manifest.ParseError
		if errors.As(err, &pe) {
			return nil, parseError{path: opts.ManifestPath, line: pe.Line, err: pe.Err}
		}
		return nil, err
	}

	records := len(preds)
	if opts.OutputPath != "" {
		if records, err = writePredictions(opts, preds, log); err != nil {
			return nil, err
		}
		log.Info().Str("output", opts.OutputPath).Int("records", records).Msg("predictions saved")
	} else {
		log.Info().Int("records", records).Msg("predictions computed (no output path)")
	}
	c.events.Publish(Event{Name: EventConvertDone, RunID: runID, Fields: map[string]any{
		"manifest": opts.ManifestPath,
		"output":   opts.OutputPath,
		"records":  records,
	}})
	return preds, nil
}

// writePredictions streams the manifest into the output file one record at
// a time and returns the number of records written.
func writePredictions(opts Options, preds []string, log zerolog.Logger) (int, error) {
	in, err := os.Open(opts.ManifestPath)
	if err != nil {
		return 0, fileNotFoundError{path: opts.ManifestPath, err: err}
	}
	defer in.Close()
	out, err := manifest.CreateAtomic(opts.OutputPath)
	if err != nil {
		return 0, fileNotFoundError{path: opts.OutputPath, err: err}
	}
	defer out.Abort()

	r := manifest.NewReader(in)
	w := manifest.NewWriter(out)
	n := 0
	for ; ; n++ {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *manifest.ParseError
			if errors.As(err, &pe) {
				return 0, parseError{path: opts.ManifestPath, line: pe.Line, err: pe.Err}
			}
			return 0, fmt.Errorf("read manifest: %w", err)
		}
		if n >= len(preds) {
			return 0, indexError{line: n + 1, predictions: len(preds)}
		}
		if err := rec.Set(opts.PredField, preds[n]); err != nil {
			return 0, err
		}
		if err := w.Write(rec); err != nil {
			return 0, fmt.Errorf("write output: %w", err)
		}
		if (n+1)%progressEvery == 0 {
			log.Debug().Int("records", n+1).Msg("writing predictions")
		}
	}
	if n != len(preds) {
		return 0, indexError{predictions: len(preds), records: n}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	if err := out.Commit(); err != nil {
		return 0, fmt.Errorf("finalize output: %w", err)
	}
	return n, nil
}

// ListAvailableModels returns the pretrained variants of the Converter's
// model family as reported by the Resolver.
func (c *Converter) ListAvailableModels(ctx context.Context) ([]types.Variant, error) {
	if c.resolver == nil {
		return nil, errors.New("no variant resolver configured")
	}
	return c.resolver.Resolve(ctx, c.family)
}
