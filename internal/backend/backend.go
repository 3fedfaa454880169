package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"g2pd/internal/dataset"
	"g2pd/internal/worker"
	"g2pd/pkg/types"
)

// Predictor converts a batch of grapheme strings into phoneme strings. It
// must return exactly one prediction per input, in input order.
type Predictor interface {
	PredictBatch(ctx context.Context, graphemes []string) ([]string, error)
}

// Batched runs a Predictor over a manifest. It satisfies g2p.Inferer.
type Batched struct {
	Predictor Predictor
	// Seed feeds batch shuffling when an InferConfig enables it.
	Seed   int64
	Logger *zerolog.Logger
}

// Infer loads the manifest named by cfg, predicts every batch on
// cfg.NumWorkers workers and returns the predictions in manifest order.
// Records left out by DropLast get no prediction.
func (b *Batched) Infer(ctx context.Context, cfg types.InferConfig) ([]string, error) {
	if b.Predictor == nil {
		return nil, fmt.Errorf("batched inference: no predictor")
	}
	ds, err := dataset.Load(cfg)
	if err != nil {
		return nil, err
	}
	batches := ds.Batches(b.Seed)
	if b.Logger != nil {
		b.Logger.Debug().Int("records", ds.Len()).Int("batches", len(batches)).Int("num_workers", cfg.NumWorkers).Msg("batched inference")
	}

	pool := worker.NewPool(ctx, cfg.NumWorkers)
	pool.Start()
	for _, batch := range batches {
		pool.Submit(&batchJob{predictor: b.Predictor, batch: batch})
	}
	results, err := pool.Wait()
	if err != nil {
		return nil, err
	}

	preds := make([]string, ds.Len())
	covered := make([]bool, ds.Len())
	n := 0
	for _, r := range results {
		br := r.(*batchResult)
		for j, idx := range br.batch.Indices {
			preds[idx] = br.phonemes[j]
			covered[idx] = true
			n++
		}
	}
	if n == len(preds) {
		return preds, nil
	}
	out := make([]string, 0, n)
	for i, ok := range covered {
		if ok {
			out = append(out, preds[i])
		}
	}
	return out, nil
}

type batchJob struct {
	predictor Predictor
	batch     dataset.Batch
}

type batchResult struct {
	batch    dataset.Batch
	phonemes []string
	err      error
}

func (r *batchResult) GetError() error { return r.err }

func (j *batchJob) Execute(ctx context.Context) worker.Result {
	out, err := j.predictor.PredictBatch(ctx, j.batch.Texts)
	if err == nil && len(out) != len(j.batch.Texts) {
		err = fmt.Errorf("predictor returned %d predictions for a batch of %d", len(out), len(j.batch.Texts))
	}
	return &batchResult{batch: j.batch, phonemes: out, err: err}
}
