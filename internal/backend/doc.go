// Package backend provides the batched inference runtime behind the G2P
// driver and the registry of inference backends.
//
//   - backend.go: Predictor interface and Batched, which turns a Predictor
//     into an order-preserving g2p.Inferer (dataset load, batching, worker pool).
//   - registry.go: named Factory registry used to instantiate variants.
//   - options.go: backend tunables set by callers (no env lookups here).
//   - errors.go: dependency-unavailable error kind.
//
// Concrete backends live in subpackages: lexicon (pronouncing dictionary),
// remote (HTTP G2P server), openai (chat completions) and llama (in-process
// llama.cpp, build tag `llama`).
package backend
