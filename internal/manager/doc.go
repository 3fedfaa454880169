// Package manager coordinates G2P conversions for the HTTP API and the CLI.
// It is structured into small files by concern:
//
//   - manager.go: core Manager type, model listing, conversion and prediction.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: internal state types (Instance, output slots).
//   - errors.go: error types and helpers (IsTooBusy, IsModelNotFound).
//   - backends.go: default backend factories and per-variant instances.
//   - queue_admission.go: per-output-path queueing and admission.
//   - status_report.go: Status reporting.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// Conversions writing to the same output path are serialised; the driver in
// package g2p is single-threaded and never guards the output itself.
//
// External packages should treat this package as the orchestration layer and use
// public methods only (NewWithConfig, Ready, ListModels, Convert, Predict, Status, Close).
package manager
