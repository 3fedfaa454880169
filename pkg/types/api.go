package types

// ConvertRequest represents a manifest conversion request payload.
type ConvertRequest struct {
	// Optional variant name. If empty, the server default is used.
	// example: cmudict
	Model string `json:"model,omitempty" example:"cmudict"`
	// Required path of the input JSON Lines manifest (server side).
	// example: /data/test_manifest.json
	Manifest string `json:"manifest" example:"/data/test_manifest.json"`
	// Path of the output manifest. When empty, predictions are only returned.
	// example: /data/test_manifest_pred.json
	Output string `json:"output,omitempty" example:"/data/test_manifest_pred.json"`
	// Field holding the grapheme text.
	// example: text_graphemes
	GraphemeField string `json:"grapheme_field,omitempty" example:"text_graphemes"`
	// Field the predictions are written to.
	// example: pred_text
	PredField string `json:"pred_field,omitempty" example:"pred_text"`
	// Inference batch size.
	// example: 32
	BatchSize int `json:"batch_size,omitempty" example:"32"`
	// Number of inference workers (0 runs batches in the request goroutine).
	// Absent means the server default; an explicit 0 overrides it.
	// example: 0
	NumWorkers *int `json:"num_workers,omitempty" example:"0"`
	// If true, the predictions are echoed back in the response.
	// example: false
	ReturnPredictions bool `json:"return_predictions,omitempty" example:"false"`
}

// ConvertResponse is returned by POST /convert.
type ConvertResponse struct {
	// Variant that served the conversion.
	Model string `json:"model"`
	// Output manifest path (empty when nothing was written).
	Output string `json:"output,omitempty"`
	// Number of records converted.
	// example: 2
	Records int `json:"records" example:"2"`
	// Predictions in manifest order, when requested.
	Predictions []string `json:"predictions,omitempty"`
}

// PredictRequest is the payload of POST /v1/g2p.
type PredictRequest struct {
	// Optional variant name. If empty, the server default is used.
	Model string `json:"model,omitempty"`
	// Grapheme strings to convert.
	// example: ["hello","world"]
	Graphemes []string `json:"graphemes"`
}

// PredictResponse is returned by POST /v1/g2p.
type PredictResponse struct {
	// Phoneme strings, index-aligned to the request graphemes.
	// example: ["HH AH L OW","W ER L D"]
	Phonemes []string `json:"phonemes"`
}

// ModelsResponse wraps the list of variants returned by GET /models.
type ModelsResponse struct {
	// List of available variants.
	Models []Variant `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// InstanceStatus summarizes a backend instance for /status.
type InstanceStatus struct {
	// Variant served by this instance.
	// example: cmudict
	Model string `json:"model" example:"cmudict"`
	// Backend kind.
	// example: lexicon
	Backend string `json:"backend" example:"lexicon"`
	// Last time this instance served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Conversions served by this instance.
	// example: 3
	Conversions uint64 `json:"conversions" example:"3"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Instantiated backend instances.
	Instances []InstanceStatus `json:"instances"`
	// Output paths with a conversion queued or running.
	// example: 1
	ActiveOutputs int `json:"active_outputs" example:"1"`
	// Maximum queued conversions per output path.
	// example: 8
	MaxQueueDepth int `json:"max_queue_depth" example:"8"`
	// Total successful conversions.
	// example: 12
	ConversionsTotal uint64 `json:"conversions_total" example:"12"`
	// Total failed conversions.
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Total records written across conversions.
	// example: 4096
	RecordsTotal uint64 `json:"records_total" example:"4096"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
