package types

// Variant describes a pretrained G2P model variant that can be instantiated
// by one of the inference backends.
type Variant struct {
	// Unique variant name.
	// example: g2p_t5_en
	Name string `json:"name" yaml:"name" toml:"name" example:"g2p_t5_en"`
	// Human-friendly description.
	// example: English G2P, ARPAbet output
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" example:"English G2P, ARPAbet output"`
	// Where the model lives: a URL, a server-side model id or an absolute path.
	// example: /models/g2p/cmudict-0.7b.dict
	Location string `json:"location" yaml:"location" toml:"location" example:"/models/g2p/cmudict-0.7b.dict"`
	// Concrete model family contributing this variant.
	// example: LexiconG2PModel
	Family string `json:"family,omitempty" yaml:"family,omitempty" toml:"family,omitempty" example:"LexiconG2PModel"`
	// Inference backend able to serve the variant (lexicon, remote, openai, llama).
	// example: lexicon
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" toml:"backend,omitempty" example:"lexicon"`
}

// InferConfig is the configuration handed to an inference capability.
// Build it with NewInferConfig; shuffling and partial-batch dropping are
// always disabled so predictions line up with manifest lines.
type InferConfig struct {
	ManifestFilepath string `json:"manifest_filepath"`
	GraphemeField    string `json:"grapheme_field"`
	DropLast         bool   `json:"drop_last"`
	Shuffle          bool   `json:"shuffle"`
	BatchSize        int    `json:"batch_size"`
	NumWorkers       int    `json:"num_workers"`
}

// NewInferConfig returns an order-preserving inference configuration.
func NewInferConfig(manifestPath, graphemeField string, batchSize, numWorkers int) InferConfig {
	return InferConfig{
		ManifestFilepath: manifestPath,
		GraphemeField:    graphemeField,
		DropLast:         false,
		Shuffle:          false,
		BatchSize:        batchSize,
		NumWorkers:       numWorkers,
	}
}
