package backend

import (
	"time"

	"github.com/rs/zerolog"
)

// Options carries backend tunables. Zero values select each backend's
// defaults.
type Options struct {
	Remote  RemoteOptions
	OpenAI  OpenAIOptions
	Llama   LlamaOptions
	Lexicon LexiconOptions
	Logger  *zerolog.Logger
}

// RemoteOptions configures the HTTP G2P client. URL falls back to the
// variant location.
type RemoteOptions struct {
	URL            string
	APIKey         string
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// RPS limits outgoing requests per second; 0 disables limiting.
	RPS   float64
	Burst int
}

// OpenAIOptions configures the chat-completions backend. Model falls back
// to the variant location.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LlamaOptions configures the in-process llama.cpp backend.
type LlamaOptions struct {
	CtxSize   int
	Threads   int
	MaxTokens int
}

// LexiconOptions configures the pronouncing-dictionary backend.
type LexiconOptions struct {
	CacheTTL time.Duration
}
