// Package llama serves GGUF G2P models in-process through go-llama.cpp.
//
// The real implementation is compiled with the 'llama' build tag; default
// builds get a stub whose factory fails with a dependency-unavailable error,
// keeping CI and plain `go build` CGO-free.
package llama

import (
	"fmt"
	"strings"
)

const (
	defaultCtxSize   = 512
	defaultThreads   = 4
	defaultMaxTokens = 64
)

// prompt frames one grapheme string for completion.
func prompt(text string) string {
	return fmt.Sprintf("Graphemes: %s\nPhonemes:", strings.TrimSpace(text))
}

// cleanCompletion keeps the first line of the model output.
func cleanCompletion(out string) string {
	out = strings.TrimSpace(out)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
