// Package openai implements a G2P backend on top of an OpenAI-compatible
// chat-completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

const (
	defaultTimeout = 60 * time.Second
	systemPrompt   = "You convert text to phonemes (ARPAbet, space separated). " +
		"The user sends a JSON array of strings. Reply with only a JSON array of the " +
		"same length holding the transcription of each string, in order."
)

// Provider asks the chat model to transcribe a batch in one completion.
type Provider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New builds a provider for v. The model comes from the options, then the
// variant location, then gpt-4o-mini.
func New(v types.Variant, opts backend.Options) (*Provider, error) {
	if opts.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai variant %q: API key is required", v.Name)
	}
	cfg := openai.DefaultConfig(opts.OpenAI.APIKey)
	if opts.OpenAI.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.OpenAI.BaseURL, "/")
	}
	model := opts.OpenAI.Model
	if model == "" {
		model = strings.TrimSpace(v.Location)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := opts.OpenAI.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{client: openai.NewClientWithConfig(cfg), model: model, timeout: timeout}, nil
}

// Factory adapts New to backend.Factory.
func Factory(v types.Variant, opts backend.Options) (backend.Predictor, error) {
	p, err := New(v, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PredictBatch implements backend.Predictor.
func (p *Provider) PredictBatch(ctx context.Context, graphemes []string) ([]string, error) {
	if len(graphemes) == 0 {
		return []string{}, nil
	}
	in, err := json.Marshal(graphemes)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(in)},
		},
		// go-openai drops a zero temperature, which leaves the server
		// default of 1 in place.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}
	return parseReply(resp.Choices[0].Message.Content, len(graphemes))
}

// parseReply decodes the model's JSON array, tolerating a markdown code
// fence around it.
func parseReply(content string, want int) ([]string, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	if len(out) != want {
		return nil, fmt.Errorf("model returned %d transcriptions for %d inputs", len(out), want)
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out, nil
}
