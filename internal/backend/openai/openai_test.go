package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

func chatServer(t *testing.T, reply string) (*httptest.Server, *goopenai.ChatCompletionRequest) {
	t.Helper()
	var seen goopenai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&seen)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Choices: []goopenai.ChatCompletionChoice{{
				Index:        0,
				Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: reply},
				FinishReason: goopenai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestPredictBatch(t *testing.T) {
	srv, seen := chatServer(t, "```json\n[\"HH AH0 L OW1\", \" W ER1 L D \"]\n```")
	p, err := New(types.Variant{Name: "gpt", Location: "gpt-test"}, backend.Options{OpenAI: backend.OpenAIOptions{APIKey: "k", BaseURL: srv.URL}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := p.PredictBatch(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(got) != 2 || got[0] != "HH AH0 L OW1" || got[1] != "W ER1 L D" {
		t.Fatalf("unexpected: %q", got)
	}
	if seen.Model != "gpt-test" {
		t.Fatalf("model from variant location expected, got %q", seen.Model)
	}
	if len(seen.Messages) != 2 || seen.Messages[1].Content != `["hello","world"]` {
		t.Fatalf("unexpected messages: %+v", seen.Messages)
	}
}

func TestPredictBatchLengthMismatch(t *testing.T) {
	srv, _ := chatServer(t, `["only one"]`)
	p, _ := New(types.Variant{Name: "gpt"}, backend.Options{OpenAI: backend.OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "m"}})
	if _, err := p.PredictBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestPredictBatchEmpty(t *testing.T) {
	p, _ := New(types.Variant{Name: "gpt"}, backend.Options{OpenAI: backend.OpenAIOptions{APIKey: "k", BaseURL: "http://127.0.0.1:1"}})
	got, err := p.PredictBatch(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result without a call, got %v %v", got, err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := Factory(types.Variant{Name: "gpt"}, backend.Options{}); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestParseReplyRejectsProse(t *testing.T) {
	if _, err := parseReply("Sure! Here you go.", 1); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPredictBatchSendsNearZeroTemperature(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{
				Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: `["A"]`},
			}},
		})
	}))
	defer srv.Close()
	p, err := New(types.Variant{Name: "gpt"}, backend.Options{OpenAI: backend.OpenAIOptions{APIKey: "k", BaseURL: srv.URL}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := p.PredictBatch(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("predict: %v", err)
	}
	temp, ok := body["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request: %v", body)
	}
	if temp <= 0 || temp > 1e-6 {
		t.Fatalf("temperature = %v, want a value just above zero", temp)
	}
}
